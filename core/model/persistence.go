package model

import (
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// SaveModel はモデルを MessagePack 形式でファイルに保存する
//
// 使用例:
//
//	bundle := &Bundle{Scheme: scheme, Booster: booster}
//	err := model.SaveModel(bundle, "model.msgpack")
func SaveModel(v interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "failed to close file")
		}
	}()
	return SaveModelToWriter(v, file)
}

// LoadModel はファイルからモデルを読み込む。v はポインタでなければならない。
func LoadModel(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return LoadModelFromReader(v, file)
}

// SaveModelToWriter はモデルを io.Writer に保存する
func SaveModelToWriter(v interface{}, w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader は io.Reader からモデルを読み込む
func LoadModelFromReader(v interface{}, r io.Reader) error {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
