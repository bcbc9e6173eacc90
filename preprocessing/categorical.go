// Package preprocessing はテーブルを学習器向けの数値行列へ変換する前処理を提供する。
package preprocessing

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/koalaml/koala-lightgbm/core/model"
	"github.com/koalaml/koala-lightgbm/core/parallel"
	"github.com/koalaml/koala-lightgbm/core/table"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/pkg/log"
)

var _ model.TableTransformer[*TransformScheme] = (*CategoricalTransformer)(nil)

// DefaultIsCategorical は数値でない列 (文字列列) をカテゴリ列とみなす。
// 整数列は数値として扱われるので、カテゴリにしたい場合は明示的に指定する。
func DefaultIsCategorical(k table.Kind) bool {
	return k == table.String
}

// ColumnScheme は1つのカテゴリ列の学習済みエンコーディング。
// Kind に対応するフィールドだけが設定される。
type ColumnScheme struct {
	Column  string                `json:"column"`
	Kind    table.Kind            `json:"kind"`
	Strings *ToIntScheme[string]  `json:"strings,omitempty"`
	Ints    *ToIntScheme[int64]   `json:"ints,omitempty"`
	Floats  *ToIntScheme[float64] `json:"floats,omitempty"`
}

func fitColumnScheme(c *table.Column, sorted bool) (*ColumnScheme, error) {
	cs := &ColumnScheme{Column: c.Name, Kind: c.Kind}
	var err error
	switch c.Kind {
	case table.String:
		cs.Strings, err = FitToIntScheme(c.Strings, sorted, true)
	case table.Int:
		cs.Ints, err = FitToIntScheme(c.Ints, sorted, true)
	case table.Float:
		cs.Floats, err = FitToIntScheme(c.Floats, sorted, true)
	default:
		return nil, errors.NewValidationError("kind", "unsupported column kind", c.Kind.String())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "column '%s'", c.Name)
	}
	return cs, nil
}

// Len はカテゴリ数を返す
func (cs *ColumnScheme) Len() int {
	switch cs.Kind {
	case table.String:
		return cs.Strings.Len()
	case table.Int:
		return cs.Ints.Len()
	default:
		return cs.Floats.Len()
	}
}

// Classes は学習した値をコード順に返す
func (cs *ColumnScheme) Classes() []interface{} {
	out := make([]interface{}, 0, cs.Len())
	switch cs.Kind {
	case table.String:
		for _, v := range cs.Strings.Values {
			out = append(out, v)
		}
	case table.Int:
		for _, v := range cs.Ints.Values {
			out = append(out, v)
		}
	default:
		for _, v := range cs.Floats.Values {
			out = append(out, v)
		}
	}
	return out
}

// Inverse はコードを元の値に戻す
func (cs *ColumnScheme) Inverse(code int) (interface{}, error) {
	switch cs.Kind {
	case table.String:
		return cs.Strings.Inverse(code)
	case table.Int:
		return cs.Ints.Inverse(code)
	default:
		return cs.Floats.Inverse(code)
	}
}

func (cs *ColumnScheme) valid() bool {
	switch cs.Kind {
	case table.String:
		return cs.Strings != nil
	case table.Int:
		return cs.Ints != nil
	case table.Float:
		return cs.Floats != nil
	}
	return false
}

// encode は列をコード化して out に書き込み、未知の値の個数を返す
func (cs *ColumnScheme) encode(c *table.Column, out []float64) (int, error) {
	if c.Kind != cs.Kind {
		return 0, errors.NewDataConversionError(c.Name, c.Kind.String(), cs.Kind.String())
	}
	unseen := 0
	put := func(i, code int, err error) error {
		if err != nil {
			return errors.Wrapf(err, "column '%s'", c.Name)
		}
		if code < 0 {
			unseen++
		}
		out[i] = float64(code)
		return nil
	}
	for i := 0; i < c.Len(); i++ {
		var code int
		var err error
		switch cs.Kind {
		case table.String:
			code, err = cs.Strings.Encode(c.Strings[i])
		case table.Int:
			code, err = cs.Ints.Encode(c.Ints[i])
		default:
			code, err = cs.Floats.Encode(c.Floats[i])
		}
		if err := put(i, code, err); err != nil {
			return unseen, err
		}
	}
	return unseen, nil
}

// TransformScheme は CategoricalTransformer.Fit の結果。
//
// Features は保持する特徴量名 (順序付き)、Categorical はそのうちのカテゴリ列、
// Schemes は Categorical と同じ順序の列ごとのエンコーディング。
type TransformScheme struct {
	Features    []string        `json:"features"`
	Categorical []string        `json:"categorical"`
	Schemes     []*ColumnScheme `json:"schemes"`
}

// Validate はスキームの不変条件を検査する
func (s *TransformScheme) Validate() error {
	if len(s.Schemes) != len(s.Categorical) {
		return errors.NewValidationError("schemes", "must align with categorical features", len(s.Schemes))
	}
	for i, name := range s.Categorical {
		if !slices.Contains(s.Features, name) {
			return errors.NewUnresolvedFeatureError("Validate", name, s.Features)
		}
		cs := s.Schemes[i]
		if cs == nil || cs.Column != name || !cs.valid() {
			return errors.NewValidationError("schemes", "scheme does not match categorical feature", name)
		}
	}
	return nil
}

// Scheme は指定したカテゴリ列のエンコーディングを返す
func (s *TransformScheme) Scheme(name string) (*ColumnScheme, bool) {
	i := slices.Index(s.Categorical, name)
	if i < 0 {
		return nil, false
	}
	return s.Schemes[i], true
}

// Kinds は Transform が受け付ける列の型を返す。カテゴリ列は学習時の型、
// それ以外の特徴量は Float。CSV などから読み直すときに型推定の代わりに使う。
func (s *TransformScheme) Kinds() map[string]table.Kind {
	kinds := make(map[string]table.Kind, len(s.Features))
	for _, name := range s.Features {
		kinds[name] = table.Float
	}
	for _, cs := range s.Schemes {
		if cs != nil {
			kinds[cs.Column] = cs.Kind
		}
	}
	return kinds
}

// CategoricalIndices はカテゴリ列の Features 内での位置を返す。
// 解決できない名前があれば UnresolvedFeatureError を返す。
func (s *TransformScheme) CategoricalIndices() ([]int, error) {
	idx := make([]int, len(s.Categorical))
	for i, name := range s.Categorical {
		j := slices.Index(s.Features, name)
		if j < 0 {
			return nil, errors.NewUnresolvedFeatureError("CategoricalIndices", name, s.Features)
		}
		idx[i] = j
	}
	return idx, nil
}

// CategoricalTransformer はカテゴリ列を整数コードへ変換する。
//
// 使用例:
//
//	tr := preprocessing.NewCategoricalTransformer(false)
//	scheme, err := tr.Fit(tbl, true, 0)
//	X, err := tr.Transform(scheme, tbl)
type CategoricalTransformer struct {
	// Sorted はカテゴリをソート順でコード化するかどうか (false なら初出順)
	Sorted bool

	// Features は明示的なカテゴリ列名。空なら IsCategorical で推定する。
	Features []string

	// IsCategorical は列の型からカテゴリ列かどうかを判定する。nil なら DefaultIsCategorical。
	IsCategorical func(table.Kind) bool
}

// NewCategoricalTransformer は新しい CategoricalTransformer を作成する
func NewCategoricalTransformer(sorted bool, categorical ...string) *CategoricalTransformer {
	return &CategoricalTransformer{
		Sorted:        sorted,
		Features:      categorical,
		IsCategorical: DefaultIsCategorical,
	}
}

func (ct *CategoricalTransformer) resolve(t *table.Table) ([]*table.Column, error) {
	if len(ct.Features) > 0 {
		if missing := t.Missing(ct.Features); len(missing) > 0 {
			return nil, errors.NewSchemaError("Fit", missing)
		}
		var cols []*table.Column
		for _, c := range t.Columns() {
			if slices.Contains(ct.Features, c.Name) {
				cols = append(cols, c)
			}
		}
		return cols, nil
	}

	isCat := ct.IsCategorical
	if isCat == nil {
		isCat = DefaultIsCategorical
	}
	var cols []*table.Column
	for _, c := range t.Columns() {
		if isCat(c.Kind) {
			cols = append(cols, c)
		}
	}
	return cols, nil
}

// Fit はカテゴリ列ごとに ToIntScheme を学習し TransformScheme を返す。
// parallel が true の場合、列ごとの学習を並列に行う。
func (ct *CategoricalTransformer) Fit(t *table.Table, parallelize bool, verbosity int) (*TransformScheme, error) {
	logger := log.WithVerbosity(log.GetLoggerWithName("preprocessing"), verbosity).With(
		log.ModelNameKey, "CategoricalTransformer",
		log.OperationKey, log.OperationFit,
	)
	start := time.Now()

	cols, err := ct.resolve(t)
	if err != nil {
		logger.Error("categorical fit failed", err, log.ErrorCodeKey, log.ErrorSchemaMismatch)
		return nil, err
	}

	schemes := make([]*ColumnScheme, len(cols))
	errs := make([]error, len(cols))
	workers := 1
	if parallelize {
		workers = 0
	}
	parallel.ParallelizeN(len(cols), workers, func(s, e int) {
		for i := s; i < e; i++ {
			schemes[i], errs[i] = fitColumnScheme(cols[i], ct.Sorted)
		}
	})
	for _, err := range errs {
		if err != nil {
			logger.Error("categorical fit failed", err, log.ErrorCodeKey, log.ErrorInvalidInput)
			return nil, err
		}
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		logger.Debug("column encoded", log.ColumnKey, c.Name, log.CategoriesKey, schemes[i].Len())
	}

	logger.Info("categorical fit completed",
		log.SamplesKey, t.NumRows(),
		log.FeaturesKey, t.NumCols(),
		log.CategoricalKey, names,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &TransformScheme{
		Features:    t.Names(),
		Categorical: names,
		Schemes:     schemes,
	}, nil
}

// Transform はスキームに従ってテーブルを行列 (行数 × len(Features)) に変換する。
//
// テーブルが Features を全て含まなければ SchemaError、カテゴリでない文字列列は
// DataConversionError を返す。未知のカテゴリは -1 になり警告が出る。
func (ct *CategoricalTransformer) Transform(scheme *TransformScheme, t *table.Table) (*mat.Dense, error) {
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	projected, err := t.Select(scheme.Features...)
	if err != nil {
		return nil, errors.NewSchemaError("Transform", t.Missing(scheme.Features))
	}

	rows, cols := projected.NumRows(), projected.NumCols()
	if rows == 0 || cols == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Transform")
	}

	// 列優先で埋めてから転置コピーする
	colMajor := make([]float64, rows*cols)
	for j, c := range projected.Columns() {
		dst := colMajor[j*rows : (j+1)*rows]
		if cs, ok := scheme.Scheme(c.Name); ok {
			unseen, err := cs.encode(c, dst)
			if err != nil {
				return nil, err
			}
			if unseen > 0 {
				errors.Warn(errors.NewUnseenCategoryWarning(c.Name, unseen))
			}
			continue
		}
		for i := 0; i < rows; i++ {
			v, ok := c.AsFloat64(i)
			if !ok {
				return nil, errors.NewUndeclaredCategoricalError(c.Name, c.Kind.String())
			}
			dst[i] = v
		}
	}

	out := mat.NewDense(rows, cols, nil)
	out.Copy(mat.NewDense(cols, rows, colMajor).T())
	return out, nil
}

// FitTransform は Fit と Transform を続けて実行する
func (ct *CategoricalTransformer) FitTransform(t *table.Table, parallelize bool, verbosity int) (*TransformScheme, *mat.Dense, error) {
	scheme, err := ct.Fit(t, parallelize, verbosity)
	if err != nil {
		return nil, nil, err
	}
	X, err := ct.Transform(scheme, t)
	if err != nil {
		return nil, nil, err
	}
	return scheme, X, nil
}
