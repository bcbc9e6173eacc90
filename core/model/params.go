package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// パラメータマップの値を型変換するヘルパー群。
// YAML や map リテラル由来の値 (int, float64, string, []interface{}) を受け付ける。

// ToString は文字列パラメータを取り出す
func ToString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.Newf("expected string, got %T", v)
	}
	return s, nil
}

// ToInt は整数パラメータに変換する。小数部を持つ浮動小数点数はエラー
func ToInt(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if ferr != nil {
				return 0, errors.Newf("cannot parse %q as integer", x)
			}
			return floatToInt(f)
		}
		return n, nil
	default:
		return 0, errors.Newf("expected integer, got %T", v)
	}
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errors.Newf("expected integer, got %v", f)
	}
	return int64(f), nil
}

// ToFloat は数値パラメータに変換する
func ToFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, errors.Newf("cannot parse %q as number", x)
		}
		return f, nil
	default:
		n, err := ToInt(v)
		if err != nil {
			return 0, errors.Newf("expected number, got %T", v)
		}
		return float64(n), nil
	}
}

// ToBool は真偽値パラメータに変換する。0/1 も受け付ける
func ToBool(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, errors.Newf("cannot parse %q as bool", x)
		}
		return b, nil
	default:
		n, err := ToInt(v)
		if err != nil || (n != 0 && n != 1) {
			return false, errors.Newf("expected bool, got %v", v)
		}
		return n == 1, nil
	}
}

// ToStringList はカンマ区切り文字列またはリストを文字列スライスに変換する
func ToStringList(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		parts := strings.Split(x, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	case []string:
		return append([]string(nil), x...), nil
	case []interface{}:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Newf("expected string list element, got %T", e)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, errors.Newf("expected string list, got %T", v)
	}
}

// ToIntList は整数リストに変換する
func ToIntList(v interface{}) ([]int, error) {
	switch x := v.(type) {
	case []int:
		return append([]int(nil), x...), nil
	case []int64:
		out := make([]int, len(x))
		for i, n := range x {
			out[i] = int(n)
		}
		return out, nil
	case []interface{}:
		out := make([]int, len(x))
		for i, e := range x {
			n, err := ToInt(e)
			if err != nil {
				return nil, err
			}
			out[i] = int(n)
		}
		return out, nil
	case string:
		parts, _ := ToStringList(x)
		out := make([]int, len(parts))
		for i, s := range parts {
			n, err := ToInt(s)
			if err != nil {
				return nil, err
			}
			out[i] = int(n)
		}
		return out, nil
	default:
		return nil, errors.Newf("expected integer list, got %T", v)
	}
}
