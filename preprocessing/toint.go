package preprocessing

import (
	"cmp"
	"slices"
	"sync"

	"github.com/koalaml/koala-lightgbm/pkg/errors"
)

// ToIntScheme は列の値を 0..k-1 の整数コードへ写像する学習済みスキーム。
//
// 学習後は不変で、複数のゴルーチンから同時に Encode できる。
// コードは初出順 (Sorted == false) またはソート順 (Sorted == true) で割り当てられる。
// NaN はひとつのカテゴリとして扱われる。
type ToIntScheme[T cmp.Ordered] struct {
	// Values はコード順の値 (Values[code] == value)
	Values []T `json:"values"`

	// Sorted はソート順でコードを割り当てたかどうか
	Sorted bool `json:"sorted"`

	// MapUnseenToMinusOne が true の場合、未知の値は -1 に写像される。
	// false の場合は UnseenValueError を返す。
	MapUnseenToMinusOne bool `json:"map_unseen_to_minus_one"`

	once    sync.Once
	codes   map[T]int
	nanCode int
}

// FitToIntScheme は values から整数エンコーディングを学習する
//
// 使用例:
//
//	s, err := preprocessing.FitToIntScheme([]string{"NY", "LA", "NY"}, false, true)
//	code, _ := s.Encode("LA") // 1
func FitToIntScheme[T cmp.Ordered](values []T, sorted, mapUnseenToMinusOne bool) (*ToIntScheme[T], error) {
	if len(values) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "ToIntScheme: cannot fit on an empty column")
	}

	seen := make(map[T]struct{}, 16)
	distinct := make([]T, 0, 16)
	hasNaN := false
	for _, v := range values {
		if v != v {
			if !hasNaN {
				hasNaN = true
				distinct = append(distinct, v)
			}
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	if sorted {
		slices.SortFunc(distinct, cmp.Compare[T])
	}

	return &ToIntScheme[T]{
		Values:              distinct,
		Sorted:              sorted,
		MapUnseenToMinusOne: mapUnseenToMinusOne,
	}, nil
}

func (s *ToIntScheme[T]) index() {
	s.once.Do(func() {
		s.codes = make(map[T]int, len(s.Values))
		s.nanCode = -1
		for code, v := range s.Values {
			if v != v {
				s.nanCode = code
				continue
			}
			s.codes[v] = code
		}
	})
}

// Encode は値のコードを返す。未知の値は -1 か UnseenValueError になる。
func (s *ToIntScheme[T]) Encode(v T) (int, error) {
	s.index()
	code, ok := s.codes[v]
	if v != v {
		code, ok = s.nanCode, s.nanCode >= 0
	}
	if ok {
		return code, nil
	}
	if s.MapUnseenToMinusOne {
		return -1, nil
	}
	return -1, errors.NewUnseenValueError(v)
}

// Inverse はコードを元の値に戻す
func (s *ToIntScheme[T]) Inverse(code int) (T, error) {
	if code < 0 || code >= len(s.Values) {
		var zero T
		return zero, errors.NewValidationError("code", "out of range", code)
	}
	return s.Values[code], nil
}

// Classes は学習した値をコード順に返す
func (s *ToIntScheme[T]) Classes() []T {
	return slices.Clone(s.Values)
}

// Len はカテゴリ数を返す
func (s *ToIntScheme[T]) Len() int { return len(s.Values) }

// Mapping は値からコードへの写像のコピーを返す (NaN は含まない)
func (s *ToIntScheme[T]) Mapping() map[T]int {
	s.index()
	out := make(map[T]int, len(s.codes))
	for k, v := range s.codes {
		out[k] = v
	}
	return out
}
