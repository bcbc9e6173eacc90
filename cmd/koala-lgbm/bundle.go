package main

import (
	"github.com/koalaml/koala-lightgbm/core/model"
	"github.com/koalaml/koala-lightgbm/engine/gbdt"
	"github.com/koalaml/koala-lightgbm/koala/lightgbm"
	"github.com/koalaml/koala-lightgbm/pkg/errors"
	"github.com/koalaml/koala-lightgbm/preprocessing"
)

// Bundle is everything predict needs: the fitted transform scheme, the
// trained booster and the training report.
type Bundle struct {
	Task    string                         `json:"task"`
	Target  string                         `json:"target"`
	Scheme  *preprocessing.TransformScheme `json:"scheme"`
	Booster *gbdt.Booster                  `json:"booster"`
	Report  *lightgbm.Report               `json:"report"`
}

// wrapper is the lifecycle both model wrappers implement.
type wrapper interface {
	model.Supervised[*preprocessing.TransformScheme, *lightgbm.FitCache, lightgbm.Predictor, *lightgbm.Report]
	model.ParameterSetter
}

func newWrapper(task string) (wrapper, error) {
	switch task {
	case TaskRegression:
		return lightgbm.NewRegressor(), nil
	case TaskBinary:
		return lightgbm.NewBinaryClassifier(), nil
	default:
		return nil, errors.NewValidationError("task", "must be regression or binary", task)
	}
}

func saveBundle(b *Bundle, path string) error {
	return model.SaveModel(b, path)
}

func loadBundle(path string) (*Bundle, error) {
	var b Bundle
	if err := model.LoadModel(&b, path); err != nil {
		return nil, err
	}
	if b.Scheme == nil || b.Booster == nil {
		return nil, errors.NewValueError("loadBundle", "model file has no scheme or booster")
	}
	if err := b.Scheme.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
