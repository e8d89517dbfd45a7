package model

import (
	"github.com/pkg/errors"
)

// Prediction is the outcome of a successful Predict call.
type Prediction struct {
	Food     string
	Category string
	Storage  string
	Days     float64
}

// Predictor runs encode, scale and predict over a fixed set of artifacts. It holds no
// mutable state and is safe for concurrent use.
type Predictor struct {
	food     *Encoder
	category *Encoder
	storage  *Encoder
	scaler   *Scaler
	model    Regressor
}

func NewPredictor(a *Artifacts) (*Predictor, error) {
	if a == nil {
		return nil, errors.New("artifacts required")
	}
	if a.Food == nil || a.Category == nil || a.Storage == nil {
		return nil, errors.New("all three encoders are required")
	}
	if a.Scaler == nil {
		return nil, errors.New("scaler required")
	}
	if a.Model == nil {
		return nil, errors.New("model required")
	}
	return &Predictor{
		food:     a.Food,
		category: a.Category,
		storage:  a.Storage,
		scaler:   a.Scaler,
		model:    a.Model,
	}, nil
}

// Predict returns the predicted shelf life in days for the given item. The model
// output is passed through as is: negative or fractional values are not adjusted.
func (p *Predictor) Predict(food, category, storage string) (*Prediction, error) {
	x, err := p.Features(food, category, storage)
	if err != nil {
		return nil, err
	}
	return &Prediction{
		Food:     food,
		Category: category,
		Storage:  storage,
		Days:     p.model.Predict(p.scaler.Transform(x)),
	}, nil
}

// Features encodes the inputs into the unscaled vector [food, category, storage].
func (p *Predictor) Features(food, category, storage string) ([]float64, error) {
	x := make([]float64, FeatureCount)
	for i, f := range []struct {
		enc   *Encoder
		value string
	}{
		{p.food, food},
		{p.category, category},
		{p.storage, storage},
	} {
		code, err := f.enc.Encode(f.value)
		if err != nil {
			return nil, err
		}
		x[i] = float64(code)
	}
	return x, nil
}

// Vocabulary returns the known labels of each encoder keyed by field name.
func (p *Predictor) Vocabulary() map[string][]string {
	return map[string][]string{
		FieldFood:     p.food.Classes(),
		FieldCategory: p.category.Classes(),
		FieldStorage:  p.storage.Classes(),
	}
}
