package model

import (
	"math"

	"github.com/pkg/errors"
)

// Scaler standardizes a feature vector as (x - mean) / scale per dimension.
type Scaler struct {
	mean  []float64
	scale []float64
}

func NewScaler(mean, scale []float64) (*Scaler, error) {
	if len(mean) != FeatureCount || len(scale) != FeatureCount {
		return nil, errors.Errorf("scaler expects %d features, got mean=%d scale=%d",
			FeatureCount, len(mean), len(scale))
	}
	for i := range scale {
		if scale[i] == 0 || math.IsNaN(scale[i]) || math.IsInf(scale[i], 0) {
			return nil, errors.Errorf("scaler has invalid scale %v at feature %d", scale[i], i)
		}
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return nil, errors.Errorf("scaler has invalid mean %v at feature %d", mean[i], i)
		}
	}
	s := &Scaler{
		mean:  make([]float64, FeatureCount),
		scale: make([]float64, FeatureCount),
	}
	copy(s.mean, mean)
	copy(s.scale, scale)
	return s, nil
}

// Transform returns a new scaled vector; x is not modified.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out
}
