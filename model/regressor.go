package model

import (
	"math"

	"github.com/pkg/errors"
)

// FeatureCount is the width of the encoded vector: food, category, storage.
const FeatureCount = 3

const (
	KindLinear       = "linear"
	KindTreeEnsemble = "tree_ensemble"

	AggregationMean = "mean"
	AggregationSum  = "sum"
)

// Regressor maps a scaled feature vector to a shelf-life estimate in days.
type Regressor interface {
	Predict(x []float64) float64
}

// RegressorFunc adapts a plain function to Regressor.
type RegressorFunc func(x []float64) float64

func (f RegressorFunc) Predict(x []float64) float64 {
	return f(x)
}

// LinearRegressor computes intercept + coef·x.
type LinearRegressor struct {
	coef      []float64
	intercept float64
}

func NewLinearRegressor(coef []float64, intercept float64) (*LinearRegressor, error) {
	if len(coef) != FeatureCount {
		return nil, errors.Errorf("linear model expects %d coefficients, got %d", FeatureCount, len(coef))
	}
	for i, c := range coef {
		if !isFinite(c) {
			return nil, errors.Errorf("linear model has invalid coefficient %v at feature %d", c, i)
		}
	}
	if !isFinite(intercept) {
		return nil, errors.Errorf("linear model has invalid intercept %v", intercept)
	}
	cp := make([]float64, len(coef))
	copy(cp, coef)
	return &LinearRegressor{coef: cp, intercept: intercept}, nil
}

func (m *LinearRegressor) Predict(x []float64) float64 {
	y := m.intercept
	for i, c := range m.coef {
		y += c * x[i]
	}
	return y
}

// Tree holds a fitted regression tree in flattened array form. Node 0 is the root and a
// node is a leaf when its left child is -1.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t *Tree) validate() error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.Errorf("tree arrays differ in length (left=%d right=%d feature=%d threshold=%d value=%d)",
			n, len(t.ChildrenRight), len(t.Feature), len(t.Threshold), len(t.Value))
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == -1 {
			if r != -1 {
				return errors.Errorf("node %d has a right child but no left child", i)
			}
			continue
		}
		// children always follow their parent, which also rules out cycles
		if l <= i || l >= n || r <= i || r >= n {
			return errors.Errorf("node %d has out of range children (%d, %d)", i, l, r)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= FeatureCount {
			return errors.Errorf("node %d splits on unknown feature %d", i, t.Feature[i])
		}
	}
	return nil
}

func (t *Tree) clone() Tree {
	return Tree{
		ChildrenLeft:  append([]int(nil), t.ChildrenLeft...),
		ChildrenRight: append([]int(nil), t.ChildrenRight...),
		Feature:       append([]int(nil), t.Feature...),
		Threshold:     append([]float64(nil), t.Threshold...),
		Value:         append([]float64(nil), t.Value...),
	}
}

func (t *Tree) leaf(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != -1 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// TreeEnsemble covers random forests and single trees (mean aggregation) as well as
// gradient boosted trees (sum aggregation).
type TreeEnsemble struct {
	trees        []Tree
	aggregation  string
	baseScore    float64
	learningRate float64
}

func NewTreeEnsemble(trees []Tree, aggregation string, baseScore, learningRate float64) (*TreeEnsemble, error) {
	if len(trees) == 0 {
		return nil, errors.New("tree ensemble has no trees")
	}
	switch aggregation {
	case "":
		aggregation = AggregationMean
	case AggregationMean, AggregationSum:
	default:
		return nil, errors.Errorf("unknown aggregation %q", aggregation)
	}
	if aggregation == AggregationSum && learningRate == 0 {
		learningRate = 1
	}
	for i := range trees {
		if err := trees[i].validate(); err != nil {
			return nil, errors.Wrapf(err, "tree %d", i)
		}
	}
	cp := make([]Tree, len(trees))
	for i := range trees {
		cp[i] = trees[i].clone()
	}
	return &TreeEnsemble{
		trees:        cp,
		aggregation:  aggregation,
		baseScore:    baseScore,
		learningRate: learningRate,
	}, nil
}

func (m *TreeEnsemble) Predict(x []float64) float64 {
	var sum float64
	for i := range m.trees {
		sum += m.trees[i].leaf(x)
	}
	if m.aggregation == AggregationMean {
		return sum / float64(len(m.trees))
	}
	return m.baseScore + m.learningRate*sum
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
