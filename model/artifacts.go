package model

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	ArtifactModel           = "model"
	ArtifactFoodEncoder     = "food encoder"
	ArtifactCategoryEncoder = "category encoder"
	ArtifactStorageEncoder  = "storage encoder"
	ArtifactScaler          = "scaler"

	FieldFood     = "food"
	FieldCategory = "category"
	FieldStorage  = "storage"

	defaultFetchTimeout = 30 * time.Second
)

// ArtifactSources names where each artifact lives. A source is either a file path,
// resolved against Dir when relative, or an http(s) URL.
type ArtifactSources struct {
	Dir             string
	Model           string
	FoodEncoder     string
	CategoryEncoder string
	StorageEncoder  string
	Scaler          string
	FetchTimeout    time.Duration
}

// Artifacts is the fitted state needed to serve predictions.
type Artifacts struct {
	Food     *Encoder
	Category *Encoder
	Storage  *Encoder
	Scaler   *Scaler
	Model    Regressor
}

type encoderFile struct {
	Classes []string `json:"classes"`
}

type scalerFile struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type modelFile struct {
	Kind         string    `json:"kind"`
	Coef         []float64 `json:"coef"`
	Intercept    float64   `json:"intercept"`
	Aggregation  string    `json:"aggregation"`
	BaseScore    float64   `json:"base_score"`
	LearningRate float64   `json:"learning_rate"`
	Trees        []Tree    `json:"trees"`
}

// LoadArtifacts reads all five artifacts. Any failure is returned as an
// *ArtifactLoadError; no partial result is returned.
func LoadArtifacts(ctx context.Context, src ArtifactSources) (*Artifacts, error) {
	l := &loader{src: src}
	if src.FetchTimeout <= 0 {
		l.src.FetchTimeout = defaultFetchTimeout
	}

	var a Artifacts
	var err error
	if a.Food, err = l.encoder(ctx, ArtifactFoodEncoder, FieldFood, src.FoodEncoder); err != nil {
		return nil, err
	}
	if a.Category, err = l.encoder(ctx, ArtifactCategoryEncoder, FieldCategory, src.CategoryEncoder); err != nil {
		return nil, err
	}
	if a.Storage, err = l.encoder(ctx, ArtifactStorageEncoder, FieldStorage, src.StorageEncoder); err != nil {
		return nil, err
	}
	if a.Scaler, err = l.scaler(ctx, src.Scaler); err != nil {
		return nil, err
	}
	if a.Model, err = l.model(ctx, src.Model); err != nil {
		return nil, err
	}
	return &a, nil
}

type loader struct {
	src    ArtifactSources
	client *resty.Client
}

func (l *loader) encoder(ctx context.Context, artifact, field, source string) (*Encoder, error) {
	var f encoderFile
	loc, err := l.decode(ctx, source, &f)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Source: loc, Err: err}
	}
	enc, err := NewEncoder(field, f.Classes)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Source: loc, Err: err}
	}
	return enc, nil
}

func (l *loader) scaler(ctx context.Context, source string) (*Scaler, error) {
	var f scalerFile
	loc, err := l.decode(ctx, source, &f)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: ArtifactScaler, Source: loc, Err: err}
	}
	s, err := NewScaler(f.Mean, f.Scale)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: ArtifactScaler, Source: loc, Err: err}
	}
	return s, nil
}

func (l *loader) model(ctx context.Context, source string) (Regressor, error) {
	var f modelFile
	loc, err := l.decode(ctx, source, &f)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: ArtifactModel, Source: loc, Err: err}
	}

	var m Regressor
	switch f.Kind {
	case KindLinear:
		m, err = NewLinearRegressor(f.Coef, f.Intercept)
	case KindTreeEnsemble:
		m, err = NewTreeEnsemble(f.Trees, f.Aggregation, f.BaseScore, f.LearningRate)
	default:
		err = errors.Errorf("unsupported model kind %q", f.Kind)
	}
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: ArtifactModel, Source: loc, Err: err}
	}
	return m, nil
}

// decode reads source and unmarshals it into v, returning the resolved location.
func (l *loader) decode(ctx context.Context, source string, v any) (string, error) {
	if strings.TrimSpace(source) == "" {
		return source, errors.New("no source configured")
	}

	var b []byte
	var err error
	loc := source
	if isRemote(source) {
		b, err = l.fetch(ctx, source)
	} else {
		if !filepath.IsAbs(source) && l.src.Dir != "" {
			loc = filepath.Join(l.src.Dir, source)
		}
		b, err = os.ReadFile(loc)
		err = errors.Wrap(err, "error reading file")
	}
	if err != nil {
		return loc, err
	}

	if err := json.Unmarshal(b, v); err != nil {
		return loc, errors.Wrap(err, "error decoding content")
	}
	return loc, nil
}

func (l *loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.client == nil {
		l.client = resty.New().SetTimeout(l.src.FetchTimeout)
	}
	resp, err := l.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(url)
	if err != nil {
		return nil, errors.Wrap(err, "error fetching artifact")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Errorf("artifact server returned status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
