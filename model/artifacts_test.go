package model

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSources(dir string) ArtifactSources {
	return ArtifactSources{
		Dir:             dir,
		Model:           "model.json",
		FoodEncoder:     "le_food.json",
		CategoryEncoder: "le_category.json",
		StorageEncoder:  "le_storage.json",
		Scaler:          "scaler.json",
	}
}

func TestLoadArtifacts(t *testing.T) {
	a, err := LoadArtifacts(context.Background(), testSources("testdata"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Apple", "Milk"}, a.Food.Classes())
	assert.Equal(t, []string{"Fruit", "Dairy"}, a.Category.Classes())
	assert.Equal(t, []string{"Fridge", "Pantry"}, a.Storage.Classes())
	assert.IsType(t, &LinearRegressor{}, a.Model)

	p, err := NewPredictor(a)
	require.NoError(t, err)

	tests := []struct {
		food, category, storage string
		want                    float64
	}{
		{"Apple", "Fruit", "Fridge", 10},
		{"Apple", "Dairy", "Pantry", 8},
		{"Milk", "Fruit", "Fridge", 15},
		{"Milk", "Dairy", "Fridge", 13},
	}
	for _, tt := range tests {
		got, err := p.Predict(tt.food, tt.category, tt.storage)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got.Days, 1e-9, "%s/%s/%s", tt.food, tt.category, tt.storage)
	}
}

func TestLoadArtifactsTreeEnsemble(t *testing.T) {
	src := testSources("testdata")
	src.Model = "forest/model.json"
	a, err := LoadArtifacts(context.Background(), src)
	require.NoError(t, err)
	assert.IsType(t, &TreeEnsemble{}, a.Model)

	p, err := NewPredictor(a)
	require.NoError(t, err)

	got, err := p.Predict("Apple", "Fruit", "Pantry")
	require.NoError(t, err)
	assert.Equal(t, 18.5, got.Days)
}

func TestLoadArtifactsAbsolutePath(t *testing.T) {
	abs, err := filepath.Abs(filepath.Join("testdata", "scaler.json"))
	require.NoError(t, err)

	src := testSources("testdata")
	src.Scaler = abs
	_, err = LoadArtifacts(context.Background(), src)
	assert.NoError(t, err)
}

func TestLoadArtifactsErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*ArtifactSources)
		artifact string
	}{
		{"missing model", func(s *ArtifactSources) { s.Model = "nope.json" }, ArtifactModel},
		{"unsupported model kind", func(s *ArtifactSources) { s.Model = "invalid/bad_kind.json" }, ArtifactModel},
		{"duplicate classes", func(s *ArtifactSources) { s.CategoryEncoder = "invalid/dup_encoder.json" }, ArtifactCategoryEncoder},
		{"truncated scaler", func(s *ArtifactSources) { s.Scaler = "invalid/truncated.json" }, ArtifactScaler},
		{"empty storage source", func(s *ArtifactSources) { s.StorageEncoder = "" }, ArtifactStorageEncoder},
		{"food encoder is not an encoder", func(s *ArtifactSources) { s.FoodEncoder = "scaler.json" }, ArtifactFoodEncoder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := testSources("testdata")
			tt.mutate(&src)

			a, err := LoadArtifacts(context.Background(), src)
			require.Error(t, err)
			assert.Nil(t, a)

			var ale *ArtifactLoadError
			require.True(t, errors.As(err, &ale))
			assert.Equal(t, tt.artifact, ale.Artifact)
		})
	}
}

func TestLoadArtifactsRemote(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()

	src := testSources("")
	src.Model = srv.URL + "/forest/model.json"
	src.Scaler = srv.URL + "/scaler.json"
	src.Dir = "testdata"

	a, err := LoadArtifacts(context.Background(), src)
	require.NoError(t, err)
	assert.IsType(t, &TreeEnsemble{}, a.Model)
}

func TestLoadArtifactsRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	src := testSources("testdata")
	src.Model = srv.URL + "/model.json"
	src.FetchTimeout = 5 * time.Second

	_, err := LoadArtifacts(context.Background(), src)
	require.Error(t, err)

	var ale *ArtifactLoadError
	require.True(t, errors.As(err, &ale))
	assert.Equal(t, ArtifactModel, ale.Artifact)
	assert.Equal(t, src.Model, ale.Source)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadArtifactsEmptyClasses(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "le_food.json"), []byte(`{"classes":[]}`), 0600))

	_, err := LoadArtifacts(context.Background(), testSources(dir))
	var ale *ArtifactLoadError
	require.True(t, errors.As(err, &ale))
	assert.Equal(t, ArtifactFoodEncoder, ale.Artifact)
	assert.Equal(t, filepath.Join(dir, "le_food.json"), ale.Source)
}
