package classifier

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cogload_go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubScorer é um Scorer determinístico para testes do adapter
type stubScorer struct {
	available bool
	label     string
	err       error
	calls     int
}

func (s *stubScorer) Available() bool { return s.available }

func (s *stubScorer) Score(eda, temp, bva float64) (string, error) {
	s.calls++
	return s.label, s.err
}

func TestClassifyModelUnavailable(t *testing.T) {
	stub := &stubScorer{available: false}
	adapter := NewAdapter(stub)

	// Sentinela fixo para qualquer entrada, sem efeitos colaterais
	assert.Equal(t, LabelModelNotLoaded, adapter.Classify(0.5, 30.0, 0.5))
	assert.Equal(t, LabelModelNotLoaded, adapter.Classify(-1, 999, 0))
	assert.Zero(t, stub.calls)
}

func TestClassifyScoringFailure(t *testing.T) {
	stub := &stubScorer{available: true, err: errors.New("shape mismatch")}
	adapter := NewAdapter(stub)

	assert.Equal(t, LabelPredictionError, adapter.Classify(0.5, 30.0, 0.5))
}

func TestClassifyDeterministic(t *testing.T) {
	// Mesmo vetor duas vezes seguidas: mesmo rótulo (nenhum estado mutável
	// oculto no adapter)
	stub := &stubScorer{available: true, label: "HIGH"}
	adapter := NewAdapter(stub)

	first := adapter.Classify(0.5, 30.0, 0.5)
	second := adapter.Classify(0.5, 30.0, 0.5)

	assert.Equal(t, "HIGH", first)
	assert.Equal(t, first, second)
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, IsSentinel(LabelModelNotLoaded))
	assert.True(t, IsSentinel(LabelPredictionError))
	assert.False(t, IsSentinel("HIGH"))
}

func TestLoadMissingArtifactsYieldsUnavailable(t *testing.T) {
	cfg := config.ModelConfig{
		ForestPath:  filepath.Join(t.TempDir(), "nao-existe.json"),
		ScalersPath: filepath.Join(t.TempDir(), "nao-existe.json"),
		LabelsPath:  filepath.Join(t.TempDir(), "nao-existe.json"),
	}

	scorer := Load(cfg)
	assert.False(t, scorer.Available())

	_, err := scorer.Score(0.5, 30.0, 0.5)
	assert.Error(t, err)
}

func TestLoadCorruptArtifactYieldsUnavailable(t *testing.T) {
	dir := t.TempDir()
	forestPath := filepath.Join(dir, "forest.json")
	require.NoError(t, os.WriteFile(forestPath, []byte("{nao é json"), 0644))

	scorer := Load(config.ModelConfig{ForestPath: forestPath})
	assert.False(t, scorer.Available())
}

// writeArtifacts grava artefatos mínimos válidos e retorna a configuração
func writeArtifacts(t *testing.T, forest Forest, sc scalers, labels labelSet) config.ModelConfig {
	t.Helper()
	dir := t.TempDir()

	cfg := config.ModelConfig{
		ForestPath:  filepath.Join(dir, "forest.json"),
		ScalersPath: filepath.Join(dir, "scalers.json"),
		LabelsPath:  filepath.Join(dir, "labels.json"),
	}

	for path, v := range map[string]interface{}{
		cfg.ForestPath:  forest,
		cfg.ScalersPath: sc,
		cfg.LabelsPath:  labels,
	} {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0644))
	}
	return cfg
}

func TestLoadAndScore(t *testing.T) {
	// Floresta com uma árvore: EDA padronizado <= 0 -> classe 0, senão classe 1
	forest := Forest{Trees: []Tree{{Nodes: []Node{
		{Feature: 0, Threshold: 0, Left: 1, Right: 2},
		{Feature: -1, Value: 0},
		{Feature: -1, Value: 1},
	}}}}
	sc := scalers{
		BVA:      RangeScaler{Min: 0, Max: 10},
		Standard: StandardScaler{Mean: []float64{0.5, 30, 0.5}, Scale: []float64{1, 1, 1}},
	}
	labels := labelSet{Classes: []string{"LOW", "HIGH"}}

	scorer := Load(writeArtifacts(t, forest, sc, labels))
	require.True(t, scorer.Available())

	adapter := NewAdapter(scorer)
	assert.Equal(t, "LOW", adapter.Classify(0.2, 30, 5))
	assert.Equal(t, "HIGH", adapter.Classify(0.9, 30, 5))
}

func TestForestMajorityVote(t *testing.T) {
	leaf := func(class int) Tree {
		return Tree{Nodes: []Node{{Feature: -1, Value: class}}}
	}
	forest := Forest{Trees: []Tree{leaf(1), leaf(0), leaf(1)}}

	class, err := forest.Predict([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, class)
}

func TestForestMalformedTree(t *testing.T) {
	// Nó que aponta para si mesmo: o limite de passos deve detectar o ciclo
	forest := Forest{Trees: []Tree{{Nodes: []Node{
		{Feature: 0, Threshold: 0, Left: 0, Right: 0},
	}}}}

	_, err := forest.Predict([]float64{1})
	assert.Error(t, err)
}
