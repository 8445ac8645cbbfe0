package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogload_go/internal/config"
	"cogload_go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSink(t *testing.T) (*CSVSink, config.OutputConfig) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.OutputConfig{
		DataFile:       filepath.Join(dir, "data.csv"),
		FeatureFile:    filepath.Join(dir, "features.csv"),
		PredictionFile: filepath.Join(dir, "predictions.csv"),
	}
	sink := NewCSVSink(cfg, []string{"EDA", "T1", "PPG:IR"})
	require.NoError(t, sink.Initialize())
	return sink, cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestInitializeWritesHeaders(t *testing.T) {
	_, cfg := testSink(t)

	assert.Equal(t, [][]string{{"timestamp", "EDA", "T1", "PPG:IR", "BVA"}}, readCSV(t, cfg.DataFile))
	assert.Equal(t, [][]string{{"EDA", "Temp", "BVA"}}, readCSV(t, cfg.FeatureFile))
	assert.Equal(t, [][]string{{"timestamp", "EDA", "Temp", "BVA", "CognitiveLoad"}}, readCSV(t, cfg.PredictionFile))
}

func TestInitializeDiscardsPreviousContent(t *testing.T) {
	sink, cfg := testSink(t)

	require.NoError(t, sink.WriteFeatures(models.FeatureVector{EDA: 1, Temp: 2, BVA: 3}))
	require.Len(t, readCSV(t, cfg.FeatureFile), 2)

	// Reinicializar descarta as linhas anteriores
	require.NoError(t, sink.Initialize())
	require.Len(t, readCSV(t, cfg.FeatureFile), 1)
}

func TestWriteRowWithMissingValues(t *testing.T) {
	sink, cfg := testSink(t)

	eda := 0.5
	row := models.AggregatedRow{
		Timestamp: time.Unix(1700000000, 0),
		Values: map[string]*float64{
			"EDA": &eda,
			// T1 e PPG:IR ausentes neste ciclo
		},
		BVA: nil,
	}
	require.NoError(t, sink.WriteRow(row))

	records := readCSV(t, cfg.DataFile)
	require.Len(t, records, 2)
	line := records[1]

	assert.Equal(t, "1700000000.000000", line[0])
	assert.Equal(t, "0.5", line[1])
	assert.Equal(t, "", line[2], "canal sem amostras deve ser célula vazia")
	assert.Equal(t, "", line[3])
	assert.Equal(t, "", line[4], "BVA indefinido deve ser célula vazia")
}

func TestWritePrediction(t *testing.T) {
	sink, cfg := testSink(t)

	prediction := models.Prediction{
		Timestamp: time.Unix(1700000000, 500000000),
		Features:  models.FeatureVector{EDA: 0.5, Temp: 30, BVA: 0},
		Label:     "HIGH",
	}
	require.NoError(t, sink.WritePrediction(prediction))

	records := readCSV(t, cfg.PredictionFile)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"1700000000.500000", "0.5", "30", "0", "HIGH"}, records[1])
}
