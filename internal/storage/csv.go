package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"cogload_go/internal/config"
	"cogload_go/internal/models"
)

// CSVSink grava os três arquivos tabulares append-only da pipeline:
// agregados brutos (uma linha por ciclo), vetores de features e
// classificações (uma linha por ciclo apenas quando o vetor de features
// está completo). Os arquivos são recriados com cabeçalhos na
// inicialização, descartando conteúdo anterior.
type CSVSink struct {
	mu       sync.Mutex
	cfg      config.OutputConfig
	channels []string
}

// NewCSVSink cria um sink CSV para os caminhos configurados. A ordem de
// channels define a ordem das colunas do arquivo de agregados; a coluna
// derivada BVA é sempre a última.
func NewCSVSink(cfg config.OutputConfig, channels []string) *CSVSink {
	return &CSVSink{cfg: cfg, channels: channels}
}

// Initialize recria os três arquivos de saída com seus cabeçalhos
func (s *CSVSink) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dataHeader := make([]string, 0, len(s.channels)+2)
	dataHeader = append(dataHeader, "timestamp")
	dataHeader = append(dataHeader, s.channels...)
	dataHeader = append(dataHeader, "BVA")

	if err := writeFresh(s.cfg.DataFile, dataHeader); err != nil {
		return fmt.Errorf("erro ao inicializar arquivo de dados: %w", err)
	}
	if err := writeFresh(s.cfg.FeatureFile, []string{"EDA", "Temp", "BVA"}); err != nil {
		return fmt.Errorf("erro ao inicializar arquivo de features: %w", err)
	}
	if err := writeFresh(s.cfg.PredictionFile, []string{"timestamp", "EDA", "Temp", "BVA", "CognitiveLoad"}); err != nil {
		return fmt.Errorf("erro ao inicializar arquivo de classificações: %w", err)
	}
	return nil
}

// WriteRow adiciona uma linha agregada ao arquivo de dados. Valores
// ausentes são gravados como células vazias.
func (s *CSVSink) WriteRow(row models.AggregatedRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := make([]string, 0, len(s.channels)+2)
	record = append(record, formatTimestamp(row.Timestamp))
	for _, ch := range s.channels {
		record = append(record, formatOptional(row.Values[ch]))
	}
	record = append(record, formatOptional(row.BVA))

	if err := appendRecord(s.cfg.DataFile, record); err != nil {
		return fmt.Errorf("erro ao gravar linha agregada: %w", err)
	}
	return nil
}

// WriteFeatures adiciona um vetor de features completo ao arquivo de
// features (BVA já reescalado)
func (s *CSVSink) WriteFeatures(features models.FeatureVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := []string{
		formatFloat(features.EDA),
		formatFloat(features.Temp),
		formatFloat(features.BVA),
	}

	if err := appendRecord(s.cfg.FeatureFile, record); err != nil {
		return fmt.Errorf("erro ao gravar vetor de features: %w", err)
	}
	return nil
}

// WritePrediction adiciona uma classificação ao arquivo de classificações
func (s *CSVSink) WritePrediction(prediction models.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := []string{
		formatTimestamp(prediction.Timestamp),
		formatFloat(prediction.Features.EDA),
		formatFloat(prediction.Features.Temp),
		formatFloat(prediction.Features.BVA),
		prediction.Label,
	}

	if err := appendRecord(s.cfg.PredictionFile, record); err != nil {
		return fmt.Errorf("erro ao gravar classificação: %w", err)
	}
	return nil
}

// writeFresh cria (ou trunca) um arquivo e grava o cabeçalho
func writeFresh(path string, header []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// appendRecord adiciona um registro ao final de um arquivo CSV existente
func appendRecord(path string, record []string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(record); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// formatTimestamp grava o timestamp como segundos Unix com fração
func formatTimestamp(ts time.Time) string {
	return strconv.FormatFloat(float64(ts.UnixNano())/1e9, 'f', 6, 64)
}

// formatFloat formata um valor numérico de amostra
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional formata um valor opcional; nil vira célula vazia
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
