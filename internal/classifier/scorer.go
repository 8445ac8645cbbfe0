package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"cogload_go/internal/config"
	"cogload_go/pkg/logger"
)

// FeatureNames define a ordem fixa das features entre treino e inferência.
// O modelo depende de features nomeadas e ordenadas; esta ordem não pode
// mudar sem retreinar os artefatos.
var FeatureNames = [3]string{"EDA", "Temp", "BVA"}

// RangeScaler reescala uma feature para [0,1] com os limites do treino
type RangeScaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Transform aplica a reescala min-max com os limites do treino
func (r *RangeScaler) Transform(value float64) float64 {
	span := r.Max - r.Min
	if span == 0 {
		span = 1
	}
	return (value - r.Min) / span
}

// StandardScaler padroniza o vetor de features com média e desvio do treino
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform padroniza o vetor de features in-place em uma cópia
func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(s.Mean) != len(features) || len(s.Scale) != len(features) {
		return nil, fmt.Errorf("dimensão do scaler (%d/%d) não corresponde ao vetor de %d features",
			len(s.Mean), len(s.Scale), len(features))
	}

	out := make([]float64, len(features))
	for i, v := range features {
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}

// scalers agrupa os dois scalers exportados do treino
type scalers struct {
	BVA      RangeScaler    `json:"bva"`
	Standard StandardScaler `json:"standard"`
}

// labelSet é o label encoder exportado: índice de classe -> rótulo
type labelSet struct {
	Classes []string `json:"classes"`
}

// Scorer é a capacidade de pontuação do classificador. Há duas variantes:
// uma carregada com todos os artefatos (modelo, scalers e label encoder)
// e uma indisponível, usada quando qualquer artefato falhou ao carregar.
type Scorer interface {
	// Available indica se o modelo foi carregado com sucesso
	Available() bool

	// Score classifica um vetor (eda, temp, bva) e retorna o rótulo
	Score(eda, temp, bva float64) (string, error)
}

// availableScorer é a variante com todos os artefatos carregados
type availableScorer struct {
	forest  Forest
	scalers scalers
	labels  labelSet
}

func (s *availableScorer) Available() bool { return true }

// Score reproduz o pipeline de inferência do treino: reescala o BVA com
// os limites do treino, padroniza o vetor completo e decodifica o rótulo
func (s *availableScorer) Score(eda, temp, bva float64) (string, error) {
	features := []float64{eda, temp, s.scalers.BVA.Transform(bva)}

	scaled, err := s.scalers.Standard.Transform(features)
	if err != nil {
		return "", err
	}

	class, err := s.forest.Predict(scaled)
	if err != nil {
		return "", err
	}

	if class < 0 || class >= len(s.labels.Classes) {
		return "", fmt.Errorf("classe %d fora do label encoder (%d classes)", class, len(s.labels.Classes))
	}
	return s.labels.Classes[class], nil
}

// unavailableScorer é a variante sem modelo; nunca pontua
type unavailableScorer struct{}

func (unavailableScorer) Available() bool { return false }

func (unavailableScorer) Score(eda, temp, bva float64) (string, error) {
	return "", fmt.Errorf("modelo não carregado")
}

// Unavailable retorna a variante de Scorer sem modelo
func Unavailable() Scorer {
	return unavailableScorer{}
}

// Load carrega os artefatos do classificador (floresta, scalers e label
// encoder). Qualquer falha é não fatal: o pipeline continua com a
// variante indisponível e toda classificação rende o sentinela
// MODEL_NOT_LOADED.
func Load(cfg config.ModelConfig) Scorer {
	var s availableScorer

	if err := readJSON(cfg.ForestPath, &s.forest); err != nil {
		logger.Warnf("Erro ao carregar modelo (%s): %v. Classificador indisponível.", cfg.ForestPath, err)
		return Unavailable()
	}
	if err := readJSON(cfg.ScalersPath, &s.scalers); err != nil {
		logger.Warnf("Erro ao carregar scalers (%s): %v. Classificador indisponível.", cfg.ScalersPath, err)
		return Unavailable()
	}
	if err := readJSON(cfg.LabelsPath, &s.labels); err != nil {
		logger.Warnf("Erro ao carregar label encoder (%s): %v. Classificador indisponível.", cfg.LabelsPath, err)
		return Unavailable()
	}

	if len(s.forest.Trees) == 0 || len(s.labels.Classes) == 0 {
		logger.Warn("Artefatos do classificador vazios. Classificador indisponível.")
		return Unavailable()
	}

	logger.Infof("Classificador carregado: %d árvores, %d classes", len(s.forest.Trees), len(s.labels.Classes))
	return &s
}

// readJSON decodifica um arquivo JSON de artefato
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("JSON inválido: %w", err)
	}
	return nil
}
