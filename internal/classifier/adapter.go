package classifier

import "cogload_go/pkg/logger"

const (
	// LabelModelNotLoaded é o sentinela retornado quando qualquer artefato
	// do classificador falhou ao carregar na inicialização
	LabelModelNotLoaded = "MODEL_NOT_LOADED"

	// LabelPredictionError é o sentinela retornado quando a pontuação
	// falha por qualquer motivo em tempo de execução
	LabelPredictionError = "PREDICTION_ERROR"
)

// IsSentinel indica se um rótulo é um dos sentinelas de falha
func IsSentinel(label string) bool {
	return label == LabelModelNotLoaded || label == LabelPredictionError
}

// Adapter envolve a capacidade de pontuação e converte falhas em
// sentinelas fixos: o pipeline de agregação nunca vê um erro de
// classificação, apenas rótulos.
type Adapter struct {
	scorer Scorer
}

// NewAdapter cria um adapter sobre a capacidade de pontuação informada
func NewAdapter(scorer Scorer) *Adapter {
	return &Adapter{scorer: scorer}
}

// Available indica se o modelo subjacente está carregado
func (a *Adapter) Available() bool {
	return a.scorer.Available()
}

// Classify classifica um vetor de features (eda, temp, bva reescalado)
// em um rótulo de carga cognitiva. Nunca propaga erro: modelo ausente
// rende MODEL_NOT_LOADED e falha de pontuação rende PREDICTION_ERROR.
func (a *Adapter) Classify(eda, temp, bva float64) string {
	if !a.scorer.Available() {
		return LabelModelNotLoaded
	}

	label, err := a.scorer.Score(eda, temp, bva)
	if err != nil {
		logger.Errorf("Falha na classificação: %v", err)
		return LabelPredictionError
	}
	return label
}
