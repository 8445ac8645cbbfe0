package models

import "time"

// AggregatedRow representa uma linha agregada produzida a cada ciclo.
// Values mapeia cada canal rastreado para a média das amostras do ciclo;
// nil indica ausência de amostras (marcador de "missing").
type AggregatedRow struct {
	Timestamp time.Time           `json:"timestamp"`
	Values    map[string]*float64 `json:"values"`
	BVA       *float64            `json:"bva"`
}

// FeatureVector é o vetor de características do classificador de carga
// cognitiva. BVA já está reescalado para [0,1].
type FeatureVector struct {
	EDA  float64 `json:"eda"`
	Temp float64 `json:"temp"`
	BVA  float64 `json:"bva"`
}

// Prediction representa uma classificação de carga cognitiva em um ciclo
type Prediction struct {
	Timestamp time.Time     `json:"timestamp"`
	Features  FeatureVector `json:"features"`
	Label     string        `json:"label"`
}

// AlertEvent representa um alerta disparado pelo debouncer
type AlertEvent struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Timestamp  time.Time `json:"timestamp"`
	WindowSize int       `json:"windowSize"`
}

// PipelineStatus representa o estado atual da pipeline de agregação
type PipelineStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	ModelLoaded bool      `json:"modelLoaded"`
	LastError   string    `json:"lastError,omitempty"`
	ErrorCount  int       `json:"errorCount,omitempty"`
	TotalCycles int64     `json:"totalCycles"`
}
