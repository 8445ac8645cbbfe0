package websocket

import (
	"bytes"
	"encoding/json"
	"time"

	"cogload_go/internal/models"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

// NewRowMessage cria uma nova mensagem de linha agregada
func NewRowMessage(row models.AggregatedRow) *models.RowMessage {
	return &models.RowMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "row",
			Timestamp: time.Now(),
		},
		Row: row,
	}
}

// NewPredictionMessage cria uma nova mensagem de classificação
func NewPredictionMessage(prediction models.Prediction) *models.PredictionMessage {
	return &models.PredictionMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "prediction",
			Timestamp: time.Now(),
		},
		Prediction: prediction,
	}
}

// NewAlertMessage cria uma nova mensagem de alerta
func NewAlertMessage(event models.AlertEvent) *models.AlertMessage {
	return &models.AlertMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "alert",
			Timestamp: time.Now(),
		},
		Alert: event,
	}
}

// NewStatusMessage cria uma nova mensagem de status da pipeline
func NewStatusMessage(status models.PipelineStatus) *models.StatusMessage {
	return &models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		Status:      status.Status,
		ModelLoaded: status.ModelLoaded,
		LastError:   status.LastError,
		ErrorCount:  status.ErrorCount,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      "error",
		Timestamp: time.Now(),
		Error:     message,
		Data: map[string]string{
			"code": errorCode,
		},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente,
// rejeitando campos desconhecidos
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(&command)
	return command, err
}
