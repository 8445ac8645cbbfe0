package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cogload_go/internal/aggregator"
	"cogload_go/internal/models"
	"cogload_go/internal/redis"
	"cogload_go/pkg/logger"
)

const defaultHistoryLimit = 50

// Handler contém os handlers HTTP da API
type Handler struct {
	aggregatorService *aggregator.Service
	redisService      *redis.Service
}

// NewHandler cria um novo handler de API
func NewHandler(aggregatorService *aggregator.Service, redisService *redis.Service) *Handler {
	return &Handler{
		aggregatorService: aggregatorService,
		redisService:      redisService,
	}
}

// GetStatus retorna o status atual da pipeline
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	status := h.aggregatorService.GetStatus()

	// Formatar resposta
	response := map[string]interface{}{
		"status":         status.Status,
		"modelLoaded":    status.ModelLoaded,
		"totalCycles":    status.TotalCycles,
		"redisConnected": h.redisService != nil && h.redisService.IsConnected(),
		"timestamp":      status.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	// Adicionar informações de erro, se houver
	if status.LastError != "" {
		response["lastError"] = status.LastError
	}
	if status.ErrorCount > 0 {
		response["errorCount"] = status.ErrorCount
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetCurrentData retorna a última linha agregada produzida
func (h *Handler) GetCurrentData(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	row := h.aggregatorService.GetLastRow()
	if row == nil {
		h.respondWithError(w, http.StatusNotFound, "Nenhum dado disponível")
		return
	}

	// Formatar resposta
	response := map[string]interface{}{
		"values":    row.Values,
		"bva":       row.BVA,
		"timestamp": row.Timestamp.UnixNano() / int64(time.Millisecond),
	}

	if prediction := h.aggregatorService.GetLastPrediction(); prediction != nil {
		response["cognitiveLoad"] = prediction.Label
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetPredictions retorna as classificações recentes
func (h *Handler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	limit := parseLimit(r, defaultHistoryLimit)

	var predictions []models.Prediction

	// Se o Redis estiver disponível, obter histórico de lá
	if h.redisService != nil && h.redisService.IsConnected() {
		redisPredictions, err := h.redisService.GetRecentPredictions(limit)
		if err == nil {
			predictions = redisPredictions
		}
	}

	// Fallback para a última classificação em memória
	if predictions == nil {
		predictions = []models.Prediction{}
		if last := h.aggregatorService.GetLastPrediction(); last != nil {
			predictions = append(predictions, *last)
		}
	}

	h.respondWithJSON(w, http.StatusOK, predictions)
}

// GetAlerts retorna os alertas recentes
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	// Verificar método HTTP
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	limit := parseLimit(r, defaultHistoryLimit)

	var alerts []models.AlertEvent

	// Se o Redis estiver disponível, obter alertas de lá
	if h.redisService != nil && h.redisService.IsConnected() {
		redisAlerts, err := h.redisService.GetRecentAlerts(limit)
		if err == nil {
			alerts = redisAlerts
		}
	}

	// Fallback para os alertas mantidos em memória
	if alerts == nil {
		alerts = h.aggregatorService.GetRecentAlerts()
	}
	if alerts == nil {
		alerts = []models.AlertEvent{}
	}

	h.respondWithJSON(w, http.StatusOK, alerts)
}

// parseLimit extrai o parâmetro limit da query string
func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		// Se falhar ao codificar JSON, tentar responder com erro simples
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
