package server

import (
	"encoding/json"
	"net/http"
	"time"

	"cogload_go/internal/api"
	"cogload_go/internal/websocket"
	"cogload_go/pkg/logger"
)

// setupRoutes configura todas as rotas do servidor
func (s *Server) setupRoutes() {
	wsHandler := websocket.NewHandler(s.wsHub)
	apiHandler := api.NewHandler(s.aggregatorService, s.redisService)

	// Endpoint de saúde
	s.router.HandleFunc("/health", s.healthHandler)

	// Endpoint de informações do servidor
	s.router.HandleFunc("/info", s.infoHandler)

	// Endpoint de descoberta manual
	s.router.HandleFunc("/api/discover", s.discoverHandler)

	// WebSocket
	s.router.Handle("/ws", wsHandler)
	s.router.HandleFunc("/ws/health", wsHandler.GetHealthHandler())

	// API REST
	s.router.HandleFunc("/api/status", apiHandler.GetStatus)
	s.router.HandleFunc("/api/current", apiHandler.GetCurrentData)
	s.router.HandleFunc("/api/predictions", apiHandler.GetPredictions)
	s.router.HandleFunc("/api/alerts", apiHandler.GetAlerts)

	// Middleware para logging e CORS
	s.wrapWithMiddleware()
}

// healthHandler responde com o status de saúde do servidor
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Verificar status dos serviços
	oscStatus := "ok"
	if s.oscService != nil && !s.oscService.IsRunning() {
		oscStatus = "offline"
	}

	aggregatorStatus := "ok"
	if s.aggregatorService != nil && !s.aggregatorService.IsRunning() {
		aggregatorStatus = "offline"
	}

	redisStatus := "ok"
	if s.redisService != nil && !s.redisService.IsConnected() {
		redisStatus = "offline"
	}

	discoveryStatus := "ok"
	if s.discoveryService != nil && !s.discoveryService.IsRunning() {
		discoveryStatus = "offline"
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"services": map[string]string{
			"osc":        oscStatus,
			"aggregator": aggregatorStatus,
			"redis":      redisStatus,
			"websocket":  "ok",
			"discovery":  discoveryStatus,
		},
	}

	// Sem ingestão ou agregação o servidor está degradado
	if oscStatus == "offline" || aggregatorStatus == "offline" {
		response["status"] = "degraded"
	}

	json.NewEncoder(w).Encode(response)
}

// infoHandler retorna informações básicas sobre o servidor
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()
	uptime := time.Since(info.StartTime).Round(time.Second)

	response := map[string]interface{}{
		"name":         "Cognitive Load Monitor",
		"version":      info.Version,
		"ip":           info.IP,
		"port":         info.Port,
		"websocket":    info.WebSocketURL,
		"api":          info.APIURL,
		"startTime":    info.StartTime,
		"uptime":       uptime.String(),
		"connections":  info.Connections,
		"oscMessages":  s.oscService.MessagesReceived(),
		"modelLoaded":  s.aggregatorService.GetStatus().ModelLoaded,
	}

	json.NewEncoder(w).Encode(response)
}

// discoverHandler fornece informações para descoberta manual
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	response := map[string]interface{}{
		"name":        "Cognitive Load Monitor",
		"ip":          info.IP,
		"port":        info.Port,
		"wsUrl":       info.WebSocketURL,
		"apiUrl":      info.APIURL,
		"version":     info.Version,
		"wsEndpoint":  "/ws",
		"apiEndpoint": "/api",
	}

	json.NewEncoder(w).Encode(response)
}

// wrapWithMiddleware adiciona middleware às rotas
func (s *Server) wrapWithMiddleware() {
	originalHandler := s.router

	s.router = http.NewServeMux()

	s.router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Adicionar cabeçalhos CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		logger.Infof("%s %s %s", r.Method, r.URL.Path, r.RemoteAddr)

		originalHandler.ServeHTTP(w, r)

		duration := time.Since(start)
		logger.Debugf("Requisição %s %s completada em %v", r.Method, r.URL.Path, duration)
	})
}
