package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"cogload_go/internal/aggregator"
	"cogload_go/internal/alert"
	"cogload_go/internal/buffer"
	"cogload_go/internal/classifier"
	"cogload_go/internal/config"
	"cogload_go/internal/discovery"
	"cogload_go/internal/osc"
	"cogload_go/internal/redis"
	"cogload_go/internal/storage"
	"cogload_go/internal/websocket"
	"cogload_go/pkg/logger"
)

// Server encapsula o servidor HTTP e todos os componentes da pipeline
type Server struct {
	config            *config.Config
	httpServer        *http.Server
	router            *http.ServeMux
	store             *buffer.Store
	oscService        *osc.Service
	aggregatorService *aggregator.Service
	redisService      *redis.Service
	alertSender       *alert.Sender
	wsHub             *websocket.Hub
	discoveryService  *discovery.DiscoveryService
	serverInfo        ServerInfo
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
}

// NewServer cria uma nova instância do servidor
func NewServer(cfg *config.Config) (*Server, error) {
	server := &Server{
		config: cfg,
		router: http.NewServeMux(),
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   "1.0.0",
			Port:      cfg.Server.Port,
		},
	}

	// Determinar IP do servidor
	ip, err := server.getLocalIP()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter IP local: %w", err)
	}
	server.serverInfo.IP = ip

	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", ip, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", ip, cfg.Server.Port)

	// Inicializar componentes
	if err := server.initComponents(); err != nil {
		return nil, err
	}

	// Configurar rotas
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa todos os componentes da pipeline
func (s *Server) initComponents() error {
	// Inicializar hub WebSocket
	s.wsHub = websocket.NewHub()
	go s.wsHub.Run()

	// Inicializar serviço Redis
	redisService, err := redis.NewService(s.config.Redis)
	if err != nil {
		return fmt.Errorf("erro ao inicializar serviço Redis: %w", err)
	}
	s.redisService = redisService

	// Buffers de amostras compartilhados entre o ouvinte OSC e o agregador
	s.store = buffer.NewStore(buffer.DefaultCapacity)

	// Ouvinte OSC
	s.oscService = osc.NewService(s.config.OSC, s.store)

	// Classificador: artefatos ausentes degradam para o rótulo sentinela
	scorer := classifier.Load(s.config.Model)
	adapter := classifier.NewAdapter(scorer)

	// Persistência CSV
	sink := storage.NewCSVSink(s.config.Output, s.config.Aggregator.Channels)
	if err := sink.Initialize(); err != nil {
		return fmt.Errorf("erro ao inicializar arquivos de saída: %w", err)
	}

	// Envio de alertas via UDP
	sender, err := alert.NewSender(s.config.Alert)
	if err != nil {
		return fmt.Errorf("erro ao inicializar envio de alertas: %w", err)
	}
	s.alertSender = sender

	debouncer := alert.NewDebouncer(s.config.Alert.WindowSize)

	// Serviço de agregação
	s.aggregatorService = aggregator.NewService(
		s.config.Aggregator, s.store, adapter, debouncer, sink, sender,
		s.redisService, s.wsHub)

	// Serviço de descoberta mDNS
	s.discoveryService = discovery.NewDiscoveryService(s.config.Server.Port)

	return nil
}

// Start inicia o servidor e todos os serviços
func (s *Server) Start() error {
	// Iniciar serviço de descoberta
	if err := s.discoveryService.Start(); err != nil {
		logger.Warnf("Erro ao iniciar serviço de descoberta: %v", err)
		// Não abortar operação se falhar
	}

	// Iniciar o ouvinte OSC
	if err := s.oscService.Start(); err != nil {
		return fmt.Errorf("erro ao iniciar ouvinte OSC: %w", err)
	}

	// Iniciar o ciclo de agregação
	if err := s.aggregatorService.Start(); err != nil {
		return fmt.Errorf("erro ao iniciar ciclo de agregação: %w", err)
	}

	// Mostrar informações do servidor
	s.logServerInfo()

	// Iniciar servidor HTTP
	logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
	}

	return nil
}

// Shutdown encerra graciosamente o servidor e todos os serviços
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	// Encerrar o servidor HTTP
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
	}

	// Encerrar serviço de descoberta
	if s.discoveryService != nil {
		s.discoveryService.Stop()
	}

	// Parar o ouvinte OSC antes do agregador para drenar o último ciclo
	if s.oscService != nil {
		s.oscService.Stop()
	}

	if s.aggregatorService != nil {
		s.aggregatorService.Stop()
	}

	if s.alertSender != nil {
		s.alertSender.Close()
	}

	if s.wsHub != nil {
		s.wsHub.Shutdown()
	}

	if s.redisService != nil {
		s.redisService.Shutdown()
	}

	logger.Info("Shutdown completo")
	return nil
}

// getLocalIP obtém o endereço IP local
func (s *Server) getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "localhost", nil
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("         Cognitive Load Monitor Server         ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("Ouvinte OSC: %s:%d", s.config.OSC.Host, s.config.OSC.Port)
	logger.Infof("Destino de alertas: %s:%d", s.config.Alert.Host, s.config.Alert.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("mDNS: %s.%s.%s",
		s.discoveryService.GetInstanceName(),
		discovery.ServiceType,
		discovery.ServiceDomain)
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
