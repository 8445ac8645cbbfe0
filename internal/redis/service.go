package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"cogload_go/internal/config"
	"cogload_go/internal/models"
	"cogload_go/pkg/logger"
)

// Service espelha no Redis o estado mais recente da pipeline (última
// linha agregada, última classificação, alertas) e mantém históricos
// limitados em conjuntos ordenados, para consumo por dashboards.
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex

	// Limites de histórico mantidos nos conjuntos ordenados
	maxPredictionHistory int
	maxAlertHistory      int
}

// NewService cria um novo serviço Redis. Com Redis desabilitado na
// configuração, o serviço opera em modo offline e todas as escritas
// viram no-ops.
func NewService(cfg config.RedisConfig) (*Service, error) {
	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{
			config:               cfg,
			connected:            false,
			maxPredictionHistory: 1000,
			maxAlertHistory:      100,
		}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client:               client,
		ctx:                  ctx,
		cancel:               cancel,
		prefix:               cfg.Prefix,
		config:               cfg,
		maxPredictionHistory: 1000,
		maxAlertHistory:      100,
	}

	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		service.connected = false
		return service, nil
	}

	service.connected = true
	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.connected = true
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

// WriteRow espelha a última linha agregada no Redis
func (s *Service) WriteRow(row models.AggregatedRow) error {
	if !s.IsConnected() {
		return nil
	}

	pipe := s.client.Pipeline()
	timestamp := row.Timestamp.UnixNano() / int64(time.Millisecond)

	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix), timestamp, 0)

	// Valor atual de cada canal; canais sem amostras no ciclo são removidos
	for channel, value := range row.Values {
		key := fmt.Sprintf("%s:channel:%s", s.prefix, channel)
		if value == nil {
			pipe.Del(s.ctx, key)
			continue
		}
		pipe.Set(s.ctx, key, *value, 0)
	}

	bvaKey := fmt.Sprintf("%s:bva", s.prefix)
	if row.BVA != nil {
		pipe.Set(s.ctx, bvaKey, *row.BVA, 0)
	} else {
		pipe.Del(s.ctx, bvaKey)
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever linha agregada no Redis: %w", err)
	}
	return nil
}

// WritePrediction espelha a última classificação e a adiciona ao
// histórico limitado
func (s *Service) WritePrediction(prediction models.Prediction) error {
	if !s.IsConnected() {
		return nil
	}

	data, err := json.Marshal(prediction)
	if err != nil {
		return fmt.Errorf("erro ao serializar classificação: %w", err)
	}

	timestamp := prediction.Timestamp.UnixNano() / int64(time.Millisecond)
	pipe := s.client.Pipeline()

	pipe.Set(s.ctx, fmt.Sprintf("%s:prediction", s.prefix), string(data), 0)

	histKey := fmt.Sprintf("%s:predictions", s.prefix)
	pipe.ZAdd(s.ctx, histKey, &redis.Z{
		Score:  float64(timestamp),
		Member: string(data),
	})
	pipe.ZRemRangeByRank(s.ctx, histKey, 0, int64(-1*(s.maxPredictionHistory+1)))

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever classificação no Redis: %w", err)
	}
	return nil
}

// WriteAlert registra um alerta disparado no histórico limitado
func (s *Service) WriteAlert(event models.AlertEvent) error {
	if !s.IsConnected() {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("erro ao serializar alerta: %w", err)
	}

	timestamp := event.Timestamp.UnixNano() / int64(time.Millisecond)
	pipe := s.client.Pipeline()

	pipe.Set(s.ctx, fmt.Sprintf("%s:alert", s.prefix), string(data), 0)

	histKey := fmt.Sprintf("%s:alerts", s.prefix)
	pipe.ZAdd(s.ctx, histKey, &redis.Z{
		Score:  float64(timestamp),
		Member: string(data),
	})
	pipe.ZRemRangeByRank(s.ctx, histKey, 0, int64(-1*(s.maxAlertHistory+1)))

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever alerta no Redis: %w", err)
	}

	logger.Debugf("Alerta %s registrado no Redis", event.ID)
	return nil
}

// WriteStatus espelha o status atual da pipeline
func (s *Service) WriteStatus(status models.PipelineStatus) error {
	if !s.IsConnected() {
		return nil
	}

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, fmt.Sprintf("%s:status", s.prefix), status.Status, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:status_timestamp", s.prefix),
		status.Timestamp.UnixNano()/int64(time.Millisecond), 0)

	if status.LastError != "" {
		pipe.Set(s.ctx, fmt.Sprintf("%s:ultimo_erro", s.prefix), status.LastError, 0)
	}
	if status.ErrorCount > 0 {
		pipe.Set(s.ctx, fmt.Sprintf("%s:erros_consecutivos", s.prefix), status.ErrorCount, 0)
	}

	if _, err := pipe.Exec(s.ctx); err != nil {
		s.markDisconnected()
		return fmt.Errorf("erro ao escrever status no Redis: %w", err)
	}
	return nil
}

// GetRecentPredictions retorna as classificações mais recentes do
// histórico, da mais nova para a mais antiga
func (s *Service) GetRecentPredictions(limit int) ([]models.Prediction, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	if limit <= 0 {
		limit = 50
	}

	histKey := fmt.Sprintf("%s:predictions", s.prefix)
	cmd := s.client.ZRevRange(s.ctx, histKey, 0, int64(limit-1))
	if cmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter classificações: %w", cmd.Err())
	}

	entries := cmd.Val()
	predictions := make([]models.Prediction, 0, len(entries))
	for _, entry := range entries {
		var prediction models.Prediction
		if err := json.Unmarshal([]byte(entry), &prediction); err != nil {
			continue
		}
		predictions = append(predictions, prediction)
	}
	return predictions, nil
}

// GetRecentAlerts retorna os alertas mais recentes do histórico
func (s *Service) GetRecentAlerts(limit int) ([]models.AlertEvent, error) {
	if !s.IsConnected() {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	if limit <= 0 {
		limit = 20
	}

	histKey := fmt.Sprintf("%s:alerts", s.prefix)
	cmd := s.client.ZRevRange(s.ctx, histKey, 0, int64(limit-1))
	if cmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter alertas: %w", cmd.Err())
	}

	entries := cmd.Val()
	alerts := make([]models.AlertEvent, 0, len(entries))
	for _, entry := range entries {
		var event models.AlertEvent
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			continue
		}
		alerts = append(alerts, event)
	}
	return alerts, nil
}

// markDisconnected marca o serviço como desconectado após falha de escrita
func (s *Service) markDisconnected() {
	s.mutex.Lock()
	s.connected = false
	s.mutex.Unlock()
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}
