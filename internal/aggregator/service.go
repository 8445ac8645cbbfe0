package aggregator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cogload_go/internal/alert"
	"cogload_go/internal/buffer"
	"cogload_go/internal/classifier"
	"cogload_go/internal/config"
	"cogload_go/internal/models"
	"cogload_go/internal/redis"
	"cogload_go/internal/signal"
	"cogload_go/internal/storage"
	"cogload_go/internal/websocket"
	"cogload_go/pkg/logger"
)

// AlertTransport envia um alerta disparado para o consumidor externo.
// A entrega é best-effort: o serviço apenas registra falhas.
type AlertTransport interface {
	Send(label string) error
}

// Service executa o ciclo periódico de agregação: a cada intervalo,
// esvazia os buffers de amostras, calcula o BVA e as médias por canal,
// classifica a carga cognitiva quando o vetor de features está completo
// e aciona persistência, distribuição e alerta. Os ciclos nunca se
// sobrepõem; se um ciclo demorar mais que o intervalo, o próximo começa
// atrasado.
type Service struct {
	store        *buffer.Store
	config       config.AggregatorConfig
	adapter      *classifier.Adapter
	debouncer    *alert.Debouncer
	sink         *storage.CSVSink
	transport    AlertTransport
	redisService *redis.Service
	wsHub        *websocket.Hub

	// Ordem de coleta: canal cardiovascular primeiro
	cycleOrder []string

	// Scaler reajustado a cada ciclo sobre o único BVA observado
	rescaler *signal.MinMaxScaler

	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	mutex   sync.RWMutex

	consecutiveErrors int
	lastErrorMsg      string

	lastRow        *models.AggregatedRow
	lastPrediction *models.Prediction
	recentAlerts   []models.AlertEvent

	// Estatísticas de desempenho
	stats struct {
		totalCycles      int64
		cycleDurations   []time.Duration
		avgCycleDuration time.Duration
	}
	statsLock sync.Mutex

	// Flag para espelhamento assíncrono no Redis
	asyncRedis bool
}

// NewService cria um novo serviço de agregação. redisService e wsHub são
// opcionais (nil desativa o espelhamento/broadcast correspondente).
func NewService(cfg config.AggregatorConfig, store *buffer.Store, adapter *classifier.Adapter,
	debouncer *alert.Debouncer, sink *storage.CSVSink, transport AlertTransport,
	redisService *redis.Service, wsHub *websocket.Hub) *Service {

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = config.TrackedChannels
	}
	if cfg.CardioChannel == "" {
		cfg.CardioChannel = "PPG:IR"
	}

	service := &Service{
		store:        store,
		config:       cfg,
		adapter:      adapter,
		debouncer:    debouncer,
		sink:         sink,
		transport:    transport,
		redisService: redisService,
		wsHub:        wsHub,
		rescaler:     signal.NewMinMaxScaler(),
		ctx:          ctx,
		cancel:       cancel,
		asyncRedis:   true,
	}

	// Canal cardiovascular primeiro, depois os demais na ordem configurada
	service.cycleOrder = append(service.cycleOrder, cfg.CardioChannel)
	for _, ch := range cfg.Channels {
		if ch != cfg.CardioChannel {
			service.cycleOrder = append(service.cycleOrder, ch)
		}
	}

	service.stats.cycleDurations = make([]time.Duration, 0, 100)

	return service
}

// Start inicia o loop periódico de agregação
func (s *Service) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	logger.Infof("Iniciando ciclo de agregação (intervalo: %v, canal cardiovascular: %s)",
		s.config.Interval, s.config.CardioChannel)

	go s.run()

	s.running = true
	return nil
}

// Stop para o loop de agregação
func (s *Service) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	logger.Info("Parando ciclo de agregação")
	s.cancel()
	s.running = false
}

// IsRunning verifica se o serviço está em execução
func (s *Service) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// SetAsyncRedis configura o espelhamento assíncrono para o Redis
func (s *Service) SetAsyncRedis(async bool) {
	s.asyncRedis = async
}

// run executa o loop principal de ciclos de agregação
func (s *Service) run() {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.safeCycle()
		}
	}
}

// safeCycle executa um ciclo protegido contra panics: um ciclo ruim é
// registrado e o loop periódico continua
func (s *Service) safeCycle() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic no ciclo de agregação: %v", r)
			s.registerError("panic no ciclo de agregação")
		}
	}()

	start := time.Now()
	s.RunCycle()
	s.recordCycleDuration(time.Since(start))
}

// RunCycle executa exatamente um ciclo de agregação de forma síncrona.
// Exportado para que testes executem ciclos determinísticos sem esperar
// o relógio.
func (s *Service) RunCycle() {
	timestamp := time.Now()

	// Coleta atômica de todos os canais, cardiovascular primeiro
	snapshots := s.store.SnapshotAndClearAll(s.cycleOrder)

	// BVA da janela do canal cardiovascular
	cardioSamples := snapshots[s.config.CardioChannel]
	var bvaValue, bvaScaled *float64
	if bva, ok := signal.ComputeBVA(cardioSamples); ok {
		value := bva
		bvaValue = &value

		// Reajuste min-max sobre o único valor do ciclo: degenera em um
		// valor fixo por ciclo (comportamento herdado, ver DESIGN.md)
		scaled := s.rescaler.FitTransform(bva)
		bvaScaled = &scaled
	}

	// Médias por canal; canal sem amostras fica com o marcador de ausência
	row := models.AggregatedRow{
		Timestamp: timestamp,
		Values:    make(map[string]*float64, len(s.config.Channels)),
		BVA:       bvaValue,
	}
	for _, ch := range s.config.Channels {
		samples := snapshots[ch]
		if len(samples) == 0 {
			row.Values[ch] = nil
			continue
		}
		avg := mean(samples)
		row.Values[ch] = &avg
	}

	// A linha agregada é persistida incondicionalmente
	if err := s.sink.WriteRow(row); err != nil {
		logger.Errorf("Erro ao persistir linha agregada: %v", err)
		s.registerError(err.Error())
	} else {
		s.clearErrors()
	}

	s.mutex.Lock()
	rowCopy := row
	s.lastRow = &rowCopy
	s.mutex.Unlock()

	if s.wsHub != nil {
		s.wsHub.BroadcastRow(row)
	}
	s.mirrorRow(row)

	// Classificação apenas com o vetor de features completo
	eda := row.Values["EDA"]
	temp := row.Values["T1"]
	if eda == nil || temp == nil || bvaScaled == nil {
		if s.config.Debug {
			logger.Debugf("Ciclo sem vetor de features completo (EDA: %v, T1: %v, BVA: %v)",
				eda != nil, temp != nil, bvaScaled != nil)
		}
		return
	}

	features := models.FeatureVector{
		EDA:  *eda,
		Temp: *temp,
		BVA:  *bvaScaled,
	}

	if err := s.sink.WriteFeatures(features); err != nil {
		logger.Errorf("Erro ao persistir vetor de features: %v", err)
		s.registerError(err.Error())
	}

	label := s.adapter.Classify(features.EDA, features.Temp, features.BVA)
	logger.Infof("Carga cognitiva prevista: %s", label)

	prediction := models.Prediction{
		Timestamp: timestamp,
		Features:  features,
		Label:     label,
	}

	if err := s.sink.WritePrediction(prediction); err != nil {
		logger.Errorf("Erro ao persistir classificação: %v", err)
		s.registerError(err.Error())
	}

	s.mutex.Lock()
	s.lastPrediction = &prediction
	s.mutex.Unlock()

	if s.wsHub != nil {
		s.wsHub.BroadcastPrediction(prediction)
	}
	s.mirrorPrediction(prediction)

	// Debounce de consenso deslizante sobre os rótulos
	if event, fired := s.debouncer.Observe(label); fired {
		s.handleAlert(event)
	}
}

// handleAlert envia um alerta disparado e registra o evento. A entrega é
// at-most-once: falha no envio é registrada e o histórico do debouncer
// permanece limpo como se o alerta tivesse sido entregue.
func (s *Service) handleAlert(event models.AlertEvent) {
	logger.Warnf("ALERTA: carga cognitiva '%s' sustentada por %d ciclos", event.Label, event.WindowSize)

	if s.transport != nil {
		if err := s.transport.Send(event.Label); err != nil {
			logger.Errorf("Erro ao enviar alerta: %v", err)
		}
	}

	s.mutex.Lock()
	s.recentAlerts = append(s.recentAlerts, event)
	if len(s.recentAlerts) > 20 {
		s.recentAlerts = s.recentAlerts[1:]
	}
	s.mutex.Unlock()

	if s.wsHub != nil {
		s.wsHub.BroadcastAlert(event)
	}

	if s.redisService != nil && s.redisService.IsConnected() {
		if err := s.redisService.WriteAlert(event); err != nil {
			logger.Errorf("Erro ao registrar alerta no Redis: %v", err)
		}
	}
}

// mirrorRow espelha a linha agregada no Redis (potencialmente assíncrono)
func (s *Service) mirrorRow(row models.AggregatedRow) {
	if s.redisService == nil || !s.redisService.IsConnected() {
		return
	}

	write := func() {
		if err := s.redisService.WriteRow(row); err != nil {
			logger.Errorf("Erro ao espelhar linha agregada no Redis: %v", err)
		}
	}
	if s.asyncRedis {
		// Goroutine para não bloquear o ciclo de agregação
		go write()
	} else {
		write()
	}
}

// mirrorPrediction espelha uma classificação no Redis
func (s *Service) mirrorPrediction(prediction models.Prediction) {
	if s.redisService == nil || !s.redisService.IsConnected() {
		return
	}

	write := func() {
		if err := s.redisService.WritePrediction(prediction); err != nil {
			logger.Errorf("Erro ao espelhar classificação no Redis: %v", err)
		}
	}
	if s.asyncRedis {
		go write()
	} else {
		write()
	}
}

// registerError contabiliza uma falha de ciclo para o status da pipeline
func (s *Service) registerError(msg string) {
	s.mutex.Lock()
	s.consecutiveErrors++
	s.lastErrorMsg = msg
	degraded := s.consecutiveErrors == 1
	s.mutex.Unlock()

	// Propagar apenas a transição ok -> degraded
	if degraded {
		logger.Warnf("Status da pipeline alterado para 'degraded': %s", msg)
		s.pushStatus()
	}
}

// clearErrors zera o contador de falhas consecutivas
func (s *Service) clearErrors() {
	s.mutex.Lock()
	restored := s.consecutiveErrors > 0
	failures := s.consecutiveErrors
	s.consecutiveErrors = 0
	s.lastErrorMsg = ""
	s.mutex.Unlock()

	if restored {
		logger.Infof("Pipeline restaurada após %d falhas consecutivas", failures)
		s.pushStatus()
	}
}

// pushStatus publica o status atual no Redis e nos clientes WebSocket.
// Chamado nas transições ok <-> degraded.
func (s *Service) pushStatus() {
	status := s.GetStatus()

	if s.redisService != nil && s.redisService.IsConnected() {
		if err := s.redisService.WriteStatus(status); err != nil {
			logger.Errorf("Erro ao espelhar status no Redis: %v", err)
		}
	}

	if s.wsHub != nil {
		s.wsHub.BroadcastStatus(status)
	}
}

// recordCycleDuration registra a duração de um ciclo para estatísticas
func (s *Service) recordCycleDuration(duration time.Duration) {
	s.statsLock.Lock()
	defer s.statsLock.Unlock()

	atomic.AddInt64(&s.stats.totalCycles, 1)

	s.stats.cycleDurations = append(s.stats.cycleDurations, duration)
	if len(s.stats.cycleDurations) > 100 {
		// Manter apenas as últimas 100 amostras
		s.stats.cycleDurations = s.stats.cycleDurations[1:]
	}

	var sum time.Duration
	for _, d := range s.stats.cycleDurations {
		sum += d
	}
	s.stats.avgCycleDuration = sum / time.Duration(len(s.stats.cycleDurations))

	if s.config.Debug && s.stats.totalCycles%100 == 0 {
		logger.Debugf("Estatísticas de agregação: %d ciclos totais, duração média: %v",
			s.stats.totalCycles, s.stats.avgCycleDuration)
	}
}

// GetStatus retorna o status atual da pipeline de agregação
func (s *Service) GetStatus() models.PipelineStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	status := "ok"
	if !s.running {
		status = "stopped"
	} else if s.consecutiveErrors > 0 {
		status = "degraded"
	}

	return models.PipelineStatus{
		Status:      status,
		Timestamp:   time.Now(),
		ModelLoaded: s.adapter.Available(),
		LastError:   s.lastErrorMsg,
		ErrorCount:  s.consecutiveErrors,
		TotalCycles: atomic.LoadInt64(&s.stats.totalCycles),
	}
}

// GetLastRow retorna a última linha agregada produzida
func (s *Service) GetLastRow() *models.AggregatedRow {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastRow
}

// GetLastPrediction retorna a última classificação produzida
func (s *Service) GetLastPrediction() *models.Prediction {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastPrediction
}

// GetRecentAlerts retorna os alertas recentes mantidos em memória
func (s *Service) GetRecentAlerts() []models.AlertEvent {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]models.AlertEvent, len(s.recentAlerts))
	copy(out, s.recentAlerts)
	return out
}

// mean calcula a média aritmética de uma sequência não vazia
func mean(samples []float64) float64 {
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}
