package osc

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"cogload_go/internal/buffer"
	"cogload_go/internal/config"
	"cogload_go/pkg/logger"

	"github.com/hypebeast/go-osc/osc"
)

// Service escuta mensagens OSC do EmotiBit via UDP e grava cada par
// (canal, valor) no Store de buffers. É o único produtor da pipeline.
type Service struct {
	store   *buffer.Store
	config  config.OSCConfig
	conn    net.PacketConn
	server  *osc.Server
	mutex   sync.Mutex
	running bool

	// Contador de mensagens recebidas (para o status da pipeline)
	messagesReceived int64
}

// NewService cria um novo listener OSC gravando no Store informado
func NewService(cfg config.OSCConfig, store *buffer.Store) *Service {
	return &Service{
		store:  store,
		config: cfg,
	}
}

// Start vincula o socket UDP e inicia o loop de recebimento em uma
// goroutine. Falha ao vincular o socket é a única condição fatal.
func (s *Service) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return fmt.Errorf("erro ao vincular listener OSC em %s: %w", addr, err)
	}
	s.conn = conn

	s.server = &osc.Server{
		Addr:       addr,
		Dispatcher: dispatcher{service: s},
	}

	go func() {
		if err := s.server.Serve(conn); err != nil {
			// Serve retorna erro também no encerramento normal do socket
			logger.Debugf("Listener OSC encerrado: %v", err)
		}
	}()

	s.running = true
	logger.Infof("Listener OSC escutando em %s", addr)
	return nil
}

// Stop encerra o listener fechando o socket
func (s *Service) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.running {
		return
	}

	if s.conn != nil {
		s.conn.Close()
	}
	s.running = false
	logger.Info("Listener OSC parado")
}

// IsRunning verifica se o listener está ativo
func (s *Service) IsRunning() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

// MessagesReceived retorna o total de mensagens OSC processadas
func (s *Service) MessagesReceived() int64 {
	return atomic.LoadInt64(&s.messagesReceived)
}

// handleMessage processa uma mensagem OSC individual. O canal é o último
// segmento do endereço (por exemplo, /EmotiBit/0/PPG:IR -> PPG:IR) e
// cada argumento numérico vira uma amostra gravada verbatim.
func (s *Service) handleMessage(msg *osc.Message) {
	channel := ChannelFromAddress(msg.Address)
	if channel == "" {
		return
	}

	// Uma mensagem conta uma vez, independente do número de argumentos
	atomic.AddInt64(&s.messagesReceived, 1)

	for _, arg := range msg.Arguments {
		value, ok := numericValue(arg)
		if !ok {
			continue
		}
		s.store.Record(channel, value)
	}
}

// dispatcher entrega qualquer pacote OSC recebido ao serviço,
// independentemente do endereço (handler genérico)
type dispatcher struct {
	service *Service
}

// Dispatch implementa osc.Dispatcher; bundles são percorridos recursivamente
func (d dispatcher) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		d.service.handleMessage(p)
	case *osc.Bundle:
		for _, msg := range p.Messages {
			d.service.handleMessage(msg)
		}
		for _, bundle := range p.Bundles {
			d.Dispatch(bundle)
		}
	}
}

// ChannelFromAddress extrai o nome do canal de um endereço OSC e aplica
// o remapeamento de alias conhecido (TEMP2 -> T1)
func ChannelFromAddress(address string) string {
	idx := strings.LastIndex(address, "/")
	channel := address
	if idx >= 0 {
		channel = address[idx+1:]
	}

	if channel == "TEMP2" {
		channel = "T1"
	}
	return channel
}

// numericValue converte um argumento OSC em float64, quando numérico
func numericValue(arg interface{}) (float64, bool) {
	switch v := arg.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
