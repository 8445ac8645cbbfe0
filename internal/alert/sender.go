package alert

import (
	"fmt"
	"net"
	"strings"
	"time"

	"cogload_go/internal/config"
	"cogload_go/pkg/logger"
)

// Sender envia alertas como datagramas UDP de texto para um consumidor
// externo fixo (por exemplo, uma aplicação Unity). Entrega é best-effort:
// falhas são registradas e nunca repetidas nem escaladas.
type Sender struct {
	conn    net.Conn
	addr    string
	timeout time.Duration
}

// NewSender cria um sender UDP para o destino configurado
func NewSender(cfg config.AlertConfig) (*Sender, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("erro ao preparar socket de alerta para %s: %w", addr, err)
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	return &Sender{
		conn:    conn,
		addr:    addr,
		timeout: timeout,
	}, nil
}

// Send envia um alerta no formato "ALERT|<LABEL>" com o rótulo em
// maiúsculas. Retorna erro apenas para registro; o chamador não deve
// tentar reenviar.
func (s *Sender) Send(label string) error {
	message := FormatMessage(label)

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("erro ao definir deadline de escrita: %w", err)
	}

	if _, err := s.conn.Write([]byte(message)); err != nil {
		return fmt.Errorf("erro ao enviar alerta para %s: %w", s.addr, err)
	}

	logger.Infof("Alerta enviado para %s: %s", s.addr, message)
	return nil
}

// Close fecha o socket de alerta
func (s *Sender) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// FormatMessage formata a mensagem de alerta na forma "ALERT|<LABEL>"
func FormatMessage(label string) string {
	return "ALERT|" + strings.ToUpper(label)
}
