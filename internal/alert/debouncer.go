package alert

import (
	"sync"
	"time"

	"cogload_go/internal/models"

	"github.com/google/uuid"
)

// DefaultWindowSize é o tamanho padrão da janela de consenso
const DefaultWindowSize = 10

// Debouncer mantém o histórico limitado dos rótulos mais recentes e
// dispara um alerta quando a janela está exatamente cheia com rótulos
// todos iguais. É um debounce de consenso deslizante: um rótulo
// divergente apenas expulsa a entrada mais antiga, não zera o histórico.
// Após disparar, o histórico é limpo por completo e só pode disparar de
// novo quando for reconstruído do zero até encher a janela.
type Debouncer struct {
	mu      sync.Mutex
	window  int
	history []string
}

// NewDebouncer cria um debouncer com a janela de consenso informada.
// Janela não positiva usa DefaultWindowSize.
func NewDebouncer(window int) *Debouncer {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return &Debouncer{
		window:  window,
		history: make([]string, 0, window),
	}
}

// Observe registra um novo rótulo no histórico. Se, imediatamente após
// o registro, o histórico estiver exatamente cheio e todos os rótulos
// forem iguais, retorna o evento de alerta (disparado uma única vez) e
// limpa o histórico; caso contrário retorna ok=false.
func (d *Debouncer) Observe(label string) (models.AlertEvent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Janela deslizante: expulsar o mais antigo quando cheia
	if len(d.history) == d.window {
		d.history = d.history[1:]
	}
	d.history = append(d.history, label)

	if len(d.history) < d.window {
		return models.AlertEvent{}, false
	}

	// Reavaliar a janela inteira, não apenas uma contagem de sequência
	for _, l := range d.history {
		if l != label {
			return models.AlertEvent{}, false
		}
	}

	event := models.AlertEvent{
		ID:         uuid.New().String(),
		Label:      label,
		Timestamp:  time.Now(),
		WindowSize: d.window,
	}

	// Limpeza total após o disparo: o próximo alerta exige reconstruir
	// o histórico do zero
	d.history = d.history[:0]

	return event, true
}

// History retorna uma cópia do histórico atual de rótulos
func (d *Debouncer) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(d.history))
	copy(out, d.history)
	return out
}

// WindowSize retorna o tamanho da janela de consenso
func (d *Debouncer) WindowSize() int {
	return d.window
}
