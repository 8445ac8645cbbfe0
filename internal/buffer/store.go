package buffer

import "sync"

// DefaultCapacity é a capacidade padrão de cada buffer de canal
const DefaultCapacity = 500

// ring é um buffer circular de amostras com capacidade fixa.
// Quando cheio, a amostra mais antiga é descartada.
type ring struct {
	data []float64
	head int
	size int
}

func newRing(capacity int) *ring {
	return &ring{data: make([]float64, capacity)}
}

// push adiciona uma amostra, descartando a mais antiga se o buffer estiver cheio
func (r *ring) push(value float64) {
	if r.size < len(r.data) {
		r.data[(r.head+r.size)%len(r.data)] = value
		r.size++
		return
	}
	// Buffer cheio: sobrescrever a posição mais antiga e avançar a cabeça
	r.data[r.head] = value
	r.head = (r.head + 1) % len(r.data)
}

// drain retorna as amostras em ordem de chegada e esvazia o buffer
func (r *ring) drain() []float64 {
	out := make([]float64, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.data[(r.head+i)%len(r.data)]
	}
	r.head = 0
	r.size = 0
	return out
}

// Store armazena amostras por canal de forma segura para concorrência.
// O produtor (listener OSC) grava continuamente e o ciclo de agregação
// lê e limpa periodicamente; as duas operações são serializadas pelo
// mesmo mutex, de modo que nenhuma amostra é perdida nem duplicada
// entre ciclos consecutivos.
type Store struct {
	mu       sync.Mutex
	capacity int
	buffers  map[string]*ring
}

// NewStore cria um novo Store com a capacidade por canal informada.
// Capacidade não positiva usa DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		buffers:  make(map[string]*ring),
	}
}

// Record adiciona uma amostra ao buffer do canal, criando o buffer na
// primeira gravação. Se o buffer estiver cheio, a amostra mais antiga
// é descartada. O lock é mantido apenas durante a mutação do buffer.
func (s *Store) Record(channel string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.buffers[channel]
	if !ok {
		buf = newRing(s.capacity)
		s.buffers[channel] = buf
	}
	buf.push(value)
}

// SnapshotAndClear retorna atomicamente todas as amostras acumuladas do
// canal, em ordem de chegada, e esvazia o buffer. Um canal sem amostras
// (ou desconhecido) retorna uma sequência vazia, nunca um erro.
func (s *Store) SnapshotAndClear(channel string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked(channel)
}

// SnapshotAndClearAll retorna e esvazia os buffers de todos os canais
// informados em uma única seção crítica, garantindo que as janelas de
// amostragem dos canais coincidam dentro do mesmo ciclo.
func (s *Store) SnapshotAndClearAll(channels []string) map[string][]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]float64, len(channels))
	for _, ch := range channels {
		out[ch] = s.snapshotLocked(ch)
	}
	return out
}

// snapshotLocked esvazia o buffer de um canal; o chamador detém o lock
func (s *Store) snapshotLocked(channel string) []float64 {
	buf, ok := s.buffers[channel]
	if !ok {
		return []float64{}
	}
	return buf.drain()
}

// Len retorna o número de amostras atualmente acumuladas em um canal
func (s *Store) Len(channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok := s.buffers[channel]; ok {
		return buf.size
	}
	return 0
}

// Channels retorna os nomes dos canais que já receberam amostras
func (s *Store) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.buffers))
	for name := range s.buffers {
		names = append(names, name)
	}
	return names
}
