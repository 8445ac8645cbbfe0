package alert

import (
	"net"
	"testing"
	"time"

	"cogload_go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiresExactlyOnceAtConsensus(t *testing.T) {
	d := NewDebouncer(10)

	// 9 rótulos iguais: ainda coletando
	for i := 0; i < 9; i++ {
		_, fired := d.Observe("HIGH")
		assert.False(t, fired, "não deve disparar com %d rótulos", i+1)
	}

	// O décimo completa o consenso
	event, fired := d.Observe("HIGH")
	require.True(t, fired)
	assert.Equal(t, "HIGH", event.Label)
	assert.Equal(t, 10, event.WindowSize)
	assert.NotEmpty(t, event.ID)

	// Histórico vazio imediatamente após o disparo
	assert.Empty(t, d.History())
}

func TestOutlierSlidesWindowWithoutReset(t *testing.T) {
	d := NewDebouncer(10)

	// 9 iguais seguidos de 1 divergente: nunca dispara, e o histórico
	// fica com 10 entradas (o divergente apenas ocupa o último slot)
	for i := 0; i < 9; i++ {
		_, fired := d.Observe("HIGH")
		require.False(t, fired)
	}
	_, fired := d.Observe("LOW")
	require.False(t, fired)

	history := d.History()
	require.Len(t, history, 10)
	assert.Equal(t, "LOW", history[9])
	assert.Equal(t, "HIGH", history[0])
}

func TestSlidingConsensusAfterOutlier(t *testing.T) {
	// Janela deslizante: depois de um divergente, bastam rótulos iguais
	// suficientes para expulsá-lo - não é um contador de sequência zerado
	d := NewDebouncer(3)

	_, fired := d.Observe("A")
	require.False(t, fired)
	_, fired = d.Observe("B")
	require.False(t, fired)
	_, fired = d.Observe("B")
	require.False(t, fired) // janela: A B B

	// "A" é expulso; janela vira B B B e dispara
	event, fired := d.Observe("B")
	require.True(t, fired)
	assert.Equal(t, "B", event.Label)
}

func TestOneShotUntilRebuilt(t *testing.T) {
	d := NewDebouncer(3)

	for i := 0; i < 3; i++ {
		d.Observe("HIGH")
	}
	require.Empty(t, d.History())

	// Após disparar, dois rótulos iguais não bastam
	_, fired := d.Observe("HIGH")
	assert.False(t, fired)
	_, fired = d.Observe("HIGH")
	assert.False(t, fired)

	// Só a reconstrução completa dispara de novo
	_, fired = d.Observe("HIGH")
	assert.True(t, fired)
}

func TestDefaultWindowSize(t *testing.T) {
	d := NewDebouncer(0)
	assert.Equal(t, DefaultWindowSize, d.WindowSize())
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "ALERT|HIGH", FormatMessage("high"))
	assert.Equal(t, "ALERT|MEDIUM", FormatMessage("Medium"))
}

func TestSenderDeliversDatagram(t *testing.T) {
	// Listener UDP local para capturar o datagrama enviado
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	port := listener.LocalAddr().(*net.UDPAddr).Port
	sender, err := NewSender(config.AlertConfig{
		Host:        "127.0.0.1",
		Port:        port,
		SendTimeout: time.Second,
	})
	require.NoError(t, err)
	defer sender.Close()

	require.NoError(t, sender.Send("high"))

	buf := make([]byte, 64)
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := listener.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "ALERT|HIGH", string(buf[:n]))
}
