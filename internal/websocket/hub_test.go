package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogload_go/internal/models"
)

func TestBroadcastStatusEnfileiraMensagem(t *testing.T) {
	h := NewHub()

	h.BroadcastStatus(models.PipelineStatus{
		Status:      "degraded",
		ModelLoaded: true,
		LastError:   "disco cheio",
		ErrorCount:  2,
	})

	select {
	case raw := <-h.broadcast:
		var msg models.StatusMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "status", msg.Type)
		assert.Equal(t, "degraded", msg.Status)
		assert.Equal(t, "disco cheio", msg.LastError)
		assert.Equal(t, 2, msg.ErrorCount)
	default:
		t.Fatal("nenhuma mensagem de status enfileirada")
	}
}

func TestBroadcastAlertEnfileiraMensagem(t *testing.T) {
	h := NewHub()

	h.BroadcastAlert(models.AlertEvent{ID: "abc", Label: "HIGH", WindowSize: 10})

	select {
	case raw := <-h.broadcast:
		var msg models.AlertMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "alert", msg.Type)
		assert.Equal(t, "HIGH", msg.Alert.Label)
	default:
		t.Fatal("nenhuma mensagem de alerta enfileirada")
	}
}

func TestParseClientCommand(t *testing.T) {
	cmd, err := ParseClientCommand([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, "ping", cmd.Type)

	// Campos desconhecidos são rejeitados
	_, err = ParseClientCommand([]byte(`{"type":"ping","bogus":1}`))
	assert.Error(t, err)
}
