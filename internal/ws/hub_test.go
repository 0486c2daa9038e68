package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishEnqueuesEnvelope(t *testing.T) {
	h := NewHub(zap.NewNop())

	h.Publish(Message{Type: "schedule_update", Action: "reservations_shifted", Data: []string{"a", "b"}})

	raw := <-h.Broadcast
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "schedule_update", got["type"])
	assert.Equal(t, "reservations_shifted", got["action"])
	assert.Len(t, got["data"], 2)
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub(zap.NewNop())
	for i := 0; i < cap(h.Broadcast)+5; i++ {
		h.Publish(Message{Type: "t", Action: "a"})
	}
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
}

func TestStopEndsRun(t *testing.T) {
	h := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()
	h.Stop()
	<-done
}
