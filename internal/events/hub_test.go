package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishFanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish("hello")

	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	for i := 0; i < cap(ch)+5; i++ {
		h.Publish("evt")
	}
	assert.Len(t, ch, cap(ch), "overflow is dropped, publisher never blocks")
}

func TestHubUnsubscribeTwiceIsSafe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)
	h.Unsubscribe(ch)
	assert.Equal(t, 0, h.Subscribers())
}

func TestMakeEvent(t *testing.T) {
	s := MakeEvent("req-1", TypeIngestFinished, 1, map[string]int{"inserted": 3})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(s), &e))
	assert.Equal(t, TypeIngestFinished, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.False(t, e.At.IsZero())
	assert.JSONEq(t, `{"inserted":3}`, string(e.Data))
}

func TestMakeEventNilData(t *testing.T) {
	s := MakeEvent("", TypeJobsRefreshed, 1, nil)

	var e Event
	require.NoError(t, json.Unmarshal([]byte(s), &e))
	assert.Empty(t, e.RequestID)
	assert.Nil(t, e.Data)
}
