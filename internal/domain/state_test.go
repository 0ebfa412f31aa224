package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	for _, s := range []State{StateDiscovered, StateParsed, StateValidated, StateTabularWritten, StateGriddedWritten} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestNewStationEvent_StampsUTC(t *testing.T) {
	at := time.Date(2024, 6, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*60*60))

	ev := NewStationEvent("run-1", "PLATO_01", StateParsed, at)

	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), ev.Time)
	assert.Equal(t, time.UTC, ev.Time.Location())
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, StateParsed, ev.State)
}
