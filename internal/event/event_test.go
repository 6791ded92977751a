package event

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "PlanReady", typ: PlanReady},
		{want: "TrackStarted", typ: TrackStarted},
		{want: "TrackProgress", typ: TrackProgress},
		{want: "TrackCompleted", typ: TrackCompleted},
		{want: "TrackFailed", typ: TrackFailed},
		{want: "CueWritten", typ: CueWritten},
		{want: "VerifyStarted", typ: VerifyStarted},
		{want: "VerifyOK", typ: VerifyOK},
		{want: "VerifyFailed", typ: VerifyFailed},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
}

func TestEventZeroValue(t *testing.T) {
	var e Event
	assert.Equal(t, Type(0), e.Type)
	assert.True(t, e.Timestamp.IsZero())
	assert.Empty(t, e.Path)
	assert.Zero(t, e.Track)
	assert.Zero(t, e.Size)
	require.NoError(t, e.Error)
}

func TestEventFields(t *testing.T) {
	now := time.Now()
	boom := errors.New("boom")
	e := Event{
		Type:      TrackFailed,
		Timestamp: now,
		Path:      "Game (Track 03).bin",
		Track:     3,
		Size:      2352,
		Error:     boom,
		WorkerID:  2,
	}
	assert.Equal(t, TrackFailed, e.Type)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, 3, e.Track)
	assert.Equal(t, int64(2352), e.Size)
	assert.ErrorIs(t, e.Error, boom)
	assert.Equal(t, 2, e.WorkerID)
}
