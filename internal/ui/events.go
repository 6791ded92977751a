package ui

import "github.com/bamsammich/cuemerge/internal/event"

// Event is the engine progress event consumed by presenters.
type Event = event.Event

// Re-export event types for convenience.
const (
	PlanReady      = event.PlanReady
	TrackStarted   = event.TrackStarted
	TrackProgress  = event.TrackProgress
	TrackCompleted = event.TrackCompleted
	TrackFailed    = event.TrackFailed
	CueWritten     = event.CueWritten
	VerifyStarted  = event.VerifyStarted
	VerifyOK       = event.VerifyOK
	VerifyFailed   = event.VerifyFailed
)
