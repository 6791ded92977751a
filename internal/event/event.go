package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	PlanReady Type = iota + 1
	TrackStarted
	TrackProgress
	TrackCompleted
	TrackFailed
	CueWritten
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	PlanReady:      "PlanReady",
	TrackStarted:   "TrackStarted",
	TrackProgress:  "TrackProgress",
	TrackCompleted: "TrackCompleted",
	TrackFailed:    "TrackFailed",
	CueWritten:     "CueWritten",
	VerifyStarted:  "VerifyStarted",
	VerifyOK:       "VerifyOK",
	VerifyFailed:   "VerifyFailed",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string // destination path, or the cue sheet for CueWritten
	Type      Type
	Track     int
	Size      int64 // extent length or bytes-so-far
	Total     int64 // number of tracks (PlanReady)
	TotalSize int64 // bytes to copy (PlanReady)
	WorkerID  int
}
