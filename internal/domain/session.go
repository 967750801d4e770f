package domain

import (
	"context"
	"time"
)

// FacingMode selects which camera to prefer.
type FacingMode string

// Facing modes.
const (
	FacingAny  FacingMode = ""
	FacingUser FacingMode = "user"
)

// Constraints describe the video stream requested from the camera.
// Zero values mean "no preference".
type Constraints struct {
	Facing FacingMode
	Width  int
	Height int
}

// Preferred and fallback constraints for acquiring the camera.
var (
	PreferredConstraints = Constraints{Facing: FacingUser, Width: 640, Height: 480}
	FallbackConstraints  = Constraints{}
)

// Stream is an acquired video stream. Release must be idempotent.
type Stream interface {
	Release() error
}

// Camera is the port for acquiring a video stream. Failures wrap one of the
// ErrCamera* sentinels.
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Tone plays an audible cue. It must not block.
type Tone interface {
	Play(pitch float64)
}

// Ticker delivers periodic ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock supplies the current time and tickers, so time can be driven in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// SessionState is the phase of the attempt controller.
type SessionState string

// Session states.
const (
	StateIdle             SessionState = "idle"
	StateRequestingCamera SessionState = "requesting_camera"
	StateCountdown        SessionState = "countdown"
	StateRunning          SessionState = "running"
	StateError            SessionState = "error"
)

// Active reports whether an attempt is in progress.
func (s SessionState) Active() bool {
	return s == StateRequestingCamera || s == StateCountdown || s == StateRunning
}

// Outcome is how a stopped attempt ended.
type Outcome string

// Attempt outcomes.
const (
	OutcomeCancelled Outcome = "cancelled"
	OutcomeRecorded  Outcome = "recorded"
	OutcomeTooShort  Outcome = "too_short"
	OutcomeDiscarded Outcome = "discarded"
)

// SessionEventType tags a SessionEvent.
type SessionEventType string

// Session event types.
const (
	EventState         SessionEventType = "state"
	EventTick          SessionEventType = "tick"
	EventStopped       SessionEventType = "stopped"
	EventQuotaRejected SessionEventType = "quota_rejected"
	EventCameraFailed  SessionEventType = "camera_failed"
)

// SessionEvent describes one change of the attempt controller.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	State     SessionState     `json:"state"`
	Countdown int              `json:"countdown,omitempty"`
	Elapsed   int              `json:"elapsed"`
	Outcome   Outcome          `json:"outcome,omitempty"`
	Cause     string           `json:"cause,omitempty"`
	Kind      string           `json:"kind,omitempty"`
	At        time.Time        `json:"at"`
}

// SessionObserver receives session events. Implementations must not block.
type SessionObserver interface {
	OnSessionEvent(e SessionEvent)
}

// Cue parameters: a cue sounds every CueInterval seconds of hold time, its
// pitch stepping through CueScale and wrapping after the last step.
const (
	CueInterval      = 10
	CueBaseFrequency = 523.25 // C5, Hz
)

// CueScale holds the pitch multipliers of successive cues.
var CueScale = [...]float64{1, 9.0 / 8, 5.0 / 4, 4.0 / 3, 3.0 / 2, 5.0 / 3, 15.0 / 8, 2}

// PitchForElapsed returns the cue pitch multiplier for a hold of s seconds.
func PitchForElapsed(s int) float64 {
	if s < 0 {
		s = 0
	}
	return CueScale[(s/CueInterval)%len(CueScale)]
}

// CueFrequency converts a pitch multiplier to Hz.
func CueFrequency(pitch float64) float64 {
	return CueBaseFrequency * pitch
}
