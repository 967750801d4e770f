package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"plank/internal/domain"
)

// Session defaults.
const (
	DefaultQuota      = 3
	DefaultMinSeconds = 5
	DefaultCountdown  = 3
)

// SessionConfig tunes the attempt controller.
type SessionConfig struct {
	// Quota is the number of saved attempts allowed per local day.
	Quota int
	// MinSeconds is the hold length an attempt must exceed to be saved.
	MinSeconds int
	// Countdown is the number of seconds counted down before the hold starts.
	Countdown int
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Quota <= 0 {
		c.Quota = DefaultQuota
	}
	if c.MinSeconds <= 0 {
		c.MinSeconds = DefaultMinSeconds
	}
	if c.Countdown <= 0 {
		c.Countdown = DefaultCountdown
	}
	return c
}

// AttemptLog is the persistence the controller needs for quota checks and
// saving holds.
type AttemptLog interface {
	CountForDay(ctx context.Context, day string) (int, error)
	Append(ctx context.Context, duration int, endedAt time.Time) (domain.TrainingLog, int, error)
}

// StopResult reports how a stopped attempt ended.
type StopResult struct {
	Outcome    domain.Outcome      `json:"outcome"`
	Elapsed    int                 `json:"elapsed"`
	Log        *domain.TrainingLog `json:"log,omitempty"`
	TodayCount int                 `json:"todayCount"`
}

// Status is a snapshot of the controller for display.
type Status struct {
	State      domain.SessionState `json:"state"`
	Countdown  int                 `json:"countdown"`
	Elapsed    int                 `json:"elapsed"`
	Pitch      float64             `json:"pitch"`
	Cause      string              `json:"cause,omitempty"`
	Kind       string              `json:"kind,omitempty"`
	Today      string              `json:"today"`
	TodayCount int                 `json:"todayCount"`
	Quota      int                 `json:"quota"`
}

// SessionTimer drives one plank attempt at a time: camera acquisition, a
// countdown, then a stopwatch with periodic audio cues. Exactly one ticker
// is live while counting; the camera stream is held only while an attempt is
// active and is released on every exit path.
type SessionTimer struct {
	cfg       SessionConfig
	camera    domain.Camera
	tone      domain.Tone
	clock     domain.Clock
	logs      AttemptLog
	observers []domain.SessionObserver
	logger    *slog.Logger

	mu        sync.Mutex
	state     domain.SessionState
	gen       uint64 // bumped whenever an in-flight camera request must be abandoned
	countdown int
	elapsed   int
	cause     string
	kind      string
	stream    domain.Stream
	ticker    domain.Ticker
	tickerID  uint64
	tickDone  chan struct{}
}

// NewSessionTimer creates an idle controller.
func NewSessionTimer(cfg SessionConfig, camera domain.Camera, tone domain.Tone, clock domain.Clock, logs AttemptLog, logger *slog.Logger, observers ...domain.SessionObserver) *SessionTimer {
	return &SessionTimer{
		cfg:       cfg.withDefaults(),
		camera:    camera,
		tone:      tone,
		clock:     clock,
		logs:      logs,
		observers: observers,
		logger:    orDefault(logger),
		state:     domain.StateIdle,
	}
}

// Config returns the effective configuration.
func (s *SessionTimer) Config() SessionConfig {
	return s.cfg
}

// Start begins an attempt. It fails with ErrQuotaExceeded, before touching
// the camera, when today's saved attempts reached the quota. Camera failures
// move the controller to the error state and are returned wrapped.
func (s *SessionTimer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Active() {
		s.mu.Unlock()
		return domain.ErrSessionActive
	}

	now := s.clock.Now()
	today := domain.LocalDay(now)
	count, err := s.logs.CountForDay(ctx, today)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("count today's attempts: %w", err)
	}
	if count >= s.cfg.Quota {
		ev := s.eventLocked(domain.EventQuotaRejected)
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "attempt rejected: quota reached", "today", today, "count", count, "quota", s.cfg.Quota)
		s.notify(ev)
		return fmt.Errorf("%w: %d of %d attempts saved today", domain.ErrQuotaExceeded, count, s.cfg.Quota)
	}

	s.gen++
	gen := s.gen
	s.state = domain.StateRequestingCamera
	s.cause, s.kind = "", ""
	s.countdown, s.elapsed = 0, 0
	ev := s.eventLocked(domain.EventState)
	s.mu.Unlock()
	s.notify(ev)

	stream, camErr := s.acquire(ctx)

	s.mu.Lock()
	if s.gen != gen || s.state != domain.StateRequestingCamera {
		s.mu.Unlock()
		if stream != nil {
			s.release(stream)
		}
		return domain.ErrSessionCancelled
	}
	if camErr != nil {
		s.state = domain.StateError
		s.kind = domain.CameraErrorKind(camErr)
		s.cause = CameraCause(camErr)
		failed := s.eventLocked(domain.EventCameraFailed)
		changed := s.eventLocked(domain.EventState)
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "camera unavailable", "kind", failed.Kind, "error", camErr)
		s.notify(failed, changed)
		return camErr
	}

	s.stream = stream
	s.state = domain.StateCountdown
	s.countdown = s.cfg.Countdown
	s.startTickerLocked()
	ev = s.eventLocked(domain.EventState)
	s.mu.Unlock()
	s.notify(ev)
	return nil
}

// acquire opens the camera with the preferred constraints, retrying once
// unconstrained unless the environment has no camera at all.
func (s *SessionTimer) acquire(ctx context.Context) (domain.Stream, error) {
	stream, err := s.camera.Open(ctx, domain.PreferredConstraints)
	if err == nil {
		return stream, nil
	}
	if errors.Is(err, domain.ErrCameraUnavailable) {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	s.logger.DebugContext(ctx, "preferred camera failed, retrying unconstrained", "error", err)

	stream, err = s.camera.Open(ctx, domain.FallbackConstraints)
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	return stream, nil
}

// Tick advances the active phase by one second. Countdown steps down and
// hands over to the stopwatch; the stopwatch counts up and sounds a cue on
// every interval boundary. Ticks outside those phases are ignored.
func (s *SessionTimer) Tick() {
	s.tick(0)
}

// tick applies one tick. A non-zero id identifies the ticker that fired; ticks
// from a ticker that has since been stopped are dropped.
func (s *SessionTimer) tick(id uint64) {
	s.mu.Lock()
	if id != 0 && (s.ticker == nil || id != s.tickerID) {
		s.mu.Unlock()
		return
	}

	var (
		ev   domain.SessionEvent
		cue  bool
		kind = domain.EventTick
	)
	switch s.state {
	case domain.StateCountdown:
		s.countdown--
		if s.countdown <= 0 {
			s.stopTickerLocked()
			s.state = domain.StateRunning
			s.countdown = 0
			s.elapsed = 0
			s.startTickerLocked()
			kind = domain.EventState
			cue = true
		}
	case domain.StateRunning:
		s.elapsed++
		cue = s.elapsed%domain.CueInterval == 0
	default:
		s.mu.Unlock()
		return
	}
	ev = s.eventLocked(kind)
	pitch := domain.PitchForElapsed(s.elapsed)
	s.mu.Unlock()

	s.notify(ev)
	if cue && s.tone != nil {
		s.tone.Play(pitch)
	}
}

// Stop ends the active attempt. A hold longer than the minimum is saved;
// shorter holds return ErrSessionTooShort alongside the result. Stopping
// before the hold started cancels the attempt without consuming quota.
func (s *SessionTimer) Stop(ctx context.Context) (StopResult, error) {
	s.mu.Lock()
	if !s.state.Active() {
		s.mu.Unlock()
		return StopResult{}, domain.ErrNoActiveSession
	}

	wasRunning := s.state == domain.StateRunning
	elapsed := s.elapsed
	s.teardownLocked()

	res := StopResult{Outcome: domain.OutcomeCancelled, Elapsed: elapsed}
	var err error
	if wasRunning {
		switch {
		case elapsed > s.cfg.MinSeconds:
			entry, count, appendErr := s.logs.Append(ctx, elapsed, s.clock.Now())
			if appendErr != nil {
				err = fmt.Errorf("save attempt: %w", appendErr)
				break
			}
			res.Outcome = domain.OutcomeRecorded
			res.Log = &entry
			res.TodayCount = count
		case elapsed > 0:
			res.Outcome = domain.OutcomeTooShort
			err = fmt.Errorf("%w: held %ds, need more than %ds", domain.ErrSessionTooShort, elapsed, s.cfg.MinSeconds)
		default:
			res.Outcome = domain.OutcomeDiscarded
		}
	}

	stopped := s.eventLocked(domain.EventStopped)
	stopped.Outcome = res.Outcome
	stopped.Elapsed = elapsed
	changed := s.eventLocked(domain.EventState)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "attempt stopped", "outcome", res.Outcome, "elapsed", elapsed)
	s.notify(stopped, changed)
	return res, err
}

// Close abandons any attempt, releasing the ticker and camera, and leaves
// the controller idle. It is safe to call at any time.
func (s *SessionTimer) Close() error {
	s.mu.Lock()
	active := s.state.Active()
	var releaseErr error
	if s.stream != nil {
		releaseErr = s.stream.Release()
		s.stream = nil
	}
	s.teardownLocked()
	s.cause, s.kind = "", ""

	var events []domain.SessionEvent
	if active {
		stopped := s.eventLocked(domain.EventStopped)
		stopped.Outcome = domain.OutcomeCancelled
		events = append(events, stopped, s.eventLocked(domain.EventState))
	}
	s.mu.Unlock()

	s.notify(events...)
	return releaseErr
}

// Status returns the current phase together with today's progress.
func (s *SessionTimer) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	st := Status{
		State:     s.state,
		Countdown: s.countdown,
		Elapsed:   s.elapsed,
		Cause:     s.cause,
		Kind:      s.kind,
		Quota:     s.cfg.Quota,
	}
	s.mu.Unlock()

	if st.State == domain.StateRunning {
		st.Pitch = domain.PitchForElapsed(st.Elapsed)
	}
	st.Today = domain.LocalDay(s.clock.Now())
	count, err := s.logs.CountForDay(ctx, st.Today)
	if err != nil {
		return Status{}, err
	}
	st.TodayCount = count
	return st, nil
}

// teardownLocked stops the ticker, releases the stream, abandons any
// in-flight camera request and returns to idle.
func (s *SessionTimer) teardownLocked() {
	s.gen++
	s.stopTickerLocked()
	if s.stream != nil {
		s.release(s.stream)
		s.stream = nil
	}
	s.state = domain.StateIdle
	s.countdown = 0
	s.elapsed = 0
}

func (s *SessionTimer) release(stream domain.Stream) {
	if err := stream.Release(); err != nil {
		s.logger.Warn("camera release failed", "error", err)
	}
}

func (s *SessionTimer) startTickerLocked() {
	s.tickerID++
	id := s.tickerID
	t := s.clock.NewTicker(time.Second)
	done := make(chan struct{})
	s.ticker, s.tickDone = t, done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C():
				s.tick(id)
			}
		}
	}()
}

func (s *SessionTimer) stopTickerLocked() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.tickDone)
	s.ticker, s.tickDone = nil, nil
}

func (s *SessionTimer) eventLocked(t domain.SessionEventType) domain.SessionEvent {
	return domain.SessionEvent{
		Type:      t,
		State:     s.state,
		Countdown: s.countdown,
		Elapsed:   s.elapsed,
		Cause:     s.cause,
		Kind:      s.kind,
		At:        s.clock.Now(),
	}
}

func (s *SessionTimer) notify(events ...domain.SessionEvent) {
	for _, ev := range events {
		for _, o := range s.observers {
			o.OnSessionEvent(ev)
		}
	}
}

// CameraCause turns a camera failure into a message for the owner.
func CameraCause(err error) string {
	switch domain.CameraErrorKind(err) {
	case "permission_denied":
		return "Camera access was denied. Allow camera access and try again."
	case "busy":
		return "The camera is being used by another application."
	case "not_found":
		return "No camera was found on this device."
	case "unavailable":
		return "Camera access is not supported here."
	case "failed":
		return "The camera could not be started. Check the device and try again."
	default:
		return "The camera could not be started: " + err.Error()
	}
}
