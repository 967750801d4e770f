package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plank/internal/adapter/memory"
	"plank/internal/domain"
)

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(time.Duration) domain.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) ticker(i int) *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

type fakeStream struct {
	released atomic.Int32
}

func (s *fakeStream) Release() error {
	s.released.Add(1)
	return nil
}

type fakeCamera struct {
	mu      sync.Mutex
	calls   []domain.Constraints
	streams []*fakeStream
	openFn  func(ctx context.Context, c domain.Constraints, call int) error
}

func (f *fakeCamera) Open(ctx context.Context, c domain.Constraints) (domain.Stream, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	call := len(f.calls)
	f.mu.Unlock()

	if f.openFn != nil {
		if err := f.openFn(ctx, c, call); err != nil {
			return nil, err
		}
	}
	s := &fakeStream{}
	f.mu.Lock()
	f.streams = append(f.streams, s)
	f.mu.Unlock()
	return s, nil
}

func (f *fakeCamera) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCamera) allReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.streams {
		if s.released.Load() == 0 {
			return false
		}
	}
	return true
}

type fakeTone struct {
	mu      sync.Mutex
	pitches []float64
}

func (t *fakeTone) Play(p float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pitches = append(t.pitches, p)
}

func (t *fakeTone) played() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.pitches...)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (o *recordingObserver) OnSessionEvent(e domain.SessionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) ofType(t domain.SessionEventType) []domain.SessionEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []domain.SessionEvent
	for _, e := range o.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type timerFixture struct {
	timer  *SessionTimer
	clock  *fakeClock
	camera *fakeCamera
	tone   *fakeTone
	obs    *recordingObserver
	book   *LogBook
}

func newTimerFixture(t *testing.T) *timerFixture {
	t.Helper()
	f := &timerFixture{
		clock:  &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
		camera: &fakeCamera{},
		tone:   &fakeTone{},
		obs:    &recordingObserver{},
		book:   NewLogBook(memory.New(), nil),
	}
	f.timer = NewSessionTimer(SessionConfig{}, f.camera, f.tone, f.clock, f.book, nil, f.obs)
	t.Cleanup(func() { _ = f.timer.Close() })
	return f
}

// hold starts an attempt, runs the countdown and holds for seconds.
func (f *timerFixture) hold(t *testing.T, seconds int) {
	t.Helper()
	require.NoError(t, f.timer.Start(context.Background()))
	for i := 0; i < DefaultCountdown; i++ {
		f.timer.Tick()
	}
	for i := 0; i < seconds; i++ {
		f.timer.Tick()
	}
}

func (f *timerFixture) state(t *testing.T) Status {
	t.Helper()
	st, err := f.timer.Status(context.Background())
	require.NoError(t, err)
	return st
}

func TestSessionTimer_CountdownThenRunning(t *testing.T) {
	f := newTimerFixture(t)
	require.NoError(t, f.timer.Start(context.Background()))

	st := f.state(t)
	assert.Equal(t, domain.StateCountdown, st.State)
	assert.Equal(t, 3, st.Countdown)
	assert.Equal(t, []domain.Constraints{domain.PreferredConstraints}, f.camera.calls)

	f.timer.Tick()
	f.timer.Tick()
	assert.Equal(t, 1, f.state(t).Countdown)
	assert.Empty(t, f.tone.played())

	f.timer.Tick()
	st = f.state(t)
	assert.Equal(t, domain.StateRunning, st.State)
	assert.Equal(t, 0, st.Elapsed)
	assert.Equal(t, []float64{1}, f.tone.played(), "cue fires on entering running")

	assert.True(t, f.clock.ticker(0).stopped.Load(), "countdown ticker stopped")
	assert.False(t, f.clock.ticker(1).stopped.Load(), "stopwatch ticker live")
}

func TestSessionTimer_RecordsQualifyingHold(t *testing.T) {
	f := newTimerFixture(t)
	f.hold(t, 6)

	res, err := f.timer.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRecorded, res.Outcome)
	require.NotNil(t, res.Log)
	assert.Equal(t, 6, res.Log.Duration)
	assert.Equal(t, "2024-03-10", res.Log.DateString)
	assert.Equal(t, 1, res.TodayCount)
	assert.True(t, f.camera.allReleased())

	logs, err := f.book.Logs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 6, logs[0].Duration)
	assert.Equal(t, domain.StateIdle, f.state(t).State)
}

func TestSessionTimer_TooShortHoldNotRecorded(t *testing.T) {
	f := newTimerFixture(t)
	f.hold(t, 5)

	res, err := f.timer.Stop(context.Background())
	require.ErrorIs(t, err, domain.ErrSessionTooShort)
	assert.Equal(t, domain.OutcomeTooShort, res.Outcome)
	assert.Nil(t, res.Log)
	assert.True(t, f.camera.allReleased())

	logs, err := f.book.Logs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestSessionTimer_ZeroElapsedDiscarded(t *testing.T) {
	f := newTimerFixture(t)
	f.hold(t, 0)

	res, err := f.timer.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDiscarded, res.Outcome)
}

func TestSessionTimer_StopDuringCountdownCancels(t *testing.T) {
	f := newTimerFixture(t)
	require.NoError(t, f.timer.Start(context.Background()))
	f.timer.Tick()

	res, err := f.timer.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
	assert.True(t, f.camera.allReleased())
	assert.True(t, f.clock.ticker(0).stopped.Load())
	assert.Equal(t, 0, f.state(t).TodayCount)
}

func TestSessionTimer_QuotaCheckedBeforeCamera(t *testing.T) {
	f := newTimerFixture(t)
	for i := 0; i < DefaultQuota; i++ {
		f.hold(t, 6+i)
		_, err := f.timer.Stop(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, DefaultQuota, f.camera.callCount())

	err := f.timer.Start(context.Background())
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, DefaultQuota, f.camera.callCount(), "no camera request after quota")
	assert.Equal(t, domain.StateIdle, f.state(t).State)
	assert.Len(t, f.obs.ofType(domain.EventQuotaRejected), 1)

	logs, err := f.book.Logs(context.Background())
	require.NoError(t, err)
	assert.Len(t, logs, DefaultQuota)
}

func TestSessionTimer_QuotaResetsNextDay(t *testing.T) {
	f := newTimerFixture(t)
	for i := 0; i < DefaultQuota; i++ {
		f.hold(t, 10)
		_, err := f.timer.Stop(context.Background())
		require.NoError(t, err)
	}

	f.clock.mu.Lock()
	f.clock.now = f.clock.now.Add(24 * time.Hour)
	f.clock.mu.Unlock()

	require.NoError(t, f.timer.Start(context.Background()))
}

func TestSessionTimer_CameraFallback(t *testing.T) {
	f := newTimerFixture(t)
	f.camera.openFn = func(_ context.Context, _ domain.Constraints, call int) error {
		if call == 1 {
			return domain.ErrCameraNotFound
		}
		return nil
	}

	require.NoError(t, f.timer.Start(context.Background()))
	assert.Equal(t, []domain.Constraints{domain.PreferredConstraints, domain.FallbackConstraints}, f.camera.calls)
	assert.Equal(t, domain.StateCountdown, f.state(t).State)
}

func TestSessionTimer_CameraFailure(t *testing.T) {
	f := newTimerFixture(t)
	f.camera.openFn = func(context.Context, domain.Constraints, int) error {
		return domain.ErrCameraPermissionDenied
	}

	err := f.timer.Start(context.Background())
	require.ErrorIs(t, err, domain.ErrCameraPermissionDenied)
	assert.Equal(t, 2, f.camera.callCount())

	st := f.state(t)
	assert.Equal(t, domain.StateError, st.State)
	assert.Equal(t, "permission_denied", st.Kind)
	assert.NotEmpty(t, st.Cause)
	assert.Equal(t, 0, st.TodayCount)
	assert.Empty(t, f.clock.tickers, "countdown never starts")
	assert.Len(t, f.obs.ofType(domain.EventCameraFailed), 1)

	_, err = f.timer.Stop(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	// The owner may retry.
	f.camera.openFn = nil
	require.NoError(t, f.timer.Start(context.Background()))
	assert.Equal(t, domain.StateCountdown, f.state(t).State)
	assert.Empty(t, f.state(t).Cause)
}

func TestSessionTimer_UnavailableCameraNotRetried(t *testing.T) {
	f := newTimerFixture(t)
	f.camera.openFn = func(context.Context, domain.Constraints, int) error {
		return domain.ErrCameraUnavailable
	}

	err := f.timer.Start(context.Background())
	require.ErrorIs(t, err, domain.ErrCameraUnavailable)
	assert.Equal(t, 1, f.camera.callCount())
	assert.Equal(t, "unavailable", f.state(t).Kind)
}

func TestSessionTimer_DeviceFailureRetriesUnconstrained(t *testing.T) {
	f := newTimerFixture(t)
	f.camera.openFn = func(_ context.Context, _ domain.Constraints, call int) error {
		if call == 1 {
			return fmt.Errorf("%w: input/output error", domain.ErrCameraFailed)
		}
		return nil
	}

	require.NoError(t, f.timer.Start(context.Background()))
	assert.Equal(t, []domain.Constraints{domain.PreferredConstraints, domain.FallbackConstraints}, f.camera.calls)
	assert.Equal(t, domain.StateCountdown, f.state(t).State)
}

func TestSessionTimer_ExclusiveControl(t *testing.T) {
	f := newTimerFixture(t)
	require.NoError(t, f.timer.Start(context.Background()))

	err := f.timer.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrSessionActive)
	assert.Equal(t, 1, f.camera.callCount())
}

func TestSessionTimer_StopWhenIdle(t *testing.T) {
	f := newTimerFixture(t)
	_, err := f.timer.Stop(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestSessionTimer_CuePitchSteps(t *testing.T) {
	f := newTimerFixture(t)
	f.hold(t, 25)

	assert.Equal(t, []float64{1, 9.0 / 8, 5.0 / 4}, f.tone.played())
	st := f.state(t)
	assert.Equal(t, 25, st.Elapsed)
	assert.InDelta(t, 5.0/4, st.Pitch, 1e-9)
}

func TestSessionTimer_StaleTickIgnored(t *testing.T) {
	f := newTimerFixture(t)
	f.hold(t, 2)

	f.timer.tick(1) // the countdown ticker, already stopped
	assert.Equal(t, 2, f.state(t).Elapsed)

	f.timer.tick(2)
	assert.Equal(t, 3, f.state(t).Elapsed)
}

func TestSessionTimer_TickerDrivesCountdown(t *testing.T) {
	f := newTimerFixture(t)
	require.NoError(t, f.timer.Start(context.Background()))

	f.clock.ticker(0).c <- time.Now()
	require.Eventually(t, func() bool {
		return f.state(t).Countdown == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSessionTimer_CloseReleasesCamera(t *testing.T) {
	for _, ticks := range []int{0, 3, 10} {
		f := newTimerFixture(t)
		require.NoError(t, f.timer.Start(context.Background()))
		for i := 0; i < ticks; i++ {
			f.timer.Tick()
		}

		require.NoError(t, f.timer.Close())
		assert.True(t, f.camera.allReleased(), "after %d ticks", ticks)
		assert.Equal(t, domain.StateIdle, f.state(t).State)

		logs, err := f.book.Logs(context.Background())
		require.NoError(t, err)
		assert.Empty(t, logs)
	}
}

func TestSessionTimer_CancelledWhileRequestingCamera(t *testing.T) {
	f := newTimerFixture(t)
	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.camera.openFn = func(context.Context, domain.Constraints, int) error {
		close(entered)
		<-proceed
		return nil
	}

	errc := make(chan error, 1)
	go func() { errc <- f.timer.Start(context.Background()) }()

	<-entered
	assert.Equal(t, domain.StateRequestingCamera, f.state(t).State)
	res, err := f.timer.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
	close(proceed)

	require.ErrorIs(t, <-errc, domain.ErrSessionCancelled)
	assert.True(t, f.camera.allReleased())
	assert.Equal(t, domain.StateIdle, f.state(t).State)
	assert.Empty(t, f.clock.tickers)
}

func TestSessionTimer_StoreFailureOnQuotaCheck(t *testing.T) {
	boom := errors.New("disk gone")
	f := newTimerFixture(t)
	f.timer.logs = &stubAttemptLog{countErr: boom}

	err := f.timer.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, f.camera.callCount())
}

type stubAttemptLog struct {
	countErr error
}

func (s *stubAttemptLog) CountForDay(context.Context, string) (int, error) {
	return 0, s.countErr
}

func (s *stubAttemptLog) Append(context.Context, int, time.Time) (domain.TrainingLog, int, error) {
	return domain.TrainingLog{}, 0, nil
}
