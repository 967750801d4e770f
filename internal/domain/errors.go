package domain

import "errors"

var (
	// ErrQuotaExceeded is returned when today's saved attempts reached the daily cap.
	ErrQuotaExceeded = errors.New("daily attempt quota reached")
	// ErrSessionTooShort is returned when a hold ended before the minimum duration. No log is written.
	ErrSessionTooShort = errors.New("hold too short to record")
	// ErrSessionActive is returned when starting while an attempt is in progress.
	ErrSessionActive = errors.New("an attempt is already in progress")
	// ErrNoActiveSession is returned when stopping with no attempt in progress.
	ErrNoActiveSession = errors.New("no attempt in progress")
	// ErrSessionCancelled is returned by Start when the attempt was stopped while the camera was being acquired.
	ErrSessionCancelled = errors.New("attempt cancelled")

	// ErrCameraUnavailable means the environment has no camera capability at all.
	ErrCameraUnavailable = errors.New("camera not supported in this environment")
	// ErrCameraPermissionDenied means access to the camera was refused.
	ErrCameraPermissionDenied = errors.New("camera permission denied")
	// ErrCameraBusy means the device is held by another process.
	ErrCameraBusy = errors.New("camera is busy")
	// ErrCameraNotFound means no matching video device exists.
	ErrCameraNotFound = errors.New("no camera found")
	// ErrCameraFailed means the device exists but could not be started for any other reason.
	ErrCameraFailed = errors.New("camera could not be started")

	// ErrInvalidMetric is returned for malformed body metrics.
	ErrInvalidMetric = errors.New("invalid body metric")
	// ErrInvalidProfile is returned for malformed profile edits.
	ErrInvalidProfile = errors.New("invalid profile")
)

// CameraErrorKind classifies a camera failure for display and telemetry.
func CameraErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCameraPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrCameraBusy):
		return "busy"
	case errors.Is(err, ErrCameraNotFound):
		return "not_found"
	case errors.Is(err, ErrCameraUnavailable):
		return "unavailable"
	case errors.Is(err, ErrCameraFailed):
		return "failed"
	default:
		return "unknown"
	}
}

// IsCameraError reports whether err is one of the camera failures.
func IsCameraError(err error) bool {
	return errors.Is(err, ErrCameraPermissionDenied) ||
		errors.Is(err, ErrCameraBusy) ||
		errors.Is(err, ErrCameraNotFound) ||
		errors.Is(err, ErrCameraUnavailable) ||
		errors.Is(err, ErrCameraFailed)
}
