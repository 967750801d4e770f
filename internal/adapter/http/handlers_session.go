package adapthttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"plank/internal/adapter/events"
	"plank/internal/domain"
	"plank/internal/report"
)

// keepAliveInterval spaces SSE comments so proxies keep idle streams open.
const keepAliveInterval = 25 * time.Second

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st, err := s.session.Status(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// The attempt outlives the request that started it.
	if err := s.session.Start(context.WithoutCancel(r.Context())); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	st, err := s.session.Status(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, err := s.session.Stop(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, domain.ErrSessionTooShort):
		writeJSON(w, http.StatusOK, map[string]any{
			"result": res,
			"notice": fmt.Sprintf("Hold too short to save (%s). Hold for more than %d seconds.",
				report.FormatSeconds(res.Elapsed), s.session.Config().MinSeconds),
		})
		return
	case err != nil:
		s.writeAppError(w, r, err)
		return
	}

	body := map[string]any{"result": res}
	if res.Outcome == domain.OutcomeRecorded {
		body["notice"] = "Saved " + report.FormatSeconds(res.Elapsed)
	}
	writeJSON(w, http.StatusOK, body)
}

// handleSessionEvents streams state changes, ticks and audio cues as
// server-sent events until the client goes away or the hub is suspended.
func (s *Server) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.hub == nil {
		http.Error(w, "events disabled", http.StatusNotFound)
		return
	}

	rc := http.NewResponseController(w)
	ch, cancel := s.hub.Subscribe()
	defer cancel()

	st, err := s.session.Status(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, events.NameState, st); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		s.logger.WarnContext(r.Context(), "event stream cannot flush", "error", err)
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, ev.Name, ev.Data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w io.Writer, name string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, b)
	return err
}
