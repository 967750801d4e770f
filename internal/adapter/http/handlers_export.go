package adapthttp

import (
	"net/http"

	"plank/internal/domain"
	"plank/internal/report"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b, err := s.export.Backup(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	name := "plank-backup-" + domain.LocalDay(b.ExportedAt) + ".json"
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	writeJSON(w, http.StatusOK, b)
}

// handleReport renders the journal as HTML, or as markdown with
// ?format=md.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b, err := s.export.Backup(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	data := report.Data{
		Generated: b.ExportedAt,
		Today:     domain.LocalDay(b.ExportedAt),
		Profile:   b.Profile,
		Logs:      b.Logs,
	}

	if r.URL.Query().Get("format") == "md" {
		md, err := report.Markdown(data)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(md))
		return
	}

	page, err := report.HTML(data)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
