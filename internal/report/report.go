// Package report renders the training journal for sharing: a markdown
// report (optionally as sanitised HTML) and achievement posters.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"plank/internal/domain"
	"plank/internal/stats"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Table),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// Data is everything a report is built from.
type Data struct {
	Generated time.Time
	Today     string
	Profile   domain.UserProfile
	Logs      []domain.TrainingLog
}

// Markdown renders the report as GitHub-flavoured markdown.
func Markdown(d Data) (string, error) {
	streaks, err := stats.Streaks(d.Logs, d.Today)
	if err != nil {
		return "", err
	}
	series, err := stats.Series(d.Logs, d.Today, stats.DefaultSeriesDays)
	if err != nil {
		return "", err
	}
	achievements, err := stats.Achievements(d.Logs)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Plank report: %s\n\n", escape(d.Profile.Name))
	fmt.Fprintf(&b, "Generated %s.\n\n", d.Generated.Format("2006-01-02 15:04"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Sessions recorded: %d\n", len(d.Logs))
	fmt.Fprintf(&b, "- Training days: %d\n", streaks.TotalDays)
	fmt.Fprintf(&b, "- Longest streak: %d days\n", streaks.Longest)
	fmt.Fprintf(&b, "- Current streak: %d days\n", streaks.Current)
	fmt.Fprintf(&b, "- Best hold: %s\n", FormatSeconds(bestHold(d.Logs)))
	if last, ok := stats.LastSession(d.Logs); ok {
		fmt.Fprintf(&b, "- Last session: %s, %s\n", last.DateString, FormatSeconds(last.Duration))
	}

	fmt.Fprintf(&b, "\n## Last %d days\n\n", len(series))
	b.WriteString("| Date | Best hold | Minutes |\n|---|---:|---:|\n")
	for _, p := range series {
		fmt.Fprintf(&b, "| %s | %s | %.1f |\n", p.Date, FormatSeconds(p.Seconds), p.Minutes)
	}

	b.WriteString("\n## Achievements\n\n")
	for _, a := range achievements {
		if a.Unlocked() {
			fmt.Fprintf(&b, "- [x] **%s**: %s (unlocked %s)\n", a.Title, a.Description,
				time.UnixMilli(*a.UnlockedAt).In(d.Generated.Location()).Format(domain.DayLayout))
		} else {
			fmt.Fprintf(&b, "- [ ] %s: %s\n", a.Title, a.Description)
		}
	}

	if len(d.Profile.Metrics) > 0 {
		b.WriteString("\n## Body metrics\n\n")
		b.WriteString("| Date | Weight (kg) | Waist (cm) | Age |\n|---|---:|---:|---:|\n")
		for _, m := range d.Profile.Metrics {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", m.Date, optFloat(m.Weight), optFloat(m.Waist), optInt(m.Age))
		}
	}
	return b.String(), nil
}

// HTML renders the report as a standalone, sanitised HTML page.
func HTML(d Data) ([]byte, error) {
	md, err := Markdown(d)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := markdownEngine.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	safe := sanitizer.SanitizeBytes(body.Bytes())

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Plank report</title>")
	page.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"></head><body>\n")
	page.Write(safe)
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}

// FormatSeconds renders a duration as m:ss.
func FormatSeconds(s int) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func bestHold(logs []domain.TrainingLog) int {
	best := 0
	for _, l := range logs {
		if l.Duration > best {
			best = l.Duration
		}
	}
	return best
}

func optFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

var mdEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "|", `\|`, "#", `\#`)

func escape(s string) string {
	return mdEscaper.Replace(s)
}
