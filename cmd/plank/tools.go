package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"plank/internal/app"
	"plank/internal/domain"
	"plank/internal/report"
)

// journal opens the configured storage read-side for the offline tools.
type journal struct {
	storage
	clock   app.SystemClock
	logbook *app.LogBook
	profile *app.ProfileService
	history *app.HistoryService
	export  *app.ExportService
}

func openJournal(configPath string) (*journal, error) {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	st, err := openStorage(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	clock := app.NewSystemClock(loc)
	logbook := app.NewLogBook(st.store, logger)
	profile := app.NewProfileService(st.store, clock, logger)
	return &journal{
		storage: st,
		clock:   clock,
		logbook: logbook,
		profile: profile,
		history: app.NewHistoryService(logbook, clock, cfg.Session.Quota),
		export:  app.NewExportService(logbook, profile, clock),
	}, nil
}

func statsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print streaks, today's progress and the last session",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			ov, err := j.history.GetOverview(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "today:          %s (%d/%d attempts)\n", ov.Today, ov.TodayCount, ov.Quota)
			fmt.Fprintf(out, "sessions:       %d over %d days\n", ov.TotalLogs, ov.Streaks.TotalDays)
			fmt.Fprintf(out, "current streak: %d\n", ov.Streaks.Current)
			fmt.Fprintf(out, "longest streak: %d\n", ov.Streaks.Longest)
			if ov.LastSession != nil {
				fmt.Fprintf(out, "last session:   %s %s\n", ov.LastSession.DateString, report.FormatSeconds(ov.LastSession.Duration))
			}

			list, err := j.history.GetAchievements(cmd.Context())
			if err != nil {
				return err
			}
			unlocked := 0
			for _, a := range list {
				if a.Unlocked() {
					unlocked++
				}
			}
			fmt.Fprintf(out, "achievements:   %d/%d\n", unlocked, len(list))
			return nil
		},
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write both stored documents as one JSON backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			b, err := j.export.Backup(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, outPath, func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(b)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func reportCmd(configPath *string) *cobra.Command {
	var (
		outPath string
		format  string
		poster  string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the journal as markdown or HTML, or an achievement poster",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := openJournal(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			b, err := j.export.Backup(cmd.Context())
			if err != nil {
				return err
			}

			if poster != "" {
				a, err := j.history.GetAchievement(cmd.Context(), poster)
				if err != nil {
					return err
				}
				return writeOut(cmd, outPath, func(w io.Writer) error {
					return report.Poster(w, a, b.Profile.Name, j.clock.Now().Location())
				})
			}

			data := report.Data{
				Generated: b.ExportedAt,
				Today:     domain.LocalDay(b.ExportedAt),
				Profile:   b.Profile,
				Logs:      b.Logs,
			}
			switch format {
			case "md", "markdown":
				md, err := report.Markdown(data)
				if err != nil {
					return err
				}
				return writeOut(cmd, outPath, func(w io.Writer) error {
					_, err := io.WriteString(w, md)
					return err
				})
			case "html":
				page, err := report.HTML(data)
				if err != nil {
					return err
				}
				return writeOut(cmd, outPath, func(w io.Writer) error {
					_, err := w.Write(page)
					return err
				})
			default:
				return fmt.Errorf("unknown format %q (want md or html)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Report format: md or html")
	cmd.Flags().StringVar(&poster, "poster", "", "Render the PNG poster for this achievement id instead")
	return cmd
}

func configCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer func() { _ = enc.Close() }()
			return enc.Encode(cfg.Redacted())
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [passcode]",
		Short: "Print the bcrypt hash for auth.password_hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			hash, err := app.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func writeOut(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
