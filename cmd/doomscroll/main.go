package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"doomscroll/internal/bootstrap"
	anomalydto "doomscroll/internal/modules/anomaly/dto"
	ingestdto "doomscroll/internal/modules/ingest/dto"
	scoringdto "doomscroll/internal/modules/scoring/dto"
	"doomscroll/internal/platform/config"
	"doomscroll/internal/ui/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are the persistent overrides applied on top of file and env
// configuration.
type globalFlags struct {
	configPath  string
	dbDriver    string
	dbDSN       string
	logLevel    string
	logFormat   string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "doomscroll",
		Short:         "Midnight Doomscroll Index batch pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (env DOOMSCROLL_* overrides it)")
	pf.StringVar(&flags.dbDriver, "db-driver", "", "store driver: sqlite or postgres")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "store DSN or SQLite file path")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "console or json")
	pf.StringVar(&flags.metricsFile, "metrics-textfile", "", "write Prometheus metrics here after the run")

	root.AddCommand(newIngestCmd(flags))
	root.AddCommand(newScoreCmd(flags))
	root.AddCommand(newDetectCmd(flags))
	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newReportCmd(flags))
	root.AddCommand(newBrowseCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.dbDriver != "" {
		cfg.Database.Driver = flags.dbDriver
	}
	if flags.dbDSN != "" {
		cfg.Database.DSN = flags.dbDSN
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	if flags.metricsFile != "" {
		cfg.Metrics.Textfile = flags.metricsFile
	}
	return cfg, cfg.Validate()
}

// withApp builds the application, hands it to fn and always closes it so
// metrics are flushed even when the stage fails.
func withApp(ctx context.Context, flags *globalFlags, fn func(*bootstrap.App) error) (err error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(app)
}

func newIngestCmd(flags *globalFlags) *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "ingest <raw.csv>",
		Short: "Normalize a raw usage export and append its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				out, err := app.IngestCLI.Ingest(cmd.Context(), args[0], exportPath)
				if err != nil {
					return err
				}
				printIngest(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the cleaned sessions to this CSV")
	return cmd
}

func newScoreCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Aggregate stored sessions per day and append MDI scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				out, err := app.ScoringCLI.Score(cmd.Context())
				if err != nil {
					return err
				}
				printScore(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newDetectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Compute z-scores over the MDI series and log anomalies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				out, err := app.AnomalyCLI.Detect(cmd.Context())
				if err != nil {
					return err
				}
				printDetect(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "run <raw.csv>",
		Short: "Run ingest, score and detect in sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				res, err := app.RunPipeline(cmd.Context(), args[0], exportPath)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				printIngest(w, res.Ingest)
				printScore(w, res.Score)
				printDetect(w, res.Detect)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the cleaned sessions to this CSV")
	return cmd
}

func newReportCmd(flags *globalFlags) *cobra.Command {
	var anomaliesOnly bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the stored MDI series and anomaly log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				anomalies, err := app.AnomalyCLI.ListAnomalies(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if !anomaliesOnly {
					days, err := app.ScoringCLI.ListDaily(cmd.Context())
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(w, report.Daily(days, anomalies))
				}
				_, _ = fmt.Fprintln(w, report.Anomalies(anomalies))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&anomaliesOnly, "anomalies", false, "only print the anomaly log")
	return cmd
}

func newBrowseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the daily series and anomalies in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(app *bootstrap.App) error {
				return bootstrap.RunTUI(cmd.Context(), app)
			})
		},
	}
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect configuration"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	})
	return cfgCmd
}

func printIngest(w io.Writer, out ingestdto.IngestOutput) {
	_, _ = fmt.Fprintf(w, "ingested %s: read=%d kept=%d inserted=%d total=%d\n",
		out.Path, out.Read, out.Kept, out.Inserted, out.TotalSessions)
	reasons := make([]string, 0, len(out.Dropped))
	for reason, n := range out.Dropped {
		if n > 0 {
			reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
		}
	}
	sort.Strings(reasons)
	if len(reasons) > 0 {
		_, _ = fmt.Fprintf(w, "dropped: %s\n", strings.Join(reasons, " "))
	}
	if out.FirstDate != "" {
		_, _ = fmt.Fprintf(w, "range %s..%s users=%d feed=%d midnight=%d midnight_feed=%d\n",
			out.FirstDate, out.LastDate, out.UniqueUsers, out.FeedSessions, out.MidnightSessions, out.MidnightFeedSessions)
	}
	if out.ExportPath != "" {
		_, _ = fmt.Fprintf(w, "cleaned sessions written to %s\n", out.ExportPath)
	}
}

func printScore(w io.Writer, out scoringdto.ScoreOutput) {
	_, _ = fmt.Fprintf(w, "scored %d days from %d sessions", out.Inserted, out.SessionsRead)
	if out.Stats.Count > 0 {
		_, _ = fmt.Fprintf(w, " (mean=%.2f std=%.2f min=%.2f max=%.2f)",
			out.Stats.Mean, out.Stats.Std, out.Stats.Min, out.Stats.Max)
	}
	_, _ = fmt.Fprintln(w)
}

func printDetect(w io.Writer, out anomalydto.DetectOutput) {
	if out.Skipped {
		_, _ = fmt.Fprintf(w, "anomaly detection skipped: %s\n", out.SkipReason)
		return
	}
	_, _ = fmt.Fprintf(w, "z-scores stored for %d days, %d anomalies at |z| > %.2f\n",
		out.ZScoresStored, len(out.Anomalies), out.Threshold)
	for _, a := range out.Anomalies {
		_, _ = fmt.Fprintf(w, "%s: %s | MDI=%.2f | z=%.2f\n", a.Date, strings.ToUpper(a.Severity), a.MDIScore, a.ZScore)
	}
}
