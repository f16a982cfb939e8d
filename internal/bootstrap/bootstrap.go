package bootstrap

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	anomalyinadapter "doomscroll/internal/modules/anomaly/adapter/in"
	anomalyoutadapter "doomscroll/internal/modules/anomaly/adapter/out"
	anomalyservice "doomscroll/internal/modules/anomaly/service"
	anomalyusecase "doomscroll/internal/modules/anomaly/usecase"
	ingestinadapter "doomscroll/internal/modules/ingest/adapter/in"
	ingestoutadapter "doomscroll/internal/modules/ingest/adapter/out"
	ingestdomain "doomscroll/internal/modules/ingest/domain"
	ingestservice "doomscroll/internal/modules/ingest/service"
	ingestusecase "doomscroll/internal/modules/ingest/usecase"
	scoringinadapter "doomscroll/internal/modules/scoring/adapter/in"
	scoringoutadapter "doomscroll/internal/modules/scoring/adapter/out"
	scoringservice "doomscroll/internal/modules/scoring/service"
	scoringusecase "doomscroll/internal/modules/scoring/usecase"
	"doomscroll/internal/platform/clock"
	"doomscroll/internal/platform/config"
	"doomscroll/internal/platform/database"
	"doomscroll/internal/platform/id"
	"doomscroll/internal/platform/logging"
	"doomscroll/internal/platform/metrics"
	uiapp "doomscroll/internal/ui/app"
)

type App struct {
	Config  config.Config
	RunID   string
	Logger  *zap.Logger
	Metrics *metrics.Recorder

	IngestCLI  ingestinadapter.CLIHandler
	ScoringCLI scoringinadapter.CLIHandler
	AnomalyCLI anomalyinadapter.CLIHandler

	db       *sqlx.DB
	closeLog func() error
}

// Options overrides the process-level collaborators, mainly for tests.
type Options struct {
	Logger *zap.Logger
	Clock  clock.Clock
	IDs    id.Generator
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	return NewWithOptions(ctx, cfg, Options{})
}

func NewWithOptions(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = id.UUID{}
	}

	logger, closeLog := opts.Logger, func() error { return nil }
	if logger == nil {
		var err error
		logger, closeLog, err = logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("new logger: %w", err)
		}
	}
	runID := ids.New()
	logger = logger.With(zap.String("run_id", runID))

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("open store failed", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		_ = closeLog()
		return nil, err
	}
	recorder := metrics.New()
	pipeline := cfg.Pipeline

	flagger := ingestdomain.NewFlagger(pipeline.FeedAppSet(), pipeline.MidnightHourSet())
	ingestUC := ingestusecase.NewInteractor(ingestservice.NewIngestService(
		ingestoutadapter.NewCSVSource(),
		ingestoutadapter.NewSQLSessionStore(db, pipeline.InsertChunkSize),
		ingestoutadapter.NewCSVExporter(),
		ingestdomain.NewNormalizer(flagger, nil),
		logger,
		recorder,
	))

	scoringUC := scoringusecase.NewInteractor(scoringservice.NewScoringService(
		scoringoutadapter.NewSQLSessionReader(db),
		scoringoutadapter.NewSQLDailyStore(db, pipeline.InsertChunkSize),
		logger,
		recorder,
	))

	anomalyUC := anomalyusecase.NewInteractor(anomalyservice.NewAnomalyService(
		anomalyoutadapter.NewSQLSeriesReader(db),
		anomalyoutadapter.NewSQLAnomalyStore(db, pipeline.InsertChunkSize),
		clk,
		pipeline.ZScoreThreshold,
		logger,
		recorder,
	))

	return &App{
		Config:     cfg,
		RunID:      runID,
		Logger:     logger,
		Metrics:    recorder,
		IngestCLI:  ingestinadapter.NewCLIHandler(ingestUC),
		ScoringCLI: scoringinadapter.NewCLIHandler(scoringUC),
		AnomalyCLI: anomalyinadapter.NewCLIHandler(anomalyUC),
		db:         db,
		closeLog:   closeLog,
	}, nil
}

// Close flushes metrics, releases the store and syncs the logger.
func (a *App) Close() error {
	var errs []error
	if err := a.Metrics.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
		errs = append(errs, err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, fmt.Errorf("close log: %w", err))
		}
	}
	return errors.Join(errs...)
}

func RunTUI(ctx context.Context, app *App) error {
	model := uiapp.NewModel(app.ScoringCLI, app.AnomalyCLI)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
