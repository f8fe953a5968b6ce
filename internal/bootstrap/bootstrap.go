package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/hr-onboarding/internal/catalog"
	"github.com/kirillkom/hr-onboarding/internal/config"
	"github.com/kirillkom/hr-onboarding/internal/core/domain"
	"github.com/kirillkom/hr-onboarding/internal/core/ports"
	"github.com/kirillkom/hr-onboarding/internal/core/usecase"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/drive/googledrive"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/queue/nats"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/repository/firestore"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/resilience"
	"github.com/kirillkom/hr-onboarding/internal/infrastructure/storage/localfs"
)

type App struct {
	Config  config.Config
	Catalog domain.Catalog

	Repo     ports.CandidateRepository
	Queue    *nats.Queue
	Executor *resilience.Executor

	CandidateUC    *usecase.CandidateUseCase
	VerificationUC *usecase.VerificationUseCase
	WorkflowUC     *usecase.WorkflowUseCase
	RosterUC       *usecase.RosterUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	reqs, err := catalog.Load(cfg.CatalogPath, cfg.CatalogVariant)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	app.Catalog = reqs

	app.Executor = resilience.NewExecutor(resilienceConfig(cfg))

	repo, closeRepo, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Repo = repo
	app.closers = append(app.closers, closeRepo)

	lister, err := newLister(ctx, cfg, app.Executor)
	if err != nil {
		app.Close()
		return nil, err
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: app.Executor,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	app.Queue = queue
	app.closers = append(app.closers, queue.Close)

	app.CandidateUC = usecase.NewCandidateUseCase(repo, queue, reqs)
	app.VerificationUC = usecase.NewVerificationUseCase(repo, lister, queue, reqs, cfg.SyncConcurrency)
	app.WorkflowUC = usecase.NewWorkflowUseCase(repo, queue)
	app.RosterUC = usecase.NewRosterUseCase(repo, reqs, xlsx.NewRosterWriter())

	slog.Info("bootstrap_ready",
		"store_backend", cfg.StoreBackend,
		"drive_backend", cfg.DriveBackend,
		"catalog_size", len(reqs),
	)
	return app, nil
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.FromMillis(
		cfg.ResilienceRetryMaxAttempts,
		cfg.ResilienceRetryInitialBackoffMS,
		cfg.ResilienceRetryMaxBackoffMS,
		cfg.ResilienceBreakerEnabled,
		cfg.ResilienceBreakerMinRequests,
		cfg.ResilienceBreakerFailureRatio,
		cfg.ResilienceBreakerOpenTimeoutMS,
	)
}

func openStore(ctx context.Context, cfg config.Config) (ports.CandidateRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewCandidateRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil
	case config.StoreBackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("open firestore: %w", err)
		}
		return firestore.NewCandidateRepository(client, cfg.FirestoreCollection), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newLister(ctx context.Context, cfg config.Config, exec *resilience.Executor) (ports.FolderLister, error) {
	switch cfg.DriveBackend {
	case config.DriveBackendGoogle:
		lister, err := googledrive.New(ctx, googledrive.Options{
			CredentialsFile:    cfg.DriveCredentialsFile,
			Endpoint:           cfg.DriveEndpoint,
			ResilienceExecutor: exec,
		})
		if err != nil {
			return nil, fmt.Errorf("init drive lister: %w", err)
		}
		return lister, nil
	case config.DriveBackendLocalFS:
		storage, err := localfs.New(cfg.LocalFoldersPath)
		if err != nil {
			return nil, fmt.Errorf("init local folders: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown drive backend %q", cfg.DriveBackend)
	}
}
