// Package app wires configuration into stores, collaborators and the scan pipeline.
// Both binaries build their object graph through Build.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	s3blob "objkt-signal-lab/internal/blob/s3"
	rediscache "objkt-signal-lab/internal/cache/redis"
	"objkt-signal-lab/internal/config"
	"objkt-signal-lab/internal/ingestion"
	"objkt-signal-lab/internal/objkt"
	"objkt-signal-lab/internal/orchestrator"
	"objkt-signal-lab/internal/pipeline"
	"objkt-signal-lab/internal/storage"
	chstore "objkt-signal-lab/internal/storage/clickhouse"
	"objkt-signal-lab/internal/storage/memory"
	"objkt-signal-lab/internal/storage/migrations"
	pgstore "objkt-signal-lab/internal/storage/postgres"
)

// ErrReplayNeedsPostgres is returned when replay mode is requested over in-memory storage.
var ErrReplayNeedsPostgres = errors.New("replay requires postgres storage")

// BuildOptions selects optional behaviour of Build.
type BuildOptions struct {
	// Replay serves discovery and histories from the event store instead of objkt.
	Replay bool
}

// App holds the wired components. Optional components are nil when disabled.
type App struct {
	Config *config.Config
	Log    *logrus.Logger

	Events    storage.EventStore
	Signals   storage.SignalStore
	Runs      storage.RunStore
	Snapshots storage.SnapshotStore

	Source   pipeline.CandidateSource
	Fetcher  pipeline.HistoryFetcher
	Pipeline *pipeline.Pipeline
	Archiver *s3blob.Archiver

	// HealthChecks ping every external dependency by name.
	HealthChecks map[string]func(ctx context.Context) error

	closers []func()
}

// Build connects every configured backend and assembles the pipeline.
// cfg must already be validated. On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts BuildOptions) (_ *App, err error) {
	a := &App{
		Config:       cfg,
		Log:          logger,
		HealthChecks: make(map[string]func(ctx context.Context) error),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.openStores(ctx); err != nil {
		return nil, err
	}

	if opts.Replay {
		if cfg.UseMemory {
			return nil, ErrReplayNeedsPostgres
		}
		replay := ingestion.NewStoreFetcher(a.Events)
		a.Source = replay
		a.Fetcher = replay
	} else if err := a.openUpstream(ctx); err != nil {
		return nil, err
	}

	if cfg.S3.Bucket != "" {
		client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		a.Archiver = s3blob.NewArchiver(client)
		a.HealthChecks["s3"] = client.Health
	}

	a.Pipeline = pipeline.New(pipeline.Options{
		Source:           a.Source,
		Fetcher:          a.Fetcher,
		SelfAddress:      cfg.SelfAddress,
		Thresholds:       cfg.Thresholds,
		ConcurrencyLimit: cfg.Scan.Concurrency,
		FetchTimeout:     cfg.Scan.FetchTimeout.Duration,
		RankBy:           cfg.RankBy(),
		Logger:           logrus.NewEntry(logger),
	})

	return a, nil
}

// openStores creates in-memory stores or connects Postgres (and ClickHouse when
// configured), applying migrations.
func (a *App) openStores(ctx context.Context) error {
	cfg := a.Config
	if cfg.UseMemory {
		a.Events = memory.NewEventStore()
		a.Signals = memory.NewSignalStore()
		a.Runs = memory.NewRunStore()
		a.Snapshots = memory.NewSnapshotStore()
		a.Log.Info("using in-memory storage")
		return nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)
	if err := migrations.RunPostgresMigrations(ctx, pool, logrus.NewEntry(a.Log)); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}
	a.Events = pgstore.NewEventStore(pool)
	a.Signals = pgstore.NewSignalStore(pool)
	a.Runs = pgstore.NewRunStore(pool)
	a.HealthChecks["postgres"] = pool.Ping

	if cfg.ClickHouse.DSN == "" {
		a.Log.Info("clickhouse not configured, snapshots disabled")
		return nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN, logrus.NewEntry(a.Log))
	if err != nil {
		return fmt.Errorf("clickhouse migrations: %w", err)
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })
	a.Snapshots = chstore.NewSnapshotStore(conn)
	a.HealthChecks["clickhouse"] = conn.Ping
	return nil
}

// openUpstream builds the objkt collaborator chain:
// objkt client → optional event recorder → optional Redis cache.
func (a *App) openUpstream(ctx context.Context) error {
	cfg := a.Config
	client := objkt.NewClient(cfg.Objkt.GraphQLURL,
		objkt.WithTimeout(cfg.Objkt.Timeout.Duration),
		objkt.WithMaxRetries(cfg.Objkt.MaxRetries),
		objkt.WithRateLimit(cfg.Objkt.RequestsPerSecond),
		objkt.WithLogger(logrus.NewEntry(a.Log)),
	)
	a.Source = client

	var fetcher pipeline.HistoryFetcher = client
	if cfg.Scan.Record {
		fetcher = ingestion.NewRecordingFetcher(ingestion.RecorderOptions{
			Source: client,
			Store:  a.Events,
			Logger: logrus.NewEntry(a.Log),
		})
	}

	if cfg.Redis.Addr != "" {
		rc, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		a.HealthChecks["redis"] = rc.Ping
		fetcher = rediscache.NewCachedFetcher(rc, fetcher, cfg.Redis.TTL.Duration, logrus.NewEntry(a.Log))
	}

	a.Fetcher = fetcher
	return nil
}

// Orchestrator returns an orchestrator over the app's stores and archive.
// publisher may be nil.
func (a *App) Orchestrator(publisher orchestrator.Publisher) *orchestrator.Orchestrator {
	opts := orchestrator.Options{
		Scanner:       a.Pipeline,
		SignalStore:   a.Signals,
		SnapshotStore: a.Snapshots,
		RunStore:      a.Runs,
		Publisher:     publisher,
		Limit:         a.Config.Scan.Limit,
		Logger:        logrus.NewEntry(a.Log),
	}
	// A typed nil pointer must not reach the interface field.
	if a.Archiver != nil {
		opts.Archiver = a.Archiver
	}
	return orchestrator.New(opts)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
