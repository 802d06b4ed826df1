package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sreenu926/50cube-staging/internal/app"
	"github.com/sreenu926/50cube-staging/internal/config"
	"github.com/sreenu926/50cube-staging/internal/domain"
	"github.com/sreenu926/50cube-staging/internal/event"
	"github.com/sreenu926/50cube-staging/internal/fallback"
	"github.com/sreenu926/50cube-staging/internal/infra/memory"
	"github.com/sreenu926/50cube-staging/internal/infra/postgres"
	infraredis "github.com/sreenu926/50cube-staging/internal/infra/redis"
	"github.com/sreenu926/50cube-staging/internal/infra/remote"
	"github.com/sreenu926/50cube-staging/internal/metrics"
	transport "github.com/sreenu926/50cube-staging/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the leagues service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var appMetrics app.Metrics = app.NoopMetrics{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		appMetrics = collector
		metricsHandler = collector.Handler()
	}

	provider := fallback.NewProvider()

	var backend *remote.Client
	if cfg.Content.BaseURL != "" {
		backend = remote.NewClient(cfg.Content.BaseURL,
			remote.WithTimeout(config.TTLDuration(cfg.Content.Timeout, remote.DefaultTimeout)),
			remote.WithLogger(log.WithField("component", "remote")),
		)
	}

	// challenge content: remote backend, then postgres, then the built-in set
	var source app.ChallengeSource
	switch {
	case backend != nil:
		source = backend
	case pool != nil:
		source = postgres.NewChallengeSource(pool)
	default:
		source = memory.NewStaticChallengeSource(sampleChallenges(provider))
	}
	loader := app.NewChallengeLoader(source, provider, appMetrics, log)

	cacheTTL := config.TTLDuration(cfg.Challenge.CacheTTL, 10*time.Minute)
	var challenges app.ChallengeRepository
	if redisClient != nil {
		challenges = infraredis.NewChallengeCache(redisClient, loader, cacheTTL, log)
	} else {
		challenges = memory.NewChallengeCache(loader, cacheTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 2*time.Hour)
	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = infraredis.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, sessionTTL))
	} else {
		sessions = memory.NewSessionStore()
	}

	// submissions go to the backend when configured, otherwise to a local
	// archive that also feeds league leaderboards; with both, accepted
	// attempts are copied into the archive
	var submitter app.Submitter
	var archive app.StandingsArchive
	switch {
	case backend != nil && pool != nil:
		pg := postgres.NewAttemptArchive(pool)
		submitter, archive = app.NewArchivingSubmitter(backend, pg, log), pg
	case backend != nil:
		submitter = backend
	case pool != nil:
		pg := postgres.NewAttemptArchive(pool)
		submitter, archive = pg, pg
	default:
		mem := memory.NewAttemptArchive()
		submitter, archive = mem, mem
	}

	opts := []app.ServiceOption{
		app.WithResultSubmitter(submitter, config.TTLDuration(cfg.Session.SubmitTimeout, 5*time.Second)),
		app.WithMetrics(appMetrics),
		app.WithLogger(log),
		app.WithCountdown(config.TTLDuration(cfg.Session.Tick, time.Second), nil),
	}
	if cfg.RabbitMQ.URL != "" {
		publisher, err := event.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.WithError(err).Warn("event publishing disabled")
		} else {
			defer publisher.Close()
			opts = append(opts, app.WithPublisher(publisher))
		}
	}

	standings := app.NewStandings()
	challengeService := app.NewChallengeService(sessions, challenges, standings, opts...)

	var leagueBackend app.LeagueBackend
	var catalogSource app.CatalogSource
	if backend != nil {
		leagueBackend = backend
		catalogSource = backend
	}
	var leagueOpts []app.LeaguesOption
	if archive != nil {
		leagueOpts = append(leagueOpts, app.WithStandingsArchive(archive))
	}
	leaguesService := app.NewLeaguesService(leagueBackend, provider, standings, appMetrics, log, leagueOpts...)

	var wallets app.WalletStore
	if redisClient != nil {
		wallets = infraredis.NewWalletStore(redisClient)
	} else {
		wallets = memory.NewWalletStore()
	}
	readersService := app.NewReadersService(catalogSource, provider, wallets, app.ReadersConfig{
		StartingCredits: cfg.Readers.StartingCredits,
		MaxDownloads:    cfg.Readers.MaxDownloads,
		LinkTTL:         config.TTLDuration(cfg.Readers.LinkTTL, app.DefaultLinkTTL),
		DownloadBaseURL: cfg.Readers.DownloadBaseURL,
	}, appMetrics, log)

	handler := transport.NewRouter(transport.RouterConfig{
		API:            transport.NewAPIHandler(challengeService, leaguesService, readersService, log),
		WS:             transport.NewWSHandler(challengeService, log),
		Metrics:        metricsHandler,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepSessions(sweepCtx, challengeService, sessionTTL, log)

	go func() {
		log.WithFields(logrus.Fields{
			"port":     finalPort,
			"redis":    redisClient != nil,
			"postgres": pool != nil,
			"backend":  cfg.Content.BaseURL,
		}).Info("starting leagues service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepSessions abandons sessions older than maxAge until ctx ends.
func sweepSessions(ctx context.Context, svc *app.ChallengeService, maxAge time.Duration, log logrus.FieldLogger) {
	interval := maxAge / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := svc.Sweep(ctx, maxAge); n > 0 {
				log.WithField("removed", n).Info("abandoned stale sessions")
			}
		case <-ctx.Done():
			return
		}
	}
}

// sampleChallenges plays every sample league with the built-in question set
// when neither a backend nor Postgres is configured.
func sampleChallenges(provider *fallback.Provider) map[string]domain.Challenge {
	out := make(map[string]domain.Challenge)
	for _, league := range provider.Leagues() {
		out[league.ID] = domain.Challenge{
			ID:               league.ID,
			Name:             league.Name,
			Description:      league.Description,
			TimeLimitMinutes: league.TimeLimitMinutes,
			Questions:        provider.Questions(),
		}
	}
	return out
}
