// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"gopkg.in/oauth2.v3"

	"github.com/naveen978980/Fishnet-app/admin"
	"github.com/naveen978980/Fishnet-app/pkg/buntdbclient"
	"github.com/naveen978980/Fishnet-app/pkg/catches"
	"github.com/naveen978980/Fishnet-app/pkg/ledger"
	"github.com/naveen978980/Fishnet-app/pkg/ratelimit"
	"github.com/naveen978980/Fishnet-app/pkg/stats"
)

var (
	flagHTTPAddr  = flag.String("http.addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	flagAdminAddr = flag.String("admin.addr", "", "Admin HTTP listen address (overrides ADMIN_ADDR)")
	flagEnvFile   = flag.String("env", ".env", "Optional dotenv file to load")

	logger log.Logger = log.NewNopLogger()

	// Metrics
	authSuccesses = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_successes",
		Help: "Count of successful authorizations",
	}, []string{"method"})
	authFailures = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_failures",
		Help: "Count of failed authorizations",
	}, []string{"method"})
	authInactivations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_inactivations",
		Help: "Count of sessions revoked",
	}, []string{"method"})

	tokenGenerations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "auth_token_generations",
		Help: "Count of auth tokens created",
	}, []string{"method"})

	signups = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "account_signups",
		Help: "Count of registration attempts by outcome",
	}, []string{"result"})

	internalServerErrors = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "http_errors",
		Help: "Count of how many 5xx errors we send out",
	}, nil)
)

const Version = "0.1.0-dev"

// app holds the wired services behind the HTTP API.
type app struct {
	db       *sql.DB
	gate     *gate
	ledger   *ledger.Service
	catches  *catches.Service
	stats    *stats.Service
	limiter  *ratelimit.Keyed
	starting int64
}

func setupApp(logger log.Logger, cfg *config, db *sql.DB, tokens oauth2.TokenStore, clients *buntdbclient.ClientStore) (*app, error) {
	sess, err := setupSessions(logger, sessionConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Secret:       cfg.SessionSecret,
		TTL:          cfg.SessionTTL,
	}, tokens, clients)
	if err != nil {
		return nil, err
	}

	accountRepo := newSqliteAccountRepository(db)
	catchRepo := newSqliteCatchRepository(db)
	notifier := logNotifier{logger: logger}

	ledgerSvc := ledger.New(newSqliteLedgerRepository(db), logger, notifier)
	catchSvc := catches.NewService(catchRepo, accountRepo, ledgerSvc, notifier, logger, catches.Config{
		Reward:          cfg.CatchReward,
		RequireLocation: cfg.RequireLocation,
	})
	statsSvc := stats.NewService(catchRepo, catchSvc, accountRepo)
	if cfg.RecentCatches > 0 {
		statsSvc.RecentLimit = cfg.RecentCatches
	}

	return &app{
		db:       db,
		gate:     &gate{sessions: sess, accounts: accountRepo},
		ledger:   ledgerSvc,
		catches:  catchSvc,
		stats:    statsSvc,
		limiter:  ratelimit.New(cfg.LoginPerMinute, cfg.LoginBurst, 10*time.Minute),
		starting: cfg.StartingTokens,
	}, nil
}

func (a *app) router(logger log.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(logRequests(logger))

	addHealthRoutes(router, a.db)
	addSignupRoutes(router, logger, a.gate.accounts, a.gate.sessions, a.starting)
	addLoginRoutes(router, logger, a.gate.accounts, a.gate.sessions, a.limiter)
	addLogoutRoutes(router, logger, a.gate)
	addAccountRoutes(router, logger, a.gate)
	addCatchRoutes(router, logger, a.gate, a.catches)
	addStatsRoutes(router, a.stats)
	addTokenRoutes(router, a.gate, a.ledger)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found", Code: "not_found"})
	})
	return router
}

func main() {
	flag.Parse()

	// Setup logging, default to stderr
	logger = log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	logger = log.With(logger, "caller", log.DefaultCaller)
	logger.Log("startup", fmt.Sprintf("Starting fishnet server version %s", Version))

	cfg, err := loadConfig(*flagEnvFile)
	if err != nil {
		logger.Log("config", err)
		os.Exit(1)
	}
	if *flagHTTPAddr != "" {
		cfg.HTTPAddr = *flagHTTPAddr
	}
	if *flagAdminAddr != "" {
		cfg.AdminAddr = *flagAdminAddr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Listen for application termination.
	errs := make(chan error)
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	db, err := migrate(logger, cfg.SqlitePath)
	if err != nil {
		logger.Log("sqlite", err)
		os.Exit(1)
	}
	defer db.Close()
	go promMetricCollector{}.run(ctx, db)

	tokens, err := fileTokenStore(cfg.SessionDBPath)
	if err != nil {
		logger.Log("sessions", err)
		os.Exit(1)
	}
	clients, err := buntdbclient.New(cfg.ClientDBPath)
	if err != nil {
		logger.Log("sessions", fmt.Sprintf("problem opening client store: %v", err))
		os.Exit(1)
	}
	defer clients.Close()

	a, err := setupApp(logger, cfg, db, tokens, clients)
	if err != nil {
		logger.Log("startup", err)
		os.Exit(1)
	}
	go a.limiter.Run(ctx, time.Minute)

	readTimeout, _ := time.ParseDuration("30s")
	writTimeout, _ := time.ParseDuration("30s")
	idleTimeout, _ := time.ParseDuration("60s")

	serve := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      withCORS(a.router(logger), cfg.corsOrigins()),
		ReadTimeout:  readTimeout,
		WriteTimeout: writTimeout,
		IdleTimeout:  idleTimeout,
	}
	shutdownServer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := serve.Shutdown(ctx); err != nil {
			logger.Log("shutdown", err)
		}
	}

	if err := admin.Init(); err != nil {
		logger.Log("admin", err)
	}
	adminServer := admin.NewServer(cfg.AdminAddr)
	adminServer.AddReadinessCheck("sqlite", db.PingContext)
	go func() {
		logger.Log("admin", fmt.Sprintf("Starting admin service on %s", adminServer.BindAddress()))
		if err := adminServer.Listen(); err != nil && err != http.ErrServerClosed {
			logger.Log("admin", "shutting down", "error", err)
		}
	}()

	go func() {
		logger.Log("transport", "HTTP", "addr", cfg.HTTPAddr)
		errs <- serve.ListenAndServe()
	}()

	if err := <-errs; err != nil {
		cancel()
		adminServer.Shutdown(context.Background())
		shutdownServer()
		logger.Log("exit", err)
	}
}
