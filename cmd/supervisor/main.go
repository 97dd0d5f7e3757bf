package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"strategy-supervisor/internal/account"
	"strategy-supervisor/internal/config"
	"strategy-supervisor/internal/execution"
	"strategy-supervisor/internal/lifecycle"
	"strategy-supervisor/internal/observability"
	"strategy-supervisor/internal/oracle"
	"strategy-supervisor/internal/orchestrator"
	"strategy-supervisor/internal/perf"
	"strategy-supervisor/internal/scheduler"
	"strategy-supervisor/internal/storage"
	chstore "strategy-supervisor/internal/storage/clickhouse"
	"strategy-supervisor/internal/storage/memory"
	pgstore "strategy-supervisor/internal/storage/postgres"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[supervisor] starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[supervisor] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[supervisor] config validation: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		log.Printf("[supervisor] metrics server on %s", cfg.Metrics.Addr)
		if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("[supervisor] metrics server error: %v", err)
		}
	}()

	// Entity stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		versions    storage.VersionStore     = memory.NewVersionStore()
		deployments storage.DeploymentStore  = memory.NewDeploymentStore()
		criteria    storage.CriteriaStore    = memory.NewCriteriaStore()
		systemState storage.SystemStateStore = memory.NewSystemStateStore()
	)
	if cfg.Database.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Database.PostgresDSN)
		if err != nil {
			log.Fatalf("[supervisor] connect to postgres: %v", err)
		}
		defer pool.Close()
		versions = pgstore.NewVersionStore(pool)
		deployments = pgstore.NewDeploymentStore(pool)
		criteria = pgstore.NewCriteriaStore(pool)
		systemState = pgstore.NewSystemStateStore(pool)
		log.Println("[supervisor] using postgres entity stores")
	} else {
		log.Println("[supervisor] no postgres DSN, using in-memory entity stores")
	}

	// Audit stores: clickhouse when a DSN is configured, in-memory otherwise.
	var (
		decisions   storage.DecisionStore   = memory.NewDecisionStore()
		evaluations storage.EvaluationStore = memory.NewEvaluationStore()
		rollbacks   storage.RollbackStore   = memory.NewRollbackStore()
	)
	if cfg.Database.ClickHouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Database.ClickHouseDSN)
		if err != nil {
			log.Fatalf("[supervisor] connect to clickhouse: %v", err)
		}
		defer conn.Close()
		decisions = chstore.NewDecisionStore(conn)
		evaluations = chstore.NewEvaluationStore(conn)
		rollbacks = chstore.NewRollbackStore(conn)
		log.Println("[supervisor] using clickhouse audit stores")
	} else {
		log.Println("[supervisor] no clickhouse DSN, using in-memory audit stores")
	}

	// Oracle client
	advisor, err := oracle.NewClient(cfg.Oracle.APIKey, cfg.Oracle.BaseURL, cfg.Oracle.Model)
	if err != nil {
		log.Fatalf("[supervisor] oracle client: %v", err)
	}
	log.Printf("[supervisor] oracle model: %s", advisor.Model())

	// Account stream
	feed := account.NewFeed(cfg.AccountStream.URL, cfg.MaxStale())
	go feed.Run(ctx)

	// Execution and performance tracking
	executor := execution.NewPaperExecutor()
	metrics := perf.NewProvider(executor, nil)

	manager := lifecycle.NewManager(lifecycle.Options{
		Versions:    versions,
		Deployments: deployments,
		Criteria:    criteria,
		Evaluations: evaluations,
		Rollbacks:   rollbacks,
		Metrics:     metrics,
	})

	orch := orchestrator.New(orchestrator.Options{
		Advisor:       advisor,
		Accounts:      feed,
		Executor:      executor,
		Manager:       manager,
		SystemState:   systemState,
		Decisions:     decisions,
		OracleTimeout: cfg.OracleTimeout(),
	})

	sched := scheduler.New(ctx, func(ctx context.Context) error {
		_, err := orch.RunCycle(ctx)
		return err
	})
	if err := sched.Register(cfg.Schedule.CycleCron); err != nil {
		log.Fatalf("[supervisor] register cycle schedule: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		log.Println("[supervisor] run_on_start enabled, executing cycle now")
		go sched.RunCycleNow()
	}

	log.Printf("[supervisor] running, cycle schedule %q", cfg.Schedule.CycleCron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[supervisor] shutdown signal received, stopping...")
	cancel()
	log.Println("[supervisor] stopped")
}
