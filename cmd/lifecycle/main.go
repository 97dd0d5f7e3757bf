// Command lifecycle administers strategy versions: creation, state
// transitions, manual rollback, and promotion criteria overrides.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/lifecycle"
	"strategy-supervisor/internal/storage"
	chstore "strategy-supervisor/internal/storage/clickhouse"
	"strategy-supervisor/internal/storage/memory"
	pgstore "strategy-supervisor/internal/storage/postgres"
)

func main() {
	mode := flag.String("mode", "", "Operation: create, transition, rollback, set-criteria, list")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	strategy := flag.String("strategy", "", "Strategy name")
	version := flag.String("version", "", "Version string")
	target := flag.String("target", "", "Target state for transition mode")
	reason := flag.String("reason", "operator request", "Reason for rollback mode")
	params := flag.String("params", "", "Comma-separated key=value parameters for create mode")
	criteriaJSON := flag.String("criteria", "", "Promotion criteria JSON for set-criteria mode")
	timeout := flag.Duration("timeout", 30*time.Second, "Operation timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[lifecycle] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn (or POSTGRES_DSN) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	opts := lifecycle.Options{
		Versions:    pgstore.NewVersionStore(pool),
		Deployments: pgstore.NewDeploymentStore(pool),
		Criteria:    pgstore.NewCriteriaStore(pool),
	}

	// Audit trail goes to clickhouse when available; without a DSN the
	// records are kept in memory for the life of the command only.
	opts.Evaluations = memory.NewEvaluationStore()
	opts.Rollbacks = memory.NewRollbackStore()
	if *clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		opts.Evaluations = chstore.NewEvaluationStore(conn)
		opts.Rollbacks = chstore.NewRollbackStore(conn)
	} else {
		logger.Println("no clickhouse DSN, audit records will not be persisted")
	}

	manager := lifecycle.NewManager(opts)

	switch *mode {
	case "create":
		err = runCreate(ctx, logger, manager, *strategy, *version, *params)
	case "transition":
		err = runTransition(ctx, logger, manager, *strategy, *version, *target)
	case "rollback":
		err = runRollback(ctx, logger, manager, *strategy, *reason)
	case "set-criteria":
		err = runSetCriteria(ctx, logger, opts.Criteria, *strategy, *criteriaJSON)
	case "list":
		err = runList(ctx, logger, opts.Versions, *strategy)
	default:
		logger.Fatalf("unknown mode %q (want create, transition, rollback, set-criteria, or list)", *mode)
	}
	if err != nil {
		logger.Fatalf("%s: %v", *mode, err)
	}
}

func runCreate(ctx context.Context, logger *log.Logger, m *lifecycle.Manager, strategy, version, params string) error {
	if strategy == "" || version == "" {
		return fmt.Errorf("--strategy and --version are required")
	}
	v, err := m.CreateVersion(ctx, strategy, version, parseParams(params))
	if err != nil {
		return err
	}
	logger.Printf("created %s@%s state=%s hash=%s", v.Strategy, v.Version, v.State, v.ContentHash)
	return nil
}

func runTransition(ctx context.Context, logger *log.Logger, m *lifecycle.Manager, strategy, version, target string) error {
	if strategy == "" || version == "" || target == "" {
		return fmt.Errorf("--strategy, --version, and --target are required")
	}
	state := domain.DeploymentState(target)
	if !state.IsValid() {
		return fmt.Errorf("unknown state %q", target)
	}
	if err := m.Transition(ctx, strategy, version, state); err != nil {
		return err
	}
	logger.Printf("%s@%s -> %s", strategy, version, state)
	return nil
}

func runRollback(ctx context.Context, logger *log.Logger, m *lifecycle.Manager, strategy, reason string) error {
	if strategy == "" {
		return fmt.Errorf("--strategy is required")
	}
	event, err := m.ManualRollback(ctx, strategy, reason)
	if err != nil {
		return err
	}
	if event.ToVersion == "" {
		logger.Printf("rolled back %s: %s paused, no prior version to reactivate", strategy, event.FromVersion)
		return nil
	}
	logger.Printf("rolled back %s: %s -> %s", strategy, event.FromVersion, event.ToVersion)
	return nil
}

func runSetCriteria(ctx context.Context, logger *log.Logger, store storage.CriteriaStore, strategy, criteriaJSON string) error {
	if criteriaJSON == "" {
		return fmt.Errorf("--criteria is required")
	}
	criteria := domain.DefaultPromotionCriteria()
	if err := json.Unmarshal([]byte(criteriaJSON), &criteria); err != nil {
		return fmt.Errorf("parse criteria: %w", err)
	}
	criteria.Strategy = strategy
	if err := store.Upsert(ctx, criteria); err != nil {
		return err
	}
	scope := strategy
	if scope == "" {
		scope = "(global default)"
	}
	logger.Printf("criteria set for %s", scope)
	return nil
}

func runList(ctx context.Context, logger *log.Logger, store storage.VersionStore, strategy string) error {
	if strategy == "" {
		return fmt.Errorf("--strategy is required")
	}
	versions, err := store.GetByStrategy(ctx, strategy)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		logger.Printf("no versions for %s", strategy)
		return nil
	}
	for _, v := range versions {
		promoted := "-"
		if v.PromotedAt != nil {
			promoted = v.PromotedAt.Format(time.RFC3339)
		}
		logger.Printf("%s@%s state=%s created=%s promoted=%s",
			v.Strategy, v.Version, v.State, v.CreatedAt.Format(time.RFC3339), promoted)
	}
	return nil
}

// parseParams parses "key=value,key=value" into a map.
func parseParams(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && k != "" {
			out[k] = v
		}
	}
	return out
}
