// Command report renders an oversight report from the audit trail.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"strategy-supervisor/internal/reporting"
	chstore "strategy-supervisor/internal/storage/clickhouse"
	pgstore "strategy-supervisor/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string (optional, adds version section)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	strategies := flag.String("strategies", "", "Comma-separated strategy names (default: derived from decisions)")
	window := flag.Int("window", 100, "Number of recent decisions to aggregate")
	format := flag.String("format", "markdown", "Output format: markdown or csv")
	output := flag.String("output", "", "Output file (default: stdout)")
	timeout := flag.Duration("timeout", 30*time.Second, "Report generation timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn (or CLICKHOUSE_DSN) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, err := chstore.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("connect to clickhouse: %v", err)
	}
	defer conn.Close()

	opts := reporting.GeneratorOptions{
		Decisions: chstore.NewDecisionStore(conn),
		Rollbacks: chstore.NewRollbackStore(conn),
		Window:    *window,
	}
	opts.Evaluations = chstore.NewEvaluationStore(conn)

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		opts.Versions = pgstore.NewVersionStore(pool)
	} else {
		logger.Println("no postgres DSN, skipping strategy version section")
	}

	gen := reporting.NewGenerator(opts)
	report, err := gen.Generate(ctx, splitStrategies(*strategies))
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	var rendered string
	switch *format {
	case "markdown":
		rendered = reporting.RenderMarkdown(report)
	case "csv":
		rendered = reporting.RenderCSV(report.Decisions)
	default:
		logger.Fatalf("unknown format %q (want markdown or csv)", *format)
	}

	if *output == "" {
		fmt.Print(rendered)
		return
	}
	if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
		logger.Fatalf("write %s: %v", *output, err)
	}
	logger.Printf("wrote %s", *output)
}

// splitStrategies parses the comma-separated strategy list.
func splitStrategies(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
