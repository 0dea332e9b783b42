// Package main runs a single scan and prints the result as JSON, CSV or Markdown.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"objkt-signal-lab/internal/app"
	"objkt-signal-lab/internal/config"
	"objkt-signal-lab/internal/pipeline"
	"objkt-signal-lab/internal/reporting"
)

func main() {
	configPath := flag.String("config", os.Getenv("OBJKT_CONFIG"), "Path to TOML config file")
	limit := flag.Int("limit", 0, "Candidates to evaluate (overrides scan.limit)")
	format := flag.String("format", "json", "Output format: json, csv, md")
	out := flag.String("out", "", "Output file (default stdout)")
	replay := flag.Bool("replay", false, "Evaluate recorded histories from postgres instead of objkt")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	rankBy := flag.String("rank-by", "", "Ranking: none, sold_rate, collect_interval (overrides scan.rank_by)")
	flag.Parse()

	if err := run(*configPath, *limit, *format, *out, *replay, *useMemory, *rankBy); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, limit int, format, out string, replay, useMemory bool, rankBy string) error {
	switch format {
	case "json", "csv", "md":
	default:
		return fmt.Errorf("unknown format %q (want json, csv or md)", format)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if limit > 0 {
		cfg.Scan.Limit = limit
	}
	if useMemory {
		cfg.UseMemory = true
	}
	if rankBy != "" {
		cfg.Scan.RankBy = rankBy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cfg.NewLogger()
	// Logs go to stderr so stdout carries only the report.
	logger.SetOutput(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, logger, app.BuildOptions{Replay: replay})
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	res, err := a.Orchestrator(nil).Run(ctx)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	return render(ctx, w, format, res.RunResult, reporting.NewGenerator(a.Runs))
}

func render(ctx context.Context, w io.Writer, format string, res *pipeline.RunResult, gen *reporting.Generator) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	report, err := gen.Generate(ctx, res)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	var body string
	switch format {
	case "csv":
		body, err = reporting.RenderCSV(report.Signals)
		if err != nil {
			return fmt.Errorf("render csv: %w", err)
		}
	case "md":
		body = reporting.RenderMarkdown(report)
	}
	_, err = io.WriteString(w, body)
	return err
}
