package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sw965/smartcab/agent"
	"github.com/sw965/smartcab/config"
	"github.com/sw965/smartcab/mathx/randx"
	"github.com/sw965/smartcab/metrics"
	"github.com/sw965/smartcab/report"
	"github.com/sw965/smartcab/simulator"
	"github.com/sw965/smartcab/store"
	"github.com/sw965/smartcab/world"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	trials      = flag.Int("trials", 0, "Number of trials (overrides config)")
	seed        = flag.Uint64("seed", 0, "Random seed (overrides config)")
	chartPath   = flag.String("chart", "", "Write an HTML learning curve to this path")
	dbPath      = flag.String("db", "", "Record the run into this SQLite database")
	metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9090")
	verbose     = flag.Bool("v", false, "Log every tick")
	noColor     = flag.Bool("no-color", false, "Disable coloured output")
	showPolicy  = flag.Bool("policy", false, "Print the learned greedy action for every visited state")
	showRun     = flag.String("show-run", "", "Print a recorded run from the -db database instead of simulating")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlags(cfg, set)

	level, err := cfg.Output.Level()
	if err != nil {
		slog.Error("Invalid log level", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *showRun != "" {
		if err := show(ctx, cfg.Output.DBPath, *showRun, os.Stdout); err != nil {
			logger.Error("Failed to show run", "run_id", *showRun, "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Interrupted")
			os.Exit(130)
		}
		logger.Error("Simulation failed", "error", err)
		os.Exit(1)
	}
}

// applyFlags はコマンドラインで明示されたフラグだけで設定を上書きする。
func applyFlags(cfg *config.Config, set map[string]bool) {
	if set["trials"] {
		cfg.Trials = *trials
	}
	if set["seed"] {
		cfg.Seed = *seed
	}
	if set["chart"] {
		cfg.Output.ChartPath = *chartPath
	}
	if set["db"] {
		cfg.Output.DBPath = *dbPath
	}
	if set["metrics"] {
		cfg.Output.MetricsAddr = *metricsAddr
	}
	if set["v"] && *verbose {
		cfg.Output.LogLevel = "debug"
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	au := aurora.NewAurora(!*noColor)

	env, err := world.New(cfg.World, randx.NewPCG(cfg.Seed))
	if err != nil {
		return err
	}
	a, err := agent.New(cfg.Learning, randx.NewPCG(cfg.Seed+1), logger)
	if err != nil {
		return err
	}

	runInfo := store.NewRun(cfg.Seed, cfg.Learning)
	logger.Info("smartcab starting",
		"run_id", runInfo.ID,
		"trials", cfg.Trials,
		"seed", cfg.Seed,
		"alpha", cfg.Learning.Alpha,
		"gamma", cfg.Learning.Gamma,
		"epsilon", cfg.Learning.Epsilon,
	)

	var db *store.Store
	if cfg.Output.DBPath != "" {
		db, err = store.Open(ctx, cfg.Output.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.CreateRun(ctx, runInfo); err != nil {
			return err
		}
	}

	var m *metrics.Metrics
	if cfg.Output.MetricsAddr != "" {
		m = metrics.New()
		reg := prometheus.NewRegistry()
		if err := m.Register(reg); err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Output.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("Metrics server stopped", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("Serving metrics", "addr", cfg.Output.MetricsAddr)
	}

	sim := simulator.Simulator{
		World:  env,
		Agent:  a,
		Logger: logger,
		OnTrial: func(r simulator.TrialResult) error {
			mark := au.Red("FAIL")
			if r.Success {
				mark = au.Green("OK  ")
			}
			fmt.Printf("%s trial %3d  steps %3d  reward %7.2f  penalties %2d\n",
				mark, r.Trial, r.Steps, r.NetReward, r.Penalties)
			if db != nil {
				return db.RecordTrial(ctx, runInfo.ID, r)
			}
			return nil
		},
	}
	if m != nil {
		sim.OnTick = func(int, agent.Tick) { m.Observe(a) }
	}

	results, err := sim.Run(ctx, cfg.Trials)
	if err != nil {
		return err
	}

	fmt.Println(au.Bold(au.Cyan("== agent ==")))
	fmt.Println(a.Summary())
	fmt.Println(au.Bold(au.Cyan("== trials ==")))
	fmt.Println(report.Summarize(results))

	policy := a.Policy()
	fmt.Printf("learned states: %d\n", len(policy))
	if *showPolicy {
		printPolicy(os.Stdout, policy)
	}
	if db != nil {
		if err := db.SavePolicy(ctx, runInfo.ID, policy); err != nil {
			return err
		}
	}

	if cfg.Output.ChartPath != "" {
		if err := writeChart(cfg.Output.ChartPath, runInfo.ID, results); err != nil {
			return err
		}
		logger.Info("Chart written", "path", cfg.Output.ChartPath)
	}
	return nil
}

func writeChart(path, runID string, results []simulator.TrialResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteChart(f, "smartcab "+runID, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printPolicy(w io.Writer, policy []agent.PolicyEntry) {
	for _, e := range policy {
		fmt.Fprintf(w, "%-8s %6.2f  %s\n", e.Action, e.Value, e.State)
	}
}

// show は記録済みの実行を読み出して要約と方策を表示する。
func show(ctx context.Context, dbPath, runID string, w io.Writer) error {
	if dbPath == "" {
		return errors.New("-show-run requires -db or output.db_path")
	}
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	r, err := db.Run(ctx, runID)
	if err != nil {
		return err
	}
	results, err := db.Trials(ctx, runID)
	if err != nil {
		return err
	}
	policy, err := db.Policy(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run %s  started %s  seed %d\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Seed)
	fmt.Fprintf(w, "alpha %.2f  gamma %.2f  epsilon %.2f  default_q %.2f\n",
		r.Learning.Alpha, r.Learning.Gamma, r.Learning.Epsilon, r.Learning.DefaultQ)
	if len(results) > 0 {
		fmt.Fprintln(w, report.Summarize(results))
	}
	fmt.Fprintf(w, "learned states: %d\n", len(policy))
	printPolicy(w, policy)
	return nil
}
