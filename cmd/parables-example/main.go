// Command parables-example shows how a host program wires the core
// packages together: seed an Evm, fund an account, wrap it in a Snapshot,
// register a handful of tests against derived clones, and run them
// concurrently. It is not a daemon — no network listeners, no long-running
// process.
//
// Usage:
//
//	parables-example [flags]
//
// Flags:
//
//	--spec         Chain spec: null, instant, morden (default: instant)
//	--workers      Runner worker pool size (default: GOMAXPROCS)
//	--bail         Stop scheduling new tests after the first failure
//	--metrics      Print a Prometheus exposition-format metrics snapshot after the run
//	--json-report  Stream one JSON object per test event to stdout instead of the default human-readable report
//	--pretty       Render the structured log through a ColorFormatter instead of JSON
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"

	"github.com/primablock/parables/chainspec"
	"github.com/primablock/parables/evmcore"
	"github.com/primablock/parables/ledger"
	"github.com/primablock/parables/log"
	"github.com/primablock/parables/metrics"
	"github.com/primablock/parables/runner"
	"github.com/primablock/parables/types"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	if cfg.pretty {
		log.SetDefault(log.NewWithFormatter(&log.ColorFormatter{}, os.Stderr, slog.LevelInfo))
	}

	logger := log.Default().Module("example")
	logger.With("spec", cfg.spec.String(), "workers", cfg.workers, "bail", cfg.bail).
		Info("starting example run")

	cpu := metrics.NewCPUTracker()

	seed, err := evmcore.NewSeed(cfg.spec)
	if err != nil {
		logger.With("err", err).Error("failed to construct seed evm")
		return 1
	}

	alice := types.HexToAddress("0x1111111111111111111111111111111111111111")
	bob := types.HexToAddress("0x2222222222222222222222222222222222222222")
	startBalance := weiEther(100)
	seed.AddBalance(alice, startBalance)

	snap := evmcore.NewSnapshot(seed)

	opts := []runner.Option{runner.WithWorkers(cfg.workers)}
	if cfg.bail {
		opts = append(opts, runner.WithBail())
	}
	if cfg.jsonReport {
		opts = append(opts, runner.WithReporter(runner.NewJSONReporter(os.Stdout)))
	}
	r := runner.New(opts...)

	r.Register("transfer moves value", func(t *runner.T) {
		evm := snap.Get()
		defer snap.Release()

		sent := weiEther(1)
		call := evm.DefaultCall(alice)
		call.Value = sent

		_, _, err := evm.Call(bob, nil, call)
		t.Assert(err == nil, fmt.Sprintf("call failed: %v", err))
		t.Assert(evm.Balance(bob).Cmp(sent) == 0, "bob should have received the transfer")
	})

	r.Register("ledger tracks balance deltas", func(t *runner.T) {
		evm := snap.Get()
		defer snap.Release()

		bal := ledger.NewBalanceLedger(evm)
		t.Assert(bal.Sync(alice) == nil, "sync alice")
		t.Assert(bal.Sync(bob) == nil, "sync bob")

		sent := weiEther(2)
		call := evm.DefaultCall(alice)
		call.Value = sent
		_, _, err := evm.Call(bob, nil, call)
		t.Assert(err == nil, fmt.Sprintf("call failed: %v", err))

		t.Assert(bal.Sub(alice, sent) == nil, "record alice debit")
		t.Assert(bal.Add(bob, sent) == nil, "record bob credit")
		t.Assert(bal.Verify() == nil, "ledger should reconcile with observed balances")
	})

	outcomes := r.Run(context.Background())
	for _, o := range outcomes {
		logger.With("test", o.Name, "status", o.Status.String(), "duration", o.Duration).Info("test finished")
	}

	cpu.RecordCPU()
	logger.With("outstanding_snapshots", snap.Outstanding(), "cpu_pct", cpu.Usage(), "tests_per_sec_1m", metrics.TestsRate.Rate1()).
		Info("run complete")

	if cfg.metrics {
		printMetricsSnapshot()
	}

	return r.ExitCode()
}

// printMetricsSnapshot renders the DefaultRegistry through a
// PrometheusExporter and writes the exposition-format text to stdout. It
// drives the exporter's HTTP handler against an in-process test server
// rather than binding a real listener, since this harness never runs as a
// long-lived daemon.
func printMetricsSnapshot() {
	exporter := metrics.NewPrometheusExporter(metrics.DefaultRegistry, metrics.DefaultPrometheusConfig())
	srv := httptest.NewServer(exporter.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		fmt.Fprintf(os.Stderr, "metrics snapshot: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "metrics snapshot: %v\n", err)
		return
	}
	os.Stdout.Write(body)
}

func weiEther(n uint64) types.U256 {
	return types.NewU256(n).Mul(types.NewU256(1_000_000_000_000_000_000))
}

// exampleConfig holds the resolved CLI configuration.
type exampleConfig struct {
	spec       chainspec.Spec
	workers    int
	bail       bool
	metrics    bool
	jsonReport bool
	pretty     bool
}

func parseFlags(args []string) (exampleConfig, bool, int) {
	fs := flag.NewFlagSet("parables-example", flag.ContinueOnError)

	specName := fs.String("spec", "instant", "chain spec: null, instant, morden")
	workers := fs.Int("workers", 0, "runner worker pool size (0 = GOMAXPROCS)")
	bail := fs.Bool("bail", false, "stop scheduling new tests after the first failure")
	printMetrics := fs.Bool("metrics", false, "print a Prometheus exposition-format metrics snapshot after the run")
	jsonReport := fs.Bool("json-report", false, "stream one JSON object per test event to stdout instead of the default report")
	pretty := fs.Bool("pretty", false, "render logs through a ColorFormatter instead of JSON")

	if err := fs.Parse(args); err != nil {
		return exampleConfig{}, true, 2
	}

	var spec chainspec.Spec
	switch *specName {
	case "null":
		spec = chainspec.Null
	case "instant":
		spec = chainspec.InstantSeal
	case "morden":
		spec = chainspec.Morden
	default:
		fmt.Fprintf(os.Stderr, "unknown spec %q\n", *specName)
		return exampleConfig{}, true, 2
	}

	return exampleConfig{
		spec:       spec,
		workers:    *workers,
		bail:       *bail,
		metrics:    *printMetrics,
		jsonReport: *jsonReport,
		pretty:     *pretty,
	}, false, 0
}
