package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/NetCandle"
	"github.com/ghalamif/NetCandle/internal/adapters/activity"
	"github.com/ghalamif/NetCandle/internal/adapters/control"
	"github.com/ghalamif/NetCandle/internal/adapters/observability"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "control":
		err = controlCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("netcandle %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := netcandle.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := flow.Config()
	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.NoColor || os.Getenv("NO_COLOR") != "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = flow.Options(netcandle.WithLogger(logger)).Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := netcandle.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if err := control.CheckExecutable(cfg.Control.Script); err != nil {
		return err
	}
	fmt.Printf("config %s looks good (schema=%d capacity=%d cycle=%s)\n",
		*cfgPath, cfg.Policy.Schema, cfg.Policy.WindowCapacity, cfg.Policy.CycleDuration)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsTargets = []string{
	"netcandle_records_accepted_total",
	"netcandle_lines_malformed_total",
	"netcandle_alerts_raised_total",
	"netcandle_cycle_resets_total",
	"netcandle_window_length",
	"netcandle_channel_depth",
	"netcandle_journal_size_bytes",
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values := make(map[string]float64, len(statsTargets))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range statsTargets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %f", &value); err == nil {
					values[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] accepted=%.0f malformed=%.0f alerts=%.0f resets=%.0f window=%.0f depth=%.0f journal_bytes=%.0f\n",
		time.Now().Format(time.RFC3339),
		values["netcandle_records_accepted_total"],
		values["netcandle_lines_malformed_total"],
		values["netcandle_alerts_raised_total"],
		values["netcandle_cycle_resets_total"],
		values["netcandle_window_length"],
		values["netcandle_channel_depth"],
		values["netcandle_journal_size_bytes"],
	)
	return nil
}

// controlCommand asks a running instance to launch the script, or runs it in
// the foreground when -config is given instead of -url.
func controlCommand(args []string) error {
	fs := flag.NewFlagSet("control", flag.ExitOnError)
	url := fs.String("url", "", "Base URL of a running netcandle (e.g. http://localhost:9100)")
	cfgPath := fs.String("config", "./data/config.yaml", "Configuration used for a local run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one of %q or %q", control.SaveBaseline, control.RunCheck)
	}
	cmd := fs.Arg(0)

	if *url != "" {
		return postControl(*url, cmd)
	}

	cfg, err := netcandle.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if err := control.CheckExecutable(cfg.Control.Script); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feed := activity.NewFeed(activity.DefaultMaxLines)
	lines, cancel := feed.Subscribe(16)
	defer cancel()
	go func() {
		for l := range lines {
			fmt.Println(l.Text)
		}
	}()

	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.NoColor)
	obs := observability.NewPromObs(prometheus.NewRegistry(), logger)
	out, err := control.NewRunner(cfg.Control, feed, nil, obs).Run(ctx, cmd)
	if err != nil {
		return err
	}
	if out.Stdout != "" {
		fmt.Print(out.Stdout)
	}
	if out.Stderr != "" {
		fmt.Fprint(os.Stderr, out.Stderr)
	}
	if out.ExitCode != 0 {
		return fmt.Errorf("script exited with code %d", out.ExitCode)
	}
	return nil
}

func postControl(base, cmd string) error {
	resp, err := http.Post(strings.TrimRight(base, "/")+"/control/"+cmd, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%s: %s", resp.Status, body["error"])
	}
	fmt.Printf("started %s run_id=%s\n", cmd, body["run_id"])
	return nil
}

func printUsage() {
	fmt.Printf(`NetCandle CLI

Usage:
  netcandle <command> [flags]

Commands:
  run        Start the ingestor, renderer and HTTP surface using the provided config
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters
  control    Launch the backend script with save-baseline or run-check

Examples:
  netcandle run -config ./data/config.yaml
  netcandle validate -config ./data/config.yaml
  netcandle stats -url http://localhost:9100/metrics -interval 1s
  netcandle control -url http://localhost:9100 run-check
  netcandle control -config ./data/config.yaml save-baseline
`)
}
