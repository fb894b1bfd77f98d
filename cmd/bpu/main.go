package main

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/latticebyte/bpu/pkg/bpu"
)

//go:embed assets/banner.txt
var banner string

func main() {
	fmt.Print(banner)
	fmt.Println()

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
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("bpu %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := pflag.NewFlagSet("run", pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", "./data/config.yaml", "path to BPU configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := bpu.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bootID := uuid.NewString()
	log.Printf("bpu boot id=%s config=%s", bootID, *cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func validateCommand(args []string) error {
	fs := pflag.NewFlagSet("validate", pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", "./data/config.yaml", "path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := bpu.LoadConfig(*cfgPath); err != nil {
		return err
	}
	fmt.Printf("config %s looks good\n", *cfgPath)
	return nil
}

func statsCommand(args []string) error {
	fs := pflag.NewFlagSet("stats", pflag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("streaming metrics from %s (Ctrl+C to stop)\n", *url)
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
	"bpu_evq_depth",
	"bpu_jobq_depth",
	"bpu_uart_sent_total",
	"bpu_uart_skip_budget_total",
	"bpu_uart_skip_txbuf_total",
	"bpu_degrade_drop_total",
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
	for _, key := range statsTargets {
		values[key] = 0
	}

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

	fmt.Printf("[%s] evq=%.0f jobq=%.0f sent=%.0f skip_budget=%.0f skip_txbuf=%.0f degrade_drop=%.0f\n",
		time.Now().Format(time.RFC3339),
		values["bpu_evq_depth"], values["bpu_jobq_depth"], values["bpu_uart_sent_total"],
		values["bpu_uart_skip_budget_total"], values["bpu_uart_skip_txbuf_total"], values["bpu_degrade_drop_total"])
	return nil
}

func printUsage() {
	fmt.Print(`bpu — batch-processing / egress-shaping core for a serial link

Usage:
  bpu <command> [flags]

Commands:
  run        Start the runtime using the provided config
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  bpu run --config ./data/config.yaml
  bpu validate --config ./data/config.yaml
  bpu stats --url http://localhost:9100/metrics --interval 1s
`)
}
