package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voltguard/chargesim/app"
	"github.com/voltguard/chargesim/config"
	"github.com/voltguard/chargesim/core/model"
)

var (
	cfgPath   string
	anomalies []string
	duration  float64
	seed      int64
)

var rootCmd = &cobra.Command{
	Use:   "chargesim",
	Short: "EV charging session fault and attack injection simulator",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults apply when omitted)")
	rootCmd.PersistentFlags().Float64VarP(&duration, "duration", "d", 0, "session duration in simulated seconds (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed for anomaly transforms (overrides config)")
	rootCmd.Flags().StringSliceVarP(&anomalies, "anomalies", "a", nil, "anomaly kinds active from session start (e.g. denial_of_service,replay_attack)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig resolves the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if duration > 0 {
		cfg.Session.DurationSeconds = duration
	}
	if seed != 0 {
		cfg.Session.Seed = seed
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kinds := make([]model.AnomalyKind, 0, len(anomalies))
	for _, name := range anomalies {
		kind, err := model.ParseAnomalyKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.Run(ctx, kinds...)
	if err != nil {
		return err
	}
	return printReport(cmd, summary.Statistics.Report())
}

func printReport(cmd *cobra.Command, report map[string]any) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
