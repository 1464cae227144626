package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voltguard/chargesim/app"
	"github.com/voltguard/chargesim/core/anomaly"
)

var (
	scenarioName  string
	listScenarios bool
)

var attackCmd = &cobra.Command{
	Use:   "attack",
	Short: "Run a charging session under a canned attack scenario",
	RunE:  runAttack,
}

func init() {
	attackCmd.Flags().StringVarP(&scenarioName, "scenario", "s", "", "scenario name (see --list)")
	attackCmd.Flags().BoolVarP(&listScenarios, "list", "l", false, "list available scenarios and exit")
	rootCmd.AddCommand(attackCmd)
}

func runAttack(cmd *cobra.Command, args []string) error {
	catalog := anomaly.Catalog()

	if listScenarios {
		names := make([]string, 0, len(catalog))
		for name := range catalog {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			sc := catalog[name]()
			cmd.Printf("%-16s %s\n", name, sc.Description())
		}
		return nil
	}

	build, ok := catalog[scenarioName]
	if !ok {
		return fmt.Errorf("unknown scenario %q, use --list to see available ones", scenarioName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.Orchestrator.AddScenario(build())

	summary, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	return printReport(cmd, summary.Statistics.Report())
}
