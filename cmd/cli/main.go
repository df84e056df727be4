package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"oraclesim/adapters/excel"
	"oraclesim/adapters/rng"
	"oraclesim/app"
	"oraclesim/internal"
	"oraclesim/internal/config"
	"oraclesim/ports"
)

// deps carries the collaborators commands need; tests swap the exporter
type deps struct {
	appConfig *config.Config
	logger    *internal.Logger
	exporter  ports.ResultExporter
}

func (d *deps) service(workers int) *app.MonteCarloService {
	svc := app.NewMonteCarloService(rng.NewStreamAdapter(), d.logger, d.appConfig.Simulation.CodeVersion)
	svc.SetMaxRuns(d.appConfig.Simulation.MaxRuns)
	if workers > 0 {
		svc.SetWorkers(workers)
	} else {
		svc.SetWorkers(d.appConfig.Simulation.Workers)
	}
	return svc
}

func main() {
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := internal.NewDefaultLogger()
	defer logger.Sync()

	rootCmd := newRootCmd(&deps{
		appConfig: appConfig,
		logger:    logger,
		exporter:  excel.NewExporter(logger),
	})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(d *deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "oraclesim-cli",
		Short:         "Monte Carlo simulator for Schelling-point dispute oracles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(d),
		newAppealsCmd(d),
		newFingerprintCmd(d),
		newVerifyCmd(d),
	)
	return rootCmd
}
