package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oraclesim/app"
	"oraclesim/domain/oracle"
	"oraclesim/domain/run"
	"oraclesim/internal/config"
	"oraclesim/internal/errors"
)

// scenarioFlags are shared by every command that describes a run
type scenarioFlags struct {
	scenario       string
	runs           int
	seed           int64
	workers        int
	jurors         int
	payoffType     string
	attack         bool
	bribedFraction float64
	briberyPolicy  string
	peerEstimator  string
	p              float64
	epsilon        float64
}

func (f *scenarioFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.scenario, "scenario", "", "YAML scenario file")
	cmd.Flags().IntVar(&f.runs, "runs", config.DefaultRuns, "Number of independent simulations")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent simulations (default SIM_WORKERS)")
	cmd.Flags().IntVar(&f.jurors, "jurors", 0, "Panel size")
	cmd.Flags().StringVar(&f.payoffType, "payoff", "", "Payoff mechanism: basic|redistributive|symbiotic")
	cmd.Flags().BoolVar(&f.attack, "attack", false, "Enable the p+epsilon attack")
	cmd.Flags().Float64Var(&f.bribedFraction, "bribed-fraction", 0, "Share of jurors bribed under fraction_sampled")
	cmd.Flags().StringVar(&f.briberyPolicy, "bribery-policy", "", "Bribery policy: fraction_sampled|full_panel")
	cmd.Flags().StringVar(&f.peerEstimator, "peer-estimator", "", "Peer estimator: auto|belief|noise")
	cmd.Flags().Float64Var(&f.p, "p", 0, "Belief probability and basic reward multiplier")
	cmd.Flags().Float64Var(&f.epsilon, "epsilon", 0, "Attack premium over the deposit")
}

// resolve loads the scenario file, if any, and applies explicitly set flags on top
func (f *scenarioFlags) resolve(cmd *cobra.Command, defaultSeed int64) (*config.Scenario, int64, error) {
	scenario := &config.Scenario{Runs: config.DefaultRuns, Oracle: oracle.DefaultConfig()}
	if f.scenario != "" {
		loaded, err := config.LoadScenario(f.scenario)
		if err != nil {
			return nil, 0, errors.WithCode(errors.CodeInvalidInput, err)
		}
		scenario = loaded
	}

	changed := cmd.Flags().Changed
	if changed("runs") {
		scenario.Runs = f.runs
	}
	if changed("jurors") {
		scenario.Oracle.NumJurors = f.jurors
	}
	if changed("payoff") {
		scenario.Oracle.PayoffType = oracle.PayoffType(f.payoffType)
	}
	if changed("attack") {
		scenario.Oracle.Attack = f.attack
	}
	if changed("bribed-fraction") {
		scenario.Oracle.BribedFraction = f.bribedFraction
	}
	if changed("bribery-policy") {
		scenario.Oracle.BriberyPolicy = oracle.BriberyPolicy(f.briberyPolicy)
	}
	if changed("peer-estimator") {
		scenario.Oracle.PeerEstimator = oracle.PeerEstimator(f.peerEstimator)
	}
	if changed("p") {
		scenario.Oracle.P = f.p
	}
	if changed("epsilon") {
		scenario.Oracle.Epsilon = f.epsilon
	}
	scenario.Oracle = scenario.Oracle.Normalize()

	seed := scenario.SeedOr(defaultSeed)
	if changed("seed") {
		seed = f.seed
	}

	if err := scenario.Validate(); err != nil {
		return nil, 0, errors.FromSimulation(err, "invalid scenario")
	}
	return scenario, seed, nil
}

// appealFlags extend scenarioFlags for appeal runs
type appealFlags struct {
	appealProb float64
	maxAppeals int
	allLevels  bool
}

func (f *appealFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.appealProb, "appeal-prob", 0.5, "Probability that a round is appealed")
	cmd.Flags().IntVar(&f.maxAppeals, "max-appeals", 3, "Maximum number of appeals per dispute")
	cmd.Flags().BoolVar(&f.allLevels, "all-levels", false, "Record every level reached, not only the final one")
}

func (f *appealFlags) apply(cmd *cobra.Command, scenario *config.Scenario) (oracle.AppealConfig, error) {
	appeal := oracle.AppealConfig{AppealProb: f.appealProb, MaxAppeals: f.maxAppeals}
	if scenario.Appeals != nil {
		appeal = *scenario.Appeals
	}
	if cmd.Flags().Changed("appeal-prob") {
		appeal.AppealProb = f.appealProb
	}
	if cmd.Flags().Changed("max-appeals") {
		appeal.MaxAppeals = f.maxAppeals
	}
	if cmd.Flags().Changed("all-levels") {
		scenario.RecordAllLevels = f.allLevels
	}
	if err := appeal.ValidateFor(scenario.Oracle.NumJurors); err != nil {
		return appeal, errors.FromSimulation(err, "invalid appeal settings")
	}
	return appeal, nil
}

func newRunCmd(d *deps) *cobra.Command {
	var flags scenarioFlags
	var showMatrix bool
	var exportPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run independent dispute rounds and summarize the outcomes",
		Long: `Run N independent dispute rounds on a fresh panel each time.

Example: oraclesim-cli run --jurors 21 --payoff symbiotic --attack --bribed-fraction 0.3 --runs 5000 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, seed, err := flags.resolve(cmd, d.appConfig.Simulation.Seed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showMatrix {
				if err := printPayoffMatrix(out, scenario.Oracle); err != nil {
					return err
				}
			}

			result, err := d.service(flags.workers).RunSimulations(cmd.Context(), app.SimulationRequest{
				Config: scenario.Oracle,
				Runs:   scenario.Runs,
				Seed:   seed,
			})
			if err != nil {
				return errors.FromSimulation(err, "simulation failed")
			}

			if asJSON {
				if err := printJSON(out, result); err != nil {
					return err
				}
			} else {
				printRoundSummary(out, scenario.Name, result)
			}

			if exportPath != "" {
				if err := d.exporter.ExportRounds(cmd.Context(), result, exportPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d rounds to %s\n", result.TotalRuns, exportPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showMatrix, "show-matrix", false, "Print the payoff matrix before running")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write results to an .xlsx or .csv file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func newAppealsCmd(d *deps) *cobra.Command {
	var flags scenarioFlags
	var appeals appealFlags
	var exportPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "appeals",
		Short: "Run appeal chains with doubling panels and summarize each level",
		Long: `Run N independent appeal chains. Each appeal seats a panel of 2N+1 jurors.
Under attack every level is replayed without the attacker to measure its effect.

Example: oraclesim-cli appeals --jurors 5 --attack --appeal-prob 0.6 --max-appeals 4 --all-levels --export appeals.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, seed, err := flags.resolve(cmd, d.appConfig.Simulation.Seed)
			if err != nil {
				return err
			}
			appeal, err := appeals.apply(cmd, scenario)
			if err != nil {
				return err
			}

			result, err := d.service(flags.workers).RunSimulationsWithAppeals(cmd.Context(), app.AppealRequest{
				Config:          scenario.Oracle,
				Appeal:          appeal,
				Runs:            scenario.Runs,
				Seed:            seed,
				RecordAllLevels: scenario.RecordAllLevels,
			})
			if err != nil {
				return errors.FromSimulation(err, "appeal simulation failed")
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, result); err != nil {
					return err
				}
			} else {
				printAppealSummary(out, scenario.Name, result)
			}

			if exportPath != "" {
				if err := d.exporter.ExportAppeals(cmd.Context(), result, exportPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d records to %s\n", len(result.Records), exportPath)
			}
			return nil
		},
	}

	flags.register(cmd)
	appeals.register(cmd)
	cmd.Flags().StringVar(&exportPath, "export", "", "Write results to an .xlsx or .csv file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	return cmd
}

func newFingerprintCmd(d *deps) *cobra.Command {
	var flags scenarioFlags
	var appeals appealFlags
	var withAppeals bool

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the replay fingerprint of a run without executing it",
		Long: `Two runs with the same fingerprint produce identical results.

Example: oraclesim-cli fingerprint --scenario scenarios/attack.yaml --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, seed, err := flags.resolve(cmd, d.appConfig.Simulation.Seed)
			if err != nil {
				return err
			}

			var appeal *run.AppealPlan
			if withAppeals || scenario.Appeals != nil {
				a, err := appeals.apply(cmd, scenario)
				if err != nil {
					return err
				}
				appeal = &run.AppealPlan{AppealConfig: a, RecordAllLevels: scenario.RecordAllLevels}
			}

			fp := run.NewRunFingerprint(scenario.Oracle, appeal, scenario.Runs, seed, d.appConfig.Simulation.CodeVersion)
			return printJSON(cmd.OutOrStdout(), fp)
		},
	}

	flags.register(cmd)
	appeals.register(cmd)
	cmd.Flags().BoolVar(&withAppeals, "appeals", false, "Fingerprint an appeal run")
	return cmd
}

func newVerifyCmd(d *deps) *cobra.Command {
	var flags scenarioFlags

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a run gives identical rounds in parallel and sequentially",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, seed, err := flags.resolve(cmd, d.appConfig.Simulation.Seed)
			if err != nil {
				return err
			}

			svc := d.service(flags.workers)
			fp, err := svc.VerifyDeterminism(cmd.Context(), app.SimulationRequest{
				Config: scenario.Oracle,
				Runs:   scenario.Runs,
				Seed:   seed,
			})
			if err != nil {
				return errors.FromSimulation(err, "determinism check failed")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deterministic across %d workers: %d rounds, fingerprint %s\n",
				svc.Workers(), scenario.Runs, fp.Fingerprint)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
