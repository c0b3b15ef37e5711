// chunkplan computes a chunk layout for a simulation scenario ahead of a
// parallel run: it loads a YAML scenario, runs fragment statistics,
// recursive bisection and owner assignment, and writes the resulting layout
// as YAML for the engine to consume.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fdtdgo/decomp/partitions"
)

var (
	logger *zap.SugaredLogger

	scenarioPath string
	outputPath   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "chunkplan",
	Short: "Domain decomposition and load balancing for simulation runs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg = zap.NewDevelopmentConfig()
		}
		l, err := cfg.Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger setup: %v\n", err)
			os.Exit(1)
		}
		logger = l.Sugar()
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a chunk layout from a scenario file",
	RunE:  runPlan,
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Divide the scenario's workers into independent process groups",
	RunE:  runGroups,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&scenarioPath, "scenario", "s", "scenario.yaml",
		"scenario file describing domain, cost contributors and counts")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "-",
		"output file, - for stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"development logging")
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(groupsCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	s, err := loadScenario(scenarioPath)
	if err != nil {
		return err
	}
	req, err := s.request()
	if err != nil {
		return err
	}
	logger.Infow("scenario loaded",
		"domain", req.Spec.Bounds.String(),
		"chunks", req.NumChunks,
		"workers", req.NumWorkers,
	)

	layout, err := partitions.Plan(req)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	stats := layout.Statistics()
	logger.Infow("layout computed",
		"chunks", stats.NumChunks,
		"meanChunkCost", stats.MeanChunkCost,
		"imbalance", stats.Imbalance,
		"maxWorkerLoad", stats.MaxWorkerLoad,
	)

	return writeOutput(outputPath, layoutDoc(layout))
}

func runGroups(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	s, err := loadScenario(scenarioPath)
	if err != nil {
		return err
	}
	if s.Groups < 1 {
		return fmt.Errorf("scenario sets no group count")
	}
	pg, err := partitions.DivideProcesses(s.Workers, s.Groups)
	if err != nil {
		return err
	}
	logger.Infow("workers divided", "workers", pg.NumWorkers, "groups", pg.NumGroups)

	return writeOutput(outputPath, groupsDoc(pg))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
