/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for Akaylee Mimic. Lists the built-in targets, records
their traces, shows structure proposals and runs program synthesis searches.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/akaylee-mimic/cmd/mimic/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string
	logFormat  string
	logDir     string

	// Search configuration
	iterations        int
	cleanupIterations int
	beta              float64
	seed              int64
	goldBudget        int
	parallelism       int
	maxInputs         int
	inputRounds       int

	// Output configuration
	reportDir     string
	reportPattern string
	dashboard     bool

	// Monitoring configuration
	progressInterval time.Duration

	// Record configuration
	inputLiterals []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mimic",
		Short: "Akaylee Mimic - black-box program synthesis",
		Long: `Akaylee Mimic observes a black-box function through the heap operations it performs
and searches for a small program that reproduces the same observable behavior.`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory, empty for console only")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "targets",
		Short: "List the built-in targets",
		Args:  cobra.NoArgs,
		RunE:  commands.ListTargets,
	})

	recordCmd := &cobra.Command{
		Use:   "record <target>",
		Short: "Record and print the traces of a target",
		Long: `Run a target on its default inputs, or on the given input literals, and print the
recorded event trace and outcome of each run.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RecordTarget,
	}
	recordCmd.Flags().StringArrayVar(&inputLiterals, "input", nil, "Input literal, a YAML sequence of arguments (repeatable)")
	recordCmd.Flags().IntVar(&goldBudget, "budget", 1000, "Event budget per recording")
	viper.BindPFlag("record.budget", recordCmd.Flags().Lookup("budget"))
	rootCmd.AddCommand(recordCmd)

	inferCmd := &cobra.Command{
		Use:   "infer <target>",
		Short: "Print ranked loop structure proposals for a target",
		Long: `Generate inputs for a target, record them and print the loop structure proposals
inferred from the traces, best first.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.InferStructure,
	}
	rootCmd.AddCommand(inferCmd)

	searchCmd := &cobra.Command{
		Use:   "search <target>",
		Short: "Synthesize a program that mimics a target",
		Long: `Record the target, generate and categorize inputs, and anneal over programs until one
reproduces the target's traces. The result is printed and optionally saved as a report.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunSearch,
	}
	searchCmd.Flags().IntVar(&iterations, "iterations", 5000, "Main annealing iterations")
	searchCmd.Flags().IntVar(&cleanupIterations, "cleanup-iterations", 700, "Cleanup iterations, 0 disables cleanup")
	searchCmd.Flags().Float64Var(&beta, "beta", 6, "Steepness of the acceptance probability")
	searchCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 picks one from the clock")
	searchCmd.Flags().IntVar(&goldBudget, "gold-budget", 1000, "Event budget when recording the target")
	searchCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Concurrent recordings and category searches, 0 for unbounded")
	searchCmd.Flags().IntVar(&maxInputs, "max-inputs", 200, "Cap on generated inputs")
	searchCmd.Flags().IntVar(&inputRounds, "input-rounds", 2, "Prestate discovery rounds")
	searchCmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory to save YAML and JSON reports in")
	searchCmd.Flags().StringVar(&reportPattern, "report-pattern", "%Y-%m-%d_%H-%M-%S", "strftime pattern for report file names")
	searchCmd.Flags().BoolVar(&dashboard, "dashboard", false, "Also write an HTML dashboard into the report directory")
	searchCmd.Flags().DurationVar(&progressInterval, "progress-interval", 5*time.Second, "Interval between progress log lines, 0 disables them")

	viper.BindPFlag("search.iterations", searchCmd.Flags().Lookup("iterations"))
	viper.BindPFlag("search.cleanup_iterations", searchCmd.Flags().Lookup("cleanup-iterations"))
	viper.BindPFlag("search.beta", searchCmd.Flags().Lookup("beta"))
	viper.BindPFlag("search.seed", searchCmd.Flags().Lookup("seed"))
	viper.BindPFlag("search.gold_budget", searchCmd.Flags().Lookup("gold-budget"))
	viper.BindPFlag("search.parallelism", searchCmd.Flags().Lookup("parallelism"))
	viper.BindPFlag("search.max_inputs", searchCmd.Flags().Lookup("max-inputs"))
	viper.BindPFlag("search.input_rounds", searchCmd.Flags().Lookup("input-rounds"))
	viper.BindPFlag("report.dir", searchCmd.Flags().Lookup("report-dir"))
	viper.BindPFlag("report.pattern", searchCmd.Flags().Lookup("report-pattern"))
	viper.BindPFlag("report.dashboard", searchCmd.Flags().Lookup("dashboard"))
	viper.BindPFlag("monitor.interval", searchCmd.Flags().Lookup("progress-interval"))
	rootCmd.AddCommand(searchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
