/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: search.go
Description: Search command implementation for Akaylee Mimic. Runs the synthesis engine
on a built-in target, prints the resulting program and saves reports.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/akaylee-mimic/pkg/core"
	"github.com/kleascm/akaylee-mimic/pkg/monitoring"
	"github.com/kleascm/akaylee-mimic/pkg/reporting"
	"github.com/kleascm/akaylee-mimic/pkg/targets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunSearch synthesizes a program for the named target
func RunSearch(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Akaylee Mimic - Starting Search")
	fmt.Println("==================================")
	fmt.Println()

	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	config, err := createSearchConfig()
	if err != nil {
		return err
	}
	t, err := targets.Lookup(args[0])
	if err != nil {
		return err
	}
	inputs, err := t.Inputs()
	if err != nil {
		return err
	}

	engine, err := core.NewEngine(config)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	engine.SetLogger(logger.GetLogger())
	engine.AddReporter(core.NewLoggerReporter(logger.GetLogger()))

	// Interrupts stop the annealing phases early; the best program so far is still reported
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if interval := viper.GetDuration("monitor.interval"); interval > 0 {
		monitor := monitoring.NewSearchMonitor(engine.GetStats, interval, logger.GetLogger())
		if err := monitor.Start(ctx); err != nil {
			return err
		}
		defer monitor.Stop()
	}

	logger.LogSearchStart(t.Name, len(inputs), nil)
	result, err := engine.Search(ctx, t.Func, inputs)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	logger.LogSearchResult(t.Name, result.Score, result.Executions, result.ExecutionsPerSecond())

	report := reporting.NewReport(t.Name, t.Description, result, config)
	fmt.Println()
	if err := report.WriteTable(os.Stdout); err != nil {
		return err
	}

	if dir := viper.GetString("report.dir"); dir != "" {
		pattern := viper.GetString("report.pattern")
		paths, err := report.Save(dir, pattern)
		if err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		if viper.GetBool("report.dashboard") {
			path, err := reporting.NewDashboardGenerator(dir, logger.GetLogger()).GenerateDashboard(report, pattern)
			if err != nil {
				return fmt.Errorf("failed to generate dashboard: %w", err)
			}
			paths = append(paths, path)
		}
		for _, p := range paths {
			fmt.Printf("💾 Saved %s\n", p)
		}
	}

	if result.Score == 0 {
		fmt.Println("\n✨ Found an exact match!")
	} else {
		fmt.Printf("\n🔶 Best program scores %.4f\n", result.Score)
	}
	return nil
}
