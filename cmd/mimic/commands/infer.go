/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: infer.go
Description: Structure inference command for Akaylee Mimic. Generates inputs for a target
and prints the ranked loop proposals found in their traces.
*/

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/kleascm/akaylee-mimic/pkg/inference"
	"github.com/kleascm/akaylee-mimic/pkg/inputgen"
	"github.com/kleascm/akaylee-mimic/pkg/recorder"
	"github.com/kleascm/akaylee-mimic/pkg/reporting"
	"github.com/kleascm/akaylee-mimic/pkg/targets"
	"github.com/kleascm/akaylee-mimic/pkg/value"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// InferStructure prints loop structure proposals for a target
func InferStructure(cmd *cobra.Command, args []string) error {
	fmt.Println("🧬 Akaylee Mimic - Structure Inference")
	fmt.Println("======================================")
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
	initial, err := t.Inputs()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	generated, err := inputgen.GenerateInputs(ctx, t.Func, initial, inputgen.Config{
		Budget:      config.GoldBudget,
		Rounds:      config.InputRounds,
		MaxInputs:   config.MaxInputs,
		Parallelism: config.Parallelism,
	})
	if err != nil {
		return fmt.Errorf("failed to generate inputs: %w", err)
	}
	all := append(append([]*value.Input(nil), initial...), generated...)
	traces, err := recorder.RecordAll(ctx, t.Func, all, config.GoldBudget, config.Parallelism)
	if err != nil {
		return fmt.Errorf("failed to record inputs: %w", err)
	}

	engine := inference.NewEngine(config.Inference)
	if engine == nil {
		return fmt.Errorf("unknown inference engine %q", config.Inference)
	}
	proposals := engine.Infer(traces)
	logger.GetLogger().WithFields(logrus.Fields{
		"target":    t.Name,
		"inputs":    len(all),
		"proposals": len(proposals),
	}).Info("Structure inference complete")

	if len(proposals) == 0 {
		fmt.Println("📭 No loop structure found.")
		return nil
	}
	rows := make([][]string, len(proposals))
	for i, p := range proposals {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			p.Pattern,
			fmt.Sprintf("%d/%d", len(p.WorksFor), len(traces)),
			fmt.Sprintf("%d", p.NumStmts()),
			fmt.Sprintf("%t", p.HasConditional()),
		}
	}
	return reporting.Table(os.Stdout, []string{"#", "PATTERN", "MATCHES", "STATEMENTS", "CONDITIONAL"}, rows)
}
