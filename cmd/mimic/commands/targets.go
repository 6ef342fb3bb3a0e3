/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: targets.go
Description: Target listing and trace recording commands for Akaylee Mimic.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/kleascm/akaylee-mimic/pkg/recorder"
	"github.com/kleascm/akaylee-mimic/pkg/reporting"
	"github.com/kleascm/akaylee-mimic/pkg/targets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ListTargets prints the built-in targets as a table
func ListTargets(cmd *cobra.Command, args []string) error {
	fmt.Println("🎯 Akaylee Mimic - Built-in Targets")
	fmt.Println("===================================")
	fmt.Println()

	all := targets.All()
	rows := make([][]string, len(all))
	for i, t := range all {
		rows[i] = []string{t.Name, t.Source, t.Description}
	}
	if err := reporting.Table(os.Stdout, []string{"NAME", "SOURCE", "DESCRIPTION"}, rows); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("✨ Use 'mimic search <name>' to synthesize a program for a target")
	return nil
}

// RecordTarget records a target on its inputs and prints the traces
func RecordTarget(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	t, err := targets.Lookup(args[0])
	if err != nil {
		return err
	}
	// Literals contain commas, so they bypass viper's CSV handling of slice flags
	literals, err := cmd.Flags().GetStringArray("input")
	if err != nil {
		return err
	}
	inputs, err := loadInputs(t, literals)
	if err != nil {
		return err
	}
	budget := viper.GetInt("record.budget")

	fmt.Printf("📼 Recording %s (%s)\n", t.Name, t.Source)
	fmt.Println()
	for i, in := range inputs {
		trace, err := recorder.Record(t.Func, in.Clone(), budget)
		if err != nil {
			return fmt.Errorf("failed to record input %d: %w", i, err)
		}
		fmt.Printf("Input %d: %s\n", i, in)
		fmt.Println(trace)
		if trace.Exhausted() {
			fmt.Printf("⚠️  Budget of %d events exhausted\n", budget)
		}
		fmt.Println()
	}
	return nil
}
