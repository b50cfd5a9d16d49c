package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy is a conditional questionnaire engine",
	Long:  `Canopy runs YAML-defined questionnaires with conditional visibility, answer validation, and resumable sessions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("questionnaire", "q", "questionnaire.yaml", "Path to the questionnaire document")
}
