package main

import (
	"fmt"
	"os"

	"github.com/aretw0/canopy"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a questionnaire document for consistency",
	Long:  `Parses the document and reports structural errors: unknown question types, duplicate ids, invalid validation rules, or broken conditions.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Questionnaire is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("questionnaire")
	if len(args) > 0 {
		path = args[0]
	}

	engine, err := canopy.LoadFile(path)
	if err != nil {
		return err
	}

	qn := engine.Questionnaire()
	fmt.Printf("%s: %d questions\n", qn.ID, len(qn.Questions))
	return nil
}
