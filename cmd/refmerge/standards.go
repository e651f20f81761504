package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "Validate and list the tag-standards table",
	Long: `Standards loads the tag-standards CSV, validates it (first tag and
terminator present, codes unique, orders distinct), and prints the tags in
emission order with their multiplicity.`,
	RunE: runStandards,
}

func runStandards(cmd *cobra.Command, args []string) error {
	std, err := loadStandards(cmd)
	if err != nil {
		return err
	}

	if check, _ := cmd.Flags().GetBool("check"); check {
		fmt.Printf("%s: %d tags, schema OK\n", standardsConfig(cmd).Path, len(std.Definitions()))
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-6s  %-30s  %s\n", "Order", "Code", "Label", "Multiplicity")
	for _, def := range std.Definitions() {
		multiplicity := "single"
		switch {
		case def.Code == std.FirstTag():
			multiplicity = "single (first)"
		case def.Code == std.Terminator():
			multiplicity = "empty (terminator)"
		case def.MultiValued:
			multiplicity = "multi"
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-6s  %-30s  %s\n", def.Order, def.Code, def.Label, multiplicity)
	}
	return nil
}

func init() {
	standardsCmd.Flags().Bool("check", false, "validate the table and print only a summary")

	rootCmd.AddCommand(standardsCmd)
}
