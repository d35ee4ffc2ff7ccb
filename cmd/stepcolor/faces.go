package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stepcolor/pkg/analysis"
)

var facesCmd = &cobra.Command{
	Use:   "faces [file]",
	Short: "List the classification of every face without writing a file",
	Long:  "Orient the solid like the color command and print normal, angle to Z, category and color per face.",
	Args:  cobra.ExactArgs(1),
	Run:   runFaces,
}

func init() {
	rootCmd.AddCommand(facesCmd)
	addProcessFlags(facesCmd)
}

func runFaces(cmd *cobra.Command, args []string) {
	filename := args[0]
	criterion, tolerance, log, controller := processSettings(cmd)
	defer log.Sync()
	defer controller.Close()

	if _, err := controller.LoadFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	summary, err := controller.Preview(context.Background(), criterion, tolerance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printSummary(summary)
	fmt.Println()

	fmt.Printf("%-8s %-12s %-40s %10s  %-7s %s\n", "Face", "Surface", "Normal", "Angle Z", "Class", "Color")
	for _, c := range summary.Result.Faces {
		fmt.Printf("%-8s %-12s %-40s %9.3f°  %-7s %s\n",
			fmt.Sprintf("#%d", c.Face.ID()),
			c.Face.Kind(),
			analysis.FormatVector(c.Normal),
			c.AngleToZ,
			c.Category,
			c.Category.Color(),
		)
	}
	for _, f := range summary.Result.Failures {
		fmt.Printf("%-8s %-12s %v\n", fmt.Sprintf("#%d", f.Face.ID()), f.Face.Kind(), f.Err)
	}
}
