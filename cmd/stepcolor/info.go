package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/stepcolor/pkg/analysis"
	"github.com/philipparndt/stepcolor/pkg/kernel/brep"
)

var infoCount int

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about a STEP solid",
	Long:  "Show face count, surface kinds, surface area, bounding box and the largest faces.",
	Args:  cobra.ExactArgs(1),
	Run:   runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().IntVarP(&infoCount, "count", "n", 3, "Number of largest faces to display")
}

func runInfo(cmd *cobra.Command, args []string) {
	filename := args[0]

	solid, err := brep.New().Read(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading STEP file: %v\n", err)
		os.Exit(1)
	}
	defer solid.Close()

	result := analysis.AnalyzeSolid(solid)

	fmt.Println("STEP File Information")
	fmt.Println("=====================")
	fmt.Printf("File: %s\n\n", filename)

	fmt.Println("Solid Statistics:")
	fmt.Printf("  Faces: %d\n", result.FaceCount)
	for _, kind := range result.Kinds() {
		fmt.Printf("    %s: %d\n", kind, result.KindCounts[kind])
	}
	if result.UnsupportedCount > 0 {
		fmt.Printf("  Faces without area: %d\n", result.UnsupportedCount)
	}
	fmt.Printf("  Surface Area: %.6f square units\n\n", result.SurfaceArea)

	if !result.BoundingBox.IsEmpty() {
		fmt.Println("Bounding Box:")
		fmt.Printf("  Min: %s\n", analysis.FormatVector(result.BoundingBox.Min))
		fmt.Printf("  Max: %s\n", analysis.FormatVector(result.BoundingBox.Max))
		fmt.Printf("  Center: %s\n\n", analysis.FormatVector(result.BoundingBox.Center()))

		fmt.Println("Dimensions:")
		fmt.Printf("  Width (X): %.6f units\n", result.Dimensions.X)
		fmt.Printf("  Depth (Y): %.6f units\n", result.Dimensions.Y)
		fmt.Printf("  Height (Z): %.6f units\n\n", result.Dimensions.Z)
	}

	largest := analysis.FindLargestFaces(result, infoCount)
	if len(largest) > 0 {
		fmt.Printf("Largest Faces:\n")
		for i, f := range largest {
			fmt.Printf("  %d. #%d %s: %s\n", i+1, f.ID, f.Kind, analysis.FormatMeasurement(f.Area, "square units"))
		}
	}
}
