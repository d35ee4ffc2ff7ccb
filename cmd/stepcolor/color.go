package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/stepcolor/internal/session"
	"github.com/philipparndt/stepcolor/pkg/classify"
	"github.com/philipparndt/stepcolor/pkg/orient"
	"github.com/philipparndt/stepcolor/pkg/watcher"
)

var (
	colorCriterion string
	colorTolerance float64
	colorSuffix    string
	colorWorkers   int
	colorWatch     bool
)

var colorCmd = &cobra.Command{
	Use:   "color [file]",
	Short: "Orient a STEP solid, color its faces and save the result",
	Long: `Load a STEP file, rotate it with the selected orientation criterion, classify
every face by its normal and write <name>_colored.<ext> next to the input.
With --watch the file is processed again whenever it changes.`,
	Args: cobra.ExactArgs(1),
	Run:  runColor,
}

func init() {
	rootCmd.AddCommand(colorCmd)
	addProcessFlags(colorCmd)

	colorCmd.Flags().StringVar(&colorSuffix, "suffix", "", "Suffix inserted before the output file extension (default \"_colored\")")
	colorCmd.Flags().IntVar(&colorWorkers, "workers", 0, "Number of faces classified in parallel (default 1)")
	colorCmd.Flags().BoolVarP(&colorWatch, "watch", "w", false, "Process the file again whenever it changes")
}

// addProcessFlags registers the orientation and tolerance flags
func addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&colorCriterion, "criterion", "c", "", "Orientation criterion: largest_face_down or z_axis_up (default largest_face_down)")
	cmd.Flags().Float64VarP(&colorTolerance, "tolerance", "t", 0, "Angle tolerance in degrees, 1-45 (default 15)")
}

// processSettings resolves criterion and tolerance from config and flags
func processSettings(cmd *cobra.Command) (orient.Criterion, float64, *zap.Logger, *session.Controller) {
	cfg := loadConfig(cmd)
	if cmd.Flags().Changed("criterion") {
		cfg.Orientation = colorCriterion
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Tolerance = colorTolerance
	}
	if f := cmd.Flags().Lookup("suffix"); f != nil && f.Changed {
		cfg.Suffix = colorSuffix
	}
	if f := cmd.Flags().Lookup("workers"); f != nil && f.Changed {
		cfg.Workers = colorWorkers
	}
	validate(cfg)

	criterion, _ := cfg.Criterion()
	log := newLogger(cfg)
	return criterion, cfg.Tolerance, log, newController(cfg, log)
}

func runColor(cmd *cobra.Command, args []string) {
	filename := args[0]
	criterion, tolerance, log, controller := processSettings(cmd)
	defer log.Sync()
	defer controller.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := colorFile(ctx, controller, filename, criterion, tolerance); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if !colorWatch {
			os.Exit(1)
		}
	}
	if !colorWatch {
		return
	}

	fw, err := watcher.NewFileWatcher(500*time.Millisecond, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer fw.Close()

	err = fw.Watch([]string{filename}, func(string) {
		if err := colorFile(ctx, controller, filename, criterion, tolerance); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fw.Start(ctx)

	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n", filename)
	<-ctx.Done()
}

// colorFile runs the full pipeline once and prints a summary
func colorFile(ctx context.Context, c *session.Controller, filename string, criterion orient.Criterion, tolerance float64) error {
	info, err := c.LoadFile(filename)
	if err != nil {
		return err
	}
	summary, err := c.Process(ctx, criterion, tolerance)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded: %s (%d faces)\n", info.Name, info.Faces)
	printSummary(summary)
	fmt.Printf("Saved: %s\n", summary.Output)
	return nil
}

func printSummary(s *session.Summary) {
	fmt.Printf("Orientation: %s", s.Criterion.Label())
	if s.Rotation.IsIdentity() {
		fmt.Println(" (unchanged)")
	} else {
		fmt.Printf(" (%.2f° about %s)\n", s.Rotation.AngleDegrees(), s.Rotation.Axis())
	}
	fmt.Printf("Tolerance: %.2f°\n", s.Tolerance)

	counts := s.Counts()
	fmt.Println("Faces:")
	for _, c := range classify.Categories() {
		fmt.Printf("  %-7s %4d  %s\n", c.String()+":", counts[c], c.Color())
	}
	if n := len(s.Result.Failures); n > 0 {
		fmt.Printf("  %-7s %4d\n", "failed:", n)
	}
}
