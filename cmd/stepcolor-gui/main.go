package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/philipparndt/stepcolor/internal/config"
	"github.com/philipparndt/stepcolor/internal/logging"
	"github.com/philipparndt/stepcolor/internal/session"
	"github.com/philipparndt/stepcolor/pkg/kernel/brep"
	"github.com/philipparndt/stepcolor/pkg/orient"
	"github.com/philipparndt/stepcolor/version"
)

type App struct {
	window     fyne.Window
	controller *session.Controller
	log        *zap.Logger

	fileLabel      *widget.Label
	statusLabel    *widget.Label
	toleranceLabel *widget.Label
	processButton  *widget.Button
	criterion      *widget.Select
	tolerance      *widget.Slider
}

var configPath string

var rootCmd = &cobra.Command{
	Use:     "stepcolor-gui [file]",
	Short:   "Desktop front-end for coloring STEP faces",
	Args:    cobra.MaximumNArgs(1),
	Version: version.GetFullVersion(),
	Run:     run,
}

func main() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	a := app.New()
	w := a.NewWindow("STEP File Face Coloring")

	appInstance := &App{
		window: w,
		log:    log,
		controller: session.New(brep.New(), log, session.Options{
			Suffix:  cfg.Suffix,
			Workers: cfg.Workers,
		}),
	}
	defer appInstance.controller.Close()

	appInstance.setupUI(cfg)

	// Check if file was provided as argument
	if len(args) > 0 {
		appInstance.loadFile(args[0])
	}

	w.Resize(fyne.NewSize(500, 300))
	w.ShowAndRun()
}

func (a *App) setupUI(cfg *config.Config) {
	a.fileLabel = widget.NewLabel("No file selected")
	a.statusLabel = widget.NewLabel("Ready")

	loadButton := widget.NewButton("Load STEP File", a.showFileDialog)
	a.processButton = widget.NewButton("Process and Save", a.processAndSave)
	a.processButton.Disable()

	labels := make([]string, 0, len(orient.Criteria()))
	for _, c := range orient.Criteria() {
		labels = append(labels, c.Label())
	}
	a.criterion = widget.NewSelect(labels, nil)
	selected, err := cfg.Criterion()
	if err != nil {
		selected = orient.LargestFaceDown
	}
	a.criterion.SetSelected(selected.Label())

	a.toleranceLabel = widget.NewLabel("")
	a.tolerance = widget.NewSlider(config.MinTolerance, config.MaxTolerance)
	a.tolerance.Step = 1
	a.tolerance.OnChanged = func(v float64) {
		a.toleranceLabel.SetText(fmt.Sprintf("%.0f°", v))
	}
	a.tolerance.SetValue(cfg.Tolerance)
	a.toleranceLabel.SetText(fmt.Sprintf("%.0f°", cfg.Tolerance))

	fileGroup := widget.NewCard("File Selection", "", container.NewVBox(
		a.fileLabel,
		container.NewGridWithColumns(2, loadButton, a.processButton),
	))
	orientGroup := widget.NewCard("Orientation Options", "", container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Orientation Criteria:"), nil, a.criterion),
	))
	colorGroup := widget.NewCard("Coloring Options", "", container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Angle Tolerance (degrees):"), a.toleranceLabel, a.tolerance),
	))

	content := container.NewBorder(
		nil,
		a.statusLabel,
		nil,
		nil,
		container.NewVBox(fileGroup, orientGroup, colorGroup),
	)
	a.window.SetContent(content)
}

func (a *App) showFileDialog() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		a.loadFile(reader.URI().Path())
	}, a.window)
	open.SetFilter(storage.NewExtensionFileFilter(session.Extensions))
	open.Show()
}

func (a *App) loadFile(filename string) {
	a.fileLabel.SetText(filepath.Base(filename))

	if _, err := a.controller.LoadFile(filename); err != nil {
		a.processButton.Disable()
		dialog.ShowError(err, a.window)
		a.statusLabel.SetText("Load failed")
		return
	}

	a.statusLabel.SetText(fmt.Sprintf("Loaded: %s", filepath.Base(filename)))
	a.processButton.Enable()
}

func (a *App) processAndSave() {
	if !a.controller.Loaded() {
		return
	}

	criterion, err := orient.ParseCriterion(a.criterion.Selected)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	tolerance := a.tolerance.Value
	a.log.Debug("process requested", zap.Stringer("criterion", criterion), zap.Float64("tolerance", tolerance))

	a.processButton.Disable()
	a.statusLabel.SetText("Processing...")

	go func() {
		summary, err := a.controller.Process(context.Background(), criterion, tolerance)
		fyne.Do(func() {
			a.processButton.Enable()
			if err != nil {
				dialog.ShowError(err, a.window)
				a.statusLabel.SetText("Save failed")
				return
			}

			message := fmt.Sprintf("File saved as: %s", summary.Output)
			if n := len(summary.Result.Failures); n > 0 {
				message += fmt.Sprintf("\n%d faces could not be classified and were left uncolored", n)
			}
			dialog.ShowInformation("Success", message, a.window)
			a.statusLabel.SetText(fmt.Sprintf("Saved: %s", filepath.Base(summary.Output)))
		})
	}()
}
