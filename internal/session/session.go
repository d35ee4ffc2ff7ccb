// Package session runs the load, orient, classify and save pipeline on
// behalf of a front-end.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philipparndt/stepcolor/pkg/classify"
	"github.com/philipparndt/stepcolor/pkg/geometry"
	"github.com/philipparndt/stepcolor/pkg/kernel"
	"github.com/philipparndt/stepcolor/pkg/orient"
)

// DefaultSuffix is inserted before the extension of output files
const DefaultSuffix = "_colored"

// Extensions are the accepted input file extensions
var Extensions = []string{".stp", ".step"}

// Options configure a Controller
type Options struct {
	// Suffix is inserted before the extension of the output file
	Suffix string
	// Workers bounds classification parallelism; 1 keeps it sequential
	Workers int
}

// FileInfo describes a loaded file
type FileInfo struct {
	Path   string
	Name   string
	Faces  int
	Bounds geometry.BoundingBox
}

// Summary describes one processing run
type Summary struct {
	RunID     string
	Input     string
	Output    string
	Criterion orient.Criterion
	Tolerance float64
	Rotation  geometry.Rotation
	Result    *classify.Result
}

// Counts returns the number of faces per category
func (s *Summary) Counts() map[classify.Category]int {
	return s.Result.Counts()
}

// Controller holds the solid of the current file and the outcome of the
// last run. It is safe for use from multiple goroutines; runs are
// serialized.
type Controller struct {
	kernel kernel.Kernel
	log    *zap.Logger
	opts   Options
	newID  func() string

	mu      sync.Mutex
	path    string
	loaded  kernel.Shape
	current kernel.Shape
	result  *classify.Result
}

// New creates a controller using k for all file and geometry operations
func New(k kernel.Kernel, log *zap.Logger, opts Options) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Controller{kernel: k, log: log, opts: opts, newID: uuid.NewString}
}

// OutputPath inserts suffix between the stem and the extension of input
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// SupportedExtension reports whether path has a .stp or .step extension
func SupportedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile reads path and makes it the current file. On failure no file
// is loaded afterwards.
func (c *Controller) LoadFile(path string) (FileInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	log := c.log.With(zap.String("path", path))

	if !SupportedExtension(path) {
		return FileInfo{}, &LoadError{Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(path))}
	}

	s, err := c.kernel.Read(path)
	if err != nil {
		log.Error("load failed", zap.Error(err))
		return FileInfo{}, &LoadError{Path: path, Err: err}
	}

	c.path = path
	c.loaded = kernel.NewShape(s)

	info := FileInfo{
		Path:   path,
		Name:   filepath.Base(path),
		Faces:  len(c.loaded.Faces),
		Bounds: s.BoundingBox(),
	}
	log.Info("loaded", zap.String("stage", string(StageLoad)), zap.Int("faces", info.Faces))
	return info, nil
}

// Loaded reports whether a file is loaded
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded.Solid != nil
}

// Path returns the current file, or "" when none is loaded
func (c *Controller) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Result returns the classification of the last successful run
func (c *Controller) Result() *classify.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Shape returns the faces and solid of the last run, or of the loaded file
// before any run
func (c *Controller) Shape() kernel.Shape {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.Solid != nil {
		return c.current
	}
	return c.loaded
}

// Preview orients and classifies the loaded file without writing output.
// Every run starts from the solid as loaded, so repeated runs give the same
// result.
func (c *Controller) Preview(ctx context.Context, criterion orient.Criterion, toleranceDegrees float64) (*Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary, _, err := c.run(ctx, criterion, toleranceDegrees)
	return summary, err
}

// Process orients and classifies the loaded file and writes the coloured
// result next to it. It returns a summary carrying the output path.
func (c *Controller) Process(ctx context.Context, criterion orient.Criterion, toleranceDegrees float64) (*Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary, log, err := c.run(ctx, criterion, toleranceDegrees)
	if err != nil {
		return nil, err
	}

	output := OutputPath(c.path, c.opts.Suffix)
	log = log.With(zap.String("output", output))
	if err := c.kernel.Write(output, c.current.Solid, summary.Result.Colors()); err != nil {
		log.Error("save failed", zap.Error(err))
		return nil, &SaveError{Path: output, Err: err}
	}
	summary.Output = output
	log.Info("saved", zap.String("stage", string(StageSave)))
	return summary, nil
}

// run executes the stages up to classification and stores the new solid
// and result. The caller holds c.mu.
func (c *Controller) run(ctx context.Context, criterion orient.Criterion, toleranceDegrees float64) (*Summary, *zap.Logger, error) {
	if c.loaded.Solid == nil {
		return nil, nil, ErrNoFile
	}

	summary := &Summary{
		RunID:     c.newID(),
		Input:     c.path,
		Criterion: criterion,
		Tolerance: toleranceDegrees,
	}
	log := c.log.With(
		zap.String("run_id", summary.RunID),
		zap.String("path", c.path),
	)

	if toleranceDegrees <= 0 || toleranceDegrees >= 90 {
		return nil, log, &ProcessError{Stage: StageClassify, Err: fmt.Errorf("tolerance %g out of range (0, 90)", toleranceDegrees)}
	}

	rotation, err := orient.Select(c.loaded.Faces, criterion)
	if err != nil {
		log.Error("orientation failed", zap.Error(err))
		return nil, log, &ProcessError{Stage: StageOrient, Err: err}
	}
	summary.Rotation = rotation
	log.Info("oriented",
		zap.String("stage", string(StageOrient)),
		zap.Stringer("criterion", criterion),
		zap.Stringer("axis", rotation.Axis()),
		zap.Float64("angle", rotation.AngleDegrees()),
	)

	shape, err := c.loaded.Transform(c.kernel, rotation)
	if err != nil {
		log.Error("transform failed", zap.Error(err))
		return nil, log, &ProcessError{Stage: StageTransform, Err: err}
	}

	result, err := classify.ClassifyParallel(ctx, shape.Faces, toleranceDegrees, c.opts.Workers)
	if err != nil {
		shape.Solid.Close()
		return nil, log, &ProcessError{Stage: StageClassify, Err: err}
	}
	for _, f := range result.Failures {
		log.Warn("face not classified", zap.Int("face", f.Face.ID()), zap.Error(f.Err))
	}

	c.replaceCurrent(shape)
	c.result = result
	summary.Result = result

	log.Info("classified",
		zap.String("stage", string(StageClassify)),
		zap.Int("faces", len(shape.Faces)),
		zap.Int("failures", len(result.Failures)),
		zap.Float64("tolerance", toleranceDegrees),
	)
	return summary, log, nil
}

func (c *Controller) replaceCurrent(shape kernel.Shape) {
	if c.current.Solid != nil {
		c.current.Solid.Close()
	}
	c.current = shape
}

// reset releases all solids. The caller holds c.mu.
func (c *Controller) reset() {
	c.replaceCurrent(kernel.Shape{})
	if c.loaded.Solid != nil {
		c.loaded.Solid.Close()
	}
	c.loaded = kernel.Shape{}
	c.path = ""
	c.result = nil
}

// Close releases the loaded file
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	return nil
}
