// Package coupling implements the bidirectional FEM<->PINN data
// exchange interface: domain descriptors for the two discretizations,
// sparse mapping operators between them, field projection, discrepancy
// metrics, refinement suggestions and the optional real-time exchange
// worker.
package coupling

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/deepexcav/femadapt/field"
)

// Config tunes a coupling interface. The zero value is usable;
// defaults are applied by New.
type Config struct {
	// QueueSize bounds the exchange task queue. AddExchangeTask fails
	// when the queue is full rather than growing without limit.
	QueueSize int `mapstructure:"queue_size"`

	// HistoryLimit caps the exchange records kept in a status
	// checkpoint.
	HistoryLimit int `mapstructure:"history_limit"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{QueueSize: 64, HistoryLimit: 10}
}

// Callbacks are invoked by the exchange worker after each processed
// task. All callbacks run on the worker goroutine.
type Callbacks struct {
	OnFEMData         func(map[string]field.Field)
	OnPINNData        func(map[string]field.Field)
	OnParameterUpdate func(map[string]any)
	OnErrorUpdate     func(map[string]ErrorMetrics)
}

// Interface is the FEM<->PINN coupling interface. One instance owns
// one pair of domain descriptors, the mapping operators built from
// them, an explicit status store and at most one exchange worker.
// Instances share no mutable state with each other.
type Interface struct {
	projectID int
	dataDir   string
	cfg       Config
	log       *slog.Logger

	status *Status

	// femPoints holds the FEM node coordinates used to build the
	// mapping operators; nil until a mesh with coordinates is loaded
	// or SetFEMPoints is called.
	femPoints []r3.Vec

	mapping *Mapping

	realtime bool
	worker   *worker

	cbMu      sync.Mutex
	callbacks Callbacks
}

// New creates a coupling interface for a project. dataDir is the root
// under which exchange artifacts and status checkpoints live; it is
// created if missing. With enableRealtime the exchange worker starts
// immediately and must be shut down with Close.
func New(projectID int, dataDir string, cfg Config, enableRealtime bool, log *slog.Logger) (*Interface, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultConfig().HistoryLimit
	}
	if dataDir == "" {
		dataDir = filepath.Join("data", "exchange", fmt.Sprintf("project_%d", projectID))
	}
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create exchange directory: %w", err)
	}

	c := &Interface{
		projectID: projectID,
		dataDir:   dataDir,
		cfg:       cfg,
		log:       log.With("component", "coupling", "project", projectID),
		status:    NewStatus(projectID, enableRealtime),
		realtime:  enableRealtime,
	}
	c.log.Info("coupling interface initialized", "realtime", enableRealtime)

	if enableRealtime {
		c.worker = newWorker(c, cfg.QueueSize)
		c.worker.start()
	}
	return c, nil
}

// Status returns the owned status store.
func (c *Interface) Status() *Status { return c.status }

// SetCallbacks registers the exchange callbacks. Safe to call while
// the worker runs.
func (c *Interface) SetCallbacks(cb Callbacks) {
	c.cbMu.Lock()
	c.callbacks = cb
	c.cbMu.Unlock()
	c.log.Info("exchange callbacks registered")
}

func (c *Interface) getCallbacks() Callbacks {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	return c.callbacks
}

// SetFEMPoints supplies FEM node coordinates directly, for callers
// that already hold the mesh in memory. Invalidates the mapping
// operators.
func (c *Interface) SetFEMPoints(points []r3.Vec) {
	c.femPoints = points
	c.mapping = nil
	c.log.Info("FEM points attached", "points", len(points))
}

// Close stops the exchange worker, if any. In-flight tasks run to
// completion; queued tasks are dropped.
func (c *Interface) Close() {
	if c.worker != nil {
		c.worker.stop()
		c.worker = nil
		c.status.SetRealtimeStatus("stopped")
		c.log.Info("coupling interface closed")
	}
}
