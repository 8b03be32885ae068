// Package researchmesh provides a high-level façade over the session
// lifecycle manager and the agent-to-agent coordination protocol, enabling
// pausable, resumable multi-agent research workflows. Most applications
// interact with this package by:
//  1. Creating a ResearchMesh via New() (optionally overriding config and stores)
//  2. Driving sessions through Sessions() (create, progress, pause, resume)
//  3. Exchanging worker messages through Coordinator()
//
// The façade is the composition point owning construction of all components;
// there are no process-global singletons. Defaults persist to the local
// filesystem so paused sessions survive process restarts.
package researchmesh

import (
	"fmt"

	"github.com/hupe1980/researchmesh/config"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/memory"
	"github.com/hupe1980/researchmesh/metrics"
	"github.com/hupe1980/researchmesh/protocol"
	"github.com/hupe1980/researchmesh/session"
	"github.com/hupe1980/researchmesh/storage"
)

// Options configures the ResearchMesh instance.
type Options struct {
	// Config carries directories, queue bounds and toggles. Defaults to
	// config.Default().
	Config config.Config

	// RecordStore overrides durable session persistence. Defaults to a
	// FileStore rooted at Config.SessionDir.
	RecordStore core.RecordStore

	// CheckpointStore overrides checkpoint blob persistence. Defaults to the
	// same FileStore as RecordStore.
	CheckpointStore core.CheckpointStore

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// ResearchMesh is the high-level façade aggregating the session manager, the
// coordination protocol and the optional memory bank and metrics tracker.
type ResearchMesh struct {
	cfg         config.Config
	sessions    *session.Manager
	coordinator *protocol.Coordinator
	memories    *memory.Bank
	tracker     *metrics.Tracker
	logger      logging.Logger
}

// New creates a ResearchMesh instance with optional overrides. Unset stores
// are initialized file-backed under the configured directories, and
// previously persisted sessions are rehydrated immediately.
func New(optFns ...func(o *Options)) (*ResearchMesh, error) {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.RecordStore == nil {
		fileStore, err := storage.NewFileStore(opts.Config.SessionDir)
		if err != nil {
			return nil, err
		}
		opts.RecordStore = fileStore
		if opts.CheckpointStore == nil {
			opts.CheckpointStore = fileStore
		}
	}
	if opts.CheckpointStore == nil {
		return nil, fmt.Errorf("researchmesh: a checkpoint store is required when overriding the record store")
	}

	sessions, err := session.NewManager(opts.RecordStore, opts.CheckpointStore, func(o *session.ManagerOptions) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	bus := protocol.NewBus(func(o *protocol.BusOptions) {
		o.QueueCapacity = opts.Config.QueueCapacity
		o.Logger = opts.Logger
	})
	coordinator := protocol.NewCoordinator(bus, func(o *protocol.CoordinatorOptions) {
		o.Logger = opts.Logger
	})

	mesh := &ResearchMesh{
		cfg:         opts.Config,
		sessions:    sessions,
		coordinator: coordinator,
		logger:      opts.Logger,
	}

	if opts.Config.EnableMemoryBank {
		bank, err := memory.NewBank(opts.Config.MemoryDir, opts.Logger)
		if err != nil {
			return nil, err
		}
		mesh.memories = bank
	}
	if opts.Config.EnableMetrics {
		mesh.tracker = metrics.NewTracker()
	}

	return mesh, nil
}

// Sessions returns the session lifecycle manager.
func (m *ResearchMesh) Sessions() *session.Manager { return m.sessions }

// Coordinator returns the coordination protocol façade.
func (m *ResearchMesh) Coordinator() *protocol.Coordinator { return m.coordinator }

// Memories returns the research memory bank, or nil when disabled.
func (m *ResearchMesh) Memories() *memory.Bank { return m.memories }

// Metrics returns the metrics tracker, or nil when disabled.
func (m *ResearchMesh) Metrics() *metrics.Tracker { return m.tracker }

// Config returns the effective configuration.
func (m *ResearchMesh) Config() config.Config { return m.cfg }
