// Package inventory attaches the backends listed in the inventory file and keeps the provider in step with it.
package inventory

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/controller/provider"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/gateway/backend"
	"github.com/uber/bpsync/src/bpsync/internal/clock"
	"github.com/uber/bpsync/src/bpsync/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_inventoryKey = "inventory"
	_backendsKey  = "backends"

	_defaultDebounce = 250 * time.Millisecond
)

// Backend types accepted in the inventory file.
const (
	TypeSimulated = "simulated"
	TypeTCP       = "tcp"
	TypeWebSocket = "websocket"
)

// Config locates the inventory file.
type Config struct {
	File       string `yaml:"file"`
	Watch      bool   `yaml:"watch"`
	DebounceMs int    `yaml:"debounceMs"`
}

// BackendSpec is one entry of the inventory file.
type BackendSpec struct {
	ID        entity.BackendID `yaml:"id" json:"id"`
	Type      string           `yaml:"type" json:"type"`
	Modules   entity.ModuleMap `yaml:"modules" json:"modules,omitempty"`
	LatencyMs int              `yaml:"latencyMs" json:"latencyMs,omitempty"`
	Address   string           `yaml:"address" json:"address,omitempty"`
	URL       string           `yaml:"url" json:"url,omitempty"`
}

func (s BackendSpec) validate() error {
	if s.ID == "" {
		return fmt.Errorf("backend without id")
	}
	switch s.Type {
	case TypeSimulated:
	case TypeTCP:
		if s.Address == "" {
			return fmt.Errorf("backend %q: tcp requires an address", s.ID)
		}
	case TypeWebSocket:
		if s.URL == "" {
			return fmt.Errorf("backend %q: websocket requires a url", s.ID)
		}
	default:
		return fmt.Errorf("backend %q: unknown type %q", s.ID, s.Type)
	}
	return nil
}

func (s BackendSpec) equal(o BackendSpec) bool {
	if s.ID != o.ID || s.Type != o.Type || s.LatencyMs != o.LatencyMs || s.Address != o.Address || s.URL != o.URL {
		return false
	}
	if len(s.Modules) != len(o.Modules) {
		return false
	}
	for i := range s.Modules {
		if s.Modules[i] != o.Modules[i] {
			return false
		}
	}
	return true
}

// Controller keeps the attached backends equal to the inventory file.
type Controller interface {
	// Load reads the inventory file and attaches, replaces or detaches backends to match it.
	// An invalid file changes nothing.
	Load(ctx context.Context) error
	// Backends returns the loaded entries ordered by id.
	Backends() []BackendSpec
	Close() error
}

// Params are inbound parameters to initialize a new Controller.
type Params struct {
	fx.In

	Provider  provider.Provider
	Config    config.Provider
	FS        fs.FS
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Clock     clock.Clock
	Lifecycle fx.Lifecycle
}

type controller struct {
	provider provider.Provider
	fs       fs.FS
	logger   *zap.SugaredLogger
	stats    tally.Scope
	clock    clock.Clock
	file     string
	debounce time.Duration

	loadMu sync.Mutex
	mu     sync.Mutex
	loaded map[entity.BackendID]BackendSpec

	watcher    *fsnotify.Watcher
	closer     chan struct{}
	closeOnce  sync.Once
	debounceMu sync.Mutex
	timer      clock.Timer
	closing    bool
	wg         sync.WaitGroup
}

// New creates a Controller. With a lifecycle the inventory is loaded, and watched if configured, on start.
func New(p Params) (Controller, error) {
	var cfg Config
	if err := p.Config.Get(_inventoryKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("unable to read %s config: %w", _inventoryKey, err)
	}

	c := &controller{
		provider: p.Provider,
		fs:       p.FS,
		logger:   p.Logger.With("component", "inventory"),
		stats:    p.Stats.SubScope("inventory"),
		clock:    p.Clock,
		file:     filepath.Clean(cfg.File),
		debounce: _defaultDebounce,
		loaded:   make(map[entity.BackendID]BackendSpec),
		closer:   make(chan struct{}),
	}
	if cfg.DebounceMs > 0 {
		c.debounce = time.Duration(cfg.DebounceMs) * time.Millisecond
	}

	if cfg.Watch && cfg.File != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create fs watcher for inventory: %w", err)
		}
		c.watcher = watcher
	}

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := c.Load(ctx); err != nil {
					return err
				}
				return c.Watch()
			},
			OnStop: func(ctx context.Context) error {
				return c.Close()
			},
		})
	}
	return c, nil
}

func (c *controller) Load(ctx context.Context) error {
	if c.file == "" || c.file == "." {
		return nil
	}
	specs, err := c.read()
	if err != nil {
		c.stats.Counter("load_failures").Inc(1)
		return err
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	err = c.sync(ctx, specs)
	c.stats.Counter("loads").Inc(1)
	return err
}

func (c *controller) read() ([]BackendSpec, error) {
	data, err := c.fs.ReadFile(c.file)
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", c.file, err)
	}
	specs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing inventory %s: %w", c.file, err)
	}
	return specs, nil
}

// Parse decodes and validates an inventory document.
func Parse(data []byte) ([]BackendSpec, error) {
	doc, err := config.NewYAML(config.Source(bytes.NewReader(data)))
	if err != nil {
		return nil, err
	}
	var specs []BackendSpec
	if err := doc.Get(_backendsKey).Populate(&specs); err != nil {
		return nil, err
	}

	var errs error
	seen := make(map[entity.BackendID]struct{}, len(specs))
	for _, s := range specs {
		if err := s.validate(); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, ok := seen[s.ID]; ok {
			errs = multierr.Append(errs, fmt.Errorf("backend %q listed twice", s.ID))
		}
		seen[s.ID] = struct{}{}
	}
	if errs != nil {
		return nil, errs
	}
	return specs, nil
}

// sync detaches entries that disappeared or changed, then attaches the new and changed ones.
func (c *controller) sync(ctx context.Context, specs []BackendSpec) error {
	want := make(map[entity.BackendID]BackendSpec, len(specs))
	for _, s := range specs {
		want[s.ID] = s
	}

	c.mu.Lock()
	var detach []entity.BackendID
	var attach []BackendSpec
	for id, old := range c.loaded {
		if s, ok := want[id]; !ok || !s.equal(old) {
			detach = append(detach, id)
		}
	}
	for _, s := range specs {
		if old, ok := c.loaded[s.ID]; !ok || !s.equal(old) {
			attach = append(attach, s)
		}
	}
	c.mu.Unlock()
	sort.Slice(detach, func(i, j int) bool { return detach[i] < detach[j] })

	var errs error
	for _, id := range detach {
		if err := c.provider.Detach(ctx, id); err != nil {
			errs = multierr.Append(errs, err)
		}
		c.mu.Lock()
		delete(c.loaded, id)
		c.mu.Unlock()
		c.logger.Infow("backend removed from inventory", "backend", id.String())
	}
	for _, s := range attach {
		h := c.newHandle(s)
		if err := c.provider.Attach(ctx, h); err != nil {
			errs = multierr.Combine(errs, err, h.Close())
			continue
		}
		c.mu.Lock()
		c.loaded[s.ID] = s
		c.mu.Unlock()
		c.logger.Infow("backend added from inventory", "backend", s.ID.String(), "type", s.Type)
	}
	c.stats.Gauge("backends").Update(float64(len(specs)))
	return errs
}

func (c *controller) newHandle(s BackendSpec) backend.Handle {
	switch s.Type {
	case TypeTCP:
		return backend.NewRemote(backend.RemoteParams{
			ID:     s.ID,
			Dialer: backend.TCPDialer{Address: s.Address},
			Logger: c.logger,
			Clock:  c.clock,
		})
	case TypeWebSocket:
		return backend.NewRemote(backend.RemoteParams{
			ID:     s.ID,
			Dialer: backend.WebSocketDialer{URL: s.URL},
			Logger: c.logger,
			Clock:  c.clock,
		})
	}
	return backend.NewSimulated(backend.SimulatedParams{
		ID:      s.ID,
		Modules: s.Modules,
		Latency: time.Duration(s.LatencyMs) * time.Millisecond,
		Logger:  c.logger,
	})
}

func (c *controller) Backends() []BackendSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	specs := make([]BackendSpec, 0, len(c.loaded))
	for _, s := range c.loaded {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// Watch reloads the inventory whenever the file is written. It is a no-op when watching is disabled.
func (c *controller) Watch() error {
	if c.watcher == nil {
		return nil
	}
	// Editors replace files, so the directory is watched rather than the file.
	if err := c.watcher.Add(filepath.Dir(c.file)); err != nil {
		return fmt.Errorf("watching inventory %s: %w", c.file, err)
	}
	c.wg.Add(1)
	go c.handleChanges()
	return nil
}

func (c *controller) handleChanges() {
	defer c.wg.Done()
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != c.file {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			c.handleDebounce()
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warnf("Failure in inventory watcher: %v", err)
		case <-c.closer:
			return
		}
	}
}

// handleDebounce collapses bursts of writes into one reload.
func (c *controller) handleDebounce() {
	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()

	if c.closing {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = c.clock.AfterFunc(c.debounce, func() {
		c.debounceMu.Lock()
		if c.closing {
			c.debounceMu.Unlock()
			return
		}
		c.wg.Add(1)
		c.debounceMu.Unlock()
		defer c.wg.Done()

		if err := c.Load(context.Background()); err != nil {
			c.logger.Warnw("inventory reload failed, keeping current backends", zap.Error(err))
			return
		}
		c.logger.Infow("inventory reloaded", "backends", len(c.Backends()))
	})
}

func (c *controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.debounceMu.Lock()
		c.closing = true
		if c.timer != nil {
			c.timer.Stop()
		}
		c.debounceMu.Unlock()

		close(c.closer)
		if c.watcher != nil {
			err = c.watcher.Close()
		}
		// A reload that already started finishes before Close returns.
		c.wg.Wait()
	})
	return err
}
