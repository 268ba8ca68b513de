// Package control implements the JSON-RPC control API of the bpsync service.
package control

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
	"github.com/uber/bpsync/src/bpsync/controller/coordinator"
	"github.com/uber/bpsync/src/bpsync/controller/provider"
	"github.com/uber/bpsync/src/bpsync/entity"
	"github.com/uber/bpsync/src/bpsync/internal/jsonrpcfx"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler tracks the control API clients.
type Handler interface {
	jsonrpcfx.ConnectionManager
	// Connections returns the number of connected clients.
	Connections() int
}

// Params are inbound parameters to initialize a new Handler.
type Params struct {
	fx.In

	Coordinator coordinator.Coordinator
	Provider    provider.Provider
	JSONRPC     jsonrpcfx.JSONRPCModule
	Logger      *zap.SugaredLogger
	Stats       tally.Scope
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type connectionManager struct {
	coordinator coordinator.Coordinator
	provider    provider.Provider
	logger      *zap.SugaredLogger
	stats       tally.Scope

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

// New constructs a Handler and registers it with the JSON-RPC module.
func New(p Params) (Handler, error) {
	c := &connectionManager{
		coordinator: p.Coordinator,
		provider:    p.Provider,
		logger:      p.Logger.With("component", "control"),
		stats:       p.Stats.SubScope("json_rpc"),
		sessions:    make(map[uuid.UUID]*session),
	}
	if err := p.JSONRPC.RegisterConnectionManager(c); err != nil {
		return nil, fmt.Errorf("registering control api: %w", err)
	}
	return c, nil
}

// NewConnection will store a new connection and return a router that includes its UUID.
// The connection receives a breakpoints/changed notification for every completed batch.
func (c *connectionManager) NewConnection(ctx context.Context, conn jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}

	changes, unsubscribe := c.coordinator.Subscribe()
	sctx, cancel := context.WithCancel(context.Background())
	s := &session{
		cancel: func() {
			cancel()
			unsubscribe()
		},
		done: make(chan struct{}),
	}
	go c.push(sctx, conn, changes, s.done)

	c.mu.Lock()
	c.sessions[id] = s
	c.stats.Gauge("connections").Update(float64(len(c.sessions)))
	c.mu.Unlock()

	return &jsonRPCRouter{
		coordinator: c.coordinator,
		provider:    c.provider,
		uuid:        id,
		stats:       c.stats,
	}, nil
}

// RemoveConnection cleans up a closed connection.
func (c *connectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	c.mu.Lock()
	s, ok := c.sessions[id]
	delete(c.sessions, id)
	c.stats.Gauge("connections").Update(float64(len(c.sessions)))
	c.mu.Unlock()
	if !ok {
		return
	}
	s.cancel()
	<-s.done
}

func (c *connectionManager) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// push forwards completed batches to the client until the session ends.
func (c *connectionManager) push(ctx context.Context, conn jsonrpc2.Conn, changes <-chan *entity.BatchResult, done chan struct{}) {
	defer close(done)
	for {
		select {
		case res, ok := <-changes:
			if !ok {
				return
			}
			if err := conn.Notify(ctx, MethodBreakpointsChanged, res); err != nil {
				c.logger.Debugw("unable to push breakpoint changes", zap.Error(err))
				continue
			}
			c.stats.Counter("notifications").Inc(1)
		case <-ctx.Done():
			return
		}
	}
}
