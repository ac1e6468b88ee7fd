package host

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/envelope"
	"github.com/wippyai/smartmodule/errors"
)

// Pool holds a fixed set of instances of one module so independent batches
// can run in parallel. Each call has exclusive use of its instance.
type Pool struct {
	module *Module
	idle   chan *Instance
	done   chan struct{}
	log    *zap.Logger
	kind   smartmodule.Kind
	size   int

	mu     sync.Mutex
	closed bool
}

// NewPool instantiates size instances of m bound to kind.
func NewPool(ctx context.Context, m *Module, kind smartmodule.Kind, size int) (*Pool, error) {
	if size < 1 {
		return nil, errors.InvalidInput(errors.PhaseHost, "pool size must be positive")
	}

	p := &Pool{
		module: m,
		idle:   make(chan *Instance, size),
		done:   make(chan struct{}),
		log:    m.engine.log.With(zap.String("module", m.name)),
		kind:   kind,
		size:   size,
	}
	for n := 0; n < size; n++ {
		inst, err := m.Instantiate(ctx, kind)
		if err != nil {
			p.Close(ctx)
			return nil, err
		}
		p.idle <- inst
	}
	return p, nil
}

// Size returns the number of instances in the pool.
func (p *Pool) Size() int {
	return p.size
}

// Process runs req on the next idle instance, waiting for one if all are
// busy. An instance that traps is replaced before it is returned to the
// pool.
func (p *Pool) Process(ctx context.Context, req *Request) (*envelope.Output, error) {
	var inst *Instance
	select {
	case <-p.done:
		return nil, errors.Closed("pool")
	default:
	}
	select {
	case inst = <-p.idle:
	case <-p.done:
		return nil, errors.Closed("pool")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out, err := inst.Process(ctx, req)
	p.put(ctx, inst)
	return out, err
}

// ProcessAll runs every request concurrently, at most Size at a time. The
// outputs are in request order. The first host or protocol error cancels
// the remaining requests and is returned.
func (p *Pool) ProcessAll(ctx context.Context, reqs []*Request) ([]*envelope.Output, error) {
	outs := make([]*envelope.Output, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for n, req := range reqs {
		g.Go(func() error {
			out, err := p.Process(gctx, req)
			if err != nil {
				return err
			}
			outs[n] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// put returns inst to the pool, replacing it first if it trapped. Once the
// pool is closed the instance is closed instead.
func (p *Pool) put(ctx context.Context, inst *Instance) {
	if inst.Closed() && !p.isClosed() {
		fresh, err := p.module.Instantiate(context.WithoutCancel(ctx), p.kind)
		if err != nil {
			p.log.Error("replace closed instance", zap.Error(err))
			// Keep the slot so waiters fail fast instead of blocking forever.
		} else {
			inst = fresh
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = inst.Close(context.WithoutCancel(ctx))
		return
	}
	p.idle <- inst
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close closes every idle instance and fails pending and later calls.
// Instances in use are closed when their call returns.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)
	for {
		select {
		case inst := <-p.idle:
			_ = inst.Close(ctx)
		default:
			return
		}
	}
}
