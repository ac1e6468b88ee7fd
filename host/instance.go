package host

import (
	"context"
	"sync"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/envelope"
	"github.com/wippyai/smartmodule/errors"
	"github.com/wippyai/smartmodule/record"
)

// Request is one batch to run through a SmartModule.
type Request struct {
	// Join is the most recent record of the joined stream. Required by
	// join modules.
	Join    *record.Record
	Params  envelope.Params
	Records record.Batch

	BaseOffset    int64
	BaseTimestamp int64
}

func (r *Request) encode(version codec.Version) ([]byte, error) {
	in, err := envelope.NewInput(r.BaseOffset, r.Records, r.Join, r.Params, version)
	if err != nil {
		return nil, err
	}
	in.BaseTimestamp = r.BaseTimestamp
	return codec.Marshal(in, version)
}

// Instance is one instantiated SmartModule bound to an entry point. Calls
// are serialized; an instance that traps is closed and rejects later calls.
type Instance struct {
	mu      sync.Mutex
	module  api.Module
	entry   api.Function
	alloc   api.Function
	dealloc api.Function
	metrics *Metrics
	log     *zap.Logger
	name    string
	timeout time.Duration
	version codec.Version
	kind    smartmodule.Kind
	closed  bool
}

// Kind returns the entry point the instance invokes.
func (i *Instance) Kind() smartmodule.Kind {
	return i.kind
}

// Closed reports whether the instance can no longer serve calls.
func (i *Instance) Closed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.closed || i.module.IsClosed()
}

// Close releases the instance.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return i.module.Close(ctx)
}

// Process runs req through the guest. A protocol failure is returned as an
// errors.Internal sentinel and yields no output. A record rejected by user
// logic is reported in Output.Error alongside the records that succeeded.
func (i *Instance) Process(ctx context.Context, req *Request) (*envelope.Output, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed || i.module.IsClosed() {
		return nil, errors.Closed("instance")
	}

	start := time.Now()
	out, result, err := i.process(ctx, req)
	produced := 0
	if out != nil {
		produced = len(out.Successes)
	}
	i.metrics.observe(i.kind, result, len(req.Records), produced, time.Since(start))
	return out, err
}

func (i *Instance) process(ctx context.Context, req *Request) (*envelope.Output, string, error) {
	input, err := req.encode(i.version)
	if err != nil {
		return nil, ResultHostError, err
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	ptr, err := i.write(ctx, input)
	if err != nil {
		return nil, ResultTrap, err
	}

	pub := &publication{}
	results, err := i.entry.Call(withPublication(ctx, pub), api.EncodeU32(ptr), api.EncodeU32(uint32(len(input))))
	if err != nil {
		i.fail(ctx, i.kind.Export(), err)
		return nil, ResultTrap, errors.Trap(i.kind.Export(), err)
	}
	if pub.calls > 0 && pub.err == nil {
		defer i.release(ctx, pub)
	}

	outcome := errors.ParseOutcome(api.DecodeI32(results[0]))
	if sentinel, failed := outcome.Sentinel(); failed {
		i.metrics.sentinel(i.kind, sentinel)
		if pub.calls > 0 {
			i.log.Warn("guest published output on a protocol failure",
				zap.Stringer("sentinel", sentinel))
		}
		i.log.Debug("guest returned protocol error", zap.Stringer("sentinel", sentinel))
		return nil, ResultProtocolError, sentinel
	}

	if pub.err != nil {
		return nil, ResultHostError, pub.err
	}
	if pub.calls != 1 {
		return nil, ResultHostError, errors.New(errors.PhaseHandoff, errors.KindProtocol).
			Value(pub.calls).
			Detail("guest published output %d times, want 1", pub.calls).
			Build()
	}

	var out envelope.Output
	if err := codec.Unmarshal(pub.data, &out, i.version); err != nil {
		return nil, ResultHostError, err
	}
	if len(out.Successes) != outcome.Records() {
		return nil, ResultHostError, errors.New(errors.PhaseHandoff, errors.KindProtocol).
			Value(outcome.Code()).
			Detail("guest returned count %d for %d published records", outcome.Records(), len(out.Successes)).
			Build()
	}

	if out.Error != nil {
		i.log.Debug("record rejected",
			zap.Int64("offset", out.Error.AbsoluteOffset()),
			zap.String("hint", out.Error.Hint),
			zap.Int("successes", len(out.Successes)))
		return &out, ResultRuntimeError, nil
	}
	return &out, ResultOK, nil
}

// write copies input into a guest buffer obtained from alloc.
func (i *Instance) write(ctx context.Context, input []byte) (uint32, error) {
	results, err := i.alloc.Call(ctx, api.EncodeU32(uint32(len(input))))
	if err != nil {
		i.fail(ctx, smartmodule.ExportAlloc, err)
		return 0, errors.Trap(smartmodule.ExportAlloc, err)
	}
	ptr := api.DecodeU32(results[0])
	if !i.module.Memory().Write(ptr, input) {
		if _, err := i.dealloc.Call(ctx, api.EncodeU32(ptr), api.EncodeU32(uint32(len(input)))); err != nil {
			i.fail(ctx, smartmodule.ExportDealloc, err)
		}
		return 0, errors.New(errors.PhaseHandoff, errors.KindAllocation).
			Value(ptr).
			Detail("alloc returned %d, which cannot hold %d bytes", ptr, len(input)).
			Build()
	}
	return ptr, nil
}

// release returns the published buffer to the guest allocator.
func (i *Instance) release(ctx context.Context, pub *publication) {
	if _, err := i.dealloc.Call(ctx, api.EncodeU32(pub.ptr), api.EncodeU32(pub.length)); err != nil {
		i.fail(ctx, smartmodule.ExportDealloc, err)
	}
}

// fail closes the instance after a trap. Guest state is unknown from here.
func (i *Instance) fail(ctx context.Context, export string, err error) {
	i.log.Warn("guest call trapped, closing instance",
		zap.String("export", export),
		zap.Error(err))
	i.closed = true
	_ = i.module.Close(context.WithoutCancel(ctx))
}
