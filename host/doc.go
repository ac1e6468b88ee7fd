// Package host runs SmartModules on wazero.
//
// An Engine owns the runtime and provides the env.copy_records import. Load
// compiles a module and checks its exports; Module.Instantiate binds an
// instance to one entry point. Instance.Process encodes a Request, writes it
// into guest memory through alloc, calls the entry point and decodes the
// published response:
//
//	e, _ := host.NewEngineWithConfig(ctx, host.ConfigFromSpu(spu))
//	m, _ := e.Load(ctx, "join", wasm)
//	inst, _ := m.Instantiate(ctx, smartmodule.KindJoin)
//	out, err := inst.Process(ctx, &host.Request{Records: batch, Join: &latest})
//
// A non-nil error is either an errors.Internal protocol sentinel, in which
// case the guest produced nothing, or a host-side failure. A record rejected
// by user logic is reported in out.Error next to the records that succeeded.
//
// Instances serialize their calls. Pool runs independent batches in parallel,
// one instance per call.
package host
