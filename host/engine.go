package host

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/errors"
)

// Engine owns the wazero runtime shared by every loaded SmartModule. It
// provides the env.copy_records import and WASI preview1 for Go guests.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
	log     *zap.Logger
}

// NewEngine creates an engine with default configuration.
func NewEngine(ctx context.Context) (*Engine, error) {
	return NewEngineWithConfig(ctx, nil)
}

// NewEngineWithConfig creates an engine with custom configuration.
func NewEngineWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	e := &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		log:     cfg.logger(),
	}
	if cfg != nil {
		e.cfg = *cfg
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
		_ = e.runtime.Close(ctx)
		return nil, errors.Registration("wasi_snapshot_preview1", "*", err)
	}

	_, err := e.runtime.NewHostModuleBuilder(smartmodule.ImportModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(e.copyRecords),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil).
		WithParameterNames("ptr", "len").
		Export(smartmodule.ImportCopyRecords).
		Instantiate(ctx)
	if err != nil {
		_ = e.runtime.Close(ctx)
		return nil, errors.Registration(smartmodule.ImportModule, smartmodule.ImportCopyRecords, err)
	}

	return e, nil
}

// Close releases the runtime and every module instantiated from it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load compiles a SmartModule and checks that it exports the memory and
// allocation functions plus at least one entry point.
func (e *Engine) Load(ctx context.Context, name string, wasm []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile "+name, err)
	}

	var missing []string
	if _, ok := compiled.ExportedMemories()[smartmodule.ExportMemory]; !ok {
		missing = append(missing, smartmodule.ExportMemory)
	}

	funcs := compiled.ExportedFunctions()
	if !hasSignature(funcs[smartmodule.ExportAlloc], []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}) {
		missing = append(missing, smartmodule.ExportAlloc+"(i32) i32")
	}
	if !hasSignature(funcs[smartmodule.ExportDealloc], []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil) {
		missing = append(missing, smartmodule.ExportDealloc+"(i32, i32)")
	}

	var kinds []smartmodule.Kind
	for _, k := range smartmodule.Kinds() {
		if hasSignature(funcs[k.Export()], entryParams, entryResults) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		missing = append(missing, "one of "+entryNames()+" (i32, i32) i32")
	}

	if len(missing) > 0 {
		_ = compiled.Close(ctx)
		return nil, errors.NewMissingExportsError(name, missing)
	}

	e.log.Debug("smartmodule loaded",
		zap.String("module", name),
		zap.Strings("kinds", kindNames(kinds)))

	return &Module{
		engine:   e,
		compiled: compiled,
		name:     name,
		kinds:    kinds,
	}, nil
}

var (
	entryParams  = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	entryResults = []api.ValueType{api.ValueTypeI32}
)

func hasSignature(def api.FunctionDefinition, params, results []api.ValueType) bool {
	if def == nil {
		return false
	}
	return sameTypes(def.ParamTypes(), params) && sameTypes(def.ResultTypes(), results)
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func entryNames() string {
	names := kindNames(smartmodule.Kinds())
	sort.Strings(names)
	return strings.Join(names, "|")
}

func kindNames(kinds []smartmodule.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// copyRecords is the env.copy_records import. It copies the published
// buffer into the publication carried by the call context.
func (e *Engine) copyRecords(ctx context.Context, mod api.Module, stack []uint64) {
	ptr := api.DecodeU32(stack[0])
	length := api.DecodeU32(stack[1])

	pub, ok := ctx.Value(publicationKey{}).(*publication)
	if !ok {
		e.log.Warn("copy_records called outside an invocation",
			zap.Uint32("ptr", ptr),
			zap.Uint32("len", length))
		return
	}

	pub.calls++
	if pub.calls > 1 {
		return
	}

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		pub.err = errors.OutOfBounds(errors.PhaseHandoff, []string{"copy_records"}, int(ptr)+int(length), int(mod.Memory().Size()))
		return
	}
	pub.ptr = ptr
	pub.length = length
	pub.data = append([]byte(nil), data...)
}

// publication collects what the guest handed over during one call.
type publication struct {
	err    error
	data   []byte
	ptr    uint32
	length uint32
	calls  int
}

type publicationKey struct{}

func withPublication(ctx context.Context, pub *publication) context.Context {
	return context.WithValue(ctx, publicationKey{}, pub)
}

func (e *Engine) stderr() io.Writer {
	if e.cfg.Stderr == nil {
		return io.Discard
	}
	return e.cfg.Stderr
}
