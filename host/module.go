package host

import (
	"context"
	"slices"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/errors"
)

// Module is a compiled SmartModule. Instantiate it once per concurrent
// caller.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
	name     string
	kinds    []smartmodule.Kind
}

// Name returns the name the module was loaded under.
func (m *Module) Name() string {
	return m.name
}

// Kinds lists the entry points the module exports.
func (m *Module) Kinds() []smartmodule.Kind {
	return append([]smartmodule.Kind(nil), m.kinds...)
}

// Supports reports whether the module exports the entry point for kind.
func (m *Module) Supports(kind smartmodule.Kind) bool {
	return slices.Contains(m.kinds, kind)
}

// Close releases the compiled code. Live instances are unaffected.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Instantiate creates an instance that invokes the entry point for kind.
func (m *Module) Instantiate(ctx context.Context, kind smartmodule.Kind) (*Instance, error) {
	if m == nil || m.compiled == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "module")
	}
	if !m.Supports(kind) {
		return nil, errors.NewMissingExportsError(m.name, []string{kind.Export()})
	}

	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithStderr(m.engine.stderr())

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst := &Instance{
		module:  mod,
		name:    m.name,
		kind:    kind,
		entry:   mod.ExportedFunction(kind.Export()),
		alloc:   mod.ExportedFunction(smartmodule.ExportAlloc),
		dealloc: mod.ExportedFunction(smartmodule.ExportDealloc),
		version: m.engine.cfg.version(),
		timeout: m.engine.cfg.CallTimeout,
		metrics: m.engine.cfg.Metrics,
		log:     m.engine.log.With(zap.String("module", m.name), zap.Stringer("kind", kind)),
	}
	return inst, nil
}
