package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/config"
	"github.com/wippyai/smartmodule/envelope"
	"github.com/wippyai/smartmodule/host"
	"github.com/wippyai/smartmodule/record"
)

// options collects the command line.
type options struct {
	params     envelope.Params
	wasmFile   string
	kind       string
	configFile string
	join       string
	baseOffset int64
	verbose    bool
}

// session is one loaded SmartModule ready to process batches.
type session struct {
	engine   *host.Engine
	module   *host.Module
	instance *host.Instance
	join     *record.Record
	params   envelope.Params
	kind     smartmodule.Kind
	offset   int64
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func openSession(ctx context.Context, opts *options, log *zap.Logger) (*session, error) {
	spu := config.Default()
	if opts.configFile != "" {
		var err error
		if spu, err = config.Load(opts.configFile); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(opts.wasmFile)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := host.ConfigFromSpu(spu)
	cfg.Logger = log
	cfg.Stderr = os.Stderr
	engine, err := host.NewEngineWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	module, err := engine.Load(ctx, opts.wasmFile, data)
	if err != nil {
		engine.Close(ctx)
		return nil, err
	}

	kind, err := pickKind(module, opts.kind)
	if err != nil {
		engine.Close(ctx)
		return nil, err
	}

	instance, err := module.Instantiate(ctx, kind)
	if err != nil {
		engine.Close(ctx)
		return nil, err
	}

	s := &session{
		engine:   engine,
		module:   module,
		instance: instance,
		params:   opts.params,
		kind:     kind,
		offset:   opts.baseOffset,
	}
	s.setJoin(opts.join)
	return s, nil
}

// pickKind resolves -kind, defaulting to the only entry point the module
// exports.
func pickKind(m *host.Module, name string) (smartmodule.Kind, error) {
	if name != "" {
		kind, ok := smartmodule.ParseKind(name)
		if !ok {
			return 0, fmt.Errorf("unknown kind %q", name)
		}
		return kind, nil
	}

	kinds := m.Kinds()
	if len(kinds) == 1 {
		return kinds[0], nil
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return 0, fmt.Errorf("module exports %s; choose one with -kind", strings.Join(names, ", "))
}

func (s *session) setJoin(value string) {
	if value == "" && s.kind != smartmodule.KindJoin {
		s.join = nil
		return
	}
	rec := record.New(nil, []byte(value))
	s.join = &rec
}

// process runs one batch built from values. Offsets continue across calls.
func (s *session) process(ctx context.Context, values []string) (*envelope.Output, error) {
	batch := make(record.Batch, len(values))
	for i, v := range values {
		batch[i] = record.Record{Value: []byte(v), Offset: int64(i)}
	}

	out, err := s.instance.Process(ctx, &host.Request{
		Records:    batch,
		Join:       s.join,
		Params:     s.params,
		BaseOffset: s.offset,
	})
	s.offset += int64(len(values))
	return out, err
}

func (s *session) close(ctx context.Context) {
	s.instance.Close(ctx)
	s.engine.Close(ctx)
}
