package engine

import (
	"fmt"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/envelope"
	"github.com/wippyai/smartmodule/errors"
	"github.com/wippyai/smartmodule/memory"
	"github.com/wippyai/smartmodule/record"
)

// Step transforms one record, appending whatever it emits to out and
// returning the extended slice. On error the returned slice is discarded.
// Step must not modify the input record.
type Step func(rec *record.Record, out record.Batch) (record.Batch, error)

// Invocation is the decoded state of one call that a Variant binds against.
type Invocation struct {
	Input   *envelope.Input
	Join    *record.Record
	Version codec.Version
}

// Variant describes one SmartModule kind.
type Variant struct {
	// Bind prepares the per-record step. An error is reported as
	// ParsingExtraParams.
	Bind func(inv *Invocation) (Step, error)

	Kind smartmodule.Kind

	// RequiresJoin makes an absent or malformed join record a protocol error.
	RequiresJoin bool
}

// Engine runs variants at a fixed protocol version.
type Engine struct {
	version codec.Version
}

// New creates an engine speaking smartmodule.APIVersion.
func New() *Engine {
	return &Engine{version: smartmodule.APIVersion}
}

// NewWithVersion creates an engine speaking the given protocol version.
func NewWithVersion(version codec.Version) *Engine {
	return &Engine{version: version}
}

// Version returns the protocol version used for every decode and encode.
func (e *Engine) Version() codec.Version {
	return e.version
}

// Execute runs v over the encoded input. On success the encoded output is
// handed to sink exactly once and the outcome carries the success count;
// on a protocol failure sink is never called.
func (e *Engine) Execute(v Variant, input []byte, sink memory.Sink) errors.Outcome {
	out, failure := e.Process(v, input)
	if failure != nil {
		return errors.Failure(*failure)
	}

	data, err := codec.Marshal(out, e.version)
	if err != nil {
		return errors.Failure(errors.EncodingOutput)
	}

	memory.Own(data).Handoff(sink)
	return errors.Count(len(out.Successes))
}

// Process runs v over the encoded input and returns the response envelope
// without encoding it. A non-nil sentinel means no output was produced.
func (e *Engine) Process(v Variant, input []byte) (*envelope.Output, *errors.Internal) {
	var in envelope.Input
	if err := codec.Unmarshal(input, &in, e.version); err != nil {
		return nil, sentinel(errors.DecodingBaseInput)
	}

	records, err := in.Records(e.version)
	if err != nil {
		return nil, sentinel(errors.DecodingRecords)
	}

	inv := &Invocation{Input: &in, Version: e.version}
	if v.RequiresJoin {
		join, err := in.Join(e.version)
		if err != nil || join == nil {
			return nil, sentinel(errors.UndefinedRightRecord)
		}
		inv.Join = join
	}

	if v.Bind == nil {
		return nil, sentinel(errors.UnknownError)
	}
	step, err := v.Bind(inv)
	if err != nil {
		return nil, sentinel(errors.ParsingExtraParams)
	}

	out := &envelope.Output{Successes: make(record.Batch, 0, len(records))}
	for i := range records {
		next, err := run(step, records[i], out.Successes)
		if err != nil {
			out.Error = envelope.NewRuntimeError(&records[i], in.BaseOffset, v.Kind, err)
			break
		}
		out.Successes = next
	}
	return out, nil
}

// run calls step on a copy of rec, converting a panic into an error.
func run(step Step, rec record.Record, out record.Batch) (next record.Batch, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return step(&rec, out)
}

func sentinel(kind errors.Internal) *errors.Internal {
	return &kind
}
