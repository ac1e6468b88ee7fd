package envelope

import (
	"fmt"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/errors"
	"github.com/wippyai/smartmodule/record"
)

// Output is the response envelope for one invocation. When Error is set,
// Successes holds exactly the records produced before the failing record.
type Output struct {
	Error     *RuntimeError
	Successes record.Batch
}

func (o *Output) Encode(w *codec.Writer, version codec.Version) error {
	if err := o.Successes.Encode(w, version); err != nil {
		return wrapPath(err, "output", "successes")
	}
	w.Bool(o.Error != nil)
	if o.Error != nil {
		if err := o.Error.Encode(w, version); err != nil {
			return wrapPath(err, "output", "error")
		}
	}
	return nil
}

func (o *Output) Decode(r *codec.Reader, version codec.Version) error {
	var out Output
	if err := out.Successes.Decode(r, version); err != nil {
		return wrapPath(err, "output", "successes")
	}
	present, err := r.Bool()
	if err != nil {
		return wrapPath(err, "output", "error")
	}
	if present {
		out.Error = &RuntimeError{}
		if err := out.Error.Decode(r, version); err != nil {
			return wrapPath(err, "output", "error")
		}
	}
	*o = out
	return nil
}

// RuntimeError reports that user logic rejected a record. Offset is the base
// offset of the batch, not adjusted for the failing record.
type RuntimeError struct {
	Hint   string
	Record record.Record
	Offset int64
	Kind   smartmodule.Kind
}

// NewRuntimeError captures the failing record and the user-supplied cause.
func NewRuntimeError(rec *record.Record, baseOffset int64, kind smartmodule.Kind, cause error) *RuntimeError {
	hint := "<nil>"
	if cause != nil {
		hint = cause.Error()
	}
	return &RuntimeError{
		Hint:   hint,
		Record: *rec,
		Offset: baseOffset,
		Kind:   kind,
	}
}

// Error implements error.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("smartmodule %s failed at base offset %d (record offset %d): %s",
		e.Kind, e.Offset, e.Record.Offset, e.Hint)
}

// AbsoluteOffset returns the offset of the failing record in the stream.
func (e *RuntimeError) AbsoluteOffset() int64 {
	return e.Offset + e.Record.Offset
}

func (e *RuntimeError) Encode(w *codec.Writer, version codec.Version) error {
	if !e.Kind.Valid() {
		return errors.InvalidDiscriminant(errors.PhaseEncode, []string{"kind"}, int64(e.Kind), int64(smartmodule.KindJoin))
	}
	w.VarBytes([]byte(e.Hint))
	w.Int64(e.Offset)
	w.Int8(int8(e.Kind))
	return e.Record.Encode(w, version)
}

func (e *RuntimeError) Decode(r *codec.Reader, version codec.Version) error {
	hint, err := r.VarBytes()
	if err != nil {
		return wrapPath(err, "hint")
	}
	offset, err := r.Int64()
	if err != nil {
		return wrapPath(err, "offset")
	}
	tag, err := r.Int8()
	if err != nil {
		return wrapPath(err, "kind")
	}
	kind := smartmodule.Kind(tag)
	if !kind.Valid() {
		return errors.InvalidDiscriminant(errors.PhaseDecode, []string{"kind"}, int64(tag), int64(smartmodule.KindJoin))
	}
	var rec record.Record
	if err := rec.Decode(r, version); err != nil {
		return wrapPath(err, "record")
	}
	*e = RuntimeError{
		Hint:   string(hint),
		Record: rec,
		Offset: offset,
		Kind:   kind,
	}
	return nil
}
