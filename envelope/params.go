package envelope

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/errors"
)

// ParamTag is the struct tag consulted when converting Params to a typed
// parameter structure.
const ParamTag = "param"

// Params is the flat string map supplied once per invocation.
type Params map[string]string

// Get returns the value for key.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Into converts the parameters into the struct pointed to by target.
// Fields are matched by their `param` tag (or name) and strings are converted
// to the field type; a value that cannot be converted is an error.
func (p Params) Into(target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          ParamTag,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(errors.PhaseParams, errors.KindInvalidInput, err, "parameter target")
	}
	input := map[string]string(p)
	if input == nil {
		input = map[string]string{}
	}
	if err := dec.Decode(input); err != nil {
		return errors.New(errors.PhaseParams, errors.KindInvalidData).
			GoType(fmt.Sprintf("%T", target)).
			Cause(err).
			Detail("convert parameters").
			Build()
	}
	return nil
}

// Encode writes an int32 entry count followed by key/value string pairs in
// key order.
func (p Params) Encode(w *codec.Writer, _ codec.Version) error {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.Int32(int32(len(keys)))
	for _, k := range keys {
		if err := w.String16(k); err != nil {
			return err.(*errors.Error).Within(k, "key")
		}
		if err := w.String16(p[k]); err != nil {
			return err.(*errors.Error).Within(k, "value")
		}
	}
	return nil
}

// Decode reads parameters. An empty map decodes to nil.
func (p *Params) Decode(r *codec.Reader, _ codec.Version) error {
	n, err := r.Int32()
	if err != nil {
		return wrapPath(err, "count")
	}
	if n < 0 {
		return errors.InvalidLength(errors.PhaseDecode, []string{"count"}, int64(n))
	}
	if int(n) > r.Remaining() {
		return errors.Truncated([]string{"count"}, int(n), r.Remaining())
	}
	if n == 0 {
		*p = nil
		return nil
	}

	out := make(Params, n)
	for i := int32(0); i < n; i++ {
		k, err := r.String16()
		if err != nil {
			return wrapPath(err, "key")
		}
		v, err := r.String16()
		if err != nil {
			return wrapPath(err, k)
		}
		out[k] = v
	}
	*p = out
	return nil
}
