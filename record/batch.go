package record

import (
	"strconv"

	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/errors"
)

// Batch is an ordered sequence of records.
type Batch []Record

// Encode writes an int32 count followed by each record.
func (b *Batch) Encode(w *codec.Writer, version codec.Version) error {
	if len(*b) > errors.MaxCount {
		return errors.Overflow(errors.PhaseEncode, []string{"records"}, len(*b), "int32 count")
	}
	w.Int32(int32(len(*b)))
	for i := range *b {
		if err := (*b)[i].Encode(w, version); err != nil {
			return within(err, index(i))
		}
	}
	return nil
}

// Decode reads a batch. The declared count is checked against the bytes
// available before anything is allocated.
func (b *Batch) Decode(r *codec.Reader, version codec.Version) error {
	n, err := r.Int32()
	if err != nil {
		return within(err, "records", "count")
	}
	if n < 0 {
		return errors.InvalidLength(errors.PhaseDecode, []string{"records", "count"}, int64(n))
	}
	if int(n) > r.Remaining() {
		return errors.Truncated([]string{"records"}, int(n), r.Remaining())
	}

	out := make(Batch, n)
	for i := range out {
		if err := out[i].Decode(r, version); err != nil {
			return within(err, index(i))
		}
	}
	*b = out
	return nil
}

// Optional is a record that may be absent, encoded as a presence flag
// followed by the record.
type Optional struct {
	Record *Record
}

// Some wraps rec as a present optional record.
func Some(rec Record) Optional {
	return Optional{Record: &rec}
}

func (o *Optional) Encode(w *codec.Writer, version codec.Version) error {
	w.Bool(o.Record != nil)
	if o.Record == nil {
		return nil
	}
	return o.Record.Encode(w, version)
}

func (o *Optional) Decode(r *codec.Reader, version codec.Version) error {
	present, err := r.Bool()
	if err != nil {
		return within(err, "present")
	}
	if !present {
		o.Record = nil
		return nil
	}
	var rec Record
	if err := rec.Decode(r, version); err != nil {
		return err
	}
	o.Record = &rec
	return nil
}

func index(i int) string {
	return "records[" + strconv.Itoa(i) + "]"
}
