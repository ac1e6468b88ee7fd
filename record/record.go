// Package record defines the unit of data exchanged with a SmartModule.
package record

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/errors"
)

// Record is one stream record. Offset is its position relative to the batch
// base offset and is never changed by a transform. A nil Key means absent.
type Record struct {
	Key       []byte
	Value     []byte
	Offset    int64
	Timestamp int64
}

// New creates a record with the given key and value.
func New(key, value []byte) Record {
	return Record{Key: key, Value: value}
}

// HasKey reports whether the record carries a key (possibly empty).
func (r *Record) HasKey() bool {
	return r.Key != nil
}

// Equal reports whether two records hold the same data. Key presence matters.
func (r *Record) Equal(o *Record) bool {
	if r.Offset != o.Offset || r.Timestamp != o.Timestamp {
		return false
	}
	if (r.Key == nil) != (o.Key == nil) {
		return false
	}
	return bytes.Equal(r.Key, o.Key) && bytes.Equal(r.Value, o.Value)
}

func (r Record) String() string {
	key := "<none>"
	if r.Key != nil {
		key = strconv.Quote(string(r.Key))
	}
	return fmt.Sprintf("Record{offset: %d, key: %s, value: %q}", r.Offset, key, r.Value)
}

// Encode writes the record as a varint length followed by its body:
// attributes, timestamp delta (VersionTimestamp+), offset delta, nullable key,
// value and a header count.
func (r *Record) Encode(w *codec.Writer, version codec.Version) error {
	body := codec.NewWriter()
	body.Int8(0)
	if version >= smartmodule.VersionTimestamp {
		body.Varint(r.Timestamp)
	}
	body.Varint(r.Offset)
	body.NullableVarBytes(r.Key)
	body.VarBytes(r.Value)
	body.Varint(0)

	w.VarBytes(body.Bytes())
	return nil
}

// Decode reads a record. Bytes inside the record body that follow the fields
// known to version are skipped.
func (r *Record) Decode(rd *codec.Reader, version codec.Version) error {
	body, err := rd.VarBytes()
	if err != nil {
		return within(err, "length")
	}

	br := codec.NewReader(body)
	if _, err := br.Int8(); err != nil {
		return within(err, "attributes")
	}
	var rec Record
	if version >= smartmodule.VersionTimestamp {
		if rec.Timestamp, err = br.Varint(); err != nil {
			return within(err, "timestamp")
		}
	}
	if rec.Offset, err = br.Varint(); err != nil {
		return within(err, "offset")
	}
	if rec.Key, _, err = br.NullableVarBytes(); err != nil {
		return within(err, "key")
	}
	if rec.Value, err = br.VarBytes(); err != nil {
		return within(err, "value")
	}
	*r = rec
	return nil
}

func within(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.Within(path...)
	}
	return errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "record").Within(path...)
}
