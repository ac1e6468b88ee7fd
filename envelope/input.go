package envelope

import (
	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/errors"
	"github.com/wippyai/smartmodule/record"
)

// Input is the request envelope for one invocation.
type Input struct {
	Params        Params
	RecordData    []byte
	JoinRecord    []byte
	BaseOffset    int64
	BaseTimestamp int64
}

// NewInput encodes records and the optional join record into their embedded
// buffers.
func NewInput(baseOffset int64, records record.Batch, join *record.Record, params Params, version codec.Version) (*Input, error) {
	data, err := codec.Marshal(&records, version)
	if err != nil {
		return nil, wrapPath(err, "input", "record_data")
	}
	opt := record.Optional{Record: join}
	joinData, err := codec.Marshal(&opt, version)
	if err != nil {
		return nil, wrapPath(err, "input", "join_record")
	}
	return &Input{
		BaseOffset: baseOffset,
		RecordData: data,
		Params:     params,
		JoinRecord: joinData,
	}, nil
}

// Records decodes the embedded record batch.
func (in *Input) Records(version codec.Version) (record.Batch, error) {
	var batch record.Batch
	if err := codec.Unmarshal(in.RecordData, &batch, version); err != nil {
		return nil, wrapPath(err, "input", "record_data")
	}
	return batch, nil
}

// Join decodes the embedded join record. A nil record with a nil error means
// the record was encoded as absent.
func (in *Input) Join(version codec.Version) (*record.Record, error) {
	var opt record.Optional
	if err := codec.Unmarshal(in.JoinRecord, &opt, version); err != nil {
		return nil, wrapPath(err, "input", "join_record")
	}
	return opt.Record, nil
}

func (in *Input) Encode(w *codec.Writer, version codec.Version) error {
	w.Int64(in.BaseOffset)
	if err := w.Bytes32(in.RecordData); err != nil {
		return wrapPath(err, "input", "record_data")
	}
	if version >= smartmodule.VersionParams {
		if err := in.Params.Encode(w, version); err != nil {
			return wrapPath(err, "input", "params")
		}
	}
	if version >= smartmodule.VersionJoinRecord {
		if err := w.Bytes32(in.JoinRecord); err != nil {
			return wrapPath(err, "input", "join_record")
		}
	}
	if version >= smartmodule.VersionTimestamp {
		w.Int64(in.BaseTimestamp)
	}
	return nil
}

func (in *Input) Decode(r *codec.Reader, version codec.Version) error {
	var out Input
	var err error
	if out.BaseOffset, err = r.Int64(); err != nil {
		return wrapPath(err, "input", "base_offset")
	}
	if out.RecordData, err = r.Bytes32(); err != nil {
		return wrapPath(err, "input", "record_data")
	}
	if version >= smartmodule.VersionParams {
		if err := out.Params.Decode(r, version); err != nil {
			return wrapPath(err, "input", "params")
		}
	}
	if version >= smartmodule.VersionJoinRecord {
		if out.JoinRecord, err = r.Bytes32(); err != nil {
			return wrapPath(err, "input", "join_record")
		}
	}
	if version >= smartmodule.VersionTimestamp {
		if out.BaseTimestamp, err = r.Int64(); err != nil {
			return wrapPath(err, "input", "base_timestamp")
		}
	}
	*in = out
	return nil
}

func wrapPath(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		return e.Within(path...)
	}
	return errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "envelope").Within(path...)
}
