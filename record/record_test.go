package record

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/errors"
)

func TestRecord_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"value only", Record{Value: []byte("hello")}},
		{"with key", Record{Key: []byte("k"), Value: []byte("v"), Offset: 3}},
		{"empty key present", Record{Key: []byte{}, Value: []byte("v")}},
		{"empty value", Record{Value: nil, Offset: 1}},
		{"negative offset and timestamp", Record{Value: []byte("x"), Offset: -2, Timestamp: -1000}},
		{"large offset", Record{Value: []byte("x"), Offset: 1 << 40, Timestamp: 1 << 41}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := codec.Marshal(&tt.rec, smartmodule.APIVersion)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got Record
			if err := codec.Unmarshal(data, &got, smartmodule.APIVersion); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !got.Equal(&tt.rec) {
				t.Errorf("round trip = %v, want %v", got, tt.rec)
			}
			if got.HasKey() != tt.rec.HasKey() {
				t.Errorf("HasKey = %v, want %v", got.HasKey(), tt.rec.HasKey())
			}
		})
	}
}

func TestRecord_TimestampVersioned(t *testing.T) {
	rec := Record{Value: []byte("v"), Offset: 4, Timestamp: 99}
	old := smartmodule.VersionTimestamp - 1

	data, err := codec.Marshal(&rec, old)
	if err != nil {
		t.Fatal(err)
	}
	var got Record
	if err := codec.Unmarshal(data, &got, old); err != nil {
		t.Fatal(err)
	}
	if got.Timestamp != 0 || got.Offset != 4 || string(got.Value) != "v" {
		t.Errorf("old version decode = %v (timestamp %d)", got, got.Timestamp)
	}
}

func TestRecord_IgnoresTrailingBodyBytes(t *testing.T) {
	// Body written by a newer encoder with one extra trailing field.
	body := codec.NewWriter()
	body.Int8(0)
	body.Varint(5)
	body.Varint(1)
	body.NullableVarBytes(nil)
	body.VarBytes([]byte("v"))
	body.Varint(0)
	body.Raw([]byte{0xde, 0xad})

	w := codec.NewWriter()
	w.VarBytes(body.Bytes())
	w.Raw([]byte("next"))

	r := codec.NewReader(w.Bytes())
	var got Record
	if err := got.Decode(r, smartmodule.APIVersion); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Timestamp != 5 || got.Offset != 1 || string(got.Value) != "v" {
		t.Errorf("decoded %v", got)
	}
	if r.Remaining() != 4 {
		t.Errorf("Remaining = %d, want 4", r.Remaining())
	}
}

func TestRecord_TruncatedValue(t *testing.T) {
	rec := Record{Key: []byte("key"), Value: []byte("value")}
	data, _ := codec.Marshal(&rec, smartmodule.APIVersion)

	var got Record
	err := codec.Unmarshal(data[:len(data)-3], &got, smartmodule.APIVersion)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindTruncated}) {
		t.Errorf("expected truncated error, got %v", err)
	}
}

func TestBatch_RoundTrip(t *testing.T) {
	in := Batch{
		{Value: []byte("a"), Offset: 0},
		{Key: []byte("k1"), Value: []byte("b"), Offset: 1},
		{Value: []byte("c"), Offset: 2},
	}
	data, err := codec.Marshal(&in, smartmodule.APIVersion)
	if err != nil {
		t.Fatal(err)
	}

	var out Batch
	if err := codec.Unmarshal(data, &out, smartmodule.APIVersion); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if !out[i].Equal(&in[i]) {
			t.Errorf("record %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestBatch_Empty(t *testing.T) {
	var in Batch
	data, err := codec.Marshal(&in, smartmodule.APIVersion)
	if err != nil {
		t.Fatal(err)
	}
	var out Batch
	if err := codec.Unmarshal(data, &out, smartmodule.APIVersion); err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestBatch_DecodeErrors(t *testing.T) {
	t.Run("negative count", func(t *testing.T) {
		w := codec.NewWriter()
		w.Int32(-1)
		var b Batch
		err := codec.Unmarshal(w.Bytes(), &b, smartmodule.APIVersion)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidLength}) {
			t.Errorf("expected invalid length, got %v", err)
		}
	})

	t.Run("count exceeds data", func(t *testing.T) {
		w := codec.NewWriter()
		w.Int32(1 << 30)
		var b Batch
		err := codec.Unmarshal(w.Bytes(), &b, smartmodule.APIVersion)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindTruncated}) {
			t.Errorf("expected truncated, got %v", err)
		}
	})

	t.Run("bad record attributed by index", func(t *testing.T) {
		in := Batch{{Value: []byte("ok")}, {Value: []byte("broken")}}
		data, _ := codec.Marshal(&in, smartmodule.APIVersion)
		var b Batch
		err := codec.Unmarshal(data[:len(data)-2], &b, smartmodule.APIVersion)
		var structured *errors.Error
		if !stderrors.As(err, &structured) {
			t.Fatalf("expected *errors.Error, got %v", err)
		}
		if path := strings.Join(structured.Path, "."); !strings.HasPrefix(path, "records[1]") {
			t.Errorf("Path = %q, want records[1] prefix", path)
		}
	})
}

func TestOptional(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		in := Some(Record{Key: []byte("j"), Value: []byte("J")})
		data, err := codec.Marshal(&in, smartmodule.APIVersion)
		if err != nil {
			t.Fatal(err)
		}
		var out Optional
		if err := codec.Unmarshal(data, &out, smartmodule.APIVersion); err != nil {
			t.Fatal(err)
		}
		if out.Record == nil || !out.Record.Equal(in.Record) {
			t.Errorf("got %v, want %v", out.Record, in.Record)
		}
	})

	t.Run("absent", func(t *testing.T) {
		in := Optional{}
		data, _ := codec.Marshal(&in, smartmodule.APIVersion)
		if len(data) != 1 || data[0] != 0 {
			t.Errorf("absent encoding = %x, want 00", data)
		}
		out := Some(Record{Value: []byte("stale")})
		if err := codec.Unmarshal(data, &out, smartmodule.APIVersion); err != nil {
			t.Fatal(err)
		}
		if out.Record != nil {
			t.Errorf("expected absent record, got %v", out.Record)
		}
	})

	t.Run("empty buffer", func(t *testing.T) {
		var out Optional
		if err := codec.Unmarshal(nil, &out, smartmodule.APIVersion); err == nil {
			t.Error("expected error decoding empty buffer")
		}
	})
}
