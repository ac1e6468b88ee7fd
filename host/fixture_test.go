package host

import (
	"testing"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/codec"
	"github.com/wippyai/smartmodule/envelope"
	"github.com/wippyai/smartmodule/internal/wasmbuild"
	"github.com/wippyai/smartmodule/record"
)

const (
	dataAddr  = 1024
	allocAddr = 32768

	// dealloc stores its last arguments here.
	deallocPtrAddr = 0
	deallocLenAddr = 4
)

var (
	i32   = wasmbuild.I32
	entry = wasmbuild.FuncType{Params: []wasmbuild.ValType{i32, i32}, Results: []wasmbuild.ValType{i32}}
)

// guest describes a canned SmartModule: its entry point publishes output
// the given number of times and returns code, or traps.
type guest struct {
	output   []byte
	kinds    []smartmodule.Kind
	omit     map[string]bool
	publish  int
	code     int32
	trap     bool
	noMemory bool
}

func (g guest) build() []byte {
	m := wasmbuild.New()
	copyRecords := m.ImportFunc(smartmodule.ImportModule, smartmodule.ImportCopyRecords,
		wasmbuild.FuncType{Params: []wasmbuild.ValType{i32, i32}})

	if !g.noMemory {
		m.Memory(1, smartmodule.ExportMemory)
		if len(g.output) > 0 {
			m.Data(dataAddr, g.output)
		}
	}
	if !g.omit[smartmodule.ExportAlloc] {
		m.Func(smartmodule.ExportAlloc,
			wasmbuild.FuncType{Params: []wasmbuild.ValType{i32}, Results: []wasmbuild.ValType{i32}},
			wasmbuild.NewCode().I32Const(allocAddr))
	}
	if !g.omit[smartmodule.ExportDealloc] {
		m.Func(smartmodule.ExportDealloc,
			wasmbuild.FuncType{Params: []wasmbuild.ValType{i32, i32}},
			deallocBody(g.noMemory))
	}

	kinds := g.kinds
	if kinds == nil {
		kinds = []smartmodule.Kind{smartmodule.KindJoin}
	}
	for _, k := range kinds {
		body := wasmbuild.NewCode()
		if g.trap {
			body.Unreachable()
		} else {
			for n := 0; n < g.publish; n++ {
				body.I32Const(dataAddr).I32Const(int32(len(g.output))).Call(copyRecords)
			}
			body.I32Const(g.code)
		}
		m.Func(k.Export(), entry, body)
	}
	return m.Encode()
}

func deallocBody(noMemory bool) *wasmbuild.Code {
	body := wasmbuild.NewCode()
	if noMemory {
		return body
	}
	return body.
		I32Const(0).LocalGet(0).I32Store(deallocPtrAddr).
		I32Const(0).LocalGet(1).I32Store(deallocLenAddr)
}

// returning builds a guest that publishes out once and returns count.
func returning(t *testing.T, out *envelope.Output, count int32) guest {
	t.Helper()
	data, err := codec.Marshal(out, smartmodule.APIVersion)
	if err != nil {
		t.Fatal(err)
	}
	return guest{output: data, publish: 1, code: count}
}

func joined(values ...string) record.Batch {
	batch := make(record.Batch, len(values))
	for i, v := range values {
		batch[i] = record.Record{Value: []byte(v + "J"), Offset: int64(i)}
	}
	return batch
}

func joinRequest(values ...string) *Request {
	batch := make(record.Batch, len(values))
	for i, v := range values {
		batch[i] = record.Record{Value: []byte(v), Offset: int64(i)}
	}
	return &Request{
		Records: batch,
		Join:    &record.Record{Value: []byte("J")},
	}
}
