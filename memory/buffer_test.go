package memory

import (
	"bytes"
	"testing"
)

type recordingSink struct {
	calls []publication
}

type publication struct {
	ptr    uintptr
	length uint32
}

func (s *recordingSink) Publish(ptr uintptr, length uint32) {
	s.calls = append(s.calls, publication{ptr, length})
}

func TestBuffer_Handoff(t *testing.T) {
	before := Outstanding()
	sink := &recordingSink{}

	buf := Own([]byte("payload"))
	buf.Handoff(sink)

	if len(sink.calls) != 1 {
		t.Fatalf("sink called %d times, want 1", len(sink.calls))
	}
	call := sink.calls[0]
	if call.length != 7 {
		t.Errorf("length = %d, want 7", call.length)
	}
	if !buf.Released() {
		t.Error("buffer should be released")
	}

	data, ok := Lookup(call.ptr)
	if !ok || !bytes.Equal(data, []byte("payload")) {
		t.Errorf("Lookup = %q, %v", data, ok)
	}
	if Outstanding() != before+1 {
		t.Errorf("Outstanding = %d, want %d", Outstanding(), before+1)
	}

	if !Free(call.ptr) {
		t.Error("Free of published buffer failed")
	}
	if Free(call.ptr) {
		t.Error("second Free should report false")
	}
	if Outstanding() != before {
		t.Errorf("Outstanding = %d after free, want %d", Outstanding(), before)
	}
}

func TestBuffer_UseAfterRelease(t *testing.T) {
	buf := Own([]byte("x"))
	ptr, _ := buf.Release()
	defer Free(ptr)

	for name, fn := range map[string]func(){
		"Bytes":   func() { buf.Bytes() },
		"Release": func() { buf.Release() },
		"Handoff": func() { buf.Handoff(&recordingSink{}) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s after release did not panic", name)
				}
			}()
			fn()
		})
	}
}

func TestBuffer_EmptyHasDistinctAddress(t *testing.T) {
	a, _ := Own(nil).Release()
	b, _ := Own([]byte{}).Release()
	defer Free(a)
	defer Free(b)

	if a == 0 || b == 0 {
		t.Fatal("empty buffers must get a non-zero address")
	}
	if a == b {
		t.Error("empty buffers share an address")
	}
}

func TestAllocAdopt(t *testing.T) {
	before := Outstanding()
	ptr := Alloc(4)

	data, ok := Lookup(ptr)
	if !ok || len(data) != 4 {
		t.Fatalf("Lookup = %v, %v", data, ok)
	}
	copy(data, "abcd")

	if _, ok := Adopt(ptr, 5); ok {
		t.Error("Adopt with larger size should fail")
	}

	got, ok := Adopt(ptr, 3)
	if !ok || string(got) != "abc" {
		t.Errorf("Adopt = %q, %v", got, ok)
	}
	if cap(got) != 3 {
		t.Errorf("cap = %d, want 3", cap(got))
	}
	if _, ok := Adopt(ptr, 3); ok {
		t.Error("second Adopt should fail")
	}
	if Outstanding() != before {
		t.Errorf("Outstanding = %d, want %d", Outstanding(), before)
	}
}

func TestSinkFunc(t *testing.T) {
	var got uint32
	SinkFunc(func(_ uintptr, length uint32) { got = length }).Publish(0, 9)
	if got != 9 {
		t.Errorf("got %d, want 9", got)
	}
}
