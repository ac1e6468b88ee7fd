package memory

import (
	"math"
	"sync"
	"unsafe"
)

// Sink receives ownership of a released buffer. It is the host-provided
// registration routine; its result is never consulted.
type Sink interface {
	Publish(ptr uintptr, length uint32)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ptr uintptr, length uint32)

// Publish calls f.
func (f SinkFunc) Publish(ptr uintptr, length uint32) {
	f(ptr, length)
}

// Buffer is an exclusively owned byte buffer.
type Buffer struct {
	data     []byte
	released bool
}

// Own takes exclusive ownership of data. The caller must not keep using data.
func Own(data []byte) *Buffer {
	if uint64(len(data)) > math.MaxUint32 {
		panic("memory: buffer exceeds 32-bit length")
	}
	return &Buffer{data: data}
}

// Bytes returns the owned bytes. It panics after Release.
func (b *Buffer) Bytes() []byte {
	b.mustOwn()
	return b.data
}

// Len returns the buffer length.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Released reports whether ownership has been given up.
func (b *Buffer) Released() bool {
	return b.released
}

// Release gives up ownership without freeing: the bytes are pinned until
// Free is called with the returned address. The buffer is unusable afterwards.
func (b *Buffer) Release() (ptr uintptr, length uint32) {
	b.mustOwn()
	b.released = true
	data := b.data
	b.data = nil
	return pin(data), uint32(len(data))
}

// Handoff releases the buffer and publishes it to sink.
func (b *Buffer) Handoff(sink Sink) {
	ptr, length := b.Release()
	sink.Publish(ptr, length)
}

func (b *Buffer) mustOwn() {
	if b.released {
		panic("memory: buffer used after release")
	}
}

var (
	pinnedMu sync.Mutex
	pinned   = make(map[uintptr][]byte)
)

func pin(data []byte) uintptr {
	if cap(data) == 0 {
		data = make([]byte, 0, 1)
	}
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(data)))

	pinnedMu.Lock()
	pinned[ptr] = data
	pinnedMu.Unlock()
	return ptr
}

// Alloc pins a zeroed buffer of size bytes for the host to fill.
func Alloc(size uint32) uintptr {
	return pin(make([]byte, size))
}

// Adopt takes ownership of a pinned buffer back, unpinning it. It returns
// false when ptr was not pinned or holds fewer than size bytes.
func Adopt(ptr uintptr, size uint32) ([]byte, bool) {
	pinnedMu.Lock()
	defer pinnedMu.Unlock()

	data, ok := pinned[ptr]
	if !ok || uint64(len(data)) < uint64(size) {
		return nil, false
	}
	delete(pinned, ptr)
	return data[:size:size], true
}

// Lookup returns the pinned bytes at ptr without changing ownership.
func Lookup(ptr uintptr) ([]byte, bool) {
	pinnedMu.Lock()
	defer pinnedMu.Unlock()

	data, ok := pinned[ptr]
	return data, ok
}

// Free drops a pinned buffer so it can be collected.
func Free(ptr uintptr) bool {
	pinnedMu.Lock()
	defer pinnedMu.Unlock()

	if _, ok := pinned[ptr]; !ok {
		return false
	}
	delete(pinned, ptr)
	return true
}

// Outstanding returns the number of pinned buffers.
func Outstanding() int {
	pinnedMu.Lock()
	defer pinnedMu.Unlock()
	return len(pinned)
}
