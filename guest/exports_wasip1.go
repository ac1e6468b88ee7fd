//go:build wasip1

package guest

import (
	"runtime"
	"unsafe"

	"github.com/wippyai/smartmodule"
	"github.com/wippyai/smartmodule/memory"
)

//go:wasmimport env copy_records
func copyRecords(ptr, length uint32)

type hostSink struct{}

func (hostSink) Publish(ptr uintptr, length uint32) {
	copyRecords(uint32(ptr), length)
}

//go:wasmexport alloc
func alloc(size uint32) uint32 {
	return uint32(memory.Alloc(size))
}

//go:wasmexport dealloc
func dealloc(ptr, size uint32) {
	memory.Free(uintptr(ptr))
}

//go:wasmexport filter
func filter(ptr, length uint32) int32 {
	return invokeAt(smartmodule.KindFilter, ptr, length)
}

//go:wasmexport map
func mapExport(ptr, length uint32) int32 {
	return invokeAt(smartmodule.KindMap, ptr, length)
}

//go:wasmexport filter_map
func filterMap(ptr, length uint32) int32 {
	return invokeAt(smartmodule.KindFilterMap, ptr, length)
}

//go:wasmexport array_map
func arrayMap(ptr, length uint32) int32 {
	return invokeAt(smartmodule.KindArrayMap, ptr, length)
}

//go:wasmexport join
func join(ptr, length uint32) int32 {
	return invokeAt(smartmodule.KindJoin, ptr, length)
}

// invokeAt takes ownership of the request buffer. Memory the host wrote
// without calling alloc is read in place.
//
// The runtime gets no chance to finish a collection between exported calls,
// so one is forced before returning. Pinned buffers survive it.
func invokeAt(kind smartmodule.Kind, ptr, length uint32) int32 {
	input, ok := memory.Adopt(uintptr(ptr), length)
	if !ok {
		input = unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	}
	code := Invoke(kind, input, hostSink{})
	runtime.GC()
	return code
}
