// Package wasmbuild assembles small core WebAssembly modules. It covers the
// subset needed to stand in for SmartModule guests in tests: function
// imports and exports, one memory, constant data segments and a handful of
// instructions.
package wasmbuild

const (
	magic   uint32 = 0x6d736100
	version uint32 = 1

	sectionType     byte = 1
	sectionImport   byte = 2
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionExport   byte = 7
	sectionCode     byte = 10
	sectionData     byte = 11

	kindFunc   byte = 0
	kindMemory byte = 2

	funcTypeByte byte = 0x60
)

// ValType is a core value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
)

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

type funcImport struct {
	module  string
	name    string
	typeIdx uint32
}

type function struct {
	export  string
	body    []byte
	typeIdx uint32
}

type segment struct {
	data   []byte
	offset uint32
}

// Module is a module under construction.
type Module struct {
	memExport string
	types     []FuncType
	imports   []funcImport
	funcs     []function
	data      []segment
	memPages  uint32
	hasMemory bool
}

// New starts an empty module.
func New() *Module {
	return &Module{}
}

// ImportFunc declares a function import and returns its function index.
// Imports must be declared before any function is defined.
func (m *Module) ImportFunc(module, name string, sig FuncType) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmbuild: imports must precede defined functions")
	}
	m.imports = append(m.imports, funcImport{module: module, name: name, typeIdx: m.typeIndex(sig)})
	return uint32(len(m.imports) - 1)
}

// Func defines a function and returns its index. A non-empty export name
// exports it.
func (m *Module) Func(export string, sig FuncType, code *Code) uint32 {
	m.funcs = append(m.funcs, function{export: export, body: code.body(), typeIdx: m.typeIndex(sig)})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// Memory defines memory 0 with the given minimum page count. A non-empty
// export name exports it.
func (m *Module) Memory(pages uint32, export string) *Module {
	m.hasMemory = true
	m.memPages = pages
	m.memExport = export
	return m
}

// Data places bytes at a fixed address of memory 0.
func (m *Module) Data(offset uint32, data []byte) *Module {
	m.data = append(m.data, segment{offset: offset, data: data})
	return m
}

func (m *Module) typeIndex(sig FuncType) uint32 {
	for i, t := range m.types {
		if sameTypes(t.Params, sig.Params) && sameTypes(t.Results, sig.Results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, sig)
	return uint32(len(m.types) - 1)
}

func sameTypes(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Encode returns the binary form of the module.
func (m *Module) Encode() []byte {
	w := &writer{}
	w.u32le(magic)
	w.u32le(version)

	if len(m.types) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.types)))
		for _, t := range m.types {
			sec.byte(funcTypeByte)
			writeValTypes(sec, t.Params)
			writeValTypes(sec, t.Results)
		}
		writeSection(w, sectionType, sec)
	}

	if len(m.imports) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.imports)))
		for _, imp := range m.imports {
			sec.name(imp.module)
			sec.name(imp.name)
			sec.byte(kindFunc)
			sec.u32(imp.typeIdx)
		}
		writeSection(w, sectionImport, sec)
	}

	if len(m.funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.funcs)))
		for _, fn := range m.funcs {
			sec.u32(fn.typeIdx)
		}
		writeSection(w, sectionFunction, sec)
	}

	if m.hasMemory {
		sec := &writer{}
		sec.u32(1)
		sec.byte(0x00) // min only
		sec.u32(m.memPages)
		writeSection(w, sectionMemory, sec)
	}

	exports := &writer{}
	count := uint32(0)
	if m.hasMemory && m.memExport != "" {
		exports.name(m.memExport)
		exports.byte(kindMemory)
		exports.u32(0)
		count++
	}
	for i, fn := range m.funcs {
		if fn.export == "" {
			continue
		}
		exports.name(fn.export)
		exports.byte(kindFunc)
		exports.u32(uint32(len(m.imports) + i))
		count++
	}
	if count > 0 {
		sec := &writer{}
		sec.u32(count)
		sec.raw(exports.bytes())
		writeSection(w, sectionExport, sec)
	}

	if len(m.funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.funcs)))
		for _, fn := range m.funcs {
			sec.vec(fn.body)
		}
		writeSection(w, sectionCode, sec)
	}

	if len(m.data) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.data)))
		for _, seg := range m.data {
			sec.byte(0x00) // active, memory 0
			sec.byte(opI32Const)
			sec.s64(int64(int32(seg.offset)))
			sec.byte(opEnd)
			sec.vec(seg.data)
		}
		writeSection(w, sectionData, sec)
	}

	return w.bytes()
}

func writeValTypes(w *writer, types []ValType) {
	w.u32(uint32(len(types)))
	for _, t := range types {
		w.byte(byte(t))
	}
}

func writeSection(w *writer, id byte, sec *writer) {
	w.byte(id)
	w.vec(sec.bytes())
}
