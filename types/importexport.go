package types

import (
	"fmt"

	"github.com/wippyai/wasm-embed/vec"
)

// Name is a UTF-8 byte string naming a module or an import/export.
type Name = vec.Bytes

// ImportType describes one import of a module.
type ImportType struct {
	module Name
	name   Name
	typ    ExternType
}

// NewImportType takes ownership of module, name and typ. It returns nil when
// a name is invalid or typ is nil.
func NewImportType(module, name *Name, typ ExternType) *ImportType {
	if !module.Valid() || !name.Valid() || typ == nil {
		return nil
	}
	return &ImportType{module: module.Move(), name: name.Move(), typ: typ}
}

// ImportOf is NewImportType for Go strings.
func ImportOf(module, name string, typ ExternType) *ImportType {
	m, n := vec.FromString(module), vec.FromString(name)
	return NewImportType(&m, &n, typ)
}

// Module returns a non-owning view of the module name.
func (t *ImportType) Module() *Name {
	return &t.module
}

// Name returns a non-owning view of the import name.
func (t *ImportType) Name() *Name {
	return &t.name
}

// Type returns a non-owning view of the import's type.
func (t *ImportType) Type() ExternType {
	return t.typ
}

func (t *ImportType) Copy() *ImportType {
	return &ImportType{
		module: t.module.Copy(),
		name:   t.name.Copy(),
		typ:    t.typ.CopyExtern(),
	}
}

func (t *ImportType) Delete() {
	t.module.Delete()
	t.name.Delete()
	if t.typ != nil {
		t.typ.Delete()
		t.typ = nil
	}
}

func (t *ImportType) String() string {
	return fmt.Sprintf("%s.%s: %s", vec.String(&t.module), vec.String(&t.name), t.typ)
}

// ExportType describes one export of a module.
type ExportType struct {
	name Name
	typ  ExternType
}

// NewExportType takes ownership of name and typ. It returns nil when name is
// invalid or typ is nil.
func NewExportType(name *Name, typ ExternType) *ExportType {
	if !name.Valid() || typ == nil {
		return nil
	}
	return &ExportType{name: name.Move(), typ: typ}
}

// ExportOf is NewExportType for a Go string.
func ExportOf(name string, typ ExternType) *ExportType {
	n := vec.FromString(name)
	return NewExportType(&n, typ)
}

// Name returns a non-owning view of the export name.
func (t *ExportType) Name() *Name {
	return &t.name
}

// Type returns a non-owning view of the export's type.
func (t *ExportType) Type() ExternType {
	return t.typ
}

func (t *ExportType) Copy() *ExportType {
	return &ExportType{name: t.name.Copy(), typ: t.typ.CopyExtern()}
}

func (t *ExportType) Delete() {
	t.name.Delete()
	if t.typ != nil {
		t.typ.Delete()
		t.typ = nil
	}
}

func (t *ExportType) String() string {
	return fmt.Sprintf("%s: %s", vec.String(&t.name), t.typ)
}
