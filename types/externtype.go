package types

import (
	"fmt"
	"strings"

	"github.com/wippyai/wasm-embed/vec"
)

// ExternKind discriminates the closed set of importable and exportable entities.
type ExternKind uint8

const (
	ExternFunc ExternKind = iota
	ExternGlobal
	ExternTable
	ExternMemory
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternGlobal:
		return "global"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	default:
		return fmt.Sprintf("externkind(%d)", uint8(k))
	}
}

// ExternType is the type of an import or export. The family is sealed: the
// only implementations are FuncType, GlobalType, TableType and MemoryType.
//
// The downcast methods return the receiver typed as the requested variant
// when Kind matches, and nil otherwise.
type ExternType interface {
	Kind() ExternKind
	Func() *FuncType
	Global() *GlobalType
	Table() *TableType
	Memory() *MemoryType
	CopyExtern() ExternType
	Delete()
	String() string

	externType()
}

// externHeader carries the discriminant and the default (absent) downcasts.
// Each variant overrides the one downcast that names it.
type externHeader struct {
	kind ExternKind
}

func (h *externHeader) Kind() ExternKind  { return h.kind }
func (*externHeader) Func() *FuncType     { return nil }
func (*externHeader) Global() *GlobalType { return nil }
func (*externHeader) Table() *TableType   { return nil }
func (*externHeader) Memory() *MemoryType { return nil }
func (*externHeader) externType()         {}

// FuncType is a function signature.
type FuncType struct {
	externHeader
	params  vec.Owned[*ValType]
	results vec.Owned[*ValType]
}

// NewFuncType takes ownership of params and results, which are left invalid.
// It returns nil when either vector is invalid.
func NewFuncType(params, results *vec.Owned[*ValType]) *FuncType {
	if !params.Valid() || !results.Valid() {
		return nil
	}
	return &FuncType{
		externHeader: externHeader{kind: ExternFunc},
		params:       params.Move(),
		results:      results.Move(),
	}
}

// FuncTypeOf builds a signature from kinds.
func FuncTypeOf(params, results []ValKind) *FuncType {
	p := kindsToTypes(params)
	r := kindsToTypes(results)
	ft := NewFuncType(&p, &r)
	if ft == nil {
		p.Delete()
		r.Delete()
	}
	return ft
}

func kindsToTypes(kinds []ValKind) vec.Owned[*ValType] {
	v := vec.OwnedUninitialized[*ValType](len(kinds))
	for i, k := range kinds {
		vt := NewValType(k)
		if vt == nil {
			v.Delete()
			return vec.InvalidOwned[*ValType]()
		}
		v.Set(i, vt)
	}
	return v.Move()
}

func (t *FuncType) Func() *FuncType { return t }

// Params returns a non-owning view of the parameter types.
func (t *FuncType) Params() *vec.Owned[*ValType] {
	return &t.params
}

// Results returns a non-owning view of the result types.
func (t *FuncType) Results() *vec.Owned[*ValType] {
	return &t.results
}

// ParamKinds lists the parameter kinds in order.
func (t *FuncType) ParamKinds() []ValKind {
	return typeKinds(&t.params)
}

// ResultKinds lists the result kinds in order.
func (t *FuncType) ResultKinds() []ValKind {
	return typeKinds(&t.results)
}

func typeKinds(v *vec.Owned[*ValType]) []ValKind {
	out := make([]ValKind, v.Len())
	for i, vt := range v.All() {
		out[i] = vt.Kind()
	}
	return out
}

func (t *FuncType) Copy() *FuncType {
	return &FuncType{
		externHeader: t.externHeader,
		params:       t.params.Copy(),
		results:      t.results.Copy(),
	}
}

func (t *FuncType) CopyExtern() ExternType {
	return t.Copy()
}

func (t *FuncType) Delete() {
	t.params.Delete()
	t.results.Delete()
}

// Equal reports whether both signatures have the same parameter and result kinds.
func (t *FuncType) Equal(o *FuncType) bool {
	return sameTypes(&t.params, &o.params) && sameTypes(&t.results, &o.results)
}

func sameTypes(a, b *vec.Owned[*ValType]) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, x := range a.All() {
		if !x.Equal(b.Get(i)) {
			return false
		}
	}
	return true
}

func (t *FuncType) String() string {
	var b strings.Builder
	b.WriteString("func(")
	writeTypes(&b, &t.params)
	b.WriteString(") -> (")
	writeTypes(&b, &t.results)
	b.WriteByte(')')
	return b.String()
}

func writeTypes(b *strings.Builder, v *vec.Owned[*ValType]) {
	for i, vt := range v.All() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(vt.String())
	}
}

// GlobalType is the type of a global variable.
type GlobalType struct {
	externHeader
	content *ValType
	mut     Mutability
}

// NewGlobalType takes ownership of content. It returns nil for a nil content type.
func NewGlobalType(content *ValType, mut Mutability) *GlobalType {
	if content == nil {
		return nil
	}
	return &GlobalType{
		externHeader: externHeader{kind: ExternGlobal},
		content:      content,
		mut:          mut,
	}
}

func (t *GlobalType) Global() *GlobalType { return t }

// Content returns a non-owning view of the value type.
func (t *GlobalType) Content() *ValType {
	return t.content
}

func (t *GlobalType) Mutability() Mutability {
	return t.mut
}

func (t *GlobalType) Copy() *GlobalType {
	return &GlobalType{
		externHeader: t.externHeader,
		content:      t.content.Copy(),
		mut:          t.mut,
	}
}

func (t *GlobalType) CopyExtern() ExternType {
	return t.Copy()
}

func (t *GlobalType) Delete() {
	if t.content != nil {
		t.content.Delete()
		t.content = nil
	}
}

func (t *GlobalType) String() string {
	return fmt.Sprintf("global %s %s", t.mut, t.content)
}

// TableType is the type of a table.
type TableType struct {
	externHeader
	element *ValType
	limits  Limits
}

// NewTableType takes ownership of element. Tables hold references, so it
// returns nil unless element is a reference type.
func NewTableType(element *ValType, limits Limits) *TableType {
	if element == nil || !element.IsRef() {
		return nil
	}
	return &TableType{
		externHeader: externHeader{kind: ExternTable},
		element:      element,
		limits:       limits,
	}
}

func (t *TableType) Table() *TableType { return t }

// Element returns a non-owning view of the element type.
func (t *TableType) Element() *ValType {
	return t.element
}

func (t *TableType) Limits() Limits {
	return t.limits
}

func (t *TableType) Copy() *TableType {
	return &TableType{
		externHeader: t.externHeader,
		element:      t.element.Copy(),
		limits:       t.limits,
	}
}

func (t *TableType) CopyExtern() ExternType {
	return t.Copy()
}

func (t *TableType) Delete() {
	if t.element != nil {
		t.element.Delete()
		t.element = nil
	}
}

func (t *TableType) String() string {
	return fmt.Sprintf("table %s %s", t.limits, t.element)
}

// MemoryType is the type of a linear memory. Limits are in pages.
type MemoryType struct {
	externHeader
	limits Limits
}

func NewMemoryType(limits Limits) *MemoryType {
	return &MemoryType{
		externHeader: externHeader{kind: ExternMemory},
		limits:       limits,
	}
}

func (t *MemoryType) Memory() *MemoryType { return t }

func (t *MemoryType) Limits() Limits {
	return t.limits
}

func (t *MemoryType) Copy() *MemoryType {
	return &MemoryType{externHeader: t.externHeader, limits: t.limits}
}

func (t *MemoryType) CopyExtern() ExternType {
	return t.Copy()
}

func (t *MemoryType) Delete() {}

func (t *MemoryType) String() string {
	return fmt.Sprintf("memory %s", t.limits)
}

// ExternPolicy stores owned ExternType handles of any variant.
type ExternPolicy struct{}

func (ExternPolicy) Construct(data []ExternType) {
	clear(data)
}

func (ExternPolicy) Destruct(data []ExternType) {
	for i := range data {
		if data[i] != nil {
			data[i].Delete()
			data[i] = nil
		}
	}
}

func (ExternPolicy) Move(dst, src []ExternType) {
	for i := range dst {
		dst[i], src[i] = src[i], nil
	}
}

func (ExternPolicy) Copy(dst, src []ExternType) {
	for i := range dst {
		if src[i] != nil {
			dst[i] = src[i].CopyExtern()
		} else {
			dst[i] = nil
		}
	}
}

// ExternTypes is a vector of owned extern types.
type ExternTypes = vec.Vec[ExternType, ExternPolicy]

// AsExternTypes moves a vector of one concrete variant into an ExternTypes.
func AsExternTypes[U interface {
	ExternType
	vec.Object[U]
}](from *vec.Owned[U]) ExternTypes {
	return vec.Convert[ExternType, ExternPolicy](from)
}
