package runtime

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/resource"
)

// RefKind discriminates the owning reference hierarchy.
type RefKind uint8

const (
	RefModule RefKind = iota
	RefForeign
	RefExtern
	RefInstance
)

func (k RefKind) String() string {
	switch k {
	case RefModule:
		return "module"
	case RefForeign:
		return "foreign"
	case RefExtern:
		return "extern"
	case RefInstance:
		return "instance"
	default:
		return fmt.Sprintf("refkind(%d)", uint8(k))
	}
}

// Ref is an owning handle to a store object. The family is sealed: the only
// implementations are *Module, *Foreign, *Instance and the Extern variants.
//
// A handle has exactly one owner, who must Delete it once. CopyRef returns a
// new handle to the same object; the object's finalizers run when its last
// handle is deleted. Deleting a handle twice panics.
type Ref interface {
	RefKind() RefKind
	Module() *Module
	Foreign() *Foreign
	Extern() Extern
	Instance() *Instance
	CopyRef() Ref
	Delete()
	Store() *Store
	HostInfo() any
	SetHostInfo(info any, finalizer func(any))
	Same(other Ref) bool

	header() *refHeader
}

// object is the state shared by every handle to one store object.
type object struct {
	store     *Store
	hostInfo  any
	finalizer func(any)
	cleanups  []func(context.Context)
	refs      int
	mu        sync.Mutex
	done      sync.Once
}

func (s *Store) newObject() *object {
	obj := &object{store: s}
	s.track(obj)
	return obj
}

// onFinalize registers engine-side cleanup, run after the host info finalizer.
func (o *object) onFinalize(fn func(context.Context)) {
	o.mu.Lock()
	o.cleanups = append(o.cleanups, fn)
	o.mu.Unlock()
}

func (o *object) retain() {
	o.mu.Lock()
	o.refs++
	o.mu.Unlock()
}

func (o *object) release() {
	o.mu.Lock()
	o.refs--
	last := o.refs == 0
	o.mu.Unlock()
	if last {
		o.finalize(context.Background())
	}
}

func (o *object) finalize(ctx context.Context) {
	o.done.Do(func() {
		o.mu.Lock()
		info, fin, cleanups := o.hostInfo, o.finalizer, o.cleanups
		o.hostInfo, o.finalizer, o.cleanups = nil, nil, nil
		o.mu.Unlock()

		if fin != nil {
			fin(info)
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i](ctx)
		}
		o.store.untrack(o)
	})
}

// refHeader is embedded in every handle. It carries the discriminant, the
// shared object and the handle's entry in the store table, and supplies the
// default (absent) downcasts.
type refHeader struct {
	obj    *object
	handle resource.Handle
	kind   RefKind
}

// attach binds a fresh handle to obj and registers it in the store table.
func (h *refHeader) attach(kind RefKind, obj *object, self Ref) {
	h.kind = kind
	h.obj = obj
	obj.retain()
	h.handle = obj.store.refs.Insert(resource.Kind(kind), self)
	Logger().Debug("ref created", zap.Stringer("kind", kind), zap.Uint32("handle", uint32(h.handle)))
}

func (h *refHeader) header() *refHeader { return h }
func (h *refHeader) RefKind() RefKind   { return h.kind }
func (*refHeader) Module() *Module      { return nil }
func (*refHeader) Foreign() *Foreign    { return nil }
func (*refHeader) Extern() Extern       { return nil }
func (*refHeader) Instance() *Instance  { return nil }

// Store returns the store the object belongs to.
func (h *refHeader) Store() *Store {
	return h.live().store
}

func (h *refHeader) live() *object {
	if h.obj == nil {
		panic("runtime: use of deleted reference")
	}
	return h.obj
}

// Delete releases the handle. The object is finalized when this was its
// last handle. Handles outliving their store may still be deleted.
func (h *refHeader) Delete() {
	obj := h.live()
	h.obj = nil
	if obj.store.isClosed() {
		return
	}
	obj.store.refs.Remove(h.handle)
	Logger().Debug("ref deleted", zap.Stringer("kind", h.kind), zap.Uint32("handle", uint32(h.handle)))
	h.handle = 0
	obj.release()
}

// HostInfo returns the value attached with SetHostInfo, shared by all
// handles to the object.
func (h *refHeader) HostInfo() any {
	obj := h.live()
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.hostInfo
}

// SetHostInfo attaches info to the object. finalizer, if not nil, is called
// with info when the object is finalized. A previous value is replaced
// without running its finalizer.
func (h *refHeader) SetHostInfo(info any, finalizer func(any)) {
	obj := h.live()
	obj.mu.Lock()
	obj.hostInfo = info
	obj.finalizer = finalizer
	obj.mu.Unlock()
}

// Same reports whether other refers to the same object.
func (h *refHeader) Same(other Ref) bool {
	if other == nil || h.obj == nil {
		return false
	}
	return h.obj == other.header().obj
}
