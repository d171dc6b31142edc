package runtime

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/types"
	"github.com/wippyai/wasm-embed/vec"
)

const (
	serialMagic   = "wasm-embed/module"
	serialVersion = 1
)

// serializedModule is the CBOR envelope written by Serialize.
type serializedModule struct {
	_       struct{} `cbor:",toarray"`
	Magic   string
	Binary  []byte
	Version uint
	Digest  uint64
}

// Module is a handle to a validated, compiled module.
type Module struct {
	refHeader
	m *engine.WazeroModule
}

func newModuleHandle(obj *object, m *engine.WazeroModule) *Module {
	h := &Module{m: m}
	h.attach(RefModule, obj, h)
	return h
}

// ValidateModule reports whether binary is a module the store's engine
// accepts.
func ValidateModule(ctx context.Context, store *Store, binary *vec.Bytes) bool {
	if store.isClosed() || binary == nil || !binary.Valid() {
		return false
	}
	return store.engine.wazero.Validate(ctx, binary.Data()) == nil
}

// NewModule compiles binary, which is borrowed.
func NewModule(ctx context.Context, store *Store, binary *vec.Bytes) (*Module, error) {
	if err := store.checkOpen(errors.PhaseLoad); err != nil {
		return nil, err
	}
	if binary == nil || !binary.Valid() {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module binary is invalid")
	}

	compiled, err := store.engine.wazero.Compile(ctx, binary.Data())
	if err != nil {
		return nil, err
	}

	obj := store.newObject()
	obj.onFinalize(func(ctx context.Context) {
		if err := compiled.Close(ctx); err != nil {
			Logger().Warn("close compiled module", zap.Error(err))
		}
	})
	return newModuleHandle(obj, compiled), nil
}

func (m *Module) Module() *Module { return m }

// Copy returns a new handle to the same module.
func (m *Module) Copy() *Module {
	return newModuleHandle(m.live(), m.m)
}

func (m *Module) CopyRef() Ref { return m.Copy() }

// Imports returns the module's imports in declaration order.
func (m *Module) Imports() vec.Owned[*types.ImportType] {
	m.live()
	decoded := m.m.Decoded()
	out := vec.OwnedUninitialized[*types.ImportType](len(decoded.Imports))
	for i := range decoded.Imports {
		imp := &decoded.Imports[i]
		out.Set(i, types.ImportOf(imp.Module, imp.Name, importTypeOf(decoded, imp)))
	}
	return out.Move()
}

// Exports returns the module's exports in declaration order.
func (m *Module) Exports() vec.Owned[*types.ExportType] {
	m.live()
	decoded := m.m.Decoded()
	out := vec.OwnedUninitialized[*types.ExportType](len(decoded.Exports))
	for i := range decoded.Exports {
		exp := &decoded.Exports[i]
		out.Set(i, types.ExportOf(exp.Name, exportTypeOf(decoded, exp)))
	}
	return out.Move()
}

// Serialize encodes the module for DeserializeModule. The result is invalid
// if encoding fails.
func (m *Module) Serialize() vec.Bytes {
	m.live()
	binary := m.m.Binary()
	data, err := cbor.Marshal(serializedModule{
		Magic:   serialMagic,
		Version: serialVersion,
		Digest:  xxhash.Sum64(binary),
		Binary:  binary,
	})
	if err != nil {
		Logger().Warn("serialize module", zap.Error(err))
		return vec.InvalidValues[byte]()
	}
	return vec.AdoptValues(data)
}

// DeserializeModule decodes the output of Serialize and compiles it.
func DeserializeModule(ctx context.Context, store *Store, data *vec.Bytes) (*Module, error) {
	if data == nil || !data.Valid() {
		return nil, errors.InvalidInput(errors.PhaseSerialize, "serialized module is invalid")
	}

	var s serializedModule
	if err := cbor.Unmarshal(data.Data(), &s); err != nil {
		return nil, errors.Wrap(errors.PhaseSerialize, errors.KindInvalidData, err, "decode serialized module")
	}
	if s.Magic != serialMagic {
		return nil, errors.InvalidData(errors.PhaseSerialize, []string{"magic"}, "not a serialized module")
	}
	if s.Version != serialVersion {
		return nil, errors.New(errors.PhaseSerialize, errors.KindUnsupported).
			Value(s.Version).
			Detail("serialized module version %d", s.Version).
			Build()
	}
	if sum := xxhash.Sum64(s.Binary); sum != s.Digest {
		return nil, errors.New(errors.PhaseSerialize, errors.KindDigestMismatch).
			Detail("digest %016x, want %016x", sum, s.Digest).
			Build()
	}

	binary := vec.AdoptValues(s.Binary)
	return NewModule(ctx, store, &binary)
}
