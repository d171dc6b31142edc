package runtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-embed/engine"
	"github.com/wippyai/wasm-embed/errors"
	"github.com/wippyai/wasm-embed/resource"
)

// Config collects engine settings before an Engine is created.
type Config struct {
	engine.Config
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{Config: engine.DefaultConfig()}
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	cfg, err := engine.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &Config{Config: *cfg}, nil
}

// Delete resets the configuration. NewEngine deletes the config it consumes.
func (c *Config) Delete() {
	c.Config = engine.Config{}
}

// Engine compiles modules. It is safe for concurrent use.
type Engine struct {
	wazero *engine.WazeroEngine
}

// NewEngine creates an engine from cfg, then applies command line style
// args on top of it (see engine.ParseArgs). cfg may be nil and is consumed.
func NewEngine(ctx context.Context, args []string, cfg *Config) (*Engine, error) {
	var base *engine.Config
	if cfg != nil {
		c := cfg.Config
		base = &c
		cfg.Delete()
	}

	parsed, err := engine.ParseArgs(args, base)
	if err != nil {
		return nil, err
	}

	w, err := engine.NewWazeroEngineWithConfig(ctx, parsed)
	if err != nil {
		return nil, err
	}
	return &Engine{wazero: w}, nil
}

// Config returns the settings the engine runs with.
func (e *Engine) Config() engine.Config {
	return e.wazero.Config()
}

// Delete closes the engine and every instance created through it.
func (e *Engine) Delete(ctx context.Context) error {
	return e.wazero.Close(ctx)
}

// Store owns runtime objects. Every live handle is registered in the store's
// resource table, so leaks can be observed with LiveRefs or Subscribe.
//
// References handed to wasm as externref are pinned: the store keeps its
// own handle to them until Unpin or Delete, so their finalizers do not run
// before then. Long-lived stores that pass many distinct references should
// Unpin those wasm no longer holds.
type Store struct {
	engine  *Engine
	refs    *resource.Table
	objects map[*object]struct{}
	pinned  map[*object]resource.Handle
	mu      sync.Mutex
	closed  bool
}

// NewStore creates an empty store on e.
func NewStore(e *Engine) *Store {
	return &Store{
		engine:  e,
		refs:    resource.NewTable(),
		objects: make(map[*object]struct{}),
		pinned:  make(map[*object]resource.Handle),
	}
}

// Engine returns the engine the store was created on.
func (s *Store) Engine() *Engine {
	return s.engine
}

// LiveRefs returns the number of handles not yet deleted, excluding the
// store's own pins.
func (s *Store) LiveRefs() int {
	s.mu.Lock()
	pinned := len(s.pinned)
	s.mu.Unlock()
	return s.refs.Len() - pinned
}

// Subscribe reports handle creation and deletion to o.
func (s *Store) Subscribe(o resource.Observer) {
	s.refs.Subscribe(o)
}

// Unsubscribe removes an observer added with Subscribe.
func (s *Store) Unsubscribe(o resource.Observer) {
	s.refs.Unsubscribe(o)
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) checkOpen(phase errors.Phase) error {
	if s.isClosed() {
		return errors.Closed(phase, "store")
	}
	return nil
}

func (s *Store) track(obj *object) {
	s.mu.Lock()
	s.objects[obj] = struct{}{}
	s.mu.Unlock()
}

func (s *Store) untrack(obj *object) {
	s.mu.Lock()
	delete(s.objects, obj)
	delete(s.pinned, obj)
	s.mu.Unlock()
}

// pin returns a table handle for r that stays valid until r is unpinned or
// the store is deleted.
func (s *Store) pin(r Ref) resource.Handle {
	obj := r.header().obj
	s.mu.Lock()
	h, ok := s.pinned[obj]
	s.mu.Unlock()
	if ok {
		return h
	}

	c := r.CopyRef()
	h = c.header().handle
	s.mu.Lock()
	s.pinned[obj] = h
	s.mu.Unlock()
	return h
}

// resolve returns a new handle to the object pinned under h, or nil. A
// handle id reused after Unpin does not resolve.
func (s *Store) resolve(h resource.Handle) Ref {
	if h == 0 {
		return nil
	}
	v, ok := s.refs.Get(h)
	if !ok {
		return nil
	}
	r := v.(Ref)
	s.mu.Lock()
	pinned := s.pinned[r.header().obj] == h
	s.mu.Unlock()
	if !pinned {
		return nil
	}
	return r.CopyRef()
}

// Unpin drops the handle the store took when r was passed to wasm. Wasm
// must no longer hold the reference: an unpinned externref reads back as
// null. It reports whether r was pinned.
func (s *Store) Unpin(r Ref) bool {
	if r == nil {
		return false
	}
	obj := r.header().live()
	s.mu.Lock()
	h, ok := s.pinned[obj]
	delete(s.pinned, obj)
	s.mu.Unlock()
	if !ok {
		return false
	}
	if v, ok := s.refs.Get(h); ok {
		v.(Ref).Delete()
	}
	return true
}

// Delete finalizes every object in the store. Handles that outlive the
// store may still be deleted but must not be used otherwise.
func (s *Store) Delete(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	objects := make([]*object, 0, len(s.objects))
	for obj := range s.objects {
		objects = append(objects, obj)
	}
	s.mu.Unlock()

	for _, obj := range objects {
		obj.finalize(ctx)
	}
	Logger().Debug("store deleted", zap.Int("objects", len(objects)), zap.Int("handles", s.refs.Len()))
	s.refs.Clear()
	return s.refs.Close()
}
