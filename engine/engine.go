// Package engine implements the single handle named in SPEC_FULL.md
// §4.11 (design note "Global mutable state"): it owns the three
// process-wide counters (value index, sequence index, unique-name
// registry) plus the Dispatcher/ThreadManager singletons for one running
// graph, and exposes the Builder/Build() split the teacher's builder.go/
// streams.go use for assembling a topology before running it.
package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/opticalp/instrumentall/config"
	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/ierr"
	"github.com/opticalp/instrumentall/ilog"
	"github.com/opticalp/instrumentall/internal/httpserver"
	"github.com/opticalp/instrumentall/module"
	"github.com/opticalp/instrumentall/param"
	"github.com/opticalp/instrumentall/proxy"
	"github.com/opticalp/instrumentall/threadmanager"
)

// Engine owns one running graph: its Dispatcher, its ThreadManager, the
// process-wide value-index/sequence-index counters attribute.Attribute
// draws from, and the name registry construction uses to reject
// duplicate module/proxy/logger names before the dispatcher even sees
// them.
type Engine struct {
	Dispatcher *dispatcher.Dispatcher
	Threads    *threadmanager.Manager
	Config     config.Config
	Log        ilog.Logger

	valueIndex atomic.Uint64
	seqIndex   atomic.Uint64

	namesMu sync.Mutex
	names   map[string]struct{}

	modulesMu sync.Mutex
	modules   map[string]*module.Module

	server *httpserver.Server
}

// New creates an Engine with a fresh Dispatcher and a ThreadManager sized
// poolSize (<=0 uses hardware parallelism).
func New(cfg config.Config, log ilog.Logger, poolSize int) *Engine {
	return &Engine{
		Dispatcher: dispatcher.New(),
		Threads:    threadmanager.New(poolSize),
		Config:     cfg,
		Log:        log,
		names:      make(map[string]struct{}),
		modules:    make(map[string]*module.Module),
	}
}

// NextValueIndex draws the next process-wide value index, for
// attribute.Attribute.AddIndex.
func (e *Engine) NextValueIndex() uint64 { return e.valueIndex.Add(1) }

// NextSequenceIndex draws the next process-wide sequence id, for
// attribute.Attribute.StartSequence.
func (e *Engine) NextSequenceIndex() uint64 { return e.seqIndex.Add(1) }

// reserveName registers name in the unique-name registry, failing if
// already taken.
func (e *Engine) reserveName(name string) error {
	e.namesMu.Lock()
	defer e.namesMu.Unlock()
	if _, exists := e.names[name]; exists {
		return ierr.ErrNameConflict
	}
	e.names[name] = struct{}{}
	return nil
}

// NewModule constructs and registers a module under name, resolving any
// parameter defaults configured via "module.<name>.<param>" once
// construct has added them.
func (e *Engine) NewModule(name, displayName string, paramsImmediate bool, process module.ProcessFunc, construct func(m *module.Module)) (*module.Module, error) {
	if err := e.reserveName(name); err != nil {
		return nil, err
	}

	m := module.New(name, displayName, e.Dispatcher, e.Threads, e.Log, process, paramsImmediate)
	if construct != nil {
		construct(m)
	}
	e.resolveParamDefaults(name, m)

	e.modulesMu.Lock()
	e.modules[name] = m
	e.modulesMu.Unlock()

	return m, nil
}

// resolveParamDefaults overrides each parameter's default with a
// configuration-supplied value, per spec.md §6's
// "module.<module-name>.<param-name>" hierarchical lookup hook.
func (e *Engine) resolveParamDefaults(name string, m *module.Module) {
	for _, p := range m.Params().List() {
		if !e.Config.IsSet("module", name, p.Name()) {
			continue
		}
		cfg := e.Config.ModuleParam(name, p.Name())
		v, err := param.FromConfigString(p.Kind(), cfg.String(""))
		if err != nil {
			continue
		}
		p.Set(v)
		p.TryApply()
	}
}

// Module looks up a previously constructed module by name.
func (e *Engine) Module(name string) (*module.Module, bool) {
	e.modulesMu.Lock()
	defer e.modulesMu.Unlock()
	m, ok := e.modules[name]
	return m, ok
}

// Modules returns a stable snapshot of every registered module.
func (e *Engine) Modules() []*module.Module {
	e.modulesMu.Lock()
	defer e.modulesMu.Unlock()
	out := make([]*module.Module, 0, len(e.modules))
	for _, m := range e.modules {
		out = append(out, m)
	}
	return out
}

// NewProxy constructs and registers a data proxy under name.
func (e *Engine) NewProxy(name string, convert proxy.Converter) (*proxy.Proxy, error) {
	if err := e.reserveName(name); err != nil {
		return nil, err
	}
	return proxy.New(name, e.Dispatcher, convert)
}

// CancelAll requests immediate cancellation of every registered module
// and waits for the thread pool to drain.
func (e *Engine) CancelAll() {
	for _, m := range e.Modules() {
		m.ImmediateCancel()
	}
	e.Threads.CancelAll()
}

// WaitAll blocks until every currently running task has finished.
func (e *Engine) WaitAll() { e.Threads.WaitAll() }

// ListenHTTP starts the introspection HTTP server on addr (see
// SPEC_FULL.md §6: /status, /graph.dot) and blocks serving requests until
// CloseHTTP is called from another goroutine.
func (e *Engine) ListenHTTP(addr string) error {
	e.server = httpserver.New(httpserver.Config{Addr: addr})
	e.registerIntrospection(e.server)
	return e.server.Start()
}

// CloseHTTP stops the introspection HTTP server, if running.
func (e *Engine) CloseHTTP(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Close(ctx)
}
