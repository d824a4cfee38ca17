// Package module implements the Module named in spec.md §4.6: a
// parameter owner + port user + per-instance task queue + cancel/reset
// state machine, and the §5 scheduling contract ("at most one task per
// module holds output locks at a time").
//
// Grounded on original_source/src/Module.cpp/.h (enqueueTask/popTask,
// startCondition computation, immediateCancel/lazyCancel/reset) and the
// teacher's Node (a named wrapper around one Processor, generalized here
// to a named wrapper around many ports/parameters and a user process
// function). Uses package task for the per-invocation state machine,
// package threadmanager for execution, package dispatcher for output
// fan-out, and package param for the parameter set.
package module

import (
	"sync"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
	"github.com/opticalp/instrumentall/ilog"
	"github.com/opticalp/instrumentall/param"
	"github.com/opticalp/instrumentall/port"
	"github.com/opticalp/instrumentall/task"
	"github.com/opticalp/instrumentall/threadmanager"
)

// ProcessFunc is a module author's process(startCond) implementation
// (spec.md §4.6). rc exposes the cooperative helpers (sleep/yield/
// is-cancelled/set-progress) that used to hang off a thread-local
// "current task".
type ProcessFunc func(rc *task.RunContext, startCond StartCondition) error

// Module is a parameter owner + port user + per-instance task queue +
// cancel/reset state machine.
type Module struct {
	name        string
	displayName string

	dispatcher *dispatcher.Dispatcher
	threads    *threadmanager.Manager
	log        ilog.Logger

	process ProcessFunc
	// CancelFunc is the module author's cancel() hook, invoked by both
	// ImmediateCancel and LazyCancel before downstream propagation.
	CancelFunc func()

	inPorts  []*port.InPort
	outPorts []*port.OutPort
	params   *param.Set

	mu         sync.Mutex
	queue      []*task.Task
	dispatching bool
	current    *task.Task
	cancelling bool
}

// New creates a module bound to d and tm, with an empty port/parameter
// set. process is invoked once per dispatched task.
func New(name, displayName string, d *dispatcher.Dispatcher, tm *threadmanager.Manager, log ilog.Logger, process ProcessFunc, paramsImmediate bool) *Module {
	return &Module{
		name:        name,
		displayName: displayName,
		dispatcher:  d,
		threads:     tm,
		log:         log,
		process:     process,
		params:      param.NewSet(paramsImmediate),
	}
}

func (m *Module) Name() string        { return m.name }
func (m *Module) DisplayName() string { return m.displayName }
func (m *Module) Params() *param.Set  { return m.params }

// QueueLen reports how many tasks are currently queued behind the task
// in flight, for status introspection.
func (m *Module) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// InPorts/OutPorts return stable snapshots of the module's ports, in
// declaration order.
func (m *Module) InPorts() []*port.InPort {
	out := make([]*port.InPort, len(m.inPorts))
	copy(out, m.inPorts)
	return out
}

func (m *Module) OutPorts() []*port.OutPort {
	out := make([]*port.OutPort, len(m.outPorts))
	copy(out, m.outPorts)
	return out
}

// AddInPort declares a typed in-port (spec.md §6 add-in-port).
func (m *Module) AddInPort(name, desc string, t cell.Type, vector bool) (*port.InPort, error) {
	p := port.NewInPort(port.Base{Name: name, Desc: desc, Index: len(m.inPorts), ModuleName: m.name}, t, vector)
	return m.addInPort(p)
}

// AddTrigPort declares a trig-port: an in-port that accepts any type and
// only uses the attribute (spec.md §6 add-trig-port).
func (m *Module) AddTrigPort(name, desc string) (*port.InPort, error) {
	p := port.NewTrigPort(port.Base{Name: name, Desc: desc, Index: len(m.inPorts), ModuleName: m.name})
	return m.addInPort(p)
}

func (m *Module) addInPort(p *port.InPort) (*port.InPort, error) {
	id := dispatcher.HandleID(m.name, p.Name)
	if !m.dispatcher.RegisterHandle(id) {
		return nil, ierr.ErrNameConflict
	}
	p.Target.CancelHook = m.onUpstreamCancel
	m.inPorts = append(m.inPorts, p)
	return p, nil
}

// AddOutPort declares a typed out-port (spec.md §6 add-out-port).
func (m *Module) AddOutPort(name, desc string, t cell.Type, vector bool) (*port.OutPort, error) {
	p := port.NewOutPort(port.Base{Name: name, Desc: desc, Index: len(m.outPorts), ModuleName: m.name}, t, vector)
	id := dispatcher.HandleID(m.name, p.Name)
	if !m.dispatcher.RegisterHandle(id) {
		return nil, ierr.ErrNameConflict
	}
	p.Source.CancelHook = m.onDownstreamCancel
	m.outPorts = append(m.outPorts, p)
	return p, nil
}

// AddParameter declares a parameter (spec.md §6 add-parameter).
func (m *Module) AddParameter(name, desc string, kind param.Kind, def param.Value) *param.Parameter {
	p := param.New(len(m.params.List()), name, desc, kind, def)
	m.params.Add(p)
	return p
}

// AddParameterGetter wires p as a ParameterGetter Source: the module's
// process can publish p's current value across the graph.
func (m *Module) AddParameterGetter(p *param.Parameter) *param.Getter {
	g := param.NewGetter(p)
	p.Getter = g
	return g
}

// AddParameterSetter wires p as a ParameterSetter Target: upstream
// publishes overwrite p, via BindParameterSetter.
func (m *Module) AddParameterSetter(p *param.Parameter) *param.Setter {
	s := param.NewSetter(p)
	p.Setter = s
	s.Target.CancelHook = m.onUpstreamCancel
	return s
}

// Bind connects out to one of this module's in-ports, wiring this
// module's enqueue-on-ready callback and the parallel sequence edge.
func (m *Module) Bind(out *port.OutPort, in *port.InPort) {
	m.BindSource(out.Source, in)
	m.dispatcher.SeqBind(out.SeqSource, in.SeqTarget)
}

// BindSource connects an arbitrary Source — a data proxy's output, a
// parameter getter, anything that isn't a module's own out-port — to one
// of this module's in-ports. Bind is the out-port-typed convenience built
// on top of this.
func (m *Module) BindSource(src *endpoint.Source, in *port.InPort) {
	m.dispatcher.Bind(src, in.Target, m.onInPortReady(in))
}

// BindParameterSetter connects out to p's setter (p must have been
// wired via AddParameterSetter).
func (m *Module) BindParameterSetter(out *endpoint.Source, p *param.Parameter) error {
	if p.Setter == nil {
		return ierr.ErrInvalidState
	}
	m.dispatcher.Bind(out, p.Setter.Target, m.onSetterReady(p.Name(), p.Setter))
	return nil
}

func (m *Module) onInPortReady(p *port.InPort) func() {
	return func() { m.trigger(p) }
}

func (m *Module) onSetterReady(name string, s *param.Setter) func() {
	return func() {
		ok, err := s.TryConsume()
		if ok && err == nil {
			m.params.NoteSetterTriggered(name)
		}
	}
}

// ReserveOutPorts reserves every port in ports, all-or-nothing: on the
// first failure it releases whatever it already reserved (spec.md §6
// reserve-out-ports(set)).
func (m *Module) ReserveOutPorts(ports ...*port.OutPort) bool {
	reserved := make([]*port.OutPort, 0, len(ports))
	for _, p := range ports {
		if !p.ReserveOutPort() {
			for _, r := range reserved {
				r.ReleaseOutPort()
			}
			return false
		}
		reserved = append(reserved, p)
	}
	return true
}

// NotifyOutPortReady publishes p's reserved data with attr and fans out
// to bound targets through this module's dispatcher (spec.md §6
// notify-out-port-ready(attr)).
func (m *Module) NotifyOutPortReady(p *port.OutPort, attr attribute.Attribute) error {
	return p.NotifyOutPortReady(attr, func(snapshot []*endpoint.Target) {
		m.dispatcher.Dispatch(p.Source, snapshot)
	})
}

// NotifyAllOutPortReady publishes every port in ports with the same
// attribute (spec.md §6 notify-all-out-port-ready(attr)).
func (m *Module) NotifyAllOutPortReady(attr attribute.Attribute, ports ...*port.OutPort) error {
	for _, p := range ports {
		if err := m.NotifyOutPortReady(p, attr); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAllOutPorts releases any still-reserved out ports, for cleanup
// after process returns an error before publishing (spec.md §6
// release-all-out-ports).
func (m *Module) ReleaseAllOutPorts() {
	for _, p := range m.outPorts {
		if p.IsReserved() {
			p.ReleaseOutPort()
		}
	}
}

func (m *Module) releaseAllInPorts() {
	for _, p := range m.inPorts {
		p.ReleaseInPort()
	}
}

// Run enqueues a direct invocation of this module: a task with no
// triggering in-port (spec.md §4.6 start-condition step 2, "direct
// run"). This is how a module with no in-ports (a generator) is ever
// started, since it has no upstream event to wait on.
func (m *Module) Run() {
	m.enqueue(nil)
}

// trigger enqueues a task for p, merging it into the currently
// dispatching task when that task hasn't yet committed to the inputs it
// caught (spec.md §4.4 merge), or appending it to the module's FIFO
// otherwise.
func (m *Module) trigger(p *port.InPort) {
	m.enqueue(p)
}

func (m *Module) enqueue(triggeringPort interface{}) {
	m.mu.Lock()
	if m.cancelling {
		m.mu.Unlock()
		return
	}

	if m.current != nil && mergeable(m.current.State()) {
		m.current.Merge(task.New(m.name, triggeringPort))
		m.mu.Unlock()
		return
	}

	t := task.New(m.name, triggeringPort)
	m.queue = append(m.queue, t)
	var toStart *task.Task
	if !m.dispatching {
		m.dispatching = true
		toStart = m.popFrontLocked()
	}
	m.mu.Unlock()

	if toStart != nil {
		m.runOnPool(toStart)
	}
}

// mergeable reports whether a task still gathering its inputs/parameters
// can absorb a newly triggered task instead of queuing it separately.
func mergeable(s task.State) bool {
	return s <= task.RetrievingInDataLocks
}

func (m *Module) popFrontLocked() *task.Task {
	if len(m.queue) == 0 {
		m.dispatching = false
		m.current = nil
		return nil
	}
	t := m.queue[0]
	m.queue = m.queue[1:]
	m.current = t
	return t
}

func (m *Module) runOnPool(t *task.Task) {
	t.MarkQueued()
	m.threads.StartModuleTask(t, func() error {
		err := m.runTask(t)
		m.advanceQueue()
		return err
	})
}

func (m *Module) advanceQueue() {
	m.mu.Lock()
	next := m.popFrontLocked()
	m.mu.Unlock()
	if next != nil {
		m.runOnPool(next)
	}
}

// runTask implements spec.md §4.4's run contract: expire output cells,
// apply pending parameters, compute the start condition, call process,
// release input locks.
func (m *Module) runTask(t *task.Task) error {
	rc := task.NewRunContext(t)

	for _, p := range m.outPorts {
		p.Source.Cell().Expire()
	}

	t.SetRunningState(task.ApplyingParameters)
	m.params.TryApplyParameters()

	startCond := m.computeStartCondition(t, rc)

	t.SetRunningState(task.Processing)
	err := m.process(rc, startCond)

	m.releaseAllInPorts()

	if err != nil && m.log != nil {
		m.log.Errorw("module task failed", "module", m.name, "task", t.Name(), "error", err)
	}
	return err
}

// onUpstreamCancel runs when one of this module's in-ports is told to
// cancel by its bound source (spec.md §7 downstream propagation: a
// producer cancelling reaches every consumer transitively). It cascades
// the same cancellation through this module's own outputs.
func (m *Module) onUpstreamCancel() {
	m.LazyCancel()
}

// onDownstreamCancel runs when one of this module's out-ports is told to
// cancel by a bound target (spec.md §7 upstream propagation: a consumer
// cancelling reaches every producer transitively, mirroring
// onUpstreamCancel's opposite direction).
func (m *Module) onDownstreamCancel() {
	m.LazyCancel()
}
