package module

import (
	"github.com/opticalp/instrumentall/port"
	"github.com/opticalp/instrumentall/task"
)

// computeStartCondition implements spec.md §4.6's start-condition
// algorithm:
//  1. no in-ports -> noData.
//  2. one non-blocking pass over every in-port via try-catch-source;
//     for a direct run (no triggering port) that single pass decides the
//     outcome.
//  3. otherwise, loop with cooperative yield until every bound in-port
//     has been caught, or the task is cancelled.
func (m *Module) computeStartCondition(t *task.Task, rc *task.RunContext) StartCondition {
	if len(m.inPorts) == 0 {
		return NoData
	}

	isDirect := t.TriggeringPort() == nil

	caught := make(map[*port.InPort]bool, len(m.inPorts))
	tryPass := func() (anyCaught bool) {
		for _, p := range m.inPorts {
			if caught[p] {
				continue
			}
			if p.TryCatchSource() {
				caught[p] = true
				anyCaught = true
			}
		}
		return anyCaught
	}

	boundAllCaught := func() bool {
		for _, p := range m.inPorts {
			if p.IsBound() && !caught[p] {
				return false
			}
		}
		return true
	}

	any := tryPass()

	if isDirect {
		if !any {
			return NoData
		}
		if allPortsBound(m.inPorts) && boundAllCaught() {
			return AllData
		}
		return AllPluggedData
	}

	for !boundAllCaught() {
		if rc.Yield() {
			return Cancelled
		}
		tryPass()
	}

	if allPortsBound(m.inPorts) {
		return AllData
	}
	return AllPluggedData
}

func allPortsBound(ports []*port.InPort) bool {
	for _, p := range ports {
		if !p.IsBound() {
			return false
		}
	}
	return true
}
