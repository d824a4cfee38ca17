package engine

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/opticalp/instrumentall/internal/httpserver"
)

// registerIntrospection wires the two read-only introspection endpoints
// named in SPEC_FULL.md §6: /status (per-module task/queue snapshot as
// JSON) and /graph.dot (the bound topology as Graphviz dot), reusing the
// teacher's httprouter-backed internal/httpserver.Server.
func (e *Engine) registerIntrospection(s *httpserver.Server) {
	s.AddHandler(http.MethodGet, "/status", e.handleStatus)
	s.AddHandler(http.MethodGet, "/graph.dot", e.handleGraphDot)
}

type moduleStatus struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Cancelling  bool   `json:"cancelling"`
	QueueLen    int    `json:"queueLength"`
}

func (e *Engine) handleStatus(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
	modules := e.Modules()
	out := make([]moduleStatus, 0, len(modules))
	for _, m := range modules {
		out = append(out, moduleStatus{
			Name:        m.Name(),
			DisplayName: m.DisplayName(),
			Cancelling:  m.IsCancelling(),
			QueueLen:    m.QueueLen(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// handleGraphDot renders every module's out-port -> in-port bindings as
// a Graphviz dot digraph, for visual inspection of a running topology.
func (e *Engine) handleGraphDot(w http.ResponseWriter, r *http.Request, _ httpserver.Params) {
	modules := e.Modules()

	targetOwner := make(map[interface{}]string, len(modules))
	for _, m := range modules {
		for _, p := range m.InPorts() {
			targetOwner[p.Target] = fmt.Sprintf("%s:%s", m.Name(), p.Name)
		}
	}

	var b strings.Builder
	b.WriteString("digraph instrumentall {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, m := range modules {
		for _, op := range m.OutPorts() {
			from := fmt.Sprintf("%s:%s", m.Name(), op.Name)
			for _, t := range op.Source.Targets() {
				to, ok := targetOwner[t]
				if !ok {
					continue
				}
				fmt.Fprintf(&b, "  %q -> %q;\n", from, to)
			}
		}
	}
	b.WriteString("}\n")

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(b.String()))
}
