package engine

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"fmt"

	"github.com/opticalp/instrumentall/config"
	"github.com/opticalp/instrumentall/ierr"
	"github.com/opticalp/instrumentall/ilog"
	"github.com/opticalp/instrumentall/module"
	"github.com/opticalp/instrumentall/port"
	"github.com/opticalp/instrumentall/proxy"
)

// ModuleConfig declares one module to construct, mirroring the teacher's
// ProcessorConfig: a name, its construction hook (adding ports/
// parameters) and its process function.
type ModuleConfig struct {
	Name            string
	DisplayName     string
	ParamsImmediate bool
	Construct       func(m *module.Module)
	Process         module.ProcessFunc
}

// ProxyConfig declares one data proxy to construct.
type ProxyConfig struct {
	Name    string
	Convert proxy.Converter
}

// Edge binds one module's out-port to another module's in-port, looked
// up by name once every module in the topology has been constructed —
// this is the declarative equivalent of calling Module.Bind directly,
// for topologies assembled from configuration rather than Go code.
type Edge struct {
	FromModule string
	FromPort   string
	ToModule   string
	ToPort     string
}

// Builder accumulates module/proxy declarations and the edges between
// them before Build assembles a running Engine, mirroring the teacher's
// Builder/Stream split (builder.go, streams.go).
type Builder struct {
	cfg      config.Config
	log      ilog.Logger
	poolSize int

	modules []ModuleConfig
	proxies []ProxyConfig
	edges   []Edge
}

// NewBuilder creates a topology Builder. cfg supplies module parameter
// defaults; poolSize (<=0 for hardware parallelism) sizes the shared
// thread pool.
func NewBuilder(cfg config.Config, log ilog.Logger, poolSize int) *Builder {
	return &Builder{cfg: cfg, log: log, poolSize: poolSize}
}

// AddModule declares a module to be constructed during Build.
func (b *Builder) AddModule(c ModuleConfig) {
	b.modules = append(b.modules, c)
}

// AddProxy declares a data proxy to be constructed during Build.
func (b *Builder) AddProxy(c ProxyConfig) {
	b.proxies = append(b.proxies, c)
}

// Bind declares an edge to be wired once every module exists.
func (b *Builder) Bind(fromModule, fromPort, toModule, toPort string) {
	b.edges = append(b.edges, Edge{fromModule, fromPort, toModule, toPort})
}

// Build constructs every declared module and proxy, then wires the
// declared edges, returning the running Engine.
func (b *Builder) Build() (*Engine, error) {
	e := New(b.cfg, b.log, b.poolSize)

	for _, mc := range b.modules {
		if _, err := e.NewModule(mc.Name, mc.DisplayName, mc.ParamsImmediate, mc.Process, mc.Construct); err != nil {
			return nil, fmt.Errorf("module %q: %w", mc.Name, err)
		}
	}

	for _, pc := range b.proxies {
		if _, err := e.NewProxy(pc.Name, pc.Convert); err != nil {
			return nil, fmt.Errorf("proxy %q: %w", pc.Name, err)
		}
	}

	for _, edge := range b.edges {
		if err := e.wireEdge(edge); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func (e *Engine) wireEdge(edge Edge) error {
	from, ok := e.Module(edge.FromModule)
	if !ok {
		return fmt.Errorf("bind %s:%s -> %s:%s: %w (module %q)", edge.FromModule, edge.FromPort, edge.ToModule, edge.ToPort, ierr.ErrNotBound, edge.FromModule)
	}
	to, ok := e.Module(edge.ToModule)
	if !ok {
		return fmt.Errorf("bind %s:%s -> %s:%s: %w (module %q)", edge.FromModule, edge.FromPort, edge.ToModule, edge.ToPort, ierr.ErrNotBound, edge.ToModule)
	}

	var out *port.OutPort
	for _, p := range from.OutPorts() {
		if p.Name == edge.FromPort {
			out = p
			break
		}
	}
	if out == nil {
		return fmt.Errorf("bind %s:%s: %w (no such out-port)", edge.FromModule, edge.FromPort, ierr.ErrNotBound)
	}

	for _, p := range to.InPorts() {
		if p.Name == edge.ToPort {
			to.Bind(out, p)
			return nil
		}
	}
	return fmt.Errorf("bind %s:%s: %w (no such in-port)", edge.ToModule, edge.ToPort, ierr.ErrNotBound)
}
