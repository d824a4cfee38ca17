package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/config"
	"github.com/opticalp/instrumentall/module"
	"github.com/opticalp/instrumentall/task"
)

func TestBuilderBuildWiresDeclaredEdges(t *testing.T) {
	b := NewBuilder(config.Config{}, nil, 2)

	done := make(chan struct{})

	b.AddModule(ModuleConfig{
		Name: "producer",
		Construct: func(m *module.Module) {
			m.AddOutPort("out", "", cell.Int64, false)
		},
	})
	b.AddModule(ModuleConfig{
		Name: "consumer",
		Construct: func(m *module.Module) {
			m.AddInPort("in", "", cell.Int64, false)
		},
		Process: func(rc *task.RunContext, sc module.StartCondition) error {
			defer close(done)
			return nil
		},
	})
	b.Bind("producer", "out", "consumer", "in")

	e, err := b.Build()
	assert.NoError(t, err)

	producer, _ := e.Module("producer")
	out := producer.OutPorts()[0]

	assert.True(t, producer.ReserveOutPorts(out))
	out.GetDataToWrite().SetNewData(cell.Int64, false, int64(99))
	assert.NoError(t, producer.NotifyOutPortReady(out, attribute.New()))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer never ran")
	}
}

func TestBuilderBuildFailsOnUnknownFromModule(t *testing.T) {
	b := NewBuilder(config.Config{}, nil, 2)
	b.AddModule(ModuleConfig{
		Name: "consumer",
		Construct: func(m *module.Module) {
			m.AddInPort("in", "", cell.Int64, false)
		},
	})
	b.Bind("ghost", "out", "consumer", "in")

	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuilderBuildFailsOnUnknownPortName(t *testing.T) {
	b := NewBuilder(config.Config{}, nil, 2)
	b.AddModule(ModuleConfig{
		Name: "producer",
		Construct: func(m *module.Module) {
			m.AddOutPort("out", "", cell.Int64, false)
		},
	})
	b.AddModule(ModuleConfig{
		Name: "consumer",
		Construct: func(m *module.Module) {
			m.AddInPort("in", "", cell.Int64, false)
		},
	})
	b.Bind("producer", "nope", "consumer", "in")

	_, err := b.Build()
	assert.Error(t, err)
}

func TestBuilderBuildRejectsDuplicateModuleNames(t *testing.T) {
	b := NewBuilder(config.Config{}, nil, 2)
	b.AddModule(ModuleConfig{Name: "dup"})
	b.AddModule(ModuleConfig{Name: "dup"})

	_, err := b.Build()
	assert.Error(t, err)
}
