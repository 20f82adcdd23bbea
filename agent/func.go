package agent

import (
	"github.com/inkfold/inkfold/core"
)

// RunFunc is the job body executed by a FuncAgent.
type RunFunc func(rc *core.RunContext) error

// FuncAgent adapts an arbitrary function into an agent. It is the simplest
// way to map a job type (indexing, export, linting) onto the run coordinator
// without writing a dedicated type.
type FuncAgent struct {
	BaseAgent
	fn RunFunc
}

// NewFuncAgent wraps fn as a named agent.
func NewFuncAgent(name string, fn RunFunc, optFns ...func(a *FuncAgent)) *FuncAgent {
	a := &FuncAgent{
		BaseAgent: NewBaseAgent(name),
		fn:        fn,
	}

	for _, optFn := range optFns {
		optFn(a)
	}

	return a
}

// Run implements core.Agent.
func (a *FuncAgent) Run(rc *core.RunContext) error {
	if err := rc.Err(); err != nil {
		return err
	}

	return a.fn(rc)
}
