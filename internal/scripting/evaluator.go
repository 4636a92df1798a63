package scripting

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Evaluator compiles named Lua boolean expressions once and evaluates them
// against numeric bindings.
//
// Evaluator is safe for concurrent use; evaluations are serialized on its single VM.
type Evaluator struct {
	mu     sync.Mutex
	L      *lua.LState
	cancel context.CancelFunc
	limit  int
	fns    map[string]*lua.LFunction
	logger *zap.Logger
}

// NewEvaluator creates an Evaluator with its own sandboxed VM.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 uses DefaultInstructionLimit).
// Postcondition: Returns an Evaluator with no compiled expressions. Close must be called when done.
func NewEvaluator(instLimit int, logger *zap.Logger) *Evaluator {
	L, cancel := NewSandboxedState(instLimit)
	return &Evaluator{
		L:      L,
		cancel: cancel,
		limit:  instLimit,
		fns:    make(map[string]*lua.LFunction),
		logger: logger,
	}
}

// Compile parses expr as a Lua expression and stores it under name.
//
// Precondition: name must be non-empty.
// Postcondition: Returns an error if expr does not parse; a later Compile with the
// same name replaces the earlier one.
func (e *Evaluator) Compile(name, expr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, err := e.L.LoadString("return (" + expr + ")")
	if err != nil {
		return fmt.Errorf("scripting: compiling %q: %w", name, err)
	}
	e.fns[name] = fn
	return nil
}

// Has reports whether an expression is compiled under name.
func (e *Evaluator) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.fns[name]
	return ok
}

// Eval runs the expression stored under name with bindings set as globals and
// returns its truthiness. Missing expressions, runtime errors and budget
// exhaustion are logged at Warn and yield false; they are never propagated.
func (e *Evaluator) Eval(name string, bindings map[string]float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := e.fns[name]
	if !ok {
		e.logger.Warn("scripting: no expression compiled", zap.String("name", name))
		return false
	}

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		e.L.SetGlobal(k, lua.LNumber(bindings[k]))
	}

	e.cancel()
	e.cancel = ResetBudget(e.L, e.limit)
	if err := e.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		e.logger.Warn("scripting: Lua runtime error",
			zap.String("name", name),
			zap.Error(err),
		)
		return false
	}
	ret := e.L.Get(-1)
	e.L.Pop(1)
	return lua.LVAsBool(ret)
}

// Close releases the VM.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel()
	e.L.Close()
}
