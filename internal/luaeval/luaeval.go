// Package luaeval implements the predicate evaluator on a Lua VM. A script
// declares a content table (id -> { tags = {...} }), predicate functions as
// globals, an optional directives array, and a state table that holds the
// script's mutable world state. State serializes to JSON so a fresh VM in an
// offload worker can be seeded with the orchestrating VM's view.
package luaeval

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Shopify/go-lua"

	"github.com/wildwinter/storydeck/internal/evaluator"
)

// #region constructor

// Evaluator wraps one Lua state. Not safe for concurrent use; each execution
// context builds its own through Factory.
type Evaluator struct {
	l *lua.State
}

// New builds an evaluator from Lua source.
func New(source string) (*Evaluator, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	if err := lua.DoString(l, source); err != nil {
		return nil, fmt.Errorf("load script: %w", err)
	}
	return &Evaluator{l: l}, nil
}

// NewFromFile builds an evaluator from a Lua script on disk.
func NewFromFile(path string) (*Evaluator, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)
	if err := lua.DoFile(l, path); err != nil {
		return nil, fmt.Errorf("load script %s: %w", path, err)
	}
	return &Evaluator{l: l}, nil
}

// Factory returns a constructor that builds a fresh VM from source, seeded
// from a state token. This is the shape the offload worker wants.
func Factory(source string) func(stateToken string) (evaluator.Evaluator, error) {
	return func(stateToken string) (evaluator.Evaluator, error) {
		ev, err := New(source)
		if err != nil {
			return nil, err
		}
		if stateToken != "" {
			if err := ev.LoadState(stateToken); err != nil {
				return nil, err
			}
		}
		return ev, nil
	}
}

// #endregion constructor

// #region evaluate

// Evaluate calls the named global function with no arguments and maps its
// single return value: boolean and number pass through, anything else is an
// invalid result.
func (e *Evaluator) Evaluate(functionID string) (evaluator.Result, error) {
	top := e.l.Top()
	defer e.l.SetTop(top)

	e.l.Global(functionID)
	if e.l.TypeOf(-1) != lua.TypeFunction {
		return evaluator.Result{}, evaluator.ErrUnknownFunction
	}
	if err := e.l.ProtectedCall(0, 1, 0); err != nil {
		return evaluator.Result{}, fmt.Errorf("call %s: %w", functionID, err)
	}

	switch e.l.TypeOf(-1) {
	case lua.TypeBoolean:
		return evaluator.BoolResult(e.l.ToBoolean(-1)), nil
	case lua.TypeNumber:
		n, _ := e.l.ToNumber(-1)
		return evaluator.NumberResult(n), nil
	default:
		return evaluator.InvalidResult(), nil
	}
}

// HasFunction reports whether a global function with this name exists.
func (e *Evaluator) HasFunction(name string) bool {
	top := e.l.Top()
	defer e.l.SetTop(top)
	e.l.Global(name)
	return e.l.TypeOf(-1) == lua.TypeFunction
}

// #endregion evaluate

// #region content

// TagsFor returns content[id].tags as strings, or nil.
func (e *Evaluator) TagsFor(id string) []string {
	top := e.l.Top()
	defer e.l.SetTop(top)

	e.l.Global("content")
	if e.l.TypeOf(-1) != lua.TypeTable {
		return nil
	}
	e.l.Field(-1, id)
	if e.l.TypeOf(-1) != lua.TypeTable {
		return nil
	}
	e.l.Field(-1, "tags")
	if e.l.TypeOf(-1) != lua.TypeTable {
		return nil
	}

	n := e.l.RawLength(-1)
	var out []string
	for i := 1; i <= n; i++ {
		e.l.RawGetInt(-1, i)
		if s, ok := e.l.ToString(-1); ok {
			out = append(out, s)
		}
		e.l.Pop(1)
	}
	return out
}

// AllContentIDs returns the content table's keys, sorted for determinism —
// Lua table iteration order is arbitrary.
func (e *Evaluator) AllContentIDs() []string {
	top := e.l.Top()
	defer e.l.SetTop(top)

	e.l.Global("content")
	if e.l.TypeOf(-1) != lua.TypeTable {
		return nil
	}
	tbl := e.l.AbsIndex(-1)

	var out []string
	e.l.PushNil()
	for e.l.Next(tbl) {
		if e.l.TypeOf(-2) == lua.TypeString {
			key, _ := e.l.ToString(-2)
			out = append(out, key)
		}
		e.l.Pop(1)
	}
	sort.Strings(out)
	return out
}

// GlobalDirectives returns the directives array, or nil.
func (e *Evaluator) GlobalDirectives() []string {
	top := e.l.Top()
	defer e.l.SetTop(top)

	e.l.Global("directives")
	if e.l.TypeOf(-1) != lua.TypeTable {
		return nil
	}
	n := e.l.RawLength(-1)
	var out []string
	for i := 1; i <= n; i++ {
		e.l.RawGetInt(-1, i)
		if s, ok := e.l.ToString(-1); ok {
			out = append(out, s)
		}
		e.l.Pop(1)
	}
	return out
}

// #endregion content

// #region state

// SerializeState snapshots the script's state table as JSON.
func (e *Evaluator) SerializeState() (string, error) {
	top := e.l.Top()
	defer e.l.SetTop(top)

	e.l.Global("state")
	if e.l.TypeOf(-1) != lua.TypeTable {
		return "{}", nil
	}
	v := e.tableToGo(-1)
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize state: %w", err)
	}
	return string(data), nil
}

// LoadState replaces the script's state table from a JSON token.
func (e *Evaluator) LoadState(token string) error {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(token), &m); err != nil {
		return fmt.Errorf("parse state token: %w", err)
	}
	e.pushGoValue(m)
	e.l.SetGlobal("state")
	return nil
}

// #endregion state

// #region walkers

// luaToGo converts the value at idx to a Go value JSON can carry.
func (e *Evaluator) luaToGo(idx int) interface{} {
	switch e.l.TypeOf(idx) {
	case lua.TypeBoolean:
		return e.l.ToBoolean(idx)
	case lua.TypeNumber:
		n, _ := e.l.ToNumber(idx)
		return n
	case lua.TypeString:
		s, _ := e.l.ToString(idx)
		return s
	case lua.TypeTable:
		return e.tableToGo(idx)
	default:
		return nil
	}
}

// tableToGo converts a table: a non-empty array part becomes a slice,
// anything else a string-keyed map.
func (e *Evaluator) tableToGo(idx int) interface{} {
	tbl := e.l.AbsIndex(idx)

	if n := e.l.RawLength(tbl); n > 0 {
		arr := make([]interface{}, 0, n)
		for i := 1; i <= n; i++ {
			e.l.RawGetInt(tbl, i)
			arr = append(arr, e.luaToGo(-1))
			e.l.Pop(1)
		}
		return arr
	}

	m := make(map[string]interface{})
	e.l.PushNil()
	for e.l.Next(tbl) {
		if e.l.TypeOf(-2) == lua.TypeString {
			key, _ := e.l.ToString(-2)
			m[key] = e.luaToGo(-1)
		}
		e.l.Pop(1)
	}
	return m
}

// pushGoValue pushes a decoded JSON value onto the Lua stack.
func (e *Evaluator) pushGoValue(v interface{}) {
	switch x := v.(type) {
	case nil:
		e.l.PushNil()
	case bool:
		e.l.PushBoolean(x)
	case float64:
		e.l.PushNumber(x)
	case string:
		e.l.PushString(x)
	case []interface{}:
		e.l.NewTable()
		for i, elem := range x {
			e.pushGoValue(elem)
			e.l.RawSetInt(-2, i+1)
		}
	case map[string]interface{}:
		e.l.NewTable()
		for k, elem := range x {
			e.pushGoValue(elem)
			e.l.SetField(-2, k)
		}
	default:
		e.l.PushNil()
	}
}

// #endregion walkers
