// Public API of the Nexus execution engine.
//
// The engine is assembled from: lexer.go (tokens), parser.go (S-expression
// AST), interpreter_exec.go (tree-walking executor and reaction machinery),
// interpreter_ops.go (operator semantics), runtime.go (builtin wiring), and
// printer.go (display forms). This file defines the value model, the scoped
// environment, and the Interpreter handle hosts embed.
package nexus

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Version of the engine, shown by the CLI.
const Version = "0.3.1"

/* ===========================
   Values
   =========================== */

type ValueTag int

const (
	VTNoop ValueTag = iota
	VTBool
	VTInt
	VTNum
	VTStr
	VTOrdered
	VTKeyed
	VTContext
	VTNative
	VTReaction
)

// Value is a runtime value. Data holds the Go representation per tag:
// bool, int64, float64, string, *PoolObject, *KeyedPool, *Context,
// *Native, *Reaction. Noop carries nil.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// Constructors.
func Noop() Value         { return Value{Tag: VTNoop} }
func Bool(b bool) Value   { return Value{Tag: VTBool, Data: b} }
func Int(i int64) Value   { return Value{Tag: VTInt, Data: i} }
func Num(f float64) Value { return Value{Tag: VTNum, Data: f} }
func Str(s string) Value  { return Value{Tag: VTStr, Data: s} }

// Ordered wraps elements into an ordered pool value. The backing object is
// shared: assigning the value to another binding aliases the same storage.
func Ordered(elems []Value) Value {
	return Value{Tag: VTOrdered, Data: &PoolObject{Elems: elems}}
}

// PoolObject is the heap storage of an ordered pool.
type PoolObject struct {
	Elems []Value
}

// KeyedPool is the heap storage of a keyed pool: unique string keys in
// insertion order.
type KeyedPool struct {
	Entries map[string]Value
	Keys    []string
}

func NewKeyedPool() *KeyedPool {
	return &KeyedPool{Entries: map[string]Value{}}
}

// Set inserts or updates a key, preserving first-insertion order.
func (kp *KeyedPool) Set(key string, v Value) {
	if _, ok := kp.Entries[key]; !ok {
		kp.Keys = append(kp.Keys, key)
	}
	kp.Entries[key] = v
}

func (kp *KeyedPool) Get(key string) (Value, bool) {
	v, ok := kp.Entries[key]
	return v, ok
}

// Keyed wraps a KeyedPool object into a value.
func Keyed(kp *KeyedPool) Value { return Value{Tag: VTKeyed, Data: kp} }

// Context is a declared context: a named scoped computation with declared
// inputs and outputs. Env is the defining frame (lexical scoping); BodyPath
// addresses the body node within its source AST for error positions.
type Context struct {
	Name     string
	Inputs   []string
	Outputs  []string
	Body     S
	BodyPath NodePath
	Env      *Env

	ref sourceRef // defining source, for error positions
}

// NativeImpl is a host-implemented builtin context. It receives the
// interpreter (for the output sink) and positional arguments.
type NativeImpl func(ip *Interpreter, args []Value) (Value, error)

// Native is a registered builtin. Arity < 0 accepts any argument count.
type Native struct {
	Name  string
	Arity int
	Impl  NativeImpl
	Doc   string
}

// ReactionState tracks the reaction lifecycle.
type ReactionState int

const (
	ReactionArmed ReactionState = iota
	ReactionRunning
	ReactionTerminal
)

// Reaction is a declared reaction: a guarded body re-run while the guard
// holds, watching one mutable binding.
type Reaction struct {
	Name      string
	Watched   string
	Guard     S
	GuardPath NodePath
	Body      S
	BodyPath  NodePath
	Env       *Env
	State     ReactionState
	Ticks     int

	ref sourceRef // defining source, for error positions
}

/* ===========================
   Runtime errors
   =========================== */

// ErrKind classifies runtime failures.
type ErrKind string

const (
	ErrUnboundIdentifier       ErrKind = "UnboundIdentifier"
	ErrImmutableReassignment   ErrKind = "ImmutableReassignment"
	ErrTypeMismatch            ErrKind = "TypeMismatch"
	ErrUnassignedContextOutput ErrKind = "UnassignedContextOutput"
	ErrDivisionByZero          ErrKind = "DivisionByZero"
	ErrPoolIndexOutOfRange     ErrKind = "PoolIndexOutOfRange"
	ErrDuplicateKey            ErrKind = "DuplicateKey"
	ErrMissingKey              ErrKind = "MissingKey"
	ErrNoQuantumAlternative    ErrKind = "NoQuantumAlternativeSucceeded"
	ErrReactionDidNotConverge  ErrKind = "ReactionDidNotConverge"
)

// RuntimeError is a dynamic evaluation failure with a 1-based source
// position (zero when the failing node has no recorded span).
type RuntimeError struct {
	Kind ErrKind
	Line int
	Col  int
	Msg  string

	// Defining source of the failing node. A context or reaction declared
	// in one source can fail while invoked from another; the snippet must
	// render against the text the position refers to.
	src     string
	srcName string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("RUNTIME ERROR [%s] at %d:%d: %s", e.Kind, e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("RUNTIME ERROR [%s]: %s", e.Kind, e.Msg)
}

/* ===========================
   Environments
   =========================== */

type binding struct {
	v       Value
	mutable bool
}

// Env is a chain of scope frames. Lookup walks outward; a child frame
// shadows its parent. Each binding carries its mutability flag.
type Env struct {
	parent *Env
	table  map[string]binding
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, table: map[string]binding{}}
}

// Define creates or shadows a binding in this frame.
func (e *Env) Define(name string, v Value, mutable bool) {
	e.table[name] = binding{v: v, mutable: mutable}
}

// Get resolves a name through the chain.
func (e *Env) Get(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.table[name]; ok {
			return b.v, true
		}
	}
	return Value{}, false
}

// Lookup resolves a name and reports its mutability.
func (e *Env) Lookup(name string) (Value, bool, bool) {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.table[name]; ok {
			return b.v, b.mutable, true
		}
	}
	return Value{}, false, false
}

// Assign updates an existing binding in place. It reports which error kind
// applies when the assignment is rejected.
func (e *Env) Assign(name string, v Value) ErrKind {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.table[name]; ok {
			if !b.mutable {
				return ErrImmutableReassignment
			}
			s.table[name] = binding{v: v, mutable: true}
			return ""
		}
	}
	return ErrUnboundIdentifier
}

// assignHere is like Assign but never walks past this frame. Context output
// assignment uses it so outputs land in the call frame.
func (e *Env) assignHere(name string, v Value) bool {
	if b, ok := e.table[name]; ok {
		e.table[name] = binding{v: v, mutable: b.mutable}
		return true
	}
	return false
}

// Snapshot returns the bindings of this single frame as a keyed pool with
// sorted keys.
func (e *Env) Snapshot() *KeyedPool {
	names := make([]string, 0, len(e.table))
	for name := range e.table {
		names = append(names, name)
	}
	sort.Strings(names)
	kp := NewKeyedPool()
	for _, name := range names {
		kp.Set(name, e.table[name].v)
	}
	return kp
}

/* ===========================
   Interpreter
   =========================== */

// Interpreter owns the builtin registry (Core frame), the persistent program
// frame (Global), the output sink, and the reaction tick ceiling.
type Interpreter struct {
	Core   *Env
	Global *Env

	out           io.Writer
	natives       map[string]*Native
	reactionLimit int
}

// ExecutionResult is the outcome of running a whole program: the value of
// the last top-level statement and a snapshot of the final top-level
// bindings, or the error that stopped execution.
type ExecutionResult struct {
	Value    Value
	Bindings *KeyedPool
	Err      error
}

// NewInterpreter builds an interpreter with the standard builtin registry.
func NewInterpreter() (*Interpreter, error) {
	return NewRuntime()
}

// SetOutput redirects the sink used by the output builtin. Defaults to
// os.Stdout.
func (ip *Interpreter) SetOutput(w io.Writer) { ip.out = w }

// Output returns the current sink.
func (ip *Interpreter) Output() io.Writer {
	if ip.out == nil {
		return os.Stdout
	}
	return ip.out
}

// SetReactionLimit caps the ticks any single reaction may run before the
// engine fails with ReactionDidNotConverge. Zero disables the ceiling.
func (ip *Interpreter) SetReactionLimit(n int) { ip.reactionLimit = n }

// ReactionLimit reports the configured ceiling.
func (ip *Interpreter) ReactionLimit() int { return ip.reactionLimit }

// RegisterNative installs a builtin context in the Core frame. Arity < 0
// accepts any argument count.
func (ip *Interpreter) RegisterNative(name string, arity int, impl NativeImpl) {
	n := &Native{Name: name, Arity: arity, Impl: impl}
	ip.natives[name] = n
	ip.Core.Define(name, Value{Tag: VTNative, Data: n}, false)
}

func (ip *Interpreter) setNativeDoc(name, doc string) {
	if n, ok := ip.natives[name]; ok {
		n.Doc = doc
	}
}

// NativeDoc returns the registered documentation line for a builtin.
func (ip *Interpreter) NativeDoc(name string) string {
	if n, ok := ip.natives[name]; ok {
		return n.Doc
	}
	return ""
}

// EvalSource parses and evaluates src in a throwaway child of the Global
// frame. Bindings do not persist between calls.
func (ip *Interpreter) EvalSource(src string) (Value, error) {
	return ip.evalIn(src, NewEnv(ip.Global))
}

// EvalPersistentSource parses and evaluates src directly in the Global
// frame, persisting top-level bindings. This is the REPL entry point.
func (ip *Interpreter) EvalPersistentSource(src string) (Value, error) {
	return ip.evalIn(src, ip.Global)
}

// EvalAST evaluates an already-parsed program in env (Global when nil).
// Runtime errors carry no source position since no spans are available.
func (ip *Interpreter) EvalAST(ast S, env *Env) (Value, error) {
	if env == nil {
		env = ip.Global
	}
	return runTopWithSource(ip, ast, env, sourceRef{})
}

// Run executes a complete program and returns the final value plus a
// snapshot of the top-level bindings.
func (ip *Interpreter) Run(name, src string) ExecutionResult {
	env := NewEnv(ip.Global)
	v, err := ip.evalNamed(name, src, env)
	if err != nil {
		return ExecutionResult{Err: err}
	}
	return ExecutionResult{Value: v, Bindings: env.Snapshot()}
}

func (ip *Interpreter) evalIn(src string, env *Env) (Value, error) {
	return ip.evalNamed("", src, env)
}

func (ip *Interpreter) evalNamed(name, src string, env *Env) (Value, error) {
	ast, spans, err := ParseSExprWithSpans(src)
	if err != nil {
		return Noop(), WrapErrorWithName(err, name, src)
	}
	ref := sourceRef{name: name, src: src, spans: BuildSpanIndexPostOrder(ast, spans)}
	v, rerr := runTopWithSource(ip, ast, env, ref)
	if rerr != nil {
		return Noop(), WrapErrorWithName(rerr, name, src)
	}
	return v, nil
}
