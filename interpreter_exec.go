// Tree-walking executor.
//
// Dispatches over AST node tags, threading the current NodePath through
// every recursive call so runtime failures can resolve a source position
// from the sidecar span index. Runtime failures travel as *RuntimeError
// panics and are recovered once, in runTopWithSource; QuantumExpr is the
// only construct that intercepts them locally.
package nexus

import (
	"fmt"
)

// sourceRef ties an AST to the source it was parsed from. Contexts and
// reactions capture the ref of their defining source so cross-source calls
// (REPL lines, modules) still report correct positions.
type sourceRef struct {
	name  string
	src   string
	spans *SpanIndex
}

type executor struct {
	ip   *Interpreter
	ref  sourceRef
	path NodePath
}

// runTopWithSource is the single recovery boundary: all *RuntimeError
// panics raised during evaluation surface here as ordinary errors.
func runTopWithSource(ip *Interpreter, ast S, env *Env, ref sourceRef) (v Value, err error) {
	ex := &executor{ip: ip, ref: ref}
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *RuntimeError:
				err = e
			case error:
				err = e
			default:
				err = fmt.Errorf("internal error: %v", e)
			}
		}
	}()
	v = ex.eval(ast, nil, env)
	return v, nil
}

// fail raises a runtime error positioned at the current node.
func (ex *executor) fail(kind ErrKind, format string, args ...any) {
	line, col := 0, 0
	if sp, ok := ex.ref.spans.Get(ex.path); ok {
		line, col = offsetToLineCol(ex.ref.src, sp.StartByte)
	}
	panic(&RuntimeError{
		Kind: kind, Line: line, Col: col,
		Msg:     fmt.Sprintf(format, args...),
		src:     ex.ref.src,
		srcName: ex.ref.name,
	})
}

// childPath returns a fresh path slice; fresh because context and reaction
// values retain their body paths beyond the current call.
func childPath(p NodePath, i int) NodePath {
	np := make(NodePath, len(p)+1)
	copy(np, p)
	np[len(p)] = i
	return np
}

func (ex *executor) eval(n S, p NodePath, env *Env) Value {
	ex.path = p
	switch tag(n) {

	case "block":
		out := Noop()
		for i := 1; i < len(n); i++ {
			out = ex.eval(n[i].(S), childPath(p, i-1), env)
		}
		ex.path = p
		return out

	case "int":
		return Int(n[1].(int64))
	case "num":
		return Num(n[1].(float64))
	case "str":
		return Str(n[1].(string))
	case "bool":
		return Bool(n[1].(bool))
	case "noop":
		return Noop()

	case "id":
		name := n[1].(string)
		v, ok := env.Get(name)
		if !ok {
			ex.fail(ErrUnboundIdentifier, "unbound identifier %q", name)
		}
		return v

	case "var":
		name := n[1].(string)
		mutable := n[3].(bool)
		v := ex.eval(n[2].(S), childPath(p, 1), env)
		ex.path = p
		env.Define(name, v, mutable)
		return v

	case "assign":
		target := n[1].(S)
		v := ex.eval(n[2].(S), childPath(p, 1), env)
		ex.path = p
		ex.assignTo(target, childPath(p, 0), v, env)
		return v

	case "binop":
		return ex.evalBinop(n, p, env)

	case "unop":
		v := ex.eval(n[2].(S), childPath(p, 1), env)
		ex.path = p
		return ex.unop(n[1].(string), v)

	case "opool":
		elems := make([]Value, 0, len(n)-1)
		for i := 1; i < len(n); i++ {
			elems = append(elems, ex.eval(n[i].(S), childPath(p, i-1), env))
		}
		ex.path = p
		return Ordered(elems)

	case "kpool":
		kp := NewKeyedPool()
		for i := 1; i < len(n); i++ {
			pair := n[i].(S)
			key := pair[1].(string)
			v := ex.eval(pair[2].(S), childPath(childPath(p, i-1), 1), env)
			kp.Set(key, v)
		}
		ex.path = p
		return Keyed(kp)

	case "quantum":
		return ex.evalQuantum(n, p, env)

	case "gate":
		return ex.evalGate(n, p, env)

	case "context":
		return ex.evalContextDecl(n, p, env)

	case "reaction":
		return ex.evalReactionDecl(n, p, env)

	case "call":
		return ex.evalCall(n, p, env)

	case "idx":
		recv := ex.eval(n[1].(S), childPath(p, 0), env)
		idx := ex.eval(n[2].(S), childPath(p, 1), env)
		ex.path = p
		return ex.indexInto(recv, idx)

	case "slice":
		return ex.evalSlice(n, p, env)

	case "flow":
		return ex.evalFlow(n, p, env)
	}

	ex.fail(ErrTypeMismatch, "cannot evaluate node %q", tag(n))
	return Noop()
}

// evalBinop handles short-circuiting for '|' and '&' and defers the rest to
// the operator table. '|' yields the first truthy operand, '&' the first
// falsy one.
func (ex *executor) evalBinop(n S, p NodePath, env *Env) Value {
	op := n[1].(string)
	switch op {
	case "|":
		l := ex.eval(n[2].(S), childPath(p, 1), env)
		if truthy(l) {
			return l
		}
		return ex.eval(n[3].(S), childPath(p, 2), env)
	case "&":
		l := ex.eval(n[2].(S), childPath(p, 1), env)
		if !truthy(l) {
			return l
		}
		return ex.eval(n[3].(S), childPath(p, 2), env)
	}
	l := ex.eval(n[2].(S), childPath(p, 1), env)
	r := ex.eval(n[3].(S), childPath(p, 2), env)
	ex.path = p
	return ex.binop(op, l, r)
}

// tryEval evaluates one quantum alternative, converting a runtime failure
// into a returned error instead of unwinding further.
func (ex *executor) tryEval(n S, p NodePath, env *Env) (v Value, rerr *RuntimeError) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				rerr = re
				return
			}
			panic(r)
		}
	}()
	return ex.eval(n, p, env), nil
}

// evalQuantum tries alternatives in source order; the first one that
// evaluates without a runtime error wins and later alternatives are never
// evaluated.
func (ex *executor) evalQuantum(n S, p NodePath, env *Env) Value {
	for i := 1; i < len(n); i++ {
		v, rerr := ex.tryEval(n[i].(S), childPath(p, i-1), env)
		if rerr == nil {
			return v
		}
	}
	ex.path = p
	ex.fail(ErrNoQuantumAlternative, "no quantum alternative succeeded")
	return Noop()
}

// evalGate tests branches top to bottom against the scrutinee; the first
// truthy predicate selects its action. A "cmpfrom" predicate compares the
// scrutinee against its right side; any other predicate is an ordinary
// boolean expression. No match without an else yields noop.
func (ex *executor) evalGate(n S, p NodePath, env *Env) Value {
	sv := ex.eval(n[1].(S), childPath(p, 0), env)
	for i := 2; i < len(n); i++ {
		arm := n[i].(S)
		armPath := childPath(p, i-1)
		if tag(arm) == "else" {
			return ex.eval(arm[1].(S), childPath(armPath, 0), env)
		}
		pred := arm[1].(S)
		predPath := childPath(armPath, 0)
		var hit bool
		if tag(pred) == "cmpfrom" {
			rhs := ex.eval(pred[2].(S), childPath(predPath, 1), env)
			ex.path = predPath
			op := pred[1].(string)
			switch op {
			case "==":
				hit = deepEqual(sv, rhs)
			case "!=":
				hit = !deepEqual(sv, rhs)
			default:
				hit = ex.compare(op, sv, rhs)
			}
		} else {
			hit = truthy(ex.eval(pred, predPath, env))
		}
		if hit {
			return ex.eval(arm[2].(S), childPath(armPath, 1), env)
		}
	}
	ex.path = p
	return Noop()
}

func (ex *executor) evalContextDecl(n S, p NodePath, env *Env) Value {
	name := n[1].(string)
	ins := n[2].(S)
	outs := n[3].(S)

	ctx := &Context{
		Name:     name,
		Inputs:   stringList(ins),
		Outputs:  stringList(outs),
		Body:     n[4].(S),
		BodyPath: childPath(p, 3),
		Env:      env,
		ref:      ex.ref,
	}
	v := Value{Tag: VTContext, Data: ctx}
	env.Define(name, v, false)
	return v
}

func stringList(n S) []string {
	out := make([]string, 0, len(n)-1)
	for i := 1; i < len(n); i++ {
		out = append(out, n[i].(string))
	}
	return out
}

// callContext invokes a declared context: fresh child frame of the defining
// frame, inputs bound positionally, body run in order, declared outputs read
// back and returned as a tuple (single output collapses to the scalar).
func (ex *executor) callContext(ctx *Context, args []Value) Value {
	if len(args) != len(ctx.Inputs) {
		ex.fail(ErrTypeMismatch, "context %q expects %d input(s), got %d",
			ctx.Name, len(ctx.Inputs), len(args))
	}
	frame := NewEnv(ctx.Env)
	for i, in := range ctx.Inputs {
		frame.Define(in, args[i], true)
	}
	for _, out := range ctx.Outputs {
		frame.Define(out, Value{Tag: VTNoop, Data: unassignedMarker}, true)
	}

	body := &executor{ip: ex.ip, ref: ctx.ref}
	body.eval(ctx.Body, ctx.BodyPath, frame)

	results := make([]Value, 0, len(ctx.Outputs))
	for _, out := range ctx.Outputs {
		v, _ := frame.Get(out)
		if v.Tag == VTNoop && v.Data == unassignedMarker {
			ex.fail(ErrUnassignedContextOutput, "context %q did not assign output %q", ctx.Name, out)
		}
		results = append(results, v)
	}
	switch len(results) {
	case 0:
		return Noop()
	case 1:
		return results[0]
	default:
		return Ordered(results)
	}
}

// unassignedMarker flags a declared context output that the body has not
// assigned yet. Never escapes callContext.
var unassignedMarker = new(struct{})

func (ex *executor) evalReactionDecl(n S, p NodePath, env *Env) Value {
	name := n[1].(string)
	watched := n[2].(string)

	r := &Reaction{
		Name:      name,
		Watched:   watched,
		Guard:     n[3].(S),
		GuardPath: childPath(p, 2),
		Body:      n[4].(S),
		BodyPath:  childPath(p, 3),
		Env:       env,
		State:     ReactionArmed,
		ref:       ex.ref,
	}
	env.Define(name, Value{Tag: VTReaction, Data: r}, false)

	// Reactions activate at their declaration site, in source order.
	ex.runReaction(r)
	return Noop()
}

// runReaction drives the reaction state machine: armed (guard about to be
// checked) → running (body executing) → armed, until the guard goes falsy
// (terminal). A tick that leaves the watched binding unchanged also
// terminates, and the host tick ceiling aborts with a runtime error.
func (ex *executor) runReaction(r *Reaction) {
	_, mutable, ok := r.Env.Lookup(r.Watched)
	if !ok {
		ex.fail(ErrUnboundIdentifier, "reaction %q watches unbound identifier %q", r.Name, r.Watched)
	}
	if !mutable {
		ex.fail(ErrTypeMismatch, "reaction %q may only watch a mutable (@var) binding, %q is immutable", r.Name, r.Watched)
	}

	limit := ex.ip.ReactionLimit()
	body := &executor{ip: ex.ip, ref: r.ref}

	for {
		guard := body.eval(r.Guard, r.GuardPath, r.Env)
		if !truthy(guard) {
			r.State = ReactionTerminal
			return
		}
		if limit > 0 && r.Ticks >= limit {
			ex.fail(ErrReactionDidNotConverge, "reaction %q exceeded %d ticks", r.Name, limit)
		}

		r.State = ReactionRunning
		before, _, _ := r.Env.Lookup(r.Watched)
		snapshot := cloneValue(before)

		body.eval(r.Body, r.BodyPath, NewEnv(r.Env))
		r.Ticks++

		after, _, _ := r.Env.Lookup(r.Watched)
		if deepEqual(snapshot, after) {
			r.State = ReactionTerminal
			return
		}
		r.State = ReactionArmed
	}
}

func (ex *executor) evalCall(n S, p NodePath, env *Env) Value {
	callee := ex.eval(n[1].(S), childPath(p, 0), env)
	args := make([]Value, 0, len(n)-2)
	for i := 2; i < len(n); i++ {
		args = append(args, ex.eval(n[i].(S), childPath(p, i-1), env))
	}
	ex.path = p
	return ex.invoke(callee, args)
}

// invoke dispatches a call to a declared context or a host builtin.
func (ex *executor) invoke(callee Value, args []Value) Value {
	switch callee.Tag {
	case VTContext:
		return ex.callContext(callee.Data.(*Context), args)
	case VTNative:
		nat := callee.Data.(*Native)
		if nat.Arity >= 0 && len(args) != nat.Arity {
			ex.fail(ErrTypeMismatch, "builtin %q expects %d argument(s), got %d",
				nat.Name, nat.Arity, len(args))
		}
		v, err := nat.Impl(ex.ip, args)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				if re.Line == 0 {
					if sp, found := ex.ref.spans.Get(ex.path); found {
						re.Line, re.Col = offsetToLineCol(ex.ref.src, sp.StartByte)
						re.src, re.srcName = ex.ref.src, ex.ref.name
					}
				}
				panic(re)
			}
			ex.fail(ErrTypeMismatch, "builtin %q: %v", nat.Name, err)
		}
		return v
	default:
		ex.fail(ErrTypeMismatch, "%s value is not callable", typeName(callee))
		return Noop()
	}
}

func (ex *executor) indexInto(recv, idx Value) Value {
	switch recv.Tag {
	case VTOrdered:
		elems := recv.Data.(*PoolObject).Elems
		i := ex.wantInt(idx, "pool index")
		if i < 0 || i >= int64(len(elems)) {
			ex.fail(ErrPoolIndexOutOfRange, "index %d out of range [0, %d)", i, len(elems))
		}
		return elems[i]
	case VTKeyed:
		kp := recv.Data.(*KeyedPool)
		key := ex.wantStrKey(idx)
		v, ok := kp.Get(key)
		if !ok {
			ex.fail(ErrMissingKey, "missing key %q", key)
		}
		return v
	case VTStr:
		// rune positions, matching what length reports
		runes := []rune(recv.Data.(string))
		i := ex.wantInt(idx, "string index")
		if i < 0 || i >= int64(len(runes)) {
			ex.fail(ErrPoolIndexOutOfRange, "index %d out of range [0, %d)", i, len(runes))
		}
		return Str(string(runes[i]))
	default:
		ex.fail(ErrTypeMismatch, "%s is not indexable", typeName(recv))
		return Noop()
	}
}

// evalSlice slices ordered pools and strings into fresh values. Omitted
// bounds default to the ends; bounds outside [0, length] or inverted fail.
func (ex *executor) evalSlice(n S, p NodePath, env *Env) Value {
	recv := ex.eval(n[1].(S), childPath(p, 0), env)

	bound := func(i int, def int64) int64 {
		node := n[i+1].(S)
		if tag(node) == "noop" {
			return def
		}
		v := ex.eval(node, childPath(p, i), env)
		ex.path = p
		return ex.wantInt(v, "slice bound")
	}

	switch recv.Tag {
	case VTOrdered:
		elems := recv.Data.(*PoolObject).Elems
		lo := bound(1, 0)
		hi := bound(2, int64(len(elems)))
		ex.path = p
		if lo < 0 || hi > int64(len(elems)) || lo > hi {
			ex.fail(ErrPoolIndexOutOfRange, "slice [%d:%d] out of range for length %d", lo, hi, len(elems))
		}
		out := make([]Value, hi-lo)
		copy(out, elems[lo:hi])
		return Ordered(out)
	case VTStr:
		runes := []rune(recv.Data.(string))
		lo := bound(1, 0)
		hi := bound(2, int64(len(runes)))
		ex.path = p
		if lo < 0 || hi > int64(len(runes)) || lo > hi {
			ex.fail(ErrPoolIndexOutOfRange, "slice [%d:%d] out of range for length %d", lo, hi, len(runes))
		}
		return Str(string(runes[lo:hi]))
	default:
		ex.path = p
		ex.fail(ErrTypeMismatch, "%s is not sliceable", typeName(recv))
		return Noop()
	}
}

/* ===========================
   flows
   =========================== */

// evalFlow implements the directional transfer operators. Operands are
// stored in source order; each operator decides which side is the value and
// which the destination.
func (ex *executor) evalFlow(n S, p NodePath, env *Env) Value {
	op := n[1].(string)
	lhs, rhs := n[2].(S), n[3].(S)
	lp, rp := childPath(p, 1), childPath(p, 2)

	switch op {
	case "=>":
		v := ex.eval(lhs, lp, env)
		ex.path = p
		return ex.feed(v, rhs, rp, env)

	case "<=":
		v := ex.eval(rhs, rp, env)
		ex.path = p
		ex.assignTo(lhs, lp, v, env)
		return v

	case "@>":
		v := ex.eval(lhs, lp, env)
		ex.path = p
		name := ex.wantIdent(rhs, "'@>' destination")
		_, mutable, ok := env.Lookup(name)
		if !ok {
			ex.fail(ErrUnboundIdentifier, "unbound identifier %q", name)
		}
		if !mutable {
			ex.fail(ErrImmutableReassignment, "'@>' may only push into a mutable (@var) binding, %q is immutable", name)
		}
		env.Assign(name, v)
		return v

	case "<@":
		name := ex.wantIdent(rhs, "'<@' source")
		v, mutable, ok := env.Lookup(name)
		if !ok {
			ex.fail(ErrUnboundIdentifier, "unbound identifier %q", name)
		}
		if !mutable {
			ex.fail(ErrTypeMismatch, "'<@' pulls from mutable (@var) state, %q is immutable", name)
		}
		ex.assignTo(lhs, lp, v, env)
		return v

	case "<>":
		ln := ex.wantIdent(lhs, "'<>' operand")
		rn := ex.wantIdent(rhs, "'<>' operand")
		lv, lm, lok := env.Lookup(ln)
		if !lok {
			ex.fail(ErrUnboundIdentifier, "unbound identifier %q", ln)
		}
		rv, rm, rok := env.Lookup(rn)
		if !rok {
			ex.fail(ErrUnboundIdentifier, "unbound identifier %q", rn)
		}
		if !lm || !rm {
			ex.fail(ErrImmutableReassignment, "'<>' exchanges mutable (@var) bindings")
		}
		env.Assign(ln, rv)
		env.Assign(rn, lv)
		return lv // the value now held by the right-hand side

	case "++>":
		v := ex.eval(lhs, lp, env)
		pool := ex.eval(rhs, rp, env)
		ex.path = p
		if pool.Tag != VTOrdered {
			ex.fail(ErrTypeMismatch, "'++>' appends to an ordered pool, got %s", typeName(pool))
		}
		po := pool.Data.(*PoolObject)
		po.Elems = append(po.Elems, v)
		return pool
	}

	ex.fail(ErrTypeMismatch, "unknown flow operator %q", op)
	return Noop()
}

// feed delivers a forward-flowing value into its target: a callable gets it
// as the leading argument, an assignable binding or pool element receives
// it, anything else is a mismatch.
func (ex *executor) feed(v Value, target S, tp NodePath, env *Env) Value {
	switch tag(target) {
	case "id":
		name := target[1].(string)
		bound, _, ok := env.Lookup(name)
		if !ok {
			ex.path = tp
			ex.fail(ErrUnboundIdentifier, "unbound identifier %q", name)
		}
		if bound.Tag == VTContext || bound.Tag == VTNative {
			ex.path = tp
			return ex.invoke(bound, []Value{v})
		}
		ex.assignTo(target, tp, v, env)
		return v

	case "call":
		callee := ex.eval(target[1].(S), childPath(tp, 0), env)
		args := []Value{v}
		for i := 2; i < len(target); i++ {
			args = append(args, ex.eval(target[i].(S), childPath(tp, i-1), env))
		}
		ex.path = tp
		return ex.invoke(callee, args)

	case "idx":
		ex.assignTo(target, tp, v, env)
		return v

	default:
		ex.path = tp
		ex.fail(ErrTypeMismatch, "cannot flow into a %q node", tag(target))
		return Noop()
	}
}

func (ex *executor) wantIdent(n S, what string) string {
	if tag(n) != "id" {
		ex.fail(ErrTypeMismatch, "%s must be a binding name", what)
	}
	return n[1].(string)
}

// assignTo writes a value through an assignable target: a named binding
// (mutability enforced) or an indexed pool element.
func (ex *executor) assignTo(target S, tp NodePath, v Value, env *Env) {
	switch tag(target) {
	case "id":
		name := target[1].(string)
		if kind := env.Assign(name, v); kind != "" {
			ex.path = tp
			ex.failAssign(kind, name)
		}

	case "idx":
		recv := ex.eval(target[1].(S), childPath(tp, 0), env)
		idx := ex.eval(target[2].(S), childPath(tp, 1), env)
		ex.path = tp
		switch recv.Tag {
		case VTOrdered:
			po := recv.Data.(*PoolObject)
			i := ex.wantInt(idx, "pool index")
			if i < 0 || i >= int64(len(po.Elems)) {
				ex.fail(ErrPoolIndexOutOfRange, "index %d out of range [0, %d)", i, len(po.Elems))
			}
			po.Elems[i] = v
		case VTKeyed:
			kp := recv.Data.(*KeyedPool)
			kp.Set(ex.wantStrKey(idx), v)
		default:
			ex.fail(ErrTypeMismatch, "%s is not index-assignable", typeName(recv))
		}

	default:
		ex.path = tp
		ex.fail(ErrTypeMismatch, "cannot assign into a %q node", tag(target))
	}
}
