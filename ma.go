package main

import (
	"sort"
	"strings"
)

// Meaning Analyzer: walks SA's tree bottom-up, resolving elm_exp chains
// against the {call, scene, global} form table, overload-selecting
// command argument lists, type-checking assignments/operators, and
// applying the single unknown-identifier-to-string-literal rewrite of
// §4.6. Each scene gets its own call/scene scopes layered over IA's
// shared global scope, so concurrent scenes in the worker pool never
// share mutable form-table state.

type maArg struct {
	form Form
	expr *Expression
}

type maContext struct {
	forms        *FormTable
	file         string
	ia           *IAResult
	inCommand    bool
	sceneElemSeq int
}

// MAResult is MA's output: the same tree, now annotated with resolved
// forms on every Expression node.
type MAResult struct {
	Sentences []*Sentence
}

// RunMA builds a per-scene form table (scene/call scopes private, global
// scope shared read-only with IA) and resolves every sentence in turn.
func RunMA(sa *SAResult, ia *IAResult, file string) (*MAResult, error) {
	ft := &FormTable{call: newFormScope(), scene: newFormScope(), global: ia.FormTable.global}
	ctx := &maContext{forms: ft, file: file, ia: ia}
	for _, st := range sa.Sentences {
		if err := ctx.walkSentence(st); err != nil {
			return nil, err
		}
	}
	return &MAResult{Sentences: sa.Sentences}, nil
}

func (ctx *maContext) walkSentence(st *Sentence) error {
	switch st.Kind {
	case SentLabel, SentZLabel, SentContinue, SentBreak, SentEOF, SentGoto:
		return nil
	case SentDefProp:
		return ctx.walkDefProp(st)
	case SentDefCmd:
		return ctx.walkDefCmd(st)
	case SentReturn:
		if !st.HasValue {
			return nil
		}
		_, err := ctx.resolveExpr(st.RetValue, true)
		return err
	case SentIf:
		for i := range st.IfClauses {
			if _, err := ctx.resolveExpr(st.IfClauses[i].Cond, true); err != nil {
				return err
			}
			if err := ctx.walkBody(st.IfClauses[i].Body); err != nil {
				return err
			}
		}
		return ctx.walkBody(st.ElseBody)
	case SentFor:
		if _, err := ctx.resolveExpr(st.ForInit, true); err != nil {
			return err
		}
		if _, err := ctx.resolveExpr(st.ForCond, true); err != nil {
			return err
		}
		if _, err := ctx.resolveExpr(st.ForLoop, true); err != nil {
			return err
		}
		return ctx.walkBody(st.Body)
	case SentWhile:
		if _, err := ctx.resolveExpr(st.ForCond, true); err != nil {
			return err
		}
		return ctx.walkBody(st.Body)
	case SentSwitch:
		if _, err := ctx.resolveExpr(st.SwitchExpr, true); err != nil {
			return err
		}
		for i := range st.SwitchCases {
			if st.SwitchCases[i].Value != nil {
				if _, err := ctx.resolveExpr(st.SwitchCases[i].Value, true); err != nil {
					return err
				}
			}
			if err := ctx.walkBody(st.SwitchCases[i].Body); err != nil {
				return err
			}
		}
		return nil
	case SentAssign:
		return ctx.walkAssign(st)
	case SentCommand:
		_, err := ctx.resolveExpr(st.CommandExpr, false)
		return err
	case SentText:
		_, err := ctx.resolveExpr(st.TextExpr, true)
		return err
	case SentName:
		if _, err := ctx.resolveExpr(st.NameExpr, true); err != nil {
			return err
		}
		_, err := ctx.resolveExpr(st.TextExpr, true)
		return err
	}
	return nil
}

func (ctx *maContext) walkBody(body []*Sentence) error {
	for _, st := range body {
		if err := ctx.walkSentence(st); err != nil {
			return err
		}
	}
	return nil
}

// walkDefProp registers a property element into the call scope (first
// binding wins, §4.6 "call-property rule") when nested in a command
// body, or the scene scope otherwise.
func (ctx *maContext) walkDefProp(st *Sentence) error {
	if st.PropSize != nil {
		f, err := ctx.resolveExpr(st.PropSize, true)
		if err != nil {
			return err
		}
		if df, isRef := dereference(f); isRef {
			f = df
		}
		if f != FormInt {
			return newErr(ErrMAArgTypeNoMatch, ctx.file, st.SourceLine, "property size must be int")
		}
	}
	size := 0
	if st.PropSize != nil {
		size = 1
	}
	el := &Element{Kind: ElementProperty, Name: st.Name, ReturnForm: st.PropForm, Size: size}
	if ctx.inCommand {
		ctx.forms.DefineCallIfAbsent(el)
		return nil
	}
	el.Code = packElementCode(0, 0, ctx.sceneElemSeq)
	ctx.sceneElemSeq++
	ctx.forms.DefineScene(el)
	return nil
}

func (ctx *maContext) walkDefCmd(st *Sentence) error {
	ctx.forms.ResetCall()
	ctx.inCommand = true
	err := ctx.walkBody(st.CmdBody)
	ctx.inCommand = false
	return err
}

// walkAssign type-checks a store: the LHS auto-converts {int,str,intlist,
// strlist} to its *ref counterpart, then the RHS's dereferenced form must
// match the LHS's value form.
func (ctx *maContext) walkAssign(st *Sentence) error {
	lf, err := ctx.resolveExpr(st.AssignLHS, false)
	if err != nil {
		return err
	}
	if refForm, ok := referenceOf(lf); ok {
		lf = refForm
		st.AssignLHS.ResolvedForm = lf
	}
	rf, err := ctx.resolveExpr(st.AssignRHS, true)
	if err != nil {
		return err
	}
	lhsValue, isRef := dereference(lf)
	if !isRef {
		lhsValue = lf
	}
	rhsValue := rf
	if df, ok := dereference(rf); ok {
		rhsValue = df
	}
	if lhsValue != rhsValue {
		return newErr(ErrMAAssignTypeNoMatch, ctx.file, st.SourceLine, "cannot assign "+rhsValue.String()+" to "+lhsValue.String())
	}
	return nil
}

func (ctx *maContext) resolveExpr(e *Expression, expectValue bool) (Form, error) {
	if e == nil {
		return FormVoid, nil
	}
	switch e.Kind {
	case ExprLiteralInt:
		e.ResolvedForm = FormInt
		return FormInt, nil
	case ExprLiteralStr:
		e.ResolvedForm = FormStr
		return FormStr, nil
	case ExprParenthesized:
		f, err := ctx.resolveExpr(e.Inner, expectValue)
		if err != nil {
			return FormVoid, err
		}
		e.ResolvedForm = f
		return f, nil
	case ExprList:
		last := FormVoid
		for _, it := range e.List {
			f, err := ctx.resolveExpr(it, true)
			if err != nil {
				return FormVoid, err
			}
			last = f
		}
		e.ResolvedForm = last
		return last, nil
	case ExprGotoCall:
		e.ResolvedForm = FormLabel
		return FormLabel, nil
	case ExprUnary:
		operand, err := ctx.resolveExpr(e.Operand, true)
		if err != nil {
			return FormVoid, err
		}
		if df, ok := dereference(operand); ok {
			operand = df
		}
		e.ResolvedForm = operand
		return operand, nil
	case ExprBinary:
		return ctx.resolveBinary(e)
	case ExprElm:
		return ctx.resolveElm(e, expectValue)
	}
	return FormVoid, nil
}

func (ctx *maContext) resolveBinary(e *Expression) (Form, error) {
	lf, err := ctx.resolveExpr(e.Left, true)
	if err != nil {
		return FormVoid, err
	}
	rf, err := ctx.resolveExpr(e.Right, true)
	if err != nil {
		return FormVoid, err
	}
	if df, ok := dereference(lf); ok {
		lf = df
	}
	if df, ok := dereference(rf); ok {
		rf = df
	}
	result, ok := checkOperate2(lf, rf, e.BinaryOp)
	if !ok {
		return FormVoid, newErr(ErrMAExpTypeNoMatch, ctx.file, e.SourceLine, "operator has no overload for "+lf.String()+","+rf.String())
	}
	e.ResolvedForm = result
	return result, nil
}

// checkOperate2 is check_operate_2 (§4.6): int (op) int -> int for every
// arithmetic/logical/bitwise/shift/comparison operator; str+str -> str;
// str comparisons -> int; str*int -> str.
func checkOperate2(lf, rf Form, op int) (Form, bool) {
	switch op {
	case OpAdd:
		if lf == FormInt && rf == FormInt {
			return FormInt, true
		}
		if lf == FormStr && rf == FormStr {
			return FormStr, true
		}
		return FormVoid, false
	case OpMul:
		if lf == FormInt && rf == FormInt {
			return FormInt, true
		}
		if lf == FormStr && rf == FormInt {
			return FormStr, true
		}
		return FormVoid, false
	case OpSub, OpDiv, OpMod, OpBitOr, OpBitAnd, OpBitXor, OpShl, OpShr, OpAnd, OpOr:
		if lf == FormInt && rf == FormInt {
			return FormInt, true
		}
		return FormVoid, false
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		if lf == FormInt && rf == FormInt {
			return FormInt, true
		}
		if lf == FormStr && rf == FormStr {
			return FormInt, true
		}
		return FormVoid, false
	}
	return FormVoid, false
}

// resolveElm is the elm_exp resolution rule of §4.6: look up the first
// name in {call, scene, global}; array indexing requires a sized
// element and an int index; a command with an argument list goes
// through overload selection; a bare property dereferences to its
// value form on read.
func (ctx *maContext) resolveElm(e *Expression, expectValue bool) (Form, error) {
	if len(e.Steps) == 0 {
		return FormVoid, newErr(ErrMAElementUnknown, ctx.file, e.SourceLine, "empty element chain")
	}
	first := e.Steps[0]
	el, ok := ctx.forms.Lookup(first.Name)
	if !ok {
		if len(e.Steps) == 1 && !e.HasArgs && !first.HasIndex && expectValue && !strings.ContainsAny(first.Name, "@$") {
			e.Kind = ExprLiteralStr
			e.StrValue = first.Name
			e.Steps = nil
			e.ResolvedForm = FormStr
			return FormStr, nil
		}
		return FormVoid, newErr(ErrMAElementUnknown, ctx.file, e.SourceLine, first.Name)
	}

	e.ElementCode = el.Code
	form := el.ReturnForm
	if first.HasIndex {
		if el.Size <= 0 {
			return FormVoid, newErr(ErrMAElementUnknown, ctx.file, e.SourceLine, first.Name+" is not an array")
		}
		idxForm, err := ctx.resolveExpr(first.Index, true)
		if err != nil {
			return FormVoid, err
		}
		if df, isRef := dereference(idxForm); isRef {
			idxForm = df
		}
		if idxForm != FormInt {
			return FormVoid, newErr(ErrMAArgTypeNoMatch, ctx.file, e.SourceLine, "array index must be int")
		}
	}

	if el.Kind == ElementCommand && e.HasArgs {
		retForm, err := ctx.resolveOverload(e, el)
		if err != nil {
			return FormVoid, err
		}
		form = retForm
	} else if el.Kind == ElementProperty && expectValue {
		if vf, isRef := dereference(form); isRef {
			form = vf
		}
	}
	e.ResolvedForm = form
	return form, nil
}

// resolveOverload implements the three-step algorithm of §4.6: gather
// positional forms, walk candidate overloads in ascending id order, then
// check named arguments against the id -1 template.
func (ctx *maContext) resolveOverload(e *Expression, el *Element) (Form, error) {
	var positional []maArg
	for _, a := range e.ArgsPos {
		f, err := ctx.resolveExpr(a, true)
		if err != nil {
			return FormVoid, err
		}
		positional = append(positional, maArg{form: f, expr: a})
	}

	var ids []int
	for id := range el.Overloads {
		if id >= 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		ov := el.Overloads[id]
		if overloadMatches(ov, positional) {
			if err := ctx.checkNamedArgs(e, el); err != nil {
				return FormVoid, err
			}
			e.OverloadID = id
			return el.ReturnForm, nil
		}
	}
	return FormVoid, newErr(ErrMAArgTypeNoMatch, ctx.file, e.SourceLine, "no overload of "+el.Name+" matches the call")
}

// overloadMatches walks one overload's positional template left to right
// against args, widening intref/strref in place per §4.6 step 2b.
func overloadMatches(ov *Overload, args []maArg) bool {
	pi := 0
	for _, slot := range ov.Args {
		if slot.Form == FormArgs || slot.Form == FormArgsRef {
			for ; pi < len(args); pi++ {
				if slot.Form == FormArgs {
					if df, isRef := dereference(args[pi].form); isRef {
						args[pi].form = df
						if args[pi].expr != nil {
							args[pi].expr.ResolvedForm = df
						}
					}
				}
			}
			return true
		}
		if pi >= len(args) {
			if slot.DefExist {
				continue
			}
			return false
		}
		af := args[pi].form
		if af == slot.Form {
			pi++
			continue
		}
		if df, isRef := dereference(af); isRef && df == slot.Form {
			args[pi].form = df
			if args[pi].expr != nil {
				args[pi].expr.ResolvedForm = df
			}
			pi++
			continue
		}
		return false
	}
	return pi >= len(args)
}

// checkNamedArgs validates e's named arguments against el's id -1
// named-argument template, when one was declared.
func (ctx *maContext) checkNamedArgs(e *Expression, el *Element) error {
	if len(e.ArgsNam) == 0 {
		return nil
	}
	tmpl, ok := el.Overloads[-1]
	if !ok {
		return newErr(ErrMAArgTypeNoMatch, ctx.file, e.SourceLine, "no named-argument template for "+el.Name)
	}
	e.NamedArgSlots = make(map[string]int, len(e.ArgsNam))
	for name, argExpr := range e.ArgsNam {
		idx, ok := tmpl.NamedIdx[name]
		if !ok || idx < 0 || idx >= len(tmpl.Args) {
			return newErr(ErrMAArgTypeNoMatch, ctx.file, e.SourceLine, "unknown named argument "+name)
		}
		f, err := ctx.resolveExpr(argExpr, true)
		if err != nil {
			return err
		}
		slot := tmpl.Args[idx]
		if f == slot.Form {
			e.NamedArgSlots[name] = idx
			continue
		}
		if df, isRef := dereference(f); isRef && df == slot.Form {
			e.NamedArgSlots[name] = idx
			continue
		}
		return newErr(ErrMAArgTypeNoMatch, ctx.file, e.SourceLine, "named argument "+name+" type mismatch")
	}
	return nil
}
