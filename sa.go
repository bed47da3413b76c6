package main

// Syntactic Analyzer: recursive-descent parser over LA's atom stream,
// building the tagged-variant scene tree of tree.go (§4.5). Ten
// precedence levels are realized by precedence-climbing over the binary
// operators in atom.go's precedence table.
//
// The source surface itself is not dictated by spec.md (no grammar is
// given); the concrete syntax below is this front end's own, chosen to
// make every scene-tree construct of §3 reachable: label/z_label
// declarations, property/command declarations, goto/gosub, structured
// control flow, switch, assignment, command calls, and text/name
// sentences (a bare string literal is text; two adjacent string literals
// are name then text, matching the genre convention of a speaker tag
// ahead of a dialogue line).

type saParser struct {
	atoms   []Atom
	pos     int
	file    string
	forms   *FormTable
	errs    errAccum
	inLoop  int
	cmdDefd map[string]bool // command names with a body seen so far
	decls   *IAResult
	strs    *StringInterner
	unk     *StringInterner
	labels  *StringInterner
}

// SAResult is SA's output: the scene tree plus bookkeeping SA itself
// enforces (label/z-label definitions, command signatures).
type SAResult struct {
	Sentences     []*Sentence
	Labels        map[string]int // label name -> label id
	ZLabels       map[int]bool
	DefinedCmds   map[string]bool
	NextLabelID   int
}

func RunSA(la *LAResult, ia *IAResult, file string) (*SAResult, error) {
	forms := &FormTable{call: newFormScope(), scene: newFormScope(), global: ia.FormTable.global}
	p := &saParser{
		atoms: la.Atoms, file: file, forms: forms, cmdDefd: map[string]bool{}, decls: ia,
		strs: la.Strings, unk: la.Unknowns, labels: la.Labels,
	}
	res := &SAResult{Labels: map[string]int{}, ZLabels: map[int]bool{}, DefinedCmds: map[string]bool{}}

	for !p.atEOF() {
		st, err := p.parseSentence(res)
		if err != nil {
			return nil, err
		}
		if st == nil {
			continue
		}
		res.Sentences = append(res.Sentences, st)
	}

	for _, cmd := range ia.Commands {
		if !res.DefinedCmds[cmd.Name] {
			return nil, newErr(ErrSACommandUndefined, file, 0, "command "+cmd.Name+" declared but never defined")
		}
	}
	if !res.ZLabels[0] {
		return nil, newErr(ErrSAZLabelMissing, file, 0, "z_label 0 is mandatory")
	}
	return res, nil
}

func (p *saParser) atEOF() bool {
	return p.pos >= len(p.atoms) || p.atoms[p.pos].Kind == AtomEOF
}
func (p *saParser) cur() Atom { return p.atoms[p.pos] }
func (p *saParser) advance() Atom {
	a := p.atoms[p.pos]
	if p.pos < len(p.atoms)-1 {
		p.pos++
	}
	return a
}
func (p *saParser) isPunct(ch rune) bool {
	return p.cur().Kind == AtomPunct && rune(p.cur().Opt) == ch
}
func (p *saParser) expectPunct(ch rune) error {
	if !p.isPunct(ch) {
		return newErr(ErrSAMissingBrace, p.file, p.cur().Line, "expected punctuation")
	}
	p.advance()
	return nil
}
func (p *saParser) isKeyword(kw int) bool {
	return p.cur().Kind == AtomKeyword && p.cur().Opt == kw
}

func (p *saParser) parseSentence(res *SAResult) (*Sentence, error) {
	a := p.cur()

	switch {
	case a.Kind == AtomKeyword && a.Opt == kwLabel:
		return p.parseLabelDecl(res)
	case a.Kind == AtomKeyword && a.Opt == kwZLabel:
		return p.parseZLabelDecl(res)
	case a.Kind == AtomKeyword && a.Opt == kwProperty:
		return p.parsePropDecl()
	case a.Kind == AtomKeyword && a.Opt == kwCommand:
		return p.parseCmdDecl(res)
	case a.Kind == AtomKeyword && a.Opt == kwGoto:
		return p.parseGoto(false)
	case a.Kind == AtomKeyword && a.Opt == kwGosub:
		return p.parseGoto(true)
	case a.Kind == AtomKeyword && a.Opt == kwReturn:
		return p.parseReturn()
	case a.Kind == AtomKeyword && a.Opt == kwIf:
		return p.parseIf()
	case a.Kind == AtomKeyword && a.Opt == kwFor:
		return p.parseFor()
	case a.Kind == AtomKeyword && a.Opt == kwWhile:
		return p.parseWhile()
	case a.Kind == AtomKeyword && a.Opt == kwContinue:
		p.advance()
		p.skipSemi()
		if p.inLoop == 0 {
			return nil, newErr(ErrBSContinueNoLoop, p.file, a.Line, "")
		}
		return &Sentence{Kind: SentContinue, SourceLine: a.Line, AtomID: a.ID}, nil
	case a.Kind == AtomKeyword && a.Opt == kwBreak:
		p.advance()
		p.skipSemi()
		if p.inLoop == 0 {
			return nil, newErr(ErrBSBreakNoLoop, p.file, a.Line, "")
		}
		return &Sentence{Kind: SentBreak, SourceLine: a.Line, AtomID: a.ID}, nil
	case a.Kind == AtomKeyword && a.Opt == kwSwitch:
		return p.parseSwitch()
	case a.Kind == AtomStrLiteral:
		return p.parseTextOrName()
	default:
		return p.parseAssignOrCommand()
	}
}

func (p *saParser) peekIsPunct(off int, ch rune) bool {
	idx := p.pos + off
	if idx >= len(p.atoms) {
		return false
	}
	at := p.atoms[idx]
	return at.Kind == AtomPunct && rune(at.Opt) == ch
}

func (p *saParser) skipSemi() {
	if p.isPunct(';') {
		p.advance()
	}
}

func (p *saParser) parseLabelDecl(res *SAResult) (*Sentence, error) {
	kwAtom := p.advance()
	if p.cur().Kind != AtomLabelRef {
		return nil, newErr(ErrSAIllegalExpression, p.file, kwAtom.Line, "expected label name after 'label'")
	}
	labelAtom := p.advance()
	name := p.labelText(labelAtom)
	if _, exists := res.Labels[name]; exists {
		return nil, newErr(ErrSALabelRedefined, p.file, kwAtom.Line, name)
	}
	id := res.NextLabelID
	res.NextLabelID++
	res.Labels[name] = id
	p.skipSemi()
	return &Sentence{Kind: SentLabel, Name: name, LabelID: id, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

// labelText resolves a label atom's interned name.
func (p *saParser) labelText(a Atom) string { return p.labels.String(a.Opt) }

// identText resolves an AtomUnknown's interned name: SubOpt 1 means it
// came from IA's name set (shared strings interner), SubOpt 0 means it
// was a fresh identifier (unknowns interner) -- see la.go's next().
func (p *saParser) identText(a Atom) string {
	if a.SubOpt == 1 {
		return p.strs.String(a.Opt)
	}
	return p.unk.String(a.Opt)
}

func (p *saParser) parseZLabelDecl(res *SAResult) (*Sentence, error) {
	kwAtom := p.advance()
	if p.cur().Kind != AtomIntLiteral {
		return nil, newErr(ErrSAIllegalExpression, p.file, kwAtom.Line, "expected z_label index")
	}
	idxAtom := p.advance()
	idx := idxAtom.Opt
	if res.ZLabels[idx] {
		return nil, newErr(ErrSALabelRedefined, p.file, kwAtom.Line, "z_label redefinition")
	}
	res.ZLabels[idx] = true
	p.skipSemi()
	return &Sentence{Kind: SentZLabel, ZIndex: idx, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func (p *saParser) parsePropDecl() (*Sentence, error) {
	kwAtom := p.advance()
	formAtom := p.advance() // int/str keyword reused as an unknown identifier naming the form
	nameAtom := p.advance()
	st := &Sentence{Kind: SentDefProp, PropForm: parseFormName(p.identText(formAtom)), Name: p.identText(nameAtom), SourceLine: kwAtom.Line, AtomID: kwAtom.ID}
	if p.isPunct('[') {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		st.PropSize = idx
		if err := p.expectPunct(']'); err != nil {
			return nil, err
		}
	}
	p.skipSemi()
	return st, nil
}

func (p *saParser) parseCmdDecl(res *SAResult) (*Sentence, error) {
	kwAtom := p.advance()
	nameAtom := p.advance()
	name := p.identText(nameAtom)
	if err := p.expectPunct('('); err != nil {
		return nil, err
	}
	var args []ArgSlot
	for !p.isPunct(')') {
		form := parseFormName(p.identText(p.advance()))
		defExist := false
		if p.isPunct('?') {
			p.advance()
			defExist = true
		}
		args = append(args, ArgSlot{Form: form, DefExist: defExist})
		if p.isPunct(',') {
			p.advance()
		}
	}
	p.advance() // ')'

	p.forms.ResetCall()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	retForm := FormVoid
	if decl, ok := lookupDeclaredCommand(p.decls, name); ok {
		if !sameSignature(decl, args) {
			return nil, newErr(ErrSACommandMismatch, p.file, kwAtom.Line, name)
		}
		retForm = decl.ReturnForm
	}
	if res.DefinedCmds[name] {
		return nil, newErr(ErrLinkCmdMultiplyDefined, p.file, kwAtom.Line, name)
	}
	res.DefinedCmds[name] = true

	return &Sentence{Kind: SentDefCmd, CmdName: name, CmdArgs: args, CmdReturn: retForm, CmdBody: body, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func lookupDeclaredCommand(ia *IAResult, name string) (*Element, bool) {
	for _, c := range ia.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func sameSignature(decl *Element, args []ArgSlot) bool {
	ov, ok := decl.Overloads[0]
	if !ok || len(ov.Args) != len(args) {
		return false
	}
	for i := range args {
		if ov.Args[i].Form != args[i].Form {
			return false
		}
	}
	return true
}

func (p *saParser) parseBlock() ([]*Sentence, error) {
	if err := p.expectPunct('{'); err != nil {
		return nil, err
	}
	var body []*Sentence
	for !p.isPunct('}') {
		if p.atEOF() {
			return nil, newErr(ErrSAMissingBrace, p.file, p.cur().Line, "unterminated block")
		}
		st, err := p.parseSentenceInBlock()
		if err != nil {
			return nil, err
		}
		if st != nil {
			body = append(body, st)
		}
	}
	p.advance() // '}'
	return body, nil
}

// parseSentenceInBlock parses one sentence inside a block. It accepts the
// same statements and property declarations as parseSentence, but not
// label/z_label/command declarations, which are top-level only in this
// grammar.
func (p *saParser) parseSentenceInBlock() (*Sentence, error) {
	a := p.cur()
	switch {
	case a.Kind == AtomKeyword && a.Opt == kwGoto:
		return p.parseGoto(false)
	case a.Kind == AtomKeyword && a.Opt == kwGosub:
		return p.parseGoto(true)
	case a.Kind == AtomKeyword && a.Opt == kwReturn:
		return p.parseReturn()
	case a.Kind == AtomKeyword && a.Opt == kwIf:
		return p.parseIf()
	case a.Kind == AtomKeyword && a.Opt == kwFor:
		return p.parseFor()
	case a.Kind == AtomKeyword && a.Opt == kwWhile:
		return p.parseWhile()
	case a.Kind == AtomKeyword && a.Opt == kwContinue:
		p.advance()
		p.skipSemi()
		if p.inLoop == 0 {
			return nil, newErr(ErrBSContinueNoLoop, p.file, a.Line, "")
		}
		return &Sentence{Kind: SentContinue, SourceLine: a.Line, AtomID: a.ID}, nil
	case a.Kind == AtomKeyword && a.Opt == kwBreak:
		p.advance()
		p.skipSemi()
		if p.inLoop == 0 {
			return nil, newErr(ErrBSBreakNoLoop, p.file, a.Line, "")
		}
		return &Sentence{Kind: SentBreak, SourceLine: a.Line, AtomID: a.ID}, nil
	case a.Kind == AtomKeyword && a.Opt == kwSwitch:
		return p.parseSwitch()
	case a.Kind == AtomStrLiteral:
		return p.parseTextOrName()
	case a.Kind == AtomKeyword && a.Opt == kwProperty:
		return p.parsePropDecl()
	default:
		return p.parseAssignOrCommand()
	}
}

func (p *saParser) parseGoto(isGosub bool) (*Sentence, error) {
	kwAtom := p.advance()
	if p.cur().Kind != AtomLabelRef {
		return nil, newErr(ErrSAIllegalExpression, p.file, kwAtom.Line, "expected label target")
	}
	target := p.advance()
	p.skipSemi()
	return &Sentence{Kind: SentGoto, GotoTarget: p.labelText(target), GotoIsGosub: isGosub, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func (p *saParser) parseReturn() (*Sentence, error) {
	kwAtom := p.advance()
	if p.isPunct(';') {
		p.advance()
		return &Sentence{Kind: SentReturn, HasValue: false, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSemi()
	return &Sentence{Kind: SentReturn, HasValue: true, RetValue: val, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func (p *saParser) parseIf() (*Sentence, error) {
	kwAtom := p.advance()
	var clauses []IfClause
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	clauses = append(clauses, IfClause{Cond: cond, Body: body})
	for p.isKeyword(kwElseif) {
		p.advance()
		c, err := p.parseParenExpr()
		if err != nil {
			return nil, err
		}
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, IfClause{Cond: c, Body: b})
	}
	var elseBody []*Sentence
	if p.isKeyword(kwElse) {
		p.advance()
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &Sentence{Kind: SentIf, IfClauses: clauses, ElseBody: elseBody, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func (p *saParser) parseParenExpr() (*Expression, error) {
	if err := p.expectPunct('('); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(')'); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *saParser) parseFor() (*Sentence, error) {
	kwAtom := p.advance()
	if err := p.expectPunct('('); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(';'); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(';'); err != nil {
		return nil, err
	}
	loop, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(')'); err != nil {
		return nil, err
	}
	p.inLoop++
	body, err := p.parseBlock()
	p.inLoop--
	if err != nil {
		return nil, err
	}
	return &Sentence{Kind: SentFor, ForInit: init, ForCond: cond, ForLoop: loop, Body: body, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func (p *saParser) parseWhile() (*Sentence, error) {
	kwAtom := p.advance()
	cond, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	p.inLoop++
	body, err := p.parseBlock()
	p.inLoop--
	if err != nil {
		return nil, err
	}
	return &Sentence{Kind: SentWhile, ForCond: cond, Body: body, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func (p *saParser) parseSwitch() (*Sentence, error) {
	kwAtom := p.advance()
	disc, err := p.parseParenExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct('{'); err != nil {
		return nil, err
	}
	var cases []SwitchCase
	for !p.isPunct('}') {
		if p.isKeyword(kwCase) {
			p.advance()
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(':'); err != nil {
				return nil, err
			}
			body, err := p.parseCaseBody()
			if err != nil {
				return nil, err
			}
			cases = append(cases, SwitchCase{Value: v, Body: body})
		} else if p.isKeyword(kwDefault) {
			p.advance()
			if err := p.expectPunct(':'); err != nil {
				return nil, err
			}
			body, err := p.parseCaseBody()
			if err != nil {
				return nil, err
			}
			cases = append(cases, SwitchCase{Value: nil, Body: body})
		} else {
			return nil, newErr(ErrSAIllegalExpression, p.file, p.cur().Line, "expected case/default")
		}
	}
	p.advance() // '}'
	return &Sentence{Kind: SentSwitch, SwitchExpr: disc, SwitchCases: cases, SourceLine: kwAtom.Line, AtomID: kwAtom.ID}, nil
}

func (p *saParser) parseCaseBody() ([]*Sentence, error) {
	var body []*Sentence
	for !p.isKeyword(kwCase) && !p.isKeyword(kwDefault) && !p.isPunct('}') {
		if p.atEOF() {
			return nil, newErr(ErrSAMissingBrace, p.file, p.cur().Line, "unterminated switch")
		}
		st, err := p.parseSentenceInBlock()
		if err != nil {
			return nil, err
		}
		if st != nil {
			body = append(body, st)
		}
	}
	return body, nil
}

func (p *saParser) parseTextOrName() (*Sentence, error) {
	first := p.advance()
	firstExpr := &Expression{Kind: ExprLiteralStr, StrValue: p.strs.String(first.Opt), AtomID: first.ID, SourceLine: first.Line}
	if p.cur().Kind == AtomStrLiteral {
		second := p.advance()
		secondExpr := &Expression{Kind: ExprLiteralStr, StrValue: p.strs.String(second.Opt), AtomID: second.ID, SourceLine: second.Line}
		p.skipSemi()
		return &Sentence{Kind: SentName, NameExpr: firstExpr, TextExpr: secondExpr, SourceLine: first.Line, AtomID: first.ID}, nil
	}
	p.skipSemi()
	return &Sentence{Kind: SentText, TextExpr: firstExpr, SourceLine: first.Line, AtomID: first.ID}, nil
}

func (p *saParser) parseAssignOrCommand() (*Sentence, error) {
	startAtom := p.cur()
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == AtomOperator && p.cur().Opt == OpAssign {
		p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSemi()
		return &Sentence{Kind: SentAssign, AssignLHS: lhs, AssignRHS: rhs, SourceLine: startAtom.Line, AtomID: startAtom.ID}, nil
	}
	p.skipSemi()
	if lhs.Kind == ExprElm && lhs.HasArgs {
		return &Sentence{Kind: SentCommand, CommandExpr: lhs, SourceLine: startAtom.Line, AtomID: startAtom.ID}, nil
	}
	return &Sentence{Kind: SentCommand, CommandExpr: lhs, SourceLine: startAtom.Line, AtomID: startAtom.ID}, nil
}

// --- Expressions: precedence climbing over the 10 levels of atom.go. ---

func (p *saParser) parseExpr() (*Expression, error) {
	return p.parseBinary(1)
}

func (p *saParser) parseBinary(minPrec int) (*Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if p.cur().Kind != AtomOperator {
			break
		}
		op := p.cur().Opt
		prec := precedence(op)
		if prec < minPrec || prec < 0 {
			break
		}
		opAtom := p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Expression{Kind: ExprBinary, BinaryOp: op, Left: left, Right: right, AtomID: opAtom.ID, SourceLine: opAtom.Line}
	}
	return left, nil
}

func (p *saParser) parseUnary() (*Expression, error) {
	if p.cur().Kind == AtomOperator && (p.cur().Opt == OpSub || p.cur().Opt == OpNot || p.cur().Opt == OpBitNot) {
		opAtom := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := opAtom.Opt
		if op == OpSub {
			op = OpNeg
		}
		return &Expression{Kind: ExprUnary, UnaryOp: op, Operand: operand, AtomID: opAtom.ID, SourceLine: opAtom.Line}, nil
	}
	return p.parsePrimary()
}

func (p *saParser) parsePrimary() (*Expression, error) {
	a := p.cur()
	switch a.Kind {
	case AtomIntLiteral:
		p.advance()
		return &Expression{Kind: ExprLiteralInt, IntValue: int64(a.Opt), AtomID: a.ID, SourceLine: a.Line}, nil
	case AtomStrLiteral:
		p.advance()
		return &Expression{Kind: ExprLiteralStr, StrValue: p.strs.String(a.Opt), AtomID: a.ID, SourceLine: a.Line}, nil
	case AtomLabelRef:
		p.advance()
		return &Expression{Kind: ExprGotoCall, GosubTarget: p.labelText(a), AtomID: a.ID, SourceLine: a.Line}, nil
	case AtomPunct:
		if rune(a.Opt) == '(' {
			p.advance()
			if p.isPunct(')') {
				// empty parenthesized -> treat as exp_list start
			}
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.isPunct(',') {
				list := []*Expression{inner}
				for p.isPunct(',') {
					p.advance()
					e, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					list = append(list, e)
				}
				if err := p.expectPunct(')'); err != nil {
					return nil, err
				}
				return &Expression{Kind: ExprList, List: list, AtomID: a.ID, SourceLine: a.Line}, nil
			}
			if err := p.expectPunct(')'); err != nil {
				return nil, err
			}
			return &Expression{Kind: ExprParenthesized, Inner: inner, AtomID: a.ID, SourceLine: a.Line}, nil
		}
	case AtomUnknown:
		return p.parseElmExp()
	}
	return nil, newErr(ErrSAIllegalExpression, p.file, a.Line, "unexpected token in expression")
}

// parseElmExp parses an elm_exp: a chain of `.name[idx]` steps optionally
// terminated by a call argument list (§3).
func (p *saParser) parseElmExp() (*Expression, error) {
	first := p.advance()
	firstStep := ElmStep{Name: p.identText(first)}
	if p.isPunct('[') {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		firstStep.HasIndex = true
		firstStep.Index = idx
		if err := p.expectPunct(']'); err != nil {
			return nil, err
		}
	}
	steps := []ElmStep{firstStep}
	for p.isPunct('.') {
		p.advance()
		if p.cur().Kind != AtomUnknown {
			return nil, newErr(ErrSAIllegalExpression, p.file, p.cur().Line, "expected member name after '.'")
		}
		nameAtom := p.advance()
		step := ElmStep{Name: p.identText(nameAtom)}
		if p.isPunct('[') {
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			step.HasIndex = true
			step.Index = idx
			if err := p.expectPunct(']'); err != nil {
				return nil, err
			}
		}
		steps = append(steps, step)
	}

	expr := &Expression{Kind: ExprElm, Steps: steps, AtomID: first.ID, SourceLine: first.Line}
	if p.isPunct('(') {
		p.advance()
		expr.HasArgs = true
		expr.ArgsNam = map[string]*Expression{}
		for !p.isPunct(')') {
			if p.cur().Kind == AtomUnknown && p.peekIsPunct(1, ':') {
				nameAtom := p.advance()
				p.advance() // ':'
				val, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				expr.ArgsNam[p.identText(nameAtom)] = val
			} else {
				val, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				expr.ArgsPos = append(expr.ArgsPos, val)
			}
			if p.isPunct(',') {
				p.advance()
			}
		}
		p.advance() // ')'
	}
	return expr, nil
}
