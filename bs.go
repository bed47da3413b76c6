package main

import (
	"bytes"
	"encoding/binary"
	"sort"
	"unicode/utf16"
)

// Binary Save: lowers MA's resolved tree to the stack-machine bytecode
// and per-scene side tables of §4.7, including the deterministic
// shuffled string-table layout.

// labelAllocator hands out label ids above SA's user-label range for
// BS's own structured-control synthetic labels (end_label, next_label,
// loop_lbl, ...), and records each id's fixed bytecode offset once
// lowering reaches it. Because every branch opcode stores a label id
// (not a raw offset), no back-patching pass over already-emitted bytes
// is needed -- label_list resolves ids to offsets for the runtime and
// disassembler.
type labelAllocator struct {
	offsets map[int]int32
	nextID  int
}

func newLabelAllocator(startID int) *labelAllocator {
	return &labelAllocator{offsets: map[int]int32{}, nextID: startID}
}

func (la *labelAllocator) alloc() int {
	id := la.nextID
	la.nextID++
	return id
}

func (la *labelAllocator) fix(id int, offset int32) { la.offsets[id] = offset }

type loopLabels struct {
	continueID int
	breakID    int
}

type cmdLabelEntry struct {
	CmdID  int32
	Offset int32
}

type scnPropEntry struct {
	Form int32
	Size int32
}

// StrSlice is one entry of a per-scene str_index_list: an (offset,
// length) pair into the shuffled UTF-16 blob, in char units.
type StrSlice struct {
	Offset int32
	Length int32
}

// zLabelFixedCount is the z_label table's reserved slot count; the
// reference engine allocates a constant-size block regardless of how
// many z_labels a given scene actually defines.
const zLabelFixedCount = 100

// elmGlobalMsgBlock is the well-known global element id the
// message-block priming sequence addresses (§4.7).
const elmGlobalMsgBlock = int32(1)

// BSResult is one scene's complete lowered data (§3/§4.7), ready for the
// linker's compression/codec/header pass.
type BSResult struct {
	ScnBytes []byte

	StrList      []string
	StrSortIndex []int
	StrIndexList []StrSlice
	StrBlob      []byte

	LabelList    []int32
	ZLabelList   []int32
	CmdLabelList []cmdLabelEntry
	ScnCmdList   []int32

	ScnPropList          []scnPropEntry
	ScnPropNameIndexList []StrSlice
	ScnPropNameBlob      []byte

	ScnCmdNameIndexList []StrSlice
	ScnCmdNameBlob      []byte

	CallPropNameIndexList []StrSlice
	CallPropNameBlob      []byte

	NamaeList    []int32
	ReadFlagList []int32
}

type bsContext struct {
	file string
	ia   *IAResult

	labels        *labelAllocator
	userLabels    map[string]int
	zLabelOffsets map[int]int32

	out opWriter

	loopStack []loopLabels
	inCommand bool

	strList []string

	// callPropSeq numbers call-scope properties within the current command
	// body; it resets to zero at each def_cmd, mirroring the call scope's
	// own per-command reset (form.go's FormTable.ResetCall).
	callPropSeq   int
	callPropNames []string // one entry per CD_DEC_PROP declaration site, scene-wide

	scnPropList  []scnPropEntry
	scnPropNames []string // one entry per scene-scope property, parallel to scnPropList

	scnCmdNames  []string
	localCmdSeq  int
	cmdLabelList []cmdLabelEntry

	readFlagList []int32
	namaeList    []int32
	namaeSeen    map[string]bool
}

// RunBS lowers one scene's MA-resolved tree to bytecode and side tables.
// shuffler is the single module-scoped PRNG stream threaded across every
// scene in canonical compilation order (§4.7, §9).
func RunBS(ma *MAResult, sa *SAResult, ia *IAResult, shuffler *Shuffler, file string) (*BSResult, error) {
	ctx := &bsContext{
		file:          file,
		ia:            ia,
		labels:        newLabelAllocator(sa.NextLabelID),
		userLabels:    sa.Labels,
		zLabelOffsets: map[int]int32{},
	}
	for _, st := range ma.Sentences {
		if err := ctx.lowerSentence(st); err != nil {
			return nil, err
		}
	}
	ctx.out.op(CD_EOF)
	return ctx.finish(sa, shuffler), nil
}

func (ctx *bsContext) emitGoto(op Opcode, labelID int) {
	ctx.out.op(op)
	ctx.out.i32(int32(labelID))
}

func (ctx *bsContext) lowerBody(body []*Sentence) error {
	for _, st := range body {
		if err := ctx.lowerSentence(st); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *bsContext) lowerSentence(st *Sentence) error {
	ctx.out.op(CD_NL)
	ctx.out.i32(int32(st.SourceLine))

	switch st.Kind {
	case SentLabel:
		ctx.labels.fix(st.LabelID, ctx.out.offset())
		return nil
	case SentZLabel:
		ctx.zLabelOffsets[st.ZIndex] = ctx.out.offset()
		return nil
	case SentDefProp:
		return ctx.lowerDefProp(st)
	case SentDefCmd:
		return ctx.lowerDefCmd(st)
	case SentGoto:
		return ctx.lowerGoto(st)
	case SentReturn:
		return ctx.lowerReturn(st)
	case SentIf:
		return ctx.lowerIf(st)
	case SentFor:
		return ctx.lowerFor(st)
	case SentWhile:
		return ctx.lowerWhile(st)
	case SentContinue:
		top := ctx.loopStack[len(ctx.loopStack)-1]
		ctx.emitGoto(CD_GOTO, top.continueID)
		return nil
	case SentBreak:
		top := ctx.loopStack[len(ctx.loopStack)-1]
		ctx.emitGoto(CD_GOTO, top.breakID)
		return nil
	case SentSwitch:
		return ctx.lowerSwitch(st)
	case SentAssign:
		return ctx.lowerAssign(st)
	case SentCommand:
		f, err := ctx.lowerExpr(st.CommandExpr)
		if err != nil {
			return err
		}
		if f != FormVoid {
			ctx.out.op(CD_POP)
			ctx.out.i32(int32(f))
		}
		return nil
	case SentText:
		ctx.primeMessageBlock()
		if _, err := ctx.lowerExpr(st.TextExpr); err != nil {
			return err
		}
		ctx.out.op(CD_TEXT)
		ctx.out.i32(int32(len(ctx.readFlagList)))
		ctx.readFlagList = append(ctx.readFlagList, int32(st.SourceLine))
		return nil
	case SentName:
		ctx.primeMessageBlock()
		if err := ctx.lowerNameExpr(st.NameExpr); err != nil {
			return err
		}
		ctx.out.op(CD_NAME)
		if _, err := ctx.lowerExpr(st.TextExpr); err != nil {
			return err
		}
		ctx.out.op(CD_TEXT)
		ctx.out.i32(int32(len(ctx.readFlagList)))
		ctx.readFlagList = append(ctx.readFlagList, int32(st.SourceLine))
		return nil
	}
	return nil
}

// primeMessageBlock emits the fixed three-instruction sequence that
// precedes every text-producing sentence (§4.7).
func (ctx *bsContext) primeMessageBlock() {
	ctx.out.op(CD_ELM_POINT)
	ctx.out.op(CD_PUSH)
	ctx.out.i32(int32(FormInt))
	ctx.out.i32(elmGlobalMsgBlock)
	ctx.out.op(CD_COMMAND)
	ctx.out.i32(0)
	ctx.out.i32(0)
	ctx.out.i32(0)
	ctx.out.i32(int32(FormVoid))
}

func (ctx *bsContext) lowerGoto(st *Sentence) error {
	id, ok := ctx.userLabels[st.GotoTarget]
	if !ok {
		return newErr(ErrSALabelUndefined, ctx.file, st.SourceLine, st.GotoTarget)
	}
	op := CD_GOTO
	if st.GotoIsGosub {
		op = CD_GOSUB
	}
	ctx.out.op(op)
	ctx.out.i32(int32(id))
	if st.GotoIsGosub {
		ctx.out.i32(0) // argc: this front end's goto_call carries no argument list
	}
	return nil
}

func (ctx *bsContext) lowerReturn(st *Sentence) error {
	if !st.HasValue {
		ctx.out.op(CD_RETURN)
		ctx.out.i32(0)
		return nil
	}
	f, err := ctx.lowerExpr(st.RetValue)
	if err != nil {
		return err
	}
	ctx.out.op(CD_RETURN)
	ctx.out.i32(1)
	ctx.out.i32(int32(f))
	return nil
}

// lowerIf implements the if/elseif/else lowering of §4.7.
func (ctx *bsContext) lowerIf(st *Sentence) error {
	endLabel := ctx.labels.alloc()
	for _, clause := range st.IfClauses {
		nextLabel := ctx.labels.alloc()
		if _, err := ctx.lowerExpr(clause.Cond); err != nil {
			return err
		}
		ctx.emitGoto(CD_GOTO_FALSE, nextLabel)
		if err := ctx.lowerBody(clause.Body); err != nil {
			return err
		}
		ctx.emitGoto(CD_GOTO, endLabel)
		ctx.labels.fix(nextLabel, ctx.out.offset())
	}
	if err := ctx.lowerBody(st.ElseBody); err != nil {
		return err
	}
	ctx.labels.fix(endLabel, ctx.out.offset())
	return nil
}

// lowerFor implements the for-loop lowering of §4.7: init, goto init_lbl,
// loop_lbl: loop, init_lbl: cond, goto_false out_lbl, block, goto
// loop_lbl, out_lbl:. continue re-enters at loop_lbl (the increment).
func (ctx *bsContext) lowerFor(st *Sentence) error {
	initLbl := ctx.labels.alloc()
	loopLbl := ctx.labels.alloc()
	outLbl := ctx.labels.alloc()

	if f, err := ctx.lowerExpr(st.ForInit); err != nil {
		return err
	} else if f != FormVoid {
		ctx.out.op(CD_POP)
		ctx.out.i32(int32(f))
	}
	ctx.emitGoto(CD_GOTO, initLbl)

	ctx.labels.fix(loopLbl, ctx.out.offset())
	if f, err := ctx.lowerExpr(st.ForLoop); err != nil {
		return err
	} else if f != FormVoid {
		ctx.out.op(CD_POP)
		ctx.out.i32(int32(f))
	}

	ctx.labels.fix(initLbl, ctx.out.offset())
	if _, err := ctx.lowerExpr(st.ForCond); err != nil {
		return err
	}
	ctx.emitGoto(CD_GOTO_FALSE, outLbl)

	ctx.loopStack = append(ctx.loopStack, loopLabels{continueID: loopLbl, breakID: outLbl})
	err := ctx.lowerBody(st.Body)
	ctx.loopStack = ctx.loopStack[:len(ctx.loopStack)-1]
	if err != nil {
		return err
	}
	ctx.emitGoto(CD_GOTO, loopLbl)
	ctx.labels.fix(outLbl, ctx.out.offset())
	return nil
}

func (ctx *bsContext) lowerWhile(st *Sentence) error {
	loopLbl := ctx.labels.alloc()
	outLbl := ctx.labels.alloc()
	ctx.labels.fix(loopLbl, ctx.out.offset())
	if _, err := ctx.lowerExpr(st.ForCond); err != nil {
		return err
	}
	ctx.emitGoto(CD_GOTO_FALSE, outLbl)
	ctx.loopStack = append(ctx.loopStack, loopLabels{continueID: loopLbl, breakID: outLbl})
	err := ctx.lowerBody(st.Body)
	ctx.loopStack = ctx.loopStack[:len(ctx.loopStack)-1]
	if err != nil {
		return err
	}
	ctx.emitGoto(CD_GOTO, loopLbl)
	ctx.labels.fix(outLbl, ctx.out.offset())
	return nil
}

// lowerSwitch implements §4.7's switch lowering: discriminant lowered
// once, each case compares a duplicate against its value and branches on
// equality, the fallthrough path pops the discriminant and jumps to
// default (or out), and each case body starts with its own pop of the
// duplicate before running.
func (ctx *bsContext) lowerSwitch(st *Sentence) error {
	outLbl := ctx.labels.alloc()
	df, err := ctx.lowerExpr(st.SwitchExpr)
	if err != nil {
		return err
	}

	type caseInfo struct {
		label     int
		isDefault bool
		body      []*Sentence
	}
	var infos []caseInfo
	defaultLbl := -1

	for _, c := range st.SwitchCases {
		lbl := ctx.labels.alloc()
		if c.Value == nil {
			defaultLbl = lbl
			infos = append(infos, caseInfo{label: lbl, isDefault: true, body: c.Body})
			continue
		}
		ctx.out.op(CD_COPY)
		ctx.out.i32(int32(df))
		if _, err := ctx.lowerExpr(c.Value); err != nil {
			return err
		}
		ctx.out.op(CD_OPERATE_2)
		ctx.out.i32(int32(df))
		ctx.out.i32(int32(df))
		ctx.out.u8(byte(OpEq))
		ctx.emitGoto(CD_GOTO_TRUE, lbl)
		infos = append(infos, caseInfo{label: lbl, body: c.Body})
	}

	ctx.out.op(CD_POP)
	ctx.out.i32(int32(df))
	if defaultLbl >= 0 {
		ctx.emitGoto(CD_GOTO, defaultLbl)
	} else {
		ctx.emitGoto(CD_GOTO, outLbl)
	}

	for _, info := range infos {
		ctx.labels.fix(info.label, ctx.out.offset())
		if !info.isDefault {
			ctx.out.op(CD_POP)
			ctx.out.i32(int32(df))
		}
		if err := ctx.lowerBody(info.body); err != nil {
			return err
		}
		ctx.emitGoto(CD_GOTO, outLbl)
	}

	ctx.labels.fix(outLbl, ctx.out.offset())
	return nil
}

func (ctx *bsContext) lowerAssign(st *Sentence) error {
	lhs := st.AssignLHS
	if lhs.Kind != ExprElm || len(lhs.Steps) == 0 {
		return newErr(ErrBSNeedReference, ctx.file, st.SourceLine, "assignment target must be an element reference")
	}
	ctx.out.op(CD_ELM_POINT)
	ctx.out.op(CD_PUSH)
	ctx.out.i32(int32(FormInt))
	ctx.out.i32(lhs.ElementCode)
	if lhs.Steps[0].HasIndex {
		if _, err := ctx.lowerExpr(lhs.Steps[0].Index); err != nil {
			return err
		}
		ctx.out.op(CD_COPY_ELM)
	}
	rf, err := ctx.lowerExpr(st.AssignRHS)
	if err != nil {
		return err
	}
	alID := int32(0)
	if _, isRef := dereference(lhs.ResolvedForm); isRef {
		alID = 1
	}
	ctx.out.op(CD_ASSIGN)
	ctx.out.i32(int32(lhs.ResolvedForm))
	ctx.out.i32(int32(rf))
	ctx.out.i32(alID)
	return nil
}

func (ctx *bsContext) lowerDefProp(st *Sentence) error {
	if ctx.inCommand {
		propID := ctx.callPropSeq
		ctx.callPropSeq++
		ctx.callPropNames = append(ctx.callPropNames, st.Name)
		if st.PropSize != nil {
			if _, err := ctx.lowerExpr(st.PropSize); err != nil {
				return err
			}
		} else {
			ctx.out.op(CD_PUSH)
			ctx.out.i32(int32(FormInt))
			ctx.out.i32(0)
		}
		ctx.out.op(CD_DEC_PROP)
		ctx.out.i32(int32(st.PropForm))
		ctx.out.i32(int32(propID))
		return nil
	}
	size := int32(0)
	if st.PropSize != nil {
		size = 1
	}
	ctx.scnPropList = append(ctx.scnPropList, scnPropEntry{Form: int32(st.PropForm), Size: size})
	ctx.scnPropNames = append(ctx.scnPropNames, st.Name)
	return nil
}

func (ctx *bsContext) lowerDefCmd(st *Sentence) error {
	endLbl := ctx.labels.alloc()
	ctx.emitGoto(CD_GOTO, endLbl)

	bodyStart := ctx.out.offset()
	ctx.out.op(CD_ARG)
	ctx.callPropSeq = 0 // call scope restarts at each command body (form.go's ResetCall)
	for _, arg := range st.CmdArgs {
		propID := ctx.callPropSeq
		ctx.callPropSeq++
		ctx.out.op(CD_PUSH)
		ctx.out.i32(int32(FormInt))
		ctx.out.i32(0)
		ctx.out.op(CD_DEC_PROP)
		ctx.out.i32(int32(arg.Form))
		ctx.out.i32(int32(propID))
	}

	ctx.inCommand = true
	err := ctx.lowerBody(st.CmdBody)
	ctx.inCommand = false
	if err != nil {
		return err
	}
	ctx.out.op(CD_RETURN)
	ctx.out.i32(0)
	ctx.labels.fix(endLbl, ctx.out.offset())

	ctx.cmdLabelList = append(ctx.cmdLabelList, cmdLabelEntry{CmdID: ctx.cmdIDFor(st.CmdName), Offset: bodyStart})
	ctx.scnCmdNames = append(ctx.scnCmdNames, st.CmdName)
	return nil
}

func (ctx *bsContext) cmdIDFor(name string) int32 {
	if el, ok := lookupDeclaredCommand(ctx.ia, name); ok {
		return el.Code
	}
	id := packElementCode(0, 1, ctx.ia.IncCommandCnt+ctx.localCmdSeq)
	ctx.localCmdSeq++
	return id
}

// lowerNameExpr lowers a CD_NAME statement's speaker-name expression.
// Name atoms are always string literals (sa.go's name/text sentence
// parsing), so this records the name's interned string id into namaeList
// the first time its exact text appears in the scene, deduplicated by
// text rather than by occurrence.
func (ctx *bsContext) lowerNameExpr(e *Expression) error {
	if e.Kind != ExprLiteralStr {
		_, err := ctx.lowerExpr(e)
		return err
	}
	id := ctx.internStr(e.StrValue)
	ctx.out.op(CD_PUSH)
	ctx.out.i32(int32(FormStr))
	ctx.out.i32(int32(id))
	if ctx.namaeSeen == nil {
		ctx.namaeSeen = make(map[string]bool)
	}
	if !ctx.namaeSeen[e.StrValue] {
		ctx.namaeSeen[e.StrValue] = true
		ctx.namaeList = append(ctx.namaeList, int32(id))
	}
	return nil
}

func (ctx *bsContext) lowerExpr(e *Expression) (Form, error) {
	if e == nil {
		return FormVoid, nil
	}
	switch e.Kind {
	case ExprLiteralInt:
		ctx.out.op(CD_PUSH)
		ctx.out.i32(int32(FormInt))
		ctx.out.i32(int32(e.IntValue))
		return FormInt, nil
	case ExprLiteralStr:
		id := ctx.internStr(e.StrValue)
		ctx.out.op(CD_PUSH)
		ctx.out.i32(int32(FormStr))
		ctx.out.i32(int32(id))
		return FormStr, nil
	case ExprParenthesized:
		return ctx.lowerExpr(e.Inner)
	case ExprList:
		for i, it := range e.List {
			f, err := ctx.lowerExpr(it)
			if err != nil {
				return FormVoid, err
			}
			if i == len(e.List)-1 {
				return f, nil
			}
			if f != FormVoid {
				ctx.out.op(CD_POP)
				ctx.out.i32(int32(f))
			}
		}
		return FormVoid, nil
	case ExprGotoCall:
		id, ok := ctx.userLabels[e.GosubTarget]
		if !ok {
			return FormVoid, newErr(ErrSALabelUndefined, ctx.file, e.SourceLine, e.GosubTarget)
		}
		op := CD_GOSUB
		if e.ResolvedForm == FormStr {
			op = CD_GOSUBSTR
		}
		ctx.out.op(op)
		ctx.out.i32(int32(id))
		ctx.out.i32(0)
		return e.ResolvedForm, nil
	case ExprUnary:
		f, err := ctx.lowerExpr(e.Operand)
		if err != nil {
			return FormVoid, err
		}
		ctx.out.op(CD_OPERATE_1)
		ctx.out.i32(int32(f))
		ctx.out.u8(byte(e.UnaryOp))
		return e.ResolvedForm, nil
	case ExprBinary:
		lf, err := ctx.lowerExpr(e.Left)
		if err != nil {
			return FormVoid, err
		}
		rf, err := ctx.lowerExpr(e.Right)
		if err != nil {
			return FormVoid, err
		}
		ctx.out.op(CD_OPERATE_2)
		ctx.out.i32(int32(lf))
		ctx.out.i32(int32(rf))
		ctx.out.u8(byte(e.BinaryOp))
		return e.ResolvedForm, nil
	case ExprElm:
		return ctx.lowerElm(e)
	}
	return FormVoid, nil
}

// lowerElm lowers a property read or command call, per the opcode
// table's CD_ELM_POINT/CD_PROPERTY/CD_COMMAND triad (§4.7).
func (ctx *bsContext) lowerElm(e *Expression) (Form, error) {
	ctx.out.op(CD_ELM_POINT)
	ctx.out.op(CD_PUSH)
	ctx.out.i32(int32(FormInt))
	ctx.out.i32(e.ElementCode)

	first := e.Steps[0]
	if first.HasIndex {
		if _, err := ctx.lowerExpr(first.Index); err != nil {
			return FormVoid, err
		}
		ctx.out.op(CD_COPY_ELM)
	}

	if e.HasArgs {
		for _, a := range e.ArgsPos {
			if _, err := ctx.lowerExpr(a); err != nil {
				return FormVoid, err
			}
		}
		names := make([]string, 0, len(e.ArgsNam))
		for n := range e.ArgsNam {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			if _, err := ctx.lowerExpr(e.ArgsNam[n]); err != nil {
				return FormVoid, err
			}
		}

		ctx.out.op(CD_COMMAND)
		ctx.out.i32(int32(e.OverloadID))
		ctx.out.i32(int32(len(e.ArgsPos)))
		for _, a := range e.ArgsPos {
			ctx.out.i32(int32(a.ResolvedForm))
		}
		ctx.out.i32(int32(len(names)))
		for _, n := range names {
			ctx.out.i32(int32(e.NamedArgSlots[n]))
		}
		ctx.out.i32(int32(e.ResolvedForm))
		return e.ResolvedForm, nil
	}

	ctx.out.op(CD_PROPERTY)
	return e.ResolvedForm, nil
}

func (ctx *bsContext) internStr(s string) int {
	id := len(ctx.strList)
	ctx.strList = append(ctx.strList, s)
	return id
}

// buildNameTable lays out a UTF-16LE blob of names in declaration order,
// one (offset, length) slice per entry, unshuffled and unkeyed -- the
// same scheme str_list/str_index_list use minus the PRNG shuffle and XOR
// (these tables are plain metadata, never indexed by id from bytecode).
func buildNameTable(names []string) ([]byte, []StrSlice) {
	var blob bytes.Buffer
	slices := make([]StrSlice, len(names))
	for i, name := range names {
		units := utf16.Encode([]rune(name))
		offset := int32(blob.Len() / 2)
		for _, u := range units {
			var tmp [2]byte
			binary.LittleEndian.PutUint16(tmp[:], u)
			blob.Write(tmp[:])
		}
		slices[i] = StrSlice{Offset: offset, Length: int32(len(units))}
	}
	return blob.Bytes(), slices
}

// finish assembles the per-scene string table (shuffled, XOR-keyed per
// §4.7 "String table layout") and the remaining side tables into a
// BSResult.
func (ctx *bsContext) finish(sa *SAResult, shuffler *Shuffler) *BSResult {
	n := len(ctx.strList)
	shuffledOrder := shuffler.Shuffle(n)

	var blob bytes.Buffer
	strIndexList := make([]StrSlice, n)
	for _, origID := range shuffledOrder {
		text := ctx.strList[origID]
		units := utf16.Encode([]rune(text))
		offset := int32(blob.Len() / 2)
		for _, u := range units {
			keyed := u ^ uint16((28807*origID)&0xFFFF)
			var tmp [2]byte
			binary.LittleEndian.PutUint16(tmp[:], keyed)
			blob.Write(tmp[:])
		}
		strIndexList[origID] = StrSlice{Offset: offset, Length: int32(len(units))}
	}

	labelList := make([]int32, ctx.labels.nextID)
	for id, off := range ctx.labels.offsets {
		if id >= 0 && id < len(labelList) {
			labelList[id] = off
		}
	}

	zLabelList := make([]int32, zLabelFixedCount)
	for i := range zLabelList {
		zLabelList[i] = -1
	}
	for idx, off := range ctx.zLabelOffsets {
		if idx >= 0 && idx < zLabelFixedCount {
			zLabelList[idx] = off
		}
	}

	scnCmdList := make([]int32, len(ctx.cmdLabelList))
	for i, e := range ctx.cmdLabelList {
		scnCmdList[i] = e.Offset
	}

	scnPropNameBlob, scnPropNameIdx := buildNameTable(ctx.scnPropNames)
	scnCmdNameBlob, scnCmdNameIdx := buildNameTable(ctx.scnCmdNames)
	callPropNameBlob, callPropNameIdx := buildNameTable(ctx.callPropNames)

	return &BSResult{
		ScnBytes:     ctx.out.bytes(),
		StrList:      ctx.strList,
		StrSortIndex: shuffledOrder,
		StrIndexList: strIndexList,
		StrBlob:      blob.Bytes(),

		LabelList:    labelList,
		ZLabelList:   zLabelList,
		CmdLabelList: ctx.cmdLabelList,
		ScnCmdList:   scnCmdList,

		ScnPropList:          ctx.scnPropList,
		ScnPropNameIndexList: scnPropNameIdx,
		ScnPropNameBlob:      scnPropNameBlob,

		ScnCmdNameIndexList: scnCmdNameIdx,
		ScnCmdNameBlob:      scnCmdNameBlob,

		CallPropNameIndexList: callPropNameIdx,
		CallPropNameBlob:      callPropNameBlob,

		NamaeList:    ctx.namaeList,
		ReadFlagList: ctx.readFlagList,
	}
}
