package main

import "fmt"

// ErrorCode identifies the stage and kind of a build failure, per the
// propagation policy: one structured error per file, fatal at its stage
// boundary.
type ErrorCode int

const (
	ErrNone ErrorCode = iota

	ErrUnclosedQuote
	ErrUnclosedComment
	ErrIllegalEscape
	ErrIfdefMismatch
	ErrIfdefOverflow

	ErrMacroLoop
	ErrMacroArg

	ErrMissingFile
	ErrDuplicateName
	ErrUnterminatedBlock

	ErrSAUnexpectedToken
	ErrSAMissingBrace
	ErrSAIllegalExpression
	ErrSALabelRedefined
	ErrSACommandMismatch
	ErrSALabelUndefined
	ErrSAZLabelMissing
	ErrSACommandUndefined

	ErrMAElementUnknown
	ErrMAArgTypeNoMatch
	ErrMAAssignTypeNoMatch
	ErrMAExpTypeNoMatch

	ErrBSNeedReference
	ErrBSNeedValue
	ErrBSBreakNoLoop
	ErrBSContinueNoLoop

	ErrLinkCmdNotDefined
	ErrLinkCmdMultiplyDefined

	ErrLZSSCorrupt
	ErrMD5Mismatch

	ErrAngouMissingKey
)

var errorCodeNames = map[ErrorCode]string{
	ErrNone:                   "NONE",
	ErrUnclosedQuote:          "UNCLOSED_QUOTE",
	ErrUnclosedComment:        "UNCLOSED_COMMENT",
	ErrIllegalEscape:          "ILLEGAL_ESCAPE",
	ErrIfdefMismatch:          "IFDEF_MISMATCH",
	ErrIfdefOverflow:          "IFDEF_OVERFLOW",
	ErrMacroLoop:              "MACRO_LOOP",
	ErrMacroArg:               "MACRO_ARG",
	ErrMissingFile:            "MISSING_FILE",
	ErrDuplicateName:          "DUPLICATE_NAME",
	ErrUnterminatedBlock:      "UNTERMINATED_BLOCK",
	ErrSAUnexpectedToken:      "SA_UNEXPECTED_TOKEN",
	ErrSAMissingBrace:         "SA_MISSING_BRACE",
	ErrSAIllegalExpression:    "SA_ILLEGAL_EXPRESSION",
	ErrSALabelRedefined:       "SA_LABEL_REDEFINED",
	ErrSACommandMismatch:      "SA_COMMAND_MISMATCH",
	ErrSALabelUndefined:       "SA_LABEL_UNDEFINED",
	ErrSAZLabelMissing:        "SA_ZLABEL_MISSING",
	ErrSACommandUndefined:     "SA_COMMAND_UNDEFINED",
	ErrMAElementUnknown:       "MA_ELEMENT_UNKNOWN",
	ErrMAArgTypeNoMatch:       "MA_ARG_TYPE_NO_MATCH",
	ErrMAAssignTypeNoMatch:    "MA_ASSIGN_TYPE_NO_MATCH",
	ErrMAExpTypeNoMatch:       "MA_EXP_TYPE_NO_MATCH",
	ErrBSNeedReference:        "BS_NEED_REFERENCE",
	ErrBSNeedValue:            "BS_NEED_VALUE",
	ErrBSBreakNoLoop:          "BS_BREAK_NO_LOOP",
	ErrBSContinueNoLoop:       "BS_CONTINUE_NO_LOOP",
	ErrLinkCmdNotDefined:      "LINK_CMD_NOT_DEFINED",
	ErrLinkCmdMultiplyDefined: "LINK_CMD_MULTIPLY_DEFINED",
	ErrLZSSCorrupt:            "LZSS_CORRUPT",
	ErrMD5Mismatch:            "MD5_MISMATCH",
	ErrAngouMissingKey:        "ANGOU_MISSING_KEY",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ERR_%d", int(c))
}

// BuildError is the structured error value every stage raises. Stages are
// fatal at their boundary and each returns the first error it raises; no
// stage feeds errAccum, and newErr leaves AtomID at zero, so no choice by
// greatest AtomID among failed alternatives is made.
type BuildError struct {
	Code   ErrorCode
	File   string
	Line   int
	Hint   string
	AtomID int
}

func (e *BuildError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s at %s:%d: %s", e.Code, e.File, e.Line, e.Hint)
	}
	return fmt.Sprintf("%s at %s:%d", e.Code, e.File, e.Line)
}

func newErr(code ErrorCode, file string, line int, hint string) *BuildError {
	return &BuildError{Code: code, File: file, Line: line, Hint: hint}
}

// errAccum keeps the error from the deepest successful parse alive across
// failed alternatives, per the "best = max_by_atom_id" rule in §9.
type errAccum struct {
	best *BuildError
}

func (a *errAccum) consider(e *BuildError) {
	if e == nil {
		return
	}
	if a.best == nil || e.AtomID > a.best.AtomID {
		a.best = e
	}
}

func (a *errAccum) reset() {
	a.best = nil
}
