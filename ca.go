package main

import "strings"

// scanState is the comment/quote scanner state machine shared by CA's pass
// 1 and the GEI ini sanitizer (§4.3, §4.8).
type scanState int

const (
	scanNormal scanState = iota
	scanInSingle
	scanInSingleEscape
	scanAfterSingle
	scanInDouble
	scanInDoubleEscape
	scanLineComment
	scanBlockComment
)

// stripComments runs CA pass 1: comments become whitespace, ASCII
// uppercase outside quotes is lowered, newlines inside literals are
// errors, unclosed comments/strings are errors.
func stripComments(src string) (string, error) {
	var out strings.Builder
	st := scanNormal
	line := 1
	blockStartLine := 1
	runes := []rune(src)
	n := len(runes)

	for i := 0; i < n; i++ {
		ch := runes[i]
		var next rune
		if i+1 < n {
			next = runes[i+1]
		}

		if ch == '\n' {
			if st == scanInDouble || st == scanInDoubleEscape || st == scanInSingle || st == scanInSingleEscape {
				return "", newErr(ErrUnclosedQuote, "", line, "newline inside a quoted literal")
			}
			if st == scanLineComment {
				st = scanNormal
			}
			line++
			out.WriteRune('\n')
			continue
		}

		switch st {
		case scanInDouble:
			out.WriteRune(ch)
			if ch == '\\' {
				st = scanInDoubleEscape
			} else if ch == '"' {
				st = scanNormal
			}
		case scanInDoubleEscape:
			out.WriteRune(ch)
			st = scanInDouble
		case scanInSingle:
			out.WriteRune(ch)
			if ch == '\\' {
				st = scanInSingleEscape
			} else if ch == '\'' {
				st = scanAfterSingle
			}
		case scanInSingleEscape:
			out.WriteRune(ch)
			st = scanInSingle
		case scanAfterSingle:
			st = scanNormal
			i--
			continue
		case scanLineComment:
			// swallowed
		case scanBlockComment:
			if ch == '*' && next == '/' {
				st = scanNormal
				i++
			}
		case scanNormal:
			if ch == '"' {
				st = scanInDouble
				out.WriteRune(ch)
			} else if ch == '\'' {
				st = scanInSingle
				out.WriteRune(ch)
			} else if ch == ';' {
				st = scanLineComment
			} else if ch == '/' && next == '/' {
				st = scanLineComment
				i++
			} else if ch == '/' && next == '*' {
				st = scanBlockComment
				blockStartLine = line
				out.WriteRune(' ')
				i++
			} else if ch >= 'A' && ch <= 'Z' {
				out.WriteRune(ch - 'A' + 'a')
			} else {
				out.WriteRune(ch)
			}
		}
	}

	switch st {
	case scanInDouble, scanInDoubleEscape:
		return "", newErr(ErrUnclosedQuote, "", line, "unclosed double quote")
	case scanInSingle, scanInSingleEscape:
		return "", newErr(ErrUnclosedQuote, "", line, "unclosed single quote")
	case scanBlockComment:
		return "", newErr(ErrUnclosedComment, "", blockStartLine, "unclosed /* comment")
	}

	return out.String(), nil
}

// condState is one level of the #ifdef/#elseifdef/#else stack (§4.3).
type condState int

const (
	condTaken condState = iota
	condSkipping
	condTakenDone
)

const maxIfdefDepth = 16

// CAResult is the output of the full Character Analyzer pipeline: the
// scene-local declaration source (fed back into IA for a second pass) and
// the expanded executable text.
type CAResult struct {
	DeclSource string
	BodySource string
	IncludedOriginal string // #inc_start/#inc_end region, verbatim
}

// RunCA runs the three CA passes over raw scene source against the shared
// IA name set and replace/macro tables.
func RunCA(src string, ia *IAResult, file string) (*CAResult, error) {
	normalized, err := stripComments(src)
	if err != nil {
		return nil, err
	}

	body, incOriginal, err := caConditional(normalized, ia.NameSet, file)
	if err != nil {
		return nil, err
	}

	declSrc, bodySrc := caSplitDeclarations(body)

	expandedDecl, err := expandFixedPoint(declSrc, ia, file)
	if err != nil {
		return nil, err
	}
	expandedBody, err := expandFixedPoint(bodySrc, ia, file)
	if err != nil {
		return nil, err
	}

	return &CAResult{DeclSource: expandedDecl, BodySource: expandedBody, IncludedOriginal: incOriginal}, nil
}

// caConditional runs CA pass 2: #ifdef/#elseifdef/#else/#endif gated by
// nameSet with a depth-16 stack, plus #inc_start/#inc_end extraction.
func caConditional(src string, nameSet map[string]bool, file string) (body string, incOriginal string, err error) {
	lines := strings.Split(src, "\n")
	var stack []condState
	var out strings.Builder
	var inc strings.Builder
	inIncRegion := false

	active := func() bool {
		for _, s := range stack {
			if s != condTaken {
				return false
			}
		}
		return true
	}

	for lineNo, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(trimmed, "#ifdef "):
			if len(stack) >= maxIfdefDepth {
				return "", "", newErr(ErrIfdefOverflow, file, lineNo+1, "")
			}
			name := strings.TrimSpace(trimmed[len("#ifdef "):])
			if active() && nameSet[name] {
				stack = append(stack, condTaken)
			} else if active() {
				stack = append(stack, condSkipping)
			} else {
				stack = append(stack, condSkipping)
			}
			continue
		case strings.HasPrefix(trimmed, "#elseifdef "):
			if len(stack) == 0 {
				return "", "", newErr(ErrIfdefMismatch, file, lineNo+1, "")
			}
			top := stack[len(stack)-1]
			name := strings.TrimSpace(trimmed[len("#elseifdef "):])
			parentActive := true
			for _, s := range stack[:len(stack)-1] {
				if s != condTaken {
					parentActive = false
				}
			}
			if top == condTaken {
				stack[len(stack)-1] = condTakenDone
			} else if top == condSkipping && parentActive && nameSet[name] {
				stack[len(stack)-1] = condTaken
			}
			continue
		case trimmed == "#else":
			if len(stack) == 0 {
				return "", "", newErr(ErrIfdefMismatch, file, lineNo+1, "")
			}
			top := stack[len(stack)-1]
			if top == condTaken {
				stack[len(stack)-1] = condTakenDone
			} else if top == condSkipping {
				parentActive := true
				for _, s := range stack[:len(stack)-1] {
					if s != condTaken {
						parentActive = false
					}
				}
				if parentActive {
					stack[len(stack)-1] = condTaken
				}
			}
			continue
		case trimmed == "#endif":
			if len(stack) == 0 {
				return "", "", newErr(ErrIfdefMismatch, file, lineNo+1, "")
			}
			stack = stack[:len(stack)-1]
			continue
		case trimmed == "#inc_start":
			if active() {
				inIncRegion = true
			}
			continue
		case trimmed == "#inc_end":
			if active() {
				inIncRegion = false
			}
			continue
		}

		if !active() {
			out.WriteString("\n")
			continue
		}
		if inIncRegion {
			inc.WriteString(raw)
			inc.WriteString("\n")
		}
		out.WriteString(raw)
		out.WriteString("\n")
	}

	if len(stack) != 0 {
		return "", "", newErr(ErrIfdefMismatch, file, len(lines), "unterminated #ifdef")
	}
	return out.String(), inc.String(), nil
}

// caSplitDeclarations separates scene-local declaration directives
// (#property, #command, #replace, #define, #define_s, #macro, #expand)
// from executable text, per §4.3 pass 3.
func caSplitDeclarations(src string) (decl, body string) {
	var declB, bodyB strings.Builder
	for _, raw := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "#property") ||
			strings.HasPrefix(trimmed, "#command") ||
			strings.HasPrefix(trimmed, "#replace") ||
			strings.HasPrefix(trimmed, "#define_s") ||
			strings.HasPrefix(trimmed, "#define") ||
			strings.HasPrefix(trimmed, "#macro") ||
			strings.HasPrefix(trimmed, "#expand") {
			declB.WriteString(raw)
			declB.WriteString("\n")
			bodyB.WriteString("\n")
		} else {
			declB.WriteString("\n")
			bodyB.WriteString(raw)
			bodyB.WriteString("\n")
		}
	}
	return declB.String(), bodyB.String()
}

const macroExpandCap = 10000

// expandFixedPoint applies the shared replace/macro table to src until a
// fixed point, capped at macroExpandCap iterations; an iteration that does
// not strictly shrink the remaining-to-scan length counts against the cap
// (§4.3, §9).
func expandFixedPoint(src string, ia *IAResult, file string) (string, error) {
	cur := src
	stall := 0
	for {
		next, changed := applyReplacements(cur, ia)
		if !changed {
			return next, nil
		}
		if len(next) >= len(cur) {
			stall++
		}
		cur = next
		if stall > macroExpandCap {
			return "", newErr(ErrMacroLoop, file, 0, "macro expansion did not converge")
		}
	}
}

// applyReplacements performs one pass of #replace/#define substitution
// using ia's replace tree. Returns whether anything changed.
func applyReplacements(src string, ia *IAResult) (string, bool) {
	changed := false
	result := src
	for from, to := range ia.ReplaceTree {
		if strings.Contains(result, from) {
			result = strings.ReplaceAll(result, from, to)
			changed = true
		}
	}
	return result, changed
}
