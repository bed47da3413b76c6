package main

import (
	"fmt"
	"strings"
)

// IAResult is the Include Analyzer's immutable output (§4.2): a shared
// #replace/#define table, the defined-name set, and the
// property/command catalogs contributed by every .inc file (or, on CA's
// second pass, by one scene's hoisted local declarations).
type IAResult struct {
	ReplaceTree map[string]string
	NameSet     map[string]bool
	Properties  []*Element
	Commands    []*Element

	PropertyCnt    int
	CommandCnt     int
	IncPropertyCnt int // freezes the pre-declared/scene-local boundary
	IncCommandCnt  int

	FormTable *FormTable
}

type macroDef struct {
	params []string
	body   string
}

// provisionalTable is IA's per-file step-1 output, merged into the shared
// table in step 2.
type provisionalTable struct {
	file       string
	replace    map[string]string
	defines    map[string]string
	macros     map[string]macroDef
	names      map[string]bool
	properties []*Element
	commands   []*Element
}

// ParseIncludeFile runs IA step 1 over one .inc file's text.
func ParseIncludeFile(file, src string) (*provisionalTable, error) {
	pt := &provisionalTable{
		file:    file,
		replace: map[string]string{},
		defines: map[string]string{},
		macros:  map[string]macroDef{},
		names:   map[string]bool{},
	}

	normalized, err := stripComments(src)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(normalized, "\n")
	for lineNo, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#replace"):
			parseKV(line, "#replace", pt.replace)
		case strings.HasPrefix(line, "#define_s"):
			parseKV(line, "#define_s", pt.defines)
		case strings.HasPrefix(line, "#define"):
			parseKV(line, "#define", pt.defines)
		case strings.HasPrefix(line, "#macro"):
			name, def, err := parseMacro(line, file, lineNo+1)
			if err != nil {
				return nil, err
			}
			pt.macros[name] = def
			pt.names[name] = true
		case strings.HasPrefix(line, "#property"):
			el, err := parsePropertyDecl(line, file, lineNo+1)
			if err != nil {
				return nil, err
			}
			pt.properties = append(pt.properties, el)
			pt.names[el.Name] = true
		case strings.HasPrefix(line, "#command"):
			el, err := parseCommandDecl(line, file, lineNo+1)
			if err != nil {
				return nil, err
			}
			pt.commands = append(pt.commands, el)
			pt.names[el.Name] = true
		case strings.HasPrefix(line, "#expand"):
			// #expand lines are recognised and skipped; nothing is
			// expanded. #macro definitions above are parsed and their
			// names join the name set, but their bodies are not merged
			// into ReplaceTree, so macro calls are not substituted.
		}
	}
	return pt, nil
}

func parseKV(line, directive string, into map[string]string) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, directive))
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) < 2 {
		return
	}
	into[parts[0]] = strings.TrimSpace(parts[1])
}

func parseMacro(line, file string, lineNo int) (string, macroDef, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#macro"))
	open := strings.Index(rest, "(")
	if open < 0 {
		return "", macroDef{}, newErr(ErrUnterminatedBlock, file, lineNo, "malformed #macro")
	}
	name := strings.TrimSpace(rest[:open])
	close := strings.Index(rest, ")")
	if close < open {
		return "", macroDef{}, newErr(ErrUnterminatedBlock, file, lineNo, "malformed #macro")
	}
	paramStr := rest[open+1 : close]
	var params []string
	if strings.TrimSpace(paramStr) != "" {
		for _, p := range strings.Split(paramStr, ",") {
			params = append(params, strings.TrimSpace(p))
		}
	}
	body := strings.TrimSpace(rest[close+1:])
	return name, macroDef{params: params, body: body}, nil
}

// parsePropertyDecl parses "#property FORM NAME [SIZE]".
func parsePropertyDecl(line, file string, lineNo int) (*Element, error) {
	fields := strings.Fields(strings.TrimPrefix(line, "#property"))
	if len(fields) < 2 {
		return nil, newErr(ErrUnterminatedBlock, file, lineNo, "malformed #property")
	}
	form := parseFormName(fields[0])
	el := &Element{Kind: ElementProperty, Name: fields[1], ReturnForm: form}
	if len(fields) >= 3 {
		fmt.Sscanf(fields[2], "%d", &el.Size)
	}
	return el, nil
}

// parseCommandDecl parses "#command RETFORM NAME(ARG,ARG,...)".
func parseCommandDecl(line, file string, lineNo int) (*Element, error) {
	rest := strings.TrimPrefix(line, "#command")
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return nil, newErr(ErrUnterminatedBlock, file, lineNo, "malformed #command")
	}
	retForm := parseFormName(fields[0])
	sig := strings.Join(fields[1:], " ")
	open := strings.Index(sig, "(")
	close := strings.LastIndex(sig, ")")
	name := sig
	var argForms []string
	if open >= 0 && close > open {
		name = strings.TrimSpace(sig[:open])
		argStr := sig[open+1 : close]
		if strings.TrimSpace(argStr) != "" {
			for _, a := range strings.Split(argStr, ",") {
				argForms = append(argForms, strings.TrimSpace(a))
			}
		}
	}
	el := &Element{Kind: ElementCommand, Name: name, ReturnForm: retForm, Overloads: map[int]*Overload{}}
	var slots []ArgSlot
	for _, af := range argForms {
		defExist := strings.HasSuffix(af, "?")
		af = strings.TrimSuffix(af, "?")
		slots = append(slots, ArgSlot{Form: parseFormName(af), DefExist: defExist})
	}
	el.Overloads[0] = &Overload{ID: 0, Args: slots}
	return el, nil
}

func parseFormName(s string) Form {
	switch strings.ToLower(s) {
	case "int":
		return FormInt
	case "str":
		return FormStr
	case "intlist":
		return FormIntList
	case "strlist":
		return FormStrList
	case "intref":
		return FormIntRef
	case "strref":
		return FormStrRef
	case "label":
		return FormLabel
	default:
		return FormVoid
	}
}

// MergeIncludeTables runs IA step 2: merges provisional per-file tables
// into the shared table, rejecting contradictions.
func MergeIncludeTables(tables []*provisionalTable) (*IAResult, error) {
	res := &IAResult{
		ReplaceTree: map[string]string{},
		NameSet:     map[string]bool{},
		FormTable:   NewFormTable(),
	}
	seenProps := map[string]string{}
	seenCmds := map[string]string{}

	for _, pt := range tables {
		for k, v := range pt.replace {
			if old, ok := res.ReplaceTree[k]; ok && old != v {
				return nil, newErr(ErrDuplicateName, pt.file, 0, fmt.Sprintf("conflicting #replace for %q", k))
			}
			res.ReplaceTree[k] = v
		}
		for k, v := range pt.defines {
			if old, ok := res.ReplaceTree[k]; ok && old != v {
				return nil, newErr(ErrDuplicateName, pt.file, 0, fmt.Sprintf("conflicting #define for %q", k))
			}
			res.ReplaceTree[k] = v
		}
		for name := range pt.names {
			res.NameSet[name] = true
		}
		for _, el := range pt.properties {
			if prev, ok := seenProps[el.Name]; ok {
				return nil, newErr(ErrDuplicateName, pt.file, 0, fmt.Sprintf("duplicate property %q (also in %s)", el.Name, prev))
			}
			seenProps[el.Name] = pt.file
			el.Code = packElementCode(0, 0, len(res.Properties))
			res.Properties = append(res.Properties, el)
			res.FormTable.DefineGlobal(el)
		}
		for _, el := range pt.commands {
			if prev, ok := seenCmds[el.Name]; ok {
				return nil, newErr(ErrDuplicateName, pt.file, 0, fmt.Sprintf("duplicate command %q (also in %s)", el.Name, prev))
			}
			seenCmds[el.Name] = pt.file
			el.Code = packElementCode(0, 1, len(res.Commands))
			res.Commands = append(res.Commands, el)
			res.FormTable.DefineGlobal(el)
		}
	}

	res.PropertyCnt = len(res.Properties)
	res.CommandCnt = len(res.Commands)
	res.IncPropertyCnt = res.PropertyCnt
	res.IncCommandCnt = res.CommandCnt
	return res, nil
}

// BuildIncludeAnalyzer loads and merges every .inc file's declarations
// into the shared table IA produces once per compilation (§4.2).
func BuildIncludeAnalyzer(files map[string]string) (*IAResult, error) {
	var tables []*provisionalTable
	for name, src := range files {
		pt, err := ParseIncludeFile(name, src)
		if err != nil {
			return nil, err
		}
		tables = append(tables, pt)
	}
	return MergeIncludeTables(tables)
}
