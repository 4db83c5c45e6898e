package outline

import (
	"regexp"
	"strings"
)

// DeclKind is the tag of a matched Declaration.
type DeclKind int

const (
	DeclUse DeclKind = iota + 1
	DeclProperty
	DeclClass
	DeclObject
	DeclProcedure
	DeclFunction
	DeclEndClass
	DeclEndObject
	DeclEndProcedure
	DeclEndFunction
)

var declKindNames = [...]string{
	DeclUse:          "Use",
	DeclProperty:     "Property",
	DeclClass:        "Class",
	DeclObject:       "Object",
	DeclProcedure:    "Procedure",
	DeclFunction:     "Function",
	DeclEndClass:     "End_Class",
	DeclEndObject:    "End_Object",
	DeclEndProcedure: "End_Procedure",
	DeclEndFunction:  "End_Function",
}

func (k DeclKind) String() string {
	if k > 0 && int(k) < len(declKindNames) {
		return declKindNames[k]
	}
	return "Unknown"
}

// IsTerminator reports whether k closes a container.
func (k DeclKind) IsTerminator() bool {
	return k >= DeclEndClass && k <= DeclEndFunction
}

// Declaration is a recognised logical line. Which fields are set depends on
// Kind: Use sets Name (the imported file), Property sets Type/Name/Value,
// Class and Object set Name/Superclass, Procedure sets Name/Params and
// Function additionally sets Returns.
type Declaration struct {
	Kind       DeclKind
	Name       string
	Type       string
	Value      string
	Superclass string
	Returns    string
	Params     []Parameter
}

const paramGroup = `\s+\w+(?:\[\])?(?:\s+ByRef)?\s+\w+`

var (
	useRe       = regexp.MustCompile(`(?i)^\s*Use\s+(\w+\.\w+)`)
	propertyRe  = regexp.MustCompile(`(?i)^\s*Property\s+(\w+)\s+(\w+)\s+(.+)$`)
	classRe     = regexp.MustCompile(`(?i)^\s*Class\s+(\w+)\s+is\s+a\s+(\w+)`)
	objectRe    = regexp.MustCompile(`(?i)^\s*Object\s+(\w+)\s+is\s+a\s+(\w+)`)
	procedureRe = regexp.MustCompile(`(?i)^\s*Procedure\s+(\w+)((?:` + paramGroup + `)*)$`)
	functionRe  = regexp.MustCompile(`(?i)^\s*Function\s+(\w+)((?:` + paramGroup + `)*)\s+returns\s+(\w+)`)
	endRe       = regexp.MustCompile(`(?i)^\s*End_(Class|Object|Procedure|Function)`)
	paramRe     = regexp.MustCompile(`(?i)(\w+(?:\[\])?)(?:\s+(ByRef))?\s+(\w+)`)

	headerRe = regexp.MustCompile(`(?i)^\s*(Object|Class)\s+(\w+)\s+is\s+a\s+(\w+)`)
	openerRe = regexp.MustCompile(`(?i)^\s*(Class|Procedure|Function)\s+(\w+)`)
)

// matchers is evaluated in order; the first hit wins.
var matchers = []func(text string) (Declaration, bool){
	matchUse,
	matchProperty,
	matchClass,
	matchObject,
	matchProcedure,
	matchFunction,
	matchEnd,
}

// Match classifies a logical line. Lines that declare nothing return false.
func Match(text string) (Declaration, bool) {
	for _, match := range matchers {
		if d, ok := match(text); ok {
			return d, true
		}
	}
	return Declaration{}, false
}

func matchUse(text string) (Declaration, bool) {
	m := useRe.FindStringSubmatch(text)
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{Kind: DeclUse, Name: m[1]}, true
}

func matchProperty(text string) (Declaration, bool) {
	m := propertyRe.FindStringSubmatch(text)
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{Kind: DeclProperty, Type: m[1], Name: m[2], Value: m[3]}, true
}

func matchClass(text string) (Declaration, bool) {
	m := classRe.FindStringSubmatch(text)
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{Kind: DeclClass, Name: m[1], Superclass: m[2]}, true
}

func matchObject(text string) (Declaration, bool) {
	m := objectRe.FindStringSubmatch(text)
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{Kind: DeclObject, Name: m[1], Superclass: m[2]}, true
}

func matchProcedure(text string) (Declaration, bool) {
	m := procedureRe.FindStringSubmatch(text)
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{Kind: DeclProcedure, Name: m[1], Params: parseParams(m[2])}, true
}

func matchFunction(text string) (Declaration, bool) {
	m := functionRe.FindStringSubmatch(text)
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{Kind: DeclFunction, Name: m[1], Returns: m[3], Params: parseParams(m[2])}, true
}

func matchEnd(text string) (Declaration, bool) {
	m := endRe.FindStringSubmatch(text)
	if m == nil {
		return Declaration{}, false
	}
	var kind DeclKind
	switch strings.ToLower(m[1]) {
	case "class":
		kind = DeclEndClass
	case "object":
		kind = DeclEndObject
	case "procedure":
		kind = DeclEndProcedure
	default:
		kind = DeclEndFunction
	}
	return Declaration{Kind: kind}, true
}

// parseParams splits a parameter segment into its type/ByRef/name groups.
func parseParams(segment string) []Parameter {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return nil
	}
	var params []Parameter
	for _, m := range paramRe.FindAllStringSubmatch(segment, -1) {
		params = append(params, Parameter{
			Type:  m[1],
			ByRef: m[2] != "",
			Name:  m[3],
		})
	}
	return params
}

// Header is an `Object|Class <name> is a <superclass>` line.
type Header struct {
	Keyword    string
	Name       string
	Superclass string
}

// MatchHeader matches both Object and Class headers.
func MatchHeader(line string) (Header, bool) {
	m := headerRe.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	return Header{Keyword: m[1], Name: m[2], Superclass: m[3]}, true
}

// MatchObjectHeader matches only `Object <name> is a <superclass>`.
func MatchObjectHeader(line string) (Header, bool) {
	m := objectRe.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	return Header{Keyword: "Object", Name: m[1], Superclass: m[2]}, true
}

// DeclaresName reports whether line opens a Class, Procedure or Function
// named word. The comparison is case-insensitive and whole-word.
func DeclaresName(line, word string) bool {
	m := openerRe.FindStringSubmatch(line)
	return m != nil && strings.EqualFold(m[2], word)
}

// DeclaresClass reports whether line opens a Class named word.
func DeclaresClass(line, word string) bool {
	m := openerRe.FindStringSubmatch(line)
	return m != nil && strings.EqualFold(m[1], "class") && strings.EqualFold(m[2], word)
}
