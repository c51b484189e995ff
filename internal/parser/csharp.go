package parser

import (
	"regexp"
	"strings"
)

// csharpKeywords are reserved words that are never type or member names.
var csharpKeywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "break": true, "case": true,
	"catch": true, "checked": true, "class": true, "const": true,
	"continue": true, "default": true, "delegate": true, "do": true,
	"else": true, "enum": true, "event": true, "explicit": true,
	"extern": true, "false": true, "finally": true, "fixed": true,
	"for": true, "foreach": true, "goto": true, "if": true, "implicit": true,
	"in": true, "interface": true, "internal": true, "is": true,
	"lock": true, "namespace": true, "new": true, "null": true,
	"operator": true, "out": true, "override": true, "params": true,
	"private": true, "protected": true, "public": true, "readonly": true,
	"ref": true, "return": true, "sealed": true, "sizeof": true,
	"stackalloc": true, "static": true, "struct": true, "switch": true,
	"this": true, "throw": true, "true": true, "try": true, "typeof": true,
	"unchecked": true, "unsafe": true, "using": true, "virtual": true,
	"volatile": true, "while": true, "yield": true, "await": true,
	"async": true, "nameof": true, "when": true, "where": true,
	"record": true,
}

// predefinedTypes are built-in C# type names that never resolve to a
// declared symbol.
var predefinedTypes = map[string]bool{
	"bool": true, "byte": true, "sbyte": true, "char": true,
	"decimal": true, "double": true, "float": true, "int": true,
	"uint": true, "nint": true, "nuint": true, "long": true,
	"ulong": true, "short": true, "ushort": true, "object": true,
	"string": true, "void": true, "var": true, "dynamic": true,
}

var (
	identRe         = regexp.MustCompile(`[A-Za-z_]\w*`)
	interfaceNameRe = regexp.MustCompile(`^I[A-Z]`)
)

// IsInterfaceName applies the C# naming convention: an `I` followed by
// another capital marks an interface. Base-list entries are classified
// with this rule because the syntax alone cannot distinguish a base
// class from an implemented interface.
func IsInterfaceName(name string) bool {
	return interfaceNameRe.MatchString(name)
}

func isIdentifier(s string) bool {
	if s == "" || csharpKeywords[s] {
		return false
	}
	return identRe.FindString(s) == s
}

// CollapseGenerics replaces every balanced generic argument run with <T>,
// so `Dictionary<string, List<Enemy>>` becomes `Dictionary<T>`.
func CollapseGenerics(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '<':
			if depth == 0 {
				b.WriteString("<T>")
			}
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// StripGenerics removes balanced generic argument runs entirely.
func StripGenerics(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// splitBaseList splits a base-type list on top-level commas, collapsing
// generic arguments, so `BaseEntity<int>, IDamageable` yields
// [BaseEntity<T> IDamageable].
func splitBaseList(s string) []string {
	var parts []string
	var current strings.Builder
	depth := 0

	flush := func() {
		part := strings.TrimSpace(current.String())
		current.Reset()
		if part == "" {
			return
		}
		part = CollapseGenerics(part)
		if root := identRe.FindString(part); root == "" || csharpKeywords[root] {
			return
		}
		parts = append(parts, part)
	}

	for _, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()
	return parts
}

// calleeText normalizes a callee or member-access expression to at most
// two identifier segments, `receiver.name`, for resolution. Non-identifier
// segments (chained calls, indexers) and `this`/`base` receivers are
// dropped; generic arguments are removed.
func calleeText(expr string) string {
	expr = StripGenerics(expr)
	expr = strings.ReplaceAll(expr, "?.", ".")
	expr = strings.Join(strings.Fields(expr), "")

	segs := strings.Split(expr, ".")
	// Keep the trailing run of plain identifier segments.
	start := len(segs)
	for start > 0 && isIdentifier(segs[start-1]) {
		start--
	}
	segs = segs[start:]
	switch len(segs) {
	case 0:
		return ""
	case 1:
		return segs[0]
	default:
		return segs[0] + "." + segs[len(segs)-1]
	}
}

// typeIdentifiers returns the declared type names referenced by a type
// expression, in order of appearance, skipping predefined types. For
// `Dictionary<string, List<Enemy>>` it yields [Dictionary List Enemy].
func typeIdentifiers(typeText string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, id := range identRe.FindAllString(typeText, -1) {
		if predefinedTypes[id] || csharpKeywords[id] || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}

// outerTypeName returns the simple name of the type being constructed in
// an object-creation expression, dropping namespace qualifiers and
// generic arguments: `NS.Pool<Enemy>` yields `Pool`.
func outerTypeName(typeText string) string {
	typeText = StripGenerics(typeText)
	typeText = strings.TrimSpace(typeText)
	segs := strings.Split(typeText, ".")
	for i := len(segs) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segs[i]); isIdentifier(s) {
			return s
		}
	}
	return ""
}
