package citation

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// keyChar matches one character of a citation key: anything except
// whitespace, '@', brackets and ';'. Whitespace covers the same set as
// ECMAScript's \s so documents highlight identically in every editor.
const keyChar = `[^@\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}\[\];]`

// keyLast is keyChar without ',': a trailing comma separates a key from its
// suffix ("[@doe99, p. 33]") and never belongs to the key.
const keyLast = `[^@\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}\[\];,]`

const keyPattern = `@` + keyChar + `*` + keyLast

// outerPattern has ten capture groups, one per Role:
//
//	 1     2         3                   4         5
//	(\[)  (prefix)  ((?:@key(?:; *)?)+)  (suffix)  (\])
//	| 6       7     8     9          10
//	(@key) (?:( *) (\[) (locator) (\]))?
//
// Both alternatives consume at least two bytes, so a match never has zero width.
const outerPattern = `(?:` +
	`(\[)([^@\n\r\[\];]*)((?:` + keyPattern + `(?:; *)?)+)([^;\[\]]*)(\])` +
	`|` +
	`(` + keyPattern + `)(?:( *)(\[)([^\[\]]+)(\]))?` +
	`)`

// innerPattern splits a captured key list into key and separator.
const innerPattern = `(` + keyPattern + `)(; *)?`

// SlotCount is the number of capture slots of the outer pattern.
const SlotCount = 10

// Role is the fixed meaning of a capture slot.
type Role int

const (
	RoleOpenBracket Role = iota
	RolePrefix
	RoleKeyList
	RoleSuffix
	RoleCloseBracket
	RoleKey
	RoleLocatorSpace
	RoleLocatorOpen
	RoleLocator
	RoleLocatorClose

	// RoleSeparator is the "; " after a key inside a key list. It has no slot
	// of its own; the Splitter produces it.
	RoleSeparator
)

func (r Role) String() string {
	switch r {
	case RoleOpenBracket:
		return "open-bracket"
	case RolePrefix:
		return "prefix"
	case RoleKeyList:
		return "key-list"
	case RoleSuffix:
		return "suffix"
	case RoleCloseBracket:
		return "close-bracket"
	case RoleKey:
		return "key"
	case RoleLocatorSpace:
		return "locator-space"
	case RoleLocatorOpen:
		return "locator-open"
	case RoleLocator:
		return "locator"
	case RoleLocatorClose:
		return "locator-close"
	case RoleSeparator:
		return "separator"
	default:
		return "unknown"
	}
}

// Kind returns the span kind emitted for the role.
// RoleKeyList has no kind of its own; its fragments are classified by the Splitter.
func (r Role) Kind() Kind {
	switch r {
	case RoleKey:
		return KindCitationKey
	case RolePrefix, RoleSuffix, RoleLocator:
		return KindExtra
	default:
		return KindFormatting
	}
}

// slotRoles maps capture group i+1 to its role. Groups are numbered in role order.
var slotRoles = [SlotCount]Role{
	RoleOpenBracket,
	RolePrefix,
	RoleKeyList,
	RoleSuffix,
	RoleCloseBracket,
	RoleKey,
	RoleLocatorSpace,
	RoleLocatorOpen,
	RoleLocator,
	RoleLocatorClose,
}

// Grammar holds the compiled citation patterns. It is immutable and safe for
// concurrent use; iteration state lives in Matcher and Splitter values.
type Grammar struct {
	outer *regexp.Regexp
	inner *regexp.Regexp
}

// DefaultGrammar is compiled once at startup.
var DefaultGrammar = NewGrammar()

// NewGrammar compiles the citation patterns.
func NewGrammar() *Grammar {
	return &Grammar{
		outer: regexp.MustCompile(outerPattern),
		inner: regexp.MustCompile(innerPattern),
	}
}

// Matcher returns a fresh matcher over text, which begins at the absolute
// document offset.
func (g *Grammar) Matcher(text string, offset int) *Matcher {
	return &Matcher{grammar: g, text: text, offset: offset}
}

// Splitter returns a fresh splitter over a captured key list.
func (g *Grammar) Splitter(list string) *Splitter {
	return &Splitter{grammar: g, text: list}
}

// isBoundary reports whether a citation may follow r.
func isBoundary(r rune) bool {
	return r == '.' || r == ';' || isSpace(r)
}

// isSpace matches the ECMAScript \s class.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// anchoredAt reports whether a match may start at byte i of text: at the
// start of the text or right after a boundary rune.
func anchoredAt(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isBoundary(r)
}
