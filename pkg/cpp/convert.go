// convert.go implements the PP-token to language-token converter: it
// classifies an already-expanded preprocessing token into
// the shape a parser consumes — keyword vs plain identifier, integer vs
// floating constant, and a decoded payload for string/char literals — the
// same split pkg/lexer/token.go draws with its keywords map, just operating
// on pp-tokens instead of scanning raw bytes itself.
package cpp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LangKind classifies a converted language token.
type LangKind int

const (
	LangIdentifier LangKind = iota
	LangKeyword
	LangIntConst
	LangFloatConst
	LangString
	LangChar
	LangPunctuator
	LangInvalid
)

func (k LangKind) String() string {
	switch k {
	case LangIdentifier:
		return "identifier"
	case LangKeyword:
		return "keyword"
	case LangIntConst:
		return "integer-constant"
	case LangFloatConst:
		return "floating-constant"
	case LangString:
		return "string"
	case LangChar:
		return "char"
	case LangPunctuator:
		return "punctuator"
	default:
		return "invalid"
	}
}

// LangToken is the converter's output: one language token built from one
// pp-token (whitespace/newline pp-tokens never reach here).
type LangToken struct {
	Kind     LangKind
	Text     string // original spelling
	Keyword  string // set when Kind == LangKeyword, the canonical keyword text
	Payload  []byte // decoded bytes for LangString/LangChar, width per Encoding
	Encoding string // "", "u8", "u", "U", or "L" — the literal's encoding prefix
	Loc      SourceLoc
}

// cKeywords is the fixed C keyword table.
var cKeywords = map[string]bool{
	"if": true, "else": true, "while": true, "return": true,
	"int": true, "float": true, "char": true, "void": true,
	"for": true, "do": true, "switch": true, "case": true,
	"default": true, "break": true, "continue": true,
	"struct": true, "union": true, "enum": true, "typedef": true,
	"sizeof": true, "static": true, "extern": true, "const": true,
	"volatile": true, "inline": true, "signed": true, "unsigned": true,
	"short": true, "long": true, "goto": true, "auto": true,
	"register": true, "restrict": true, "double": true,
	"_Bool": true, "_Complex": true, "_Imaginary": true,
}

// ConvertToken classifies one expanded pp-token into a LangToken.
func ConvertToken(tok Token) (LangToken, error) {
	switch tok.Type {
	case PP_IDENTIFIER:
		if cKeywords[tok.Text] {
			return LangToken{Kind: LangKeyword, Text: tok.Text, Keyword: tok.Text, Loc: tok.Loc}, nil
		}
		return LangToken{Kind: LangIdentifier, Text: tok.Text, Loc: tok.Loc}, nil

	case PP_NUMBER:
		kind, err := classifyNumber(tok.Text)
		if err != nil {
			return LangToken{Kind: LangInvalid, Text: tok.Text, Loc: tok.Loc}, fmt.Errorf("%s: %w", tok.Loc, err)
		}
		return LangToken{Kind: kind, Text: tok.Text, Loc: tok.Loc}, nil

	case PP_STRING:
		prefix, body := splitEncodingPrefix(tok.Text, '"')
		payload, err := decodeQuoted(body, prefix)
		if err != nil {
			return LangToken{Kind: LangInvalid, Text: tok.Text, Loc: tok.Loc}, fmt.Errorf("%s: invalid string literal: %w", tok.Loc, err)
		}
		return LangToken{Kind: LangString, Text: tok.Text, Payload: payload, Encoding: prefix, Loc: tok.Loc}, nil

	case PP_CHAR_CONST:
		prefix, body := splitEncodingPrefix(tok.Text, '\'')
		payload, err := decodeQuoted(body, prefix)
		if err != nil {
			return LangToken{Kind: LangInvalid, Text: tok.Text, Loc: tok.Loc}, fmt.Errorf("%s: invalid character constant: %w", tok.Loc, err)
		}
		return LangToken{Kind: LangChar, Text: tok.Text, Payload: payload, Encoding: prefix, Loc: tok.Loc}, nil

	case PP_PUNCTUATOR, PP_HASH, PP_HASHHASH:
		return LangToken{Kind: LangPunctuator, Text: tok.Text, Loc: tok.Loc}, nil

	default:
		return LangToken{Kind: LangInvalid, Text: tok.Text, Loc: tok.Loc}, fmt.Errorf("%s: unexpected token %s in language stream", tok.Loc, tok.Type)
	}
}

// ConvertTokens converts a whole pp-token stream, collecting per-token
// diagnostics so one invalid literal does not abort conversion of the rest:
// an invalid numeric literal becomes an error token that the parser can
// still skip past.
func ConvertTokens(tokens []Token) ([]LangToken, []error) {
	out := make([]LangToken, 0, len(tokens))
	var errs []error
	for _, tok := range tokens {
		lt, err := ConvertToken(tok)
		if err != nil {
			errs = append(errs, err)
		}
		out = append(out, lt)
	}
	return out, errs
}

// classifyNumber applies a shape test: a floating suffix/dot/
// exponent marks a floating constant; everything else is integer.
func classifyNumber(text string) (LangKind, error) {
	if text == "" {
		return LangInvalid, fmt.Errorf("empty numeric token")
	}

	isHex := len(text) > 1 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X')

	hasDot := strings.ContainsRune(text, '.')
	hasExp := false
	if isHex {
		hasExp = strings.ContainsAny(text, "pP")
	} else {
		hasExp = strings.ContainsAny(text, "eE") && !isHex
	}
	lastByte := text[len(text)-1]
	// In a hex constant a trailing f/F is a digit, not a floating suffix.
	hasFloatSuffix := !isHex && (lastByte == 'f' || lastByte == 'F')

	if hasDot || hasExp || hasFloatSuffix {
		return LangFloatConst, nil
	}
	return LangIntConst, nil
}

// splitEncodingPrefix separates a literal's encoding prefix (u8, u, U, L)
// from its quoted body.
func splitEncodingPrefix(text string, quote byte) (prefix, body string) {
	for _, p := range []string{"u8", "u", "U", "L"} {
		if strings.HasPrefix(text, p) && len(text) > len(p) && text[len(p)] == quote {
			return p, text[len(p):]
		}
	}
	return "", text
}

// decodeQuoted strips the surrounding quotes, resolves C escape sequences,
// and re-encodes the result to the width the prefix calls for: UTF-8 for no
// prefix/u8, UTF-16LE for u, UTF-32LE for U/L (wchar_t is treated as 32-bit,
// the common Linux/macOS convention).
func decodeQuoted(quoted, prefix string) ([]byte, error) {
	if len(quoted) < 2 {
		return nil, fmt.Errorf("literal too short")
	}
	inner := quoted[1 : len(quoted)-1]

	runes, err := unescapeCString(inner)
	if err != nil {
		return nil, err
	}

	switch prefix {
	case "u":
		enc := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewEncoder()
		utf8Buf := make([]byte, 0, len(runes)*2)
		for _, r := range runes {
			utf8Buf = utf8.AppendRune(utf8Buf, r)
		}
		out, _, err := transform.Bytes(enc, utf8Buf)
		if err != nil {
			return nil, fmt.Errorf("encoding to UTF-16: %w", err)
		}
		return out, nil
	case "U", "L":
		out := make([]byte, 0, len(runes)*4)
		for _, r := range runes {
			out = append(out, byte(r), byte(r>>8), byte(r>>16), byte(r>>24))
		}
		return out, nil
	default:
		var out []byte
		for _, r := range runes {
			out = utf8.AppendRune(out, r)
		}
		return out, nil
	}
}

// unescapeCString resolves backslash escapes (including \uXXXX / \UXXXXXXXX
// universal character names and octal/hex escapes) into runes.
func unescapeCString(s string) ([]rune, error) {
	var out []rune
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(s[i:])
			out = append(out, r)
			i += size
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("trailing backslash in literal")
		}
		esc := s[i+1]
		switch esc {
		case 'n':
			out = append(out, '\n')
			i += 2
		case 't':
			out = append(out, '\t')
			i += 2
		case 'r':
			out = append(out, '\r')
			i += 2
		case '0':
			out = append(out, 0)
			i += 2
		case '\\', '\'', '"', '?':
			out = append(out, rune(esc))
			i += 2
		case 'a':
			out = append(out, '\a')
			i += 2
		case 'b':
			out = append(out, '\b')
			i += 2
		case 'f':
			out = append(out, '\f')
			i += 2
		case 'v':
			out = append(out, '\v')
			i += 2
		case 'x':
			j := i + 2
			for j < len(s) && isHexDigit(s[j]) {
				j++
			}
			if j == i+2 {
				return nil, fmt.Errorf("\\x escape with no hex digits")
			}
			r, err := parseHexRune(s[i+2 : j])
			if err != nil {
				return nil, err
			}
			out = append(out, r)
			i = j
		case 'u':
			r, err := parseFixedHexRune(s, i+2, 4)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
			i += 6
		case 'U':
			r, err := parseFixedHexRune(s, i+2, 8)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
			i += 10
		default:
			return nil, fmt.Errorf("unknown escape sequence \\%c", esc)
		}
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func parseHexRune(digits string) (rune, error) {
	var v rune
	for _, c := range digits {
		v = v*16 + rune(hexVal(byte(c)))
	}
	return v, nil
}

func parseFixedHexRune(s string, start, n int) (rune, error) {
	if start+n > len(s) {
		return 0, fmt.Errorf("truncated universal character name")
	}
	digits := s[start : start+n]
	for i := 0; i < n; i++ {
		if !isHexDigit(digits[i]) {
			return 0, fmt.Errorf("invalid universal character name %q", digits)
		}
	}
	r, _ := parseHexRune(digits)
	return r, nil
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return 0
	}
}
