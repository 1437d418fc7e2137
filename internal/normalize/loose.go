package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

var errNotLiteral = errors.New("not a literal")

// DecodeLoose decodes a string-encoded sub-document. Stages, first success
// wins:
//
//  1. strict JSON;
//  2. JSON with comments and trailing commas;
//  3. Python-style literals: flow mappings and lists with single- or
//     double-quoted strings, numbers, True/False/None (true/false/null are
//     also accepted).
//
// Strings follow Python escapes in either quote style. Tuples, sets, bare
// identifiers, expressions and leading-zero integers such as 017 are
// rejected.
func DecodeLoose(text string) (any, bool) {
	if decoded, err := DecodeJSON([]byte(text)); err == nil {
		return decoded, true
	}
	if decoded, err := DecodeJSON(jsonc.ToJSON([]byte(text))); err == nil {
		return decoded, true
	}
	if decoded, err := decodeLiteral(text); err == nil {
		return decoded, true
	}
	return nil, false
}

func decodeLiteral(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errNotLiteral
	}
	rewritten, err := pythonStrings(text)
	if err != nil {
		return nil, err
	}
	var document yaml.Node
	if err := yaml.Unmarshal([]byte(rewritten), &document); err != nil {
		return nil, err
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) != 1 {
		return nil, errNotLiteral
	}
	root := document.Content[0]
	if root.Kind != yaml.ScalarNode && root.Style&yaml.FlowStyle == 0 {
		return nil, errNotLiteral
	}
	return literalValue(root)
}

func literalValue(node *yaml.Node) (any, error) {
	if node.Anchor != "" {
		return nil, errNotLiteral
	}
	switch node.Kind {
	case yaml.MappingNode:
		out := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, err := literalKey(node.Content[i])
			if err != nil {
				return nil, err
			}
			value, err := literalValue(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(key, value)
		}
		return out, nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, child := range node.Content {
			value, err := literalValue(child)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return items, nil
	case yaml.ScalarNode:
		return literalScalar(node)
	default:
		return nil, errNotLiteral
	}
}

// literalKey keeps the written form of keys so True stays "True".
func literalKey(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode || node.Anchor != "" {
		return "", errNotLiteral
	}
	if _, err := literalScalar(node); err != nil {
		return "", err
	}
	return node.Value, nil
}

func literalScalar(node *yaml.Node) (any, error) {
	if node.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		return node.Value, nil
	}
	if node.Style != 0 && node.Style != yaml.FlowStyle {
		return nil, errNotLiteral
	}
	if node.Tag != "" && !strings.HasPrefix(node.Tag, "!!") {
		return nil, errNotLiteral
	}
	switch node.Value {
	case "None", "null":
		return nil, nil
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	}
	return literalNumber(node.Value)
}

func literalNumber(text string) (any, error) {
	unsigned := strings.TrimLeft(text, "+-")
	if unsigned == "" || unsigned[0] < '0' || unsigned[0] > '9' {
		if !strings.HasPrefix(unsigned, ".") {
			return nil, fmt.Errorf("%w: %q", errNotLiteral, text)
		}
	}
	if legacyOctal(unsigned) {
		return nil, fmt.Errorf("%w: %q", errNotLiteral, text)
	}
	if integer, err := strconv.ParseInt(text, 0, 64); err == nil {
		return integer, nil
	}
	if isDecimalDigits(unsigned) {
		return json.Number(strings.TrimPrefix(text, "+")), nil
	}
	float, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil || math.IsNaN(float) || math.IsInf(float, 0) {
		return nil, fmt.Errorf("%w: %q", errNotLiteral, text)
	}
	return float, nil
}

func isDecimalDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// legacyOctal reports a decimal integer written with leading zeros. Go reads
// 017 as octal; Python refuses it. Runs of zeros such as 00 stay valid.
func legacyOctal(unsigned string) bool {
	digits := strings.ReplaceAll(unsigned, "_", "")
	if len(digits) < 2 || digits[0] != '0' || !isDecimalDigits(digits) {
		return false
	}
	return strings.Trim(digits, "0") != ""
}

// pythonStrings rewrites every quoted string into a YAML double-quoted scalar
// carrying the same characters, so YAML never applies its own single-quote
// rules.
func pythonStrings(text string) (string, error) {
	var out strings.Builder
	out.Grow(len(text))
	for i := 0; i < len(text); {
		quote := text[i]
		if quote != '\'' && quote != '"' {
			out.WriteByte(quote)
			i++
			continue
		}
		end, err := pythonString(text, i+1, quote, &out)
		if err != nil {
			return "", err
		}
		i = end
	}
	return out.String(), nil
}

// pythonString copies one string body starting after its opening quote and
// returns the offset just past the closing quote.
func pythonString(text string, start int, quote byte, out *strings.Builder) (int, error) {
	out.WriteByte('"')
	for i := start; i < len(text); {
		switch c := text[i]; {
		case c == quote:
			out.WriteByte('"')
			return i + 1, nil
		case c == '\n' || c == '\r':
			return 0, fmt.Errorf("%w: unterminated string", errNotLiteral)
		case c == '"':
			out.WriteString(`\"`)
			i++
		case c == '\\':
			n, err := pythonEscape(text[i+1:], out)
			if err != nil {
				return 0, err
			}
			i += 1 + n
		default:
			out.WriteByte(c)
			i++
		}
	}
	return 0, fmt.Errorf("%w: unterminated string", errNotLiteral)
}

// pythonEscape translates the escape following a backslash and reports how
// many bytes of rest it consumed. Unknown escapes keep their backslash.
func pythonEscape(rest string, out *strings.Builder) (int, error) {
	if rest == "" {
		return 0, fmt.Errorf("%w: unterminated string", errNotLiteral)
	}
	switch c := rest[0]; c {
	case '\n':
		return 1, nil
	case '\'':
		out.WriteByte('\'')
		return 1, nil
	case '\\', '"', 'a', 'b', 'f', 'n', 'r', 't', 'v':
		out.WriteByte('\\')
		out.WriteByte(c)
		return 1, nil
	case 'x':
		return hexEscape(rest, 2, out)
	case 'u':
		return hexEscape(rest, 4, out)
	case 'U':
		return hexEscape(rest, 8, out)
	}
	if n := octalDigits(rest); n > 0 {
		code, _ := strconv.ParseUint(rest[:n], 8, 32)
		fmt.Fprintf(out, `\u%04x`, code)
		return n, nil
	}
	out.WriteString(`\\`)
	return 0, nil
}

func hexEscape(rest string, digits int, out *strings.Builder) (int, error) {
	if len(rest) < 1+digits {
		return 0, fmt.Errorf("%w: truncated \\%c escape", errNotLiteral, rest[0])
	}
	for _, c := range rest[1 : 1+digits] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return 0, fmt.Errorf("%w: truncated \\%c escape", errNotLiteral, rest[0])
		}
	}
	out.WriteByte('\\')
	out.WriteString(rest[:1+digits])
	return 1 + digits, nil
}

func octalDigits(rest string) int {
	n := 0
	for n < 3 && n < len(rest) && rest[n] >= '0' && rest[n] <= '7' {
		n++
	}
	return n
}
