package java

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dhamidi/dew/java/parser"
)

// LiteralValue decodes a literal token. The value is an int32 (also for
// char), int64, float32, float64, bool, string or nil, and typ is the name
// of its type ("int", "java.lang.String", "null", ...).
func LiteralValue(tok *parser.Token) (value interface{}, typ string, err error) {
	if tok == nil {
		return nil, "", fmt.Errorf("no literal")
	}
	lit := tok.Literal
	switch tok.Kind {
	case parser.TokenTrue:
		return true, "boolean", nil
	case parser.TokenFalse:
		return false, "boolean", nil
	case parser.TokenNull:
		return nil, "null", nil
	case parser.TokenIntLiteral:
		return intLiteral(lit)
	case parser.TokenFloatLiteral:
		return floatLiteral(lit)
	case parser.TokenCharLiteral:
		s, err := unescape(strings.TrimSuffix(strings.TrimPrefix(lit, "'"), "'"))
		if err != nil {
			return nil, "char", err
		}
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) {
			return nil, "char", fmt.Errorf("illegal character literal %s", lit)
		}
		return int32(r), "char", nil
	case parser.TokenStringLiteral:
		s, err := unescape(strings.TrimSuffix(strings.TrimPrefix(lit, `"`), `"`))
		return s, "java.lang.String", err
	case parser.TokenTextBlock:
		s, err := unescape(textBlockContent(lit))
		return s, "java.lang.String", err
	}
	return nil, "", fmt.Errorf("not a literal: %s", lit)
}

func intLiteral(lit string) (interface{}, string, error) {
	s := strings.ReplaceAll(lit, "_", "")
	long := strings.HasSuffix(s, "l") || strings.HasSuffix(s, "L")
	s = strings.TrimRight(s, "lL")
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return nil, "", fmt.Errorf("integer number too large: %s", lit)
	}
	if long {
		if base == 10 && v > 1<<63 {
			return nil, "long", fmt.Errorf("integer number too large: %s", lit)
		}
		return int64(v), "long", nil
	}
	if base == 10 {
		// 2147483648 is only legal as the operand of unary minus
		if v > 1<<31 {
			return nil, "int", fmt.Errorf("integer number too large: %s", lit)
		}
		return int32(uint32(v)), "int", nil
	}
	if v > math.MaxUint32 {
		return nil, "int", fmt.Errorf("integer number too large: %s", lit)
	}
	return int32(uint32(v)), "int", nil
}

func floatLiteral(lit string) (interface{}, string, error) {
	s := strings.ReplaceAll(lit, "_", "")
	last := s[len(s)-1]
	switch last {
	case 'f', 'F':
		v, err := strconv.ParseFloat(s[:len(s)-1], 32)
		if err != nil {
			return nil, "float", fmt.Errorf("malformed floating-point literal: %s", lit)
		}
		return float32(v), "float", nil
	case 'd', 'D':
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, "double", fmt.Errorf("malformed floating-point literal: %s", lit)
	}
	return v, "double", nil
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("illegal escape character")
		}
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'r':
			sb.WriteByte('\r')
		case 'f':
			sb.WriteByte('\f')
		case 's':
			sb.WriteByte(' ')
		case '\'', '"', '\\':
			sb.WriteByte(s[i])
		case '\n':
			// line continuation in text blocks
		case 'u':
			for i < len(s) && s[i] == 'u' {
				i++
			}
			if i+4 > len(s) {
				return "", fmt.Errorf("illegal unicode escape")
			}
			v, err := strconv.ParseUint(s[i:i+4], 16, 16)
			if err != nil {
				return "", fmt.Errorf("illegal unicode escape")
			}
			sb.WriteRune(rune(v))
			i += 3
		default:
			if s[i] >= '0' && s[i] <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				v, _ := strconv.ParseUint(s[i:j], 8, 16)
				if v > 0xff {
					j--
					v, _ = strconv.ParseUint(s[i:j], 8, 16)
				}
				sb.WriteRune(rune(v))
				i = j - 1
				continue
			}
			return "", fmt.Errorf("illegal escape character")
		}
	}
	return sb.String(), nil
}

// textBlockContent strips the delimiters and the incidental indentation
// of a text block.
func textBlockContent(lit string) string {
	body := strings.TrimSuffix(strings.TrimPrefix(lit, `"""`), `"""`)
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	lines := strings.Split(body, "\n")
	indent := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" && i != len(lines)-1 {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			line = line[indent:]
		} else if strings.TrimSpace(line) == "" {
			line = ""
		}
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

// ConvertConstant narrows or widens a literal value to the named
// primitive or String type. It reports false when the value does not
// fit the type by assignment conversion.
func ConvertConstant(v interface{}, typ string) (interface{}, bool) {
	switch typ {
	case "boolean":
		b, ok := v.(bool)
		return b, ok
	case "java.lang.String":
		s, ok := v.(string)
		return s, ok
	}
	var i int64
	var f float64
	isInt := true
	switch x := v.(type) {
	case int32:
		i = int64(x)
	case int64:
		if typ != "long" && typ != "float" && typ != "double" {
			return nil, false
		}
		i = x
	case float32:
		isInt, f = false, float64(x)
	case float64:
		isInt, f = false, x
	default:
		return nil, false
	}
	if !isInt && typ != "float" && typ != "double" {
		return nil, false
	}
	switch typ {
	case "byte":
		return int32(i), i >= math.MinInt8 && i <= math.MaxInt8
	case "short":
		return int32(i), i >= math.MinInt16 && i <= math.MaxInt16
	case "char":
		return int32(i), i >= 0 && i <= math.MaxUint16
	case "int":
		return int32(i), true
	case "long":
		return i, true
	case "float":
		if isInt {
			return float32(i), true
		}
		if _, wasDouble := v.(float64); wasDouble {
			return nil, false
		}
		return float32(f), true
	case "double":
		if isInt {
			return float64(i), true
		}
		return f, true
	}
	return nil, false
}

// ConstantOf evaluates a constant initializer: a literal, optionally
// parenthesized or under a unary sign, negation or complement.
func ConstantOf(n *parser.Node) (interface{}, string, bool) {
	if n == nil {
		return nil, "", false
	}
	switch n.Kind {
	case parser.KindLiteral:
		v, typ, err := LiteralValue(n.Token)
		if err != nil || typ == "null" {
			return nil, typ, false
		}
		return v, typ, true
	case parser.KindParenExpr:
		if len(n.Children) == 1 {
			return ConstantOf(n.Children[0])
		}
	case parser.KindUnaryExpr:
		if len(n.Children) != 2 {
			break
		}
		v, typ, ok := ConstantOf(n.Children[1])
		if !ok {
			break
		}
		return unaryConstant(n.Children[0].TokenLiteral(), v, typ)
	}
	return nil, "", false
}

func unaryConstant(op string, v interface{}, typ string) (interface{}, string, bool) {
	if typ == "char" {
		typ = "int"
	}
	switch op {
	case "+":
		return v, typ, typ != "boolean" && typ != "java.lang.String"
	case "-":
		switch x := v.(type) {
		case int32:
			return -x, typ, true
		case int64:
			return -x, typ, true
		case float32:
			return -x, typ, true
		case float64:
			return -x, typ, true
		}
	case "~":
		switch x := v.(type) {
		case int32:
			return ^x, typ, true
		case int64:
			return ^x, typ, true
		}
	case "!":
		if b, ok := v.(bool); ok {
			return !b, typ, true
		}
	}
	return nil, "", false
}
