package interpolate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// undefined marks a reference with no binding, so evaluation can
// distinguish a missing parameter from an explicit null.
type undefined struct{}

func isUndefined(value any) bool {
	_, ok := value.(undefined)
	return ok
}

// globalRef is a resolved but uninvoked global function.
type globalRef struct {
	name string
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenString
	tokenIdent
	tokenOperator
)

type token struct {
	kind   tokenKind
	text   string
	number any
}

func lexExpression(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r >= '0' && r <= '9':
			start := i
			float := false
			for i < len(runes) {
				if runes[i] >= '0' && runes[i] <= '9' {
					i++
				} else if runes[i] == '.' && !float {
					float = true
					i++
				} else {
					break
				}
			}
			text := string(runes[start:i])
			if float {
				value, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, fmt.Errorf("interpolate: invalid number %q", text)
				}
				tokens = append(tokens, token{kind: tokenNumber, text: text, number: value})
			} else {
				value, err := strconv.ParseInt(text, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("interpolate: invalid number %q", text)
				}
				tokens = append(tokens, token{kind: tokenNumber, text: text, number: value})
			}

		case r == '\'' || r == '"':
			quote := r
			i++
			var text strings.Builder
			closed := false
			for i < len(runes) {
				c := runes[i]
				if c == '\\' && i+1 < len(runes) {
					i++
					switch runes[i] {
					case 'n':
						text.WriteRune('\n')
					case 't':
						text.WriteRune('\t')
					default:
						text.WriteRune(runes[i])
					}
					i++
					continue
				}
				if c == quote {
					closed = true
					i++
					break
				}
				text.WriteRune(c)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("interpolate: unterminated string in expression")
			}
			tokens = append(tokens, token{kind: tokenString, text: text.String()})

		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[start:i])})

		case strings.ContainsRune("+-*/%|.,()[]", r):
			tokens = append(tokens, token{kind: tokenOperator, text: string(r)})
			i++

		default:
			return nil, fmt.Errorf("interpolate: unexpected character %q in expression", r)
		}
	}
	return append(tokens, token{kind: tokenEOF}), nil
}

type evaluator struct {
	ip     *Interpolator
	tokens []token
	pos    int
	params map[string]any
}

func (ip *Interpolator) evaluateExpression(expression string, params map[string]any) (any, error) {
	tokens, err := lexExpression(expression)
	if err != nil {
		return nil, err
	}
	ev := &evaluator{ip: ip, tokens: tokens, params: params}
	value, err := ev.parseSum()
	if err != nil {
		return nil, err
	}
	if ev.peek().kind != tokenEOF {
		return nil, fmt.Errorf("interpolate: unexpected %q in expression", ev.peek().text)
	}
	return value, nil
}

func (ev *evaluator) peek() token {
	return ev.tokens[ev.pos]
}

func (ev *evaluator) next() token {
	t := ev.tokens[ev.pos]
	if t.kind != tokenEOF {
		ev.pos++
	}
	return t
}

func (ev *evaluator) accept(text string) bool {
	if t := ev.peek(); t.kind == tokenOperator && t.text == text {
		ev.pos++
		return true
	}
	return false
}

func (ev *evaluator) expect(text string) error {
	if !ev.accept(text) {
		return fmt.Errorf("interpolate: expected %q in expression", text)
	}
	return nil
}

func (ev *evaluator) parseSum() (any, error) {
	left, err := ev.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		op := ev.peek()
		if op.kind != tokenOperator || (op.text != "+" && op.text != "-") {
			return left, nil
		}
		ev.next()
		right, err := ev.parseProduct()
		if err != nil {
			return nil, err
		}
		if left, err = arithmetic(op.text, left, right); err != nil {
			return nil, err
		}
	}
}

func (ev *evaluator) parseProduct() (any, error) {
	left, err := ev.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := ev.peek()
		if op.kind != tokenOperator || (op.text != "*" && op.text != "/" && op.text != "%") {
			return left, nil
		}
		ev.next()
		right, err := ev.parseUnary()
		if err != nil {
			return nil, err
		}
		if left, err = arithmetic(op.text, left, right); err != nil {
			return nil, err
		}
	}
}

func (ev *evaluator) parseUnary() (any, error) {
	if ev.accept("-") {
		value, err := ev.parseUnary()
		if err != nil {
			return nil, err
		}
		if isUndefined(value) {
			return nil, ErrUndefinedValue
		}
		if i, ok := value.(int64); ok {
			return -i, nil
		}
		if f, ok := floatValue(value); ok {
			return -f, nil
		}
		return nil, fmt.Errorf("interpolate: cannot negate %T value", value)
	}
	return ev.parsePostfix()
}

func (ev *evaluator) parsePostfix() (any, error) {
	value, err := ev.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case ev.accept("."):
			name := ev.next()
			if name.kind != tokenIdent {
				return nil, fmt.Errorf("interpolate: expected attribute name in expression")
			}
			value = attribute(value, name.text)

		case ev.accept("["):
			index, err := ev.parseSum()
			if err != nil {
				return nil, err
			}
			if err := ev.expect("]"); err != nil {
				return nil, err
			}
			if value, err = item(value, index); err != nil {
				return nil, err
			}

		case ev.accept("("):
			args, err := ev.parseArguments()
			if err != nil {
				return nil, err
			}
			if value, err = ev.call(value, args); err != nil {
				return nil, err
			}

		case ev.accept("|"):
			name := ev.next()
			if name.kind != tokenIdent {
				return nil, fmt.Errorf("interpolate: expected filter name in expression")
			}
			var args []any
			if ev.accept("(") {
				if args, err = ev.parseArguments(); err != nil {
					return nil, err
				}
			}
			if value, err = ev.applyFilter(name.text, value, args); err != nil {
				return nil, err
			}

		default:
			return value, nil
		}
	}
}

func (ev *evaluator) parsePrimary() (any, error) {
	t := ev.next()
	switch {
	case t.kind == tokenNumber:
		return t.number, nil

	case t.kind == tokenString:
		return t.text, nil

	case t.kind == tokenIdent:
		switch t.text {
		case "true", "True":
			return true, nil
		case "false", "False":
			return false, nil
		case "none", "None", "null":
			return nil, nil
		}
		if value, ok := ev.params[t.text]; ok {
			return value, nil
		}
		if _, ok := ev.ip.globals[t.text]; ok {
			return globalRef{name: t.text}, nil
		}
		return undefined{}, nil

	case t.kind == tokenOperator && t.text == "(":
		value, err := ev.parseSum()
		if err != nil {
			return nil, err
		}
		return value, ev.expect(")")

	case t.kind == tokenOperator && t.text == "[":
		if ev.accept("]") {
			return []any{}, nil
		}
		var items []any
		for {
			item, err := ev.parseSum()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if ev.accept(",") {
				continue
			}
			if err := ev.expect("]"); err != nil {
				return nil, err
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("interpolate: unexpected token %q in expression", t.text)
}

func (ev *evaluator) parseArguments() ([]any, error) {
	if ev.accept(")") {
		return nil, nil
	}
	var args []any
	for {
		arg, err := ev.parseSum()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if ev.accept(",") {
			continue
		}
		if err := ev.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (ev *evaluator) call(value any, args []any) (any, error) {
	ref, ok := value.(globalRef)
	if !ok {
		if isUndefined(value) {
			return nil, ErrUndefinedValue
		}
		return nil, fmt.Errorf("interpolate: %T value is not callable", value)
	}
	for _, arg := range args {
		if isUndefined(arg) {
			return nil, ErrUndefinedValue
		}
	}
	return ev.ip.globals[ref.name](args...)
}

func (ev *evaluator) applyFilter(name string, value any, args []any) (any, error) {
	filter, ok := ev.ip.filters[name]
	if !ok {
		return nil, fmt.Errorf("interpolate: unknown filter %q", name)
	}
	if isUndefined(value) {
		return nil, ErrUndefinedValue
	}
	for _, arg := range args {
		if isUndefined(arg) {
			return nil, ErrUndefinedValue
		}
	}
	return filter(value, args...)
}

func attribute(value any, name string) any {
	if source, ok := value.(map[string]any); ok {
		if item, ok := source[name]; ok {
			return item
		}
	}
	return undefined{}
}

func item(value any, index any) (any, error) {
	switch v := value.(type) {
	case undefined:
		return undefined{}, nil
	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return undefined{}, nil
		}
		if item, ok := v[key]; ok {
			return item, nil
		}
	case []any:
		i, ok := intValue(index)
		if !ok {
			return nil, fmt.Errorf("interpolate: sequence index must be an integer, not %T", index)
		}
		idx := int(i)
		if idx < 0 {
			idx += len(v)
		}
		if idx >= 0 && idx < len(v) {
			return v[idx], nil
		}
	case string:
		i, ok := intValue(index)
		if !ok {
			return undefined{}, nil
		}
		runes := []rune(v)
		idx := int(i)
		if idx < 0 {
			idx += len(runes)
		}
		if idx >= 0 && idx < len(runes) {
			return string(runes[idx]), nil
		}
	}
	return undefined{}, nil
}

// arithmetic applies a binary operator. Integer operands stay integral
// except under division, which always yields a float.
func arithmetic(op string, left, right any) (any, error) {
	if isUndefined(left) || isUndefined(right) {
		return nil, ErrUndefinedValue
	}

	if op == "+" {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
		if ll, ok := left.([]any); ok {
			if rl, ok := right.([]any); ok {
				combined := make([]any, 0, len(ll)+len(rl))
				combined = append(combined, ll...)
				return append(combined, rl...), nil
			}
		}
	}

	li, lInt := intValue(left)
	ri, rInt := intValue(right)
	if lInt && rInt && op != "/" {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "%":
			if ri == 0 {
				return nil, fmt.Errorf("interpolate: modulo by zero")
			}
			return li % ri, nil
		}
	}

	lf, lFloat := floatValue(left)
	rf, rFloat := floatValue(right)
	if !lFloat || !rFloat {
		return nil, fmt.Errorf("interpolate: unsupported operands %T and %T for %q", left, right, op)
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("interpolate: division by zero")
		}
		return lf / rf, nil
	case "%":
		return math.Mod(lf, rf), nil
	}
	return nil, fmt.Errorf("interpolate: unsupported operator %q", op)
}

func intValue(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

func floatValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if i, ok := intValue(value); ok {
		return float64(i), true
	}
	return 0, false
}
