// Package interpolate renders ${...} template expressions against a set
// of parameters. Expressions support literals, parameter references with
// attribute and index access, arithmetic, function calls and filters, in
// the manner of the usual templating engines.
package interpolate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrUndefinedValue indicates an expression referenced a parameter with
// no binding.
var ErrUndefinedValue = errors.New("interpolate: undefined value")

var variableExpr = regexp.MustCompile(`^\s*\$\{([^}]+)\}\s*$`)

// FilterFunc transforms a piped value within an expression.
type FilterFunc func(value any, args ...any) (any, error)

// GlobalFunc implements a function callable within an expression.
type GlobalFunc func(args ...any) (any, error)

// Interpolator evaluates and renders template expressions. The zero
// value is not usable; construct instances with New. An Interpolator is
// safe for concurrent use once its filters and globals are registered.
type Interpolator struct {
	filters map[string]FilterFunc
	globals map[string]GlobalFunc
}

// New returns an Interpolator equipped with the standard filters,
// pluralize and slugify, and the standard globals, now and timestamp.
func New() *Interpolator {
	ip := &Interpolator{
		filters: make(map[string]FilterFunc),
		globals: make(map[string]GlobalFunc),
	}
	ip.AddFilter("pluralize", pluralizeFilter)
	ip.AddFilter("slugify", slugifyFilter)
	ip.AddGlobal("now", nowGlobal)
	ip.AddGlobal("timestamp", timestampGlobal)
	return ip
}

var defaultInterpolator = New()

// Default returns the interpolator shared by the package-level Evaluate
// and Render.
func Default() *Interpolator {
	return defaultInterpolator
}

// AddFilter registers a filter under name, replacing any existing one.
func (ip *Interpolator) AddFilter(name string, filter FilterFunc) {
	ip.filters[name] = filter
}

// AddGlobal registers a callable under name, replacing any existing one.
func (ip *Interpolator) AddGlobal(name string, global GlobalFunc) {
	ip.globals[name] = global
}

// Evaluate resolves subject to a typed value when it consists of a
// single ${...} expression, and returns it unchanged otherwise. A
// reference to an unbound parameter reports ErrUndefinedValue.
func (ip *Interpolator) Evaluate(subject string, params map[string]any) (any, error) {
	if subject == "" {
		return "", nil
	}
	match := variableExpr.FindStringSubmatch(subject)
	if match == nil {
		return subject, nil
	}
	value, err := ip.evaluateExpression(strings.TrimSpace(match[1]), params)
	if err != nil {
		return nil, err
	}
	if isUndefined(value) {
		return nil, ErrUndefinedValue
	}
	return value, nil
}

// Render substitutes every ${...} expression within subject, rendering
// each result as text. Expressions that reference unbound parameters
// render as nothing.
func (ip *Interpolator) Render(subject string, params map[string]any) (string, error) {
	if subject == "" {
		return "", nil
	}

	var rendered strings.Builder
	for {
		start := strings.Index(subject, "${")
		if start < 0 {
			rendered.WriteString(subject)
			break
		}
		rendered.WriteString(subject[:start])

		expression, remainder, err := scanExpression(subject[start+2:])
		if err != nil {
			return "", err
		}
		value, err := ip.evaluateExpression(strings.TrimSpace(expression), params)
		if err != nil {
			return "", err
		}
		if !isUndefined(value) {
			rendered.WriteString(renderValue(value))
		}
		subject = remainder
	}
	return rendered.String(), nil
}

// Evaluate resolves subject with the default interpolator.
func Evaluate(subject string, params map[string]any) (any, error) {
	return defaultInterpolator.Evaluate(subject, params)
}

// Render renders subject with the default interpolator.
func Render(subject string, params map[string]any) (string, error) {
	return defaultInterpolator.Render(subject, params)
}

// scanExpression consumes input up to the closing brace of an already
// opened expression, skipping braces within quoted strings.
func scanExpression(input string) (expression, remainder string, err error) {
	var quote rune
	for i, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '}':
			return input[:i], input[i+1:], nil
		}
	}
	return "", "", errors.New("interpolate: unterminated expression")
}

func renderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05 MST")
	}
	if i, ok := intValue(value); ok {
		return fmt.Sprintf("%d", i)
	}
	return fmt.Sprintf("%v", value)
}

var pluralizationRules = []struct {
	pattern     *regexp.Regexp
	target      *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`ife$`), regexp.MustCompile(`ife$`), "ives"},
	{regexp.MustCompile(`eau$`), regexp.MustCompile(`eau$`), "eaux"},
	{regexp.MustCompile(`lf$`), regexp.MustCompile(`lf$`), "lves"},
	{regexp.MustCompile(`[sxz]$`), regexp.MustCompile(`$`), "es"},
	{regexp.MustCompile(`[^aeioudgkprt]h$`), regexp.MustCompile(`$`), "es"},
	{regexp.MustCompile(`(qu|[^aeiou])y$`), regexp.MustCompile(`y$`), "ies"},
}

// Pluralize returns the plural form of word unless quantity is exactly
// one.
func Pluralize(word string, quantity int) string {
	if quantity == 1 {
		return word
	}
	for _, rule := range pluralizationRules {
		if rule.pattern.MatchString(word) {
			return rule.target.ReplaceAllString(word, rule.replacement)
		}
	}
	return word + "s"
}

var (
	spacerExpr     = regexp.MustCompile(`[-_\s]+`)
	validCharsExpr = regexp.MustCompile(`[^\w\s-]`)

	asciiFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
)

// Slugify reduces value to a lowercase ascii identifier, joining words
// with spacer, which defaults to a hyphen.
func Slugify(value, spacer string) string {
	if spacer == "" {
		spacer = "-"
	}
	value = asciiFold(value)
	value = strings.TrimSpace(validCharsExpr.ReplaceAllString(value, ""))
	value = strings.ToLower(value)
	return spacerExpr.ReplaceAllString(value, spacer)
}

// asciiFold decomposes accented characters to their base form and drops
// anything that remains outside ascii.
func asciiFold(value string) string {
	folded, _, err := transform.String(asciiFolder, value)
	if err != nil {
		folded = value
	}
	var ascii strings.Builder
	for _, r := range folded {
		if r < 128 {
			ascii.WriteRune(r)
		}
	}
	return ascii.String()
}

// Now formats the current time per a strftime-style format, defaulting
// to '%Y-%m-%d %H:%M:%S %Z'.
func Now(format string) string {
	if format == "" {
		format = "%Y-%m-%d %H:%M:%S %Z"
	}
	return time.Now().Format(strftimeLayout(format))
}

// Timestamp returns the current time as a compact sortable token.
func Timestamp() string {
	return time.Now().Format("20060102150405")
}

var strftimeMappings = map[byte]string{
	'Y': "2006", 'y': "06",
	'm': "01", 'd': "02",
	'H': "15", 'I': "03",
	'M': "04", 'S': "05",
	'Z': "MST", 'z': "-0700",
	'p': "PM", 'j': "002",
	'b': "Jan", 'B': "January",
	'a': "Mon", 'A': "Monday",
	'%': "%",
}

func strftimeLayout(format string) string {
	var layout strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			if mapped, ok := strftimeMappings[format[i+1]]; ok {
				layout.WriteString(mapped)
				i++
				continue
			}
		}
		layout.WriteByte(format[i])
	}
	return layout.String()
}

func pluralizeFilter(value any, args ...any) (any, error) {
	word, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("interpolate: pluralize requires a string, not %T", value)
	}
	quantity := 0
	if len(args) > 0 {
		q, ok := intValue(args[0])
		if !ok {
			return nil, fmt.Errorf("interpolate: pluralize quantity must be an integer, not %T", args[0])
		}
		quantity = int(q)
	}
	return Pluralize(word, quantity), nil
}

func slugifyFilter(value any, args ...any) (any, error) {
	text, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("interpolate: slugify requires a string, not %T", value)
	}
	spacer := ""
	if len(args) > 0 {
		if spacer, ok = args[0].(string); !ok {
			return nil, fmt.Errorf("interpolate: slugify spacer must be a string, not %T", args[0])
		}
	}
	return Slugify(text, spacer), nil
}

func nowGlobal(args ...any) (any, error) {
	format := ""
	if len(args) > 0 {
		text, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("interpolate: now format must be a string, not %T", args[0])
		}
		format = text
	}
	return Now(format), nil
}

func timestampGlobal(args ...any) (any, error) {
	if len(args) > 0 {
		return nil, errors.New("interpolate: timestamp takes no arguments")
	}
	return Timestamp(), nil
}
