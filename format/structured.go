package format

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// structureExpr matches an innermost {...} or [...] structure,
	// permitting escaped structural tokens within it.
	structureExpr = regexp.MustCompile(
		`(?:\{((\\[\\\[\]{}])|[^\\{\[\]])*?\})|(?:\[((\\[\\\[\]{}])|[^\\{}\[])*?\])`)

	structureTokensExpr = regexp.MustCompile(`([{}\[\]])`)
	escapedTokensExpr   = regexp.MustCompile(`\\([{}\[\]])`)
)

// StructuredText encodes and decodes the compact curly-brace notation
// used for structured values in query strings and similar close
// quarters: {key:value,...} for mappings, [value,...] for sequences,
// with true, false and null as themselves. ParseNumbers additionally
// decodes numeric-looking simple values as numbers.
type StructuredText struct {
	ParseNumbers bool
}

func (StructuredText) Name() string {
	return "structuredtext"
}

func (StructuredText) Mimetype() string {
	return "text/plain"
}

func (StructuredText) Extensions() []string {
	return nil
}

func (StructuredText) Serialize(value any) (string, error) {
	return serializeStructuredContent(value)
}

func (f StructuredText) Unserialize(text string) (any, error) {
	if text == "" {
		return "", nil
	}
	if text[0] == '{' || text[0] == '[' {
		return unserializeStructuredText(text, f.ParseNumbers)
	}
	return unserializeSimpleValue(text, f.ParseNumbers), nil
}

func serializeStructuredContent(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "null", nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case string:
		return structureTokensExpr.ReplaceAllString(v, `\$1`), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		tokens := make([]string, 0, len(keys))
		for _, key := range keys {
			content, err := serializeStructuredContent(v[key])
			if err != nil {
				return "", err
			}
			tokens = append(tokens, key+":"+content)
		}
		return "{" + strings.Join(tokens, ",") + "}", nil
	case []any:
		tokens := make([]string, 0, len(v))
		for _, item := range v {
			content, err := serializeStructuredContent(item)
			if err != nil {
				return "", err
			}
			tokens = append(tokens, content)
		}
		return "[" + strings.Join(tokens, ",") + "]", nil
	}
	return scalarText(value), nil
}

// unserializeStructuredText repeatedly collapses innermost structures
// into placeholder tokens until a single token remains, then resolves
// it. Nested structures therefore parse inside out.
func unserializeStructuredText(text string, parseNumbers bool) (any, error) {
	structures := make(map[string]any)

	var failure error
	for {
		count := 0
		text = structureExpr.ReplaceAllStringFunc(text, func(match string) string {
			token := fmt.Sprintf("||%d||", len(structures))
			value, err := unserializeStructure(match, structures, parseNumbers)
			if err != nil && failure == nil {
				failure = err
			}
			structures[token] = value
			count++
			return token
		})
		if failure != nil {
			return nil, failure
		}
		if count == 0 {
			value, ok := structures[text]
			if !ok {
				return nil, fmt.Errorf("format: malformed structured text %q", text)
			}
			return value, nil
		}
	}
}

func unserializeStructure(text string, structures map[string]any, parseNumbers bool) (any, error) {
	if len(text) < 2 {
		return nil, fmt.Errorf("format: malformed structure %q", text)
	}
	head, tail := text[0], text[len(text)-1]
	tokens := text[1 : len(text)-1]

	switch {
	case head == '{' && tail == '}':
		structure := make(map[string]any)
		if tokens == "" {
			return structure, nil
		}
		for _, pair := range strings.Split(tokens, ",") {
			key, value, found := strings.Cut(pair, ":")
			if !found {
				return nil, fmt.Errorf("format: malformed structure pair %q", pair)
			}
			if resolved, ok := structures[value]; ok {
				structure[key] = resolved
			} else {
				structure[key] = unserializeSimpleValue(value, parseNumbers)
			}
		}
		return structure, nil

	case head == '[' && tail == ']':
		values := make([]any, 0)
		if tokens == "" {
			return values, nil
		}
		for _, value := range strings.Split(tokens, ",") {
			if resolved, ok := structures[value]; ok {
				values = append(values, resolved)
			} else {
				values = append(values, unserializeSimpleValue(value, parseNumbers))
			}
		}
		return values, nil
	}
	return nil, fmt.Errorf("format: malformed structure %q", text)
}

func unserializeSimpleValue(value string, parseNumbers bool) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if !parseNumbers {
		return escapedTokensExpr.ReplaceAllString(value, "$1")
	}

	if strings.Contains(value, ".") {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
		return parsed
	}
	return value
}

// URLEncoded encodes a mapping as form-encoded pairs, rendering each
// value in structured-text notation.
type URLEncoded struct{}

func (URLEncoded) Name() string {
	return "urlencoded"
}

func (URLEncoded) Mimetype() string {
	return "application/x-www-form-urlencoded"
}

func (URLEncoded) Extensions() []string {
	return nil
}

func (URLEncoded) Serialize(value any) (string, error) {
	content, ok := value.(map[string]any)
	if !ok {
		return "", fmt.Errorf("format: urlencoded requires a mapping, not %T", value)
	}

	data := make(url.Values, len(content))
	for name, value := range content {
		serialized, err := serializeStructuredContent(value)
		if err != nil {
			return "", err
		}
		data.Set(name, serialized)
	}
	return data.Encode(), nil
}

func (URLEncoded) Unserialize(text string) (any, error) {
	pairs, err := url.ParseQuery(text)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(pairs))
	for name, values := range pairs {
		value := values[len(values)-1]
		if value != "" && (value[0] == '{' || value[0] == '[') {
			if data[name], err = unserializeStructuredText(value, false); err != nil {
				return nil, err
			}
		} else {
			data[name] = unserializeSimpleValue(value, false)
		}
	}
	return data, nil
}
