package format

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const xmlPreamble = "<?xml version=\"1.0\"?>\n"

// XML encodes and decodes a simple XML convention for structured
// values: mappings become sorted subelements, sequence items become
// underscore elements, and empty containers carry a type attribute to
// keep their kind. Root names the document element, defaulting to
// root; IncludeRoot retains it as a mapping key when decoding.
type XML struct {
	Root         string
	OmitPreamble bool
	IncludeRoot  bool
}

func (XML) Name() string {
	return "xml"
}

func (XML) Mimetype() string {
	return "application/xml"
}

func (XML) Extensions() []string {
	return []string{".xml"}
}

func (f XML) Serialize(value any) (string, error) {
	root := f.Root
	if root == "" {
		root = "root"
	}

	var content strings.Builder
	if !f.OmitPreamble {
		content.WriteString(xmlPreamble)
	}
	if err := writeXMLElement(&content, root, value); err != nil {
		return "", err
	}
	return content.String(), nil
}

func (f XML) Unserialize(text string) (any, error) {
	root, err := parseXML(text)
	if err != nil {
		return nil, err
	}

	attr, value := unserializeXMLElement(root)
	if f.IncludeRoot {
		return map[string]any{attr: value}, nil
	}
	return value, nil
}

var xmlTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func writeXMLElement(content *strings.Builder, tag string, value any) error {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			fmt.Fprintf(content, "<%s type=\"struct\"/>", tag)
			return nil
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintf(content, "<%s>", tag)
		for _, key := range keys {
			if err := writeXMLElement(content, key, v[key]); err != nil {
				return err
			}
		}
		fmt.Fprintf(content, "</%s>", tag)
		return nil

	case []any:
		if len(v) == 0 {
			fmt.Fprintf(content, "<%s type=\"list\"/>", tag)
			return nil
		}
		fmt.Fprintf(content, "<%s>", tag)
		for _, item := range v {
			if err := writeXMLElement(content, "_", item); err != nil {
				return err
			}
		}
		fmt.Fprintf(content, "</%s>", tag)
		return nil

	case nil:
		fmt.Fprintf(content, "<%s>null</%s>", tag, tag)
		return nil
	}

	fmt.Fprintf(content, "<%s>%s</%s>", tag, xmlTextEscaper.Replace(scalarText(value)), tag)
	return nil
}

type xmlElement struct {
	tag      string
	typeAttr string
	text     string
	children []*xmlElement
}

func parseXML(text string) (*xmlElement, error) {
	decoder := xml.NewDecoder(strings.NewReader(text))

	var root *xmlElement
	var stack []*xmlElement
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			element := &xmlElement{tag: t.Name.Local}
			for _, attr := range t.Attr {
				if attr.Name.Local == "type" {
					element.typeAttr = attr.Value
				}
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, element)
			} else if root == nil {
				root = element
			} else {
				return nil, errors.New("format: multiple root elements")
			}
			stack = append(stack, element)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("format: unbalanced document")
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				element := stack[len(stack)-1]
				element.text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("format: empty document")
	}
	return root, nil
}

func unserializeXMLElement(element *xmlElement) (string, any) {
	if len(element.children) > 0 {
		list := element.typeAttr == "list"
		if !list {
			list = true
			for _, child := range element.children {
				if child.tag != "_" {
					list = false
					break
				}
			}
		}

		if list {
			values := make([]any, len(element.children))
			for i, child := range element.children {
				_, values[i] = unserializeXMLElement(child)
			}
			return element.tag, values
		}

		mapping := make(map[string]any, len(element.children))
		for _, child := range element.children {
			attr, value := unserializeXMLElement(child)
			mapping[attr] = value
		}
		return element.tag, mapping
	}

	if element.text == "" {
		switch element.typeAttr {
		case "list":
			return element.tag, []any{}
		case "struct":
			return element.tag, map[string]any{}
		case "bool", "int", "float", "null":
			return element.tag, nil
		}
		return element.tag, ""
	}
	if element.typeAttr == "str" {
		return element.tag, element.text
	}

	switch strings.ToLower(element.text) {
	case "true":
		return element.tag, true
	case "false":
		return element.tag, false
	case "null":
		return element.tag, nil
	}

	value := element.text
	if strings.Contains(value, ".") {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return element.tag, parsed
		}
	}
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
		return element.tag, parsed
	}
	return element.tag, value
}
