// Package graph renders schema descriptions as diagrams.
package graph

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateMermaid produces a Mermaid flowchart syntax string from a
// schema description. It applies semantic shapes:
// - Structure: [Rectangle]
// - Sequence/Tuple: [[Subroutine]]
// - Map: [/Parallelogram/]
// - Union: {{Hexagon}}
// - Scalar: (Rounded)
// Required fields are marked with an asterisk; repetition (sequence
// items, map values) uses dotted edges.
func GenerateMermaid(name string, description map[string]any) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	if name == "" {
		name = "schema"
	}
	writeField(&sb, name, name, description)

	return sb.String()
}

func writeField(sb *strings.Builder, id, label string, description map[string]any) {
	token, _ := description["__type__"].(string)
	if token == "" {
		token, _ = description["fieldtype"].(string)
	}
	if token == "" {
		token = "field"
	}

	safeID := sanitizeMermaidID(id)

	// Node shape based on field kind
	opener, closer := "(", ")"
	switch token {
	case "structure":
		opener, closer = "[", "]"
	case "sequence", "tuple":
		opener, closer = "[[", "]]"
	case "map":
		opener, closer = "[/", "/]"
	case "union":
		opener, closer = "{{", "}}"
	}

	text := fmt.Sprintf("%s : %s", label, token)
	if required, _ := description["required"].(bool); required {
		text += " *"
	}
	sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, text, closer))

	switch token {
	case "structure":
		structure, _ := description["structure"].(map[string]any)
		if discriminator, ok := description["polymorphic_on"].(map[string]any); ok {
			discName, _ := discriminator["name"].(string)
			for _, identity := range sortedKeys(structure) {
				fields, ok := structure[identity].(map[string]any)
				if !ok {
					continue
				}
				variantID := sanitizeMermaidID(id + "." + identity)
				sb.WriteString(fmt.Sprintf("    %s -- \"%s = %s\" --> %s[\"%s\"]\n", safeID, discName, identity, variantID, identity))
				writeStructureKeys(sb, id+"."+identity, variantID, fields)
			}
			return
		}
		writeStructureKeys(sb, id, safeID, structure)
	case "map":
		if child, ok := description["key"].(map[string]any); ok {
			childID := id + ".key"
			writeField(sb, childID, "key", child)
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, sanitizeMermaidID(childID)))
		}
		if child, ok := description["value"].(map[string]any); ok {
			childID := id + ".value"
			writeField(sb, childID, "value", child)
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, sanitizeMermaidID(childID)))
		}
	case "sequence":
		if child, ok := description["item"].(map[string]any); ok {
			childID := id + ".item"
			writeField(sb, childID, "item", child)
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, sanitizeMermaidID(childID)))
		}
	case "tuple":
		values, _ := description["values"].([]any)
		for i, value := range values {
			child, ok := value.(map[string]any)
			if !ok {
				continue
			}
			childID := fmt.Sprintf("%s.%d", id, i)
			writeField(sb, childID, fmt.Sprintf("%d", i), child)
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, sanitizeMermaidID(childID)))
		}
	case "union":
		fields, _ := description["fields"].([]any)
		for i, field := range fields {
			child, ok := field.(map[string]any)
			if !ok {
				continue
			}
			childID := fmt.Sprintf("%s.%d", id, i)
			writeField(sb, childID, fmt.Sprintf("%d", i), child)
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, sanitizeMermaidID(childID)))
		}
	}
}

func writeStructureKeys(sb *strings.Builder, id, safeParent string, fields map[string]any) {
	for _, key := range sortedKeys(fields) {
		child, ok := fields[key].(map[string]any)
		if !ok {
			continue
		}
		childID := id + "." + key
		writeField(sb, childID, key, child)
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeParent, sanitizeMermaidID(childID)))
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
