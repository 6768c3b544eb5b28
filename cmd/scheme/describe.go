package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/scheme/format"
	"github.com/aretw0/scheme/internal/presentation/graph"
	"github.com/aretw0/scheme/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe <schema>",
	Short: "Inspect a schema description",
	Long: `Loads a schema description, reconstructs it to verify the definition
and renders it for reading.

By default the schema is summarized as Markdown. Use --json or --yaml
for the canonical description and --mermaid for a field graph.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDescribe(cmd, args); err != nil {
			fmt.Printf("Error describing schema: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().Bool("json", false, "Print the canonical description as JSON")
	describeCmd.Flags().Bool("yaml", false, "Print the canonical description as YAML")
	describeCmd.Flags().Bool("mermaid", false, "Print a Mermaid graph of the schema fields")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	field, err := loadSchema(args[0])
	if err != nil {
		return err
	}
	description := field.Describe()

	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	if explicit, ok := description["name"].(string); ok && explicit != "" {
		name = explicit
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	asMermaid, _ := cmd.Flags().GetBool("mermaid")

	switch {
	case asMermaid:
		fmt.Print(graph.GenerateMermaid(name, description))
	case asJSON:
		encoded, err := json.MarshalIndent(description, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
	case asYAML:
		encoded, err := format.Serialize("yaml", description)
		if err != nil {
			return err
		}
		fmt.Print(encoded)
	default:
		markdown := describeMarkdown(name, description)
		if tui.IsInteractive() {
			fmt.Print(tui.RenderMarkdown(markdown))
		} else {
			fmt.Print(markdown)
		}
	}
	return nil
}

// describeMarkdown summarizes a schema description as a Markdown
// document, with a field table per structure.
func describeMarkdown(name string, description map[string]any) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)

	if title, ok := description["title"].(string); ok && title != "" {
		fmt.Fprintf(&sb, "**%s**\n\n", title)
	}
	if text, ok := description["description"].(string); ok && text != "" {
		fmt.Fprintf(&sb, "%s\n\n", text)
	}
	fmt.Fprintf(&sb, "Type: `%s`\n\n", fieldType(description))

	if discriminator, ok := description["polymorphic_on"].(map[string]any); ok {
		discName, _ := discriminator["name"].(string)
		fmt.Fprintf(&sb, "Polymorphic on `%s`.\n\n", discName)
		structure, _ := description["structure"].(map[string]any)
		for _, identity := range sortedDescriptionKeys(structure) {
			fields, ok := structure[identity].(map[string]any)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "## %s\n\n", identity)
			writeFieldTable(&sb, fields)
		}
		return sb.String()
	}

	if structure, ok := description["structure"].(map[string]any); ok {
		writeFieldTable(&sb, structure)
	} else if constraints := constraintSummary(description); constraints != "" {
		fmt.Fprintf(&sb, "Constraints: %s\n", constraints)
	}
	return sb.String()
}

func writeFieldTable(sb *strings.Builder, fields map[string]any) {
	sb.WriteString("| Field | Type | Required | Constraints |\n")
	sb.WriteString("|-------|------|----------|-------------|\n")
	for _, key := range sortedDescriptionKeys(fields) {
		child, ok := fields[key].(map[string]any)
		if !ok {
			continue
		}
		required := ""
		if isTrue, _ := child["required"].(bool); isTrue {
			required = "yes"
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n", key, fieldType(child), required, constraintSummary(child))
	}
	sb.WriteString("\n")
}

// constraintSummary joins the recognizable constraint parameters of a
// field description into one readable line.
func constraintSummary(description map[string]any) string {
	var parts []string
	for _, key := range []string{"pattern", "min_length", "max_length", "minimum", "maximum", "unique", "enumeration", "constant", "default"} {
		if value, ok := description[key]; ok {
			parts = append(parts, fmt.Sprintf("%s %v", strings.ReplaceAll(key, "_", " "), value))
		}
	}
	return strings.Join(parts, ", ")
}

func fieldType(description map[string]any) string {
	if token, ok := description["__type__"].(string); ok {
		return token
	}
	if token, ok := description["fieldtype"].(string); ok {
		return token
	}
	return "field"
}

func sortedDescriptionKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
