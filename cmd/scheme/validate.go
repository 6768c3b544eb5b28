package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	scheme "github.com/aretw0/scheme"
	"github.com/aretw0/scheme/format"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema> [value]",
	Short: "Check a serialized value against a schema",
	Long: `Reads a schema description and a serialized value, then processes the
value against the schema.

The schema argument is a description file (json or yaml). The value is
read from the second argument, or from stdin when it is omitted or '-'.
Value formats are resolved from the file extension unless --format is
given.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			if verr, ok := scheme.AsValidationError(err); ok {
				fmt.Println("Value is invalid:")
				tree, merr := json.MarshalIndent(verr.Serialize(), "", "  ")
				if merr == nil {
					fmt.Println(string(tree))
				} else {
					fmt.Println(err)
				}
			} else {
				fmt.Printf("Validation failed: %v\n", err)
			}
			os.Exit(1)
		}
		fmt.Println("Value is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("format", "f", "", "Format of the value: json, yaml, urlencoded, csv or xml")
}

func runValidate(cmd *cobra.Command, args []string) error {
	field, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("format")
	value, err := readValue(args[1:], formatName)
	if err != nil {
		return err
	}

	_, err = scheme.Process(field, value, scheme.Incoming, true)
	return err
}

// loadSchema reads a description file and reconstructs its field, which
// also verifies the definition itself.
func loadSchema(path string) (scheme.Field, error) {
	raw, err := format.Read(path, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	description, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema %s is not a field description", path)
	}
	field, err := scheme.Reconstruct(description)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return field, nil
}

// readValue loads the value operand from a file or stdin. Stdin defaults
// to json when no format is given.
func readValue(args []string, formatName string) (any, error) {
	if len(args) > 0 && args[0] != "-" {
		return format.Read(args[0], formatName)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	if formatName == "" {
		formatName = "json"
	}
	return format.Unserialize(formatName, string(data))
}
