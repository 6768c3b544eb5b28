package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scheme/format"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Transcode a serialized value between wire formats",
	Long: `Reads a serialized value and re-emits it in another format.

The source format is resolved from the input file extension unless
--from is given. Use '-' to read from stdin. The result goes to stdout,
or to the file named by --out with its format resolved the same way.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConvert(cmd, args); err != nil {
			fmt.Printf("Conversion failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("from", "", "Format of the input: json, yaml, urlencoded, csv or xml")
	convertCmd.Flags().String("to", "json", "Format of the output")
	convertCmd.Flags().StringP("out", "o", "", "Write the result to this file instead of stdout")
}

func runConvert(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	out, _ := cmd.Flags().GetString("out")

	value, err := readValue(args, from)
	if err != nil {
		return err
	}

	if out != "" {
		if !cmd.Flags().Changed("to") {
			to = ""
		}
		return format.Write(out, value, to)
	}

	text, err := format.Serialize(to, value)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}
