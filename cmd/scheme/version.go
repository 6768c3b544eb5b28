package main

import (
	"fmt"
	"strings"

	scheme "github.com/aretw0/scheme"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scheme",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scheme version %s\n", strings.TrimSpace(scheme.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
