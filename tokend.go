package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/token-overlay/tokend/token/server"
)

var rootCmd = &cobra.Command{
	Use:   "tokend",
	Short: "tokend token overlay protocol, topic manager and lookup index server.",
}

func init() {
	rootCmd.AddCommand(server.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
