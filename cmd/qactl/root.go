package main

import (
	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "qactl",
	Short: "Query the document QA service",
	Long: `qactl asks questions against a running QA server.

Example usage:
  qactl ask "什么是共识算法"              # Ask with default settings
  qactl ask --method dense "what is raft"  # Force dense retrieval
  qactl ask --stream "explain bm25"        # Stream the answer as it is generated`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9020", "QA server base URL")
}
