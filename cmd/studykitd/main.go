package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindgrove-ai/studykit/internal/cli"
	"github.com/mindgrove-ai/studykit/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "studykitd",
		Short: "Studykit daemon",
		Long:  "Studykit daemon for running the document retrieval and study API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
