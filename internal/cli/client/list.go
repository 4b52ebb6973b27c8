package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Long:  "Lists the uploaded documents in upload order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, outputJSON)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/documents")
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(resp.Data, &docs); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(docs, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(docs) == 0 {
		fmt.Println("No documents uploaded.")
		return nil
	}

	fmt.Printf("Found %d documents:\n\n", len(docs))
	for i, doc := range docs {
		fmt.Printf("%d. %s [%s]\n", i+1, doc.Filename, doc.Status)
		fmt.Printf("   Chunks: %d, Size: %d bytes\n", doc.ChunkCount, doc.Size)
		if doc.Warning != "" {
			fmt.Printf("   Warning: %s\n", doc.Warning)
		}
		if doc.UploadedAt != "" {
			fmt.Printf("   Uploaded: %s\n", doc.UploadedAt)
		}
		fmt.Printf("   ID: %s\n", doc.ID)
		if i < len(docs)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
