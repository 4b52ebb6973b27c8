package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <document_id>",
		Short:   "Get a document by ID",
		Long:    "Retrieves document metadata by its ID.",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, documentID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/documents/%s", documentID))
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("ID: %s\n", doc.ID)
	fmt.Printf("Filename: %s\n", doc.Filename)
	fmt.Printf("Status: %s\n", doc.Status)
	fmt.Printf("Size: %d bytes\n", doc.Size)
	fmt.Printf("Chunks: %d\n", doc.ChunkCount)
	if doc.Warning != "" {
		fmt.Printf("Warning: %s\n", doc.Warning)
	}
	if doc.UploadedAt != "" {
		fmt.Printf("Uploaded: %s\n", doc.UploadedAt)
	}

	return nil
}
