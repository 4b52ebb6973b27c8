package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// UploadDocumentRequest represents the document upload API request.
type UploadDocumentRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// Document represents a document from the API.
type Document struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Status     string `json:"status"`
	Warning    string `json:"warning,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	UploadedAt string `json:"uploaded_at"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Upload a document from a file or stdin",
		Long: `Upload a plain-text document for indexing.

Examples:
  # Upload a text file
  studykit add notes.txt

  # Upload from stdin with an explicit name
  cat lecture.md | studykit add --name lecture.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runAdd(cmd, file, name, outputJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Document name (defaults to the file name)")

	return cmd
}

func runAdd(cmd *cobra.Command, file, name string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		if name == "" {
			name = filepath.Base(file)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		if name == "" {
			return fmt.Errorf("--name is required when reading from stdin")
		}
	}

	if len(input) == 0 {
		return fmt.Errorf("no input provided")
	}

	req := UploadDocumentRequest{
		Filename: name,
		Text:     string(input),
	}

	resp, err := api.Post("/documents", req)
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Uploaded document: %s\n", doc.ID)
		fmt.Printf("Filename: %s\n", doc.Filename)
		fmt.Printf("Chunks: %d\n", doc.ChunkCount)
		if doc.Warning != "" {
			fmt.Printf("Warning: %s\n", doc.Warning)
		}
	}

	return nil
}
