package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StatusAPIResponse represents the status API response.
type StatusAPIResponse struct {
	Documents     int    `json:"documents"`
	Chunks        int    `json:"chunks"`
	IndexedChunks int    `json:"indexed_chunks"`
	IndexReady    bool   `json:"index_ready"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	LLMAvailable  bool   `json:"llm_available"`
}

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Shows document counts, index readiness, and language model availability.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(cmd, outputJSON)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/status")
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	var statusResp StatusAPIResponse
	if err := json.Unmarshal(resp.Data, &statusResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(statusResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Documents: %d\n", statusResp.Documents)
	fmt.Printf("Chunks: %d (indexed: %d)\n", statusResp.Chunks, statusResp.IndexedChunks)
	fmt.Printf("Index ready: %t\n", statusResp.IndexReady)
	if statusResp.Fingerprint != "" {
		fmt.Printf("Fingerprint: %s\n", statusResp.Fingerprint)
	}
	fmt.Printf("LLM available: %t\n", statusResp.LLMAvailable)

	return nil
}
