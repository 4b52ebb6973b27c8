package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// AskAPIRequest represents the ask API request.
type AskAPIRequest struct {
	Question string `json:"question"`
}

// AskAPIResponse represents the ask API response.
type AskAPIResponse struct {
	Answer     string         `json:"answer"`
	Sources    []SearchResult `json:"sources"`
	Confidence float64        `json:"confidence"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your documents",
		Long:  "Asks a question and prints an answer grounded in the uploaded documents.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runAsk(cmd *cobra.Command, question string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/ask", AskAPIRequest{Question: question})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	var askResp AskAPIResponse
	if err := json.Unmarshal(resp.Data, &askResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(askResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(askResp.Answer)
	if len(askResp.Sources) > 0 {
		fmt.Printf("\nSources (confidence %.2f):\n", askResp.Confidence)
		for _, src := range askResp.Sources {
			fmt.Printf("  %d. %s (chunk %d, similarity %.3f)\n", src.Rank, src.Filename, src.ChunkIndex, src.Similarity)
		}
	}

	return nil
}
