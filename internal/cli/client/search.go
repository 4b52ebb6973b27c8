package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchAPIRequest represents the search API request.
type SearchAPIRequest struct {
	Query         string   `json:"query"`
	TopK          int      `json:"top_k,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

// SearchResult represents a ranked retrieval result.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}

// SearchAPIResponse represents the search API response.
type SearchAPIResponse struct {
	Results []SearchResult `json:"results"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		topK          int
		minSimilarity float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search uploaded documents",
		Long:  "Searches the uploaded documents and prints the most similar chunks.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], topK, minSimilarity, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "n", 0, "Maximum number of results (server default when 0)")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", -1, "Minimum similarity threshold (server default when negative)")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, topK int, minSimilarity float64, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := SearchAPIRequest{Query: query, TopK: topK}
	if minSimilarity >= 0 {
		req.MinSimilarity = &minSimilarity
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchAPIResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(searchResp.Results))
	for i, result := range searchResp.Results {
		fmt.Printf("%d. %s (chunk %d, similarity %.3f)\n", result.Rank, result.Filename, result.ChunkIndex, result.Similarity)
		fmt.Printf("   %s\n", result.Content)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
