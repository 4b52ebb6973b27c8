package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// GenerateAPIRequest represents the generate API request.
type GenerateAPIRequest struct {
	MaterialType string `json:"material_type"`
	Topic        string `json:"topic,omitempty"`
}

// GenerateAPIResponse represents the generate API response.
type GenerateAPIResponse struct {
	MaterialType string `json:"material_type"`
	Topic        string `json:"topic,omitempty"`
	Content      string `json:"content"`
}

// GenerateCmd creates the generate command.
func GenerateCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "generate <material_type>",
		Short: "Generate study material",
		Long: `Generate study material from the uploaded documents.

Material types: summary, flashcards, quiz

Examples:
  studykit generate summary
  studykit generate flashcards --topic photosynthesis`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGenerate(cmd, args[0], topic, outputJSON)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Focus the material on a topic")

	return cmd
}

func runGenerate(cmd *cobra.Command, materialType, topic string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/generate", GenerateAPIRequest{MaterialType: materialType, Topic: topic})
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	var genResp GenerateAPIResponse
	if err := json.Unmarshal(resp.Data, &genResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(genResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(genResp.Content)

	return nil
}
