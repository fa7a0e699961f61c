package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustlens/internal/classify"
	"github.com/ppiankov/trustlens/internal/redact"
)

// maxStdinBytes bounds what redact and classify read from stdin
const maxStdinBytes = 8 << 20

// redactCmd represents the redact command
var redactCmd = &cobra.Command{
	Use:   "redact",
	Short: "Mask personal data in text from stdin",
	Long: `Redact reads text from stdin and writes it to stdout with personal data
replaced by placeholders (EMAIL1, PHONE1, SSN1, CARD1, ADDRESS1, NAME1).
The detected categories are printed to stderr.

Example:
  echo "Mail me at a@b.com" | trustlens redact`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin())
		if err != nil {
			return err
		}

		result := redact.NewRedactor().Redact(text)
		if _, err := io.WriteString(cmd.OutOrStdout(), result.MaskedText); err != nil {
			return err
		}
		if len(result.DetectedTypes) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "detected: %v\n", result.DetectedTypes)
		}
		return nil
	},
}

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Tag text from stdin with content categories",
	Long: `Classify counts violence, bullying, adult and self-harm terms in text
from stdin. Personal data is masked first. Output is JSON with category
names and counts only.

Example:
  trustlens classify < page.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin())
		if err != nil {
			return err
		}

		masked := redact.NewRedactor().Redact(text)
		result := classify.NewClassifier(classify.DefaultWordlists()).Classify(masked.MaskedText)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func readInput(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes+1))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if len(data) > maxStdinBytes {
		return "", fmt.Errorf("input exceeds %d bytes", maxStdinBytes)
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(redactCmd)
	rootCmd.AddCommand(classifyCmd)
}
