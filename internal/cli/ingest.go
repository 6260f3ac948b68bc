package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var ingestName string

var ingestCmd = &cobra.Command{
	Use:   "ingest <transcript.pdf>",
	Short: "Ingest a deposition transcript PDF as a collection",
	Long: `Ingest a deposition transcript PDF as a collection.

The PDF text is extracted with pdftotext and stored as a named collection.
The collection name defaults to the file name.

Examples:
  crossexamine ingest maxwell-deposition.pdf
  crossexamine ingest deposition.pdf --name "Maxwell Deposition"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestName, "name", "n", "", "collection name (defaults to file name)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	name := ingestName
	if name == "" {
		name = stem(path)
	}

	pdf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}

	collection, err := store.CreateFromPDF(cmd.Context(), name, pdf)
	if err != nil {
		return fmt.Errorf("ingest transcript: %w", err)
	}

	fmt.Printf("Created collection %q\n", collection.Name)
	return nil
}
