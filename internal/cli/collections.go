package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List transcript collections",
	Args:  cobra.NoArgs,
	RunE:  runCollections,
}

func runCollections(cmd *cobra.Command, args []string) error {
	collections, err := store.List()
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if len(collections) == 0 {
		fmt.Println("No collections yet. Ingest a transcript with 'crossexamine ingest'.")
		return nil
	}

	for _, c := range collections {
		fmt.Println(c.Name)
	}
	return nil
}
