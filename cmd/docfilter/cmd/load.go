package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accumate/docfilter/internal/codec"
	"github.com/accumate/docfilter/internal/core/db"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Store documents in a collection",
	Long: `Reads documents (a JSON array or JSON Lines; "-" for stdin) and appends
them to a stored collection in one transaction. With --replace the
collection is emptied first.`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().String("collection", "", "target collection")
	loadCmd.Flags().String("file", "", `documents file ("-" for stdin)`)
	loadCmd.Flags().Bool("replace", false, "delete existing documents in the collection first")
	_ = loadCmd.MarkFlagRequired("collection")
	_ = loadCmd.MarkFlagRequired("file")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	collection, _ := cmd.Flags().GetString("collection")
	path, _ := cmd.Flags().GetString("file")
	replace, _ := cmd.Flags().GetBool("replace")

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	docs, err := codec.DecodeDocuments(data)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, queries, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	store := db.NewDocumentStore(queries, logger)
	if replace {
		if _, err := store.Delete(ctx, collection); err != nil {
			return err
		}
	}
	ids, err := store.InsertMany(ctx, collection, docs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d document(s) stored in %s\n", len(ids), collection)
	return nil
}
