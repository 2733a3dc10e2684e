package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/accumate/docfilter/internal/codec"
	"github.com/accumate/docfilter/internal/core/db"
	"github.com/accumate/docfilter/internal/filter"
	"github.com/accumate/docfilter/internal/types"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter documents from a file or stored collections",
	Long: `Reads documents (a JSON array or JSON Lines; "-" for stdin) and a filter
spec (JSON, or YAML for .yaml/.yml files), and prints
{"count": n, "results": [...]} or, with --group-by,
{"count": n, "group_by": f, "groups": [{"key": k, "documents": [...]}]}.`,
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().String("docs", "", `documents file ("-" for stdin)`)
	filterCmd.Flags().StringArray("collection", nil, "stored collection to include (repeatable)")
	filterCmd.Flags().String("spec", "", "filter spec file (.json, .yaml, .yml); omit to keep every document")
	filterCmd.Flags().String("group-by", "", "group survivors by this field")
	filterCmd.Flags().Bool("descend-sequences", false, "search mappings inside lists during field lookup")
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()
	docsPath, _ := flags.GetString("docs")
	collections, _ := flags.GetStringArray("collection")
	specPath, _ := flags.GetString("spec")
	groupBy, _ := flags.GetString("group-by")

	if docsPath == "" && len(collections) == 0 {
		return fmt.Errorf("--docs or --collection required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flags.Changed("descend-sequences") {
		cfg.DescendSequences, _ = flags.GetBool("descend-sequences")
	}

	registry := filter.DefaultRegistry(logger)
	spec := &filter.FilterSpec{}
	if specPath != "" {
		if spec, err = readSpec(specPath, registry); err != nil {
			return err
		}
	}

	var docs []types.Document
	if docsPath != "" {
		data, err := readInput(cmd.InOrStdin(), docsPath)
		if err != nil {
			return err
		}
		if docs, err = codec.DecodeDocuments(data); err != nil {
			return fmt.Errorf("failed to decode %s: %w", docsPath, err)
		}
	}

	if len(collections) > 0 {
		database, queries, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		store := db.NewDocumentStore(queries, logger)
		for _, c := range collections {
			stored, err := store.List(ctx, c)
			if err != nil {
				return err
			}
			docs = append(docs, stored...)
		}
	}

	engine := filter.NewEngine(filter.WithDescendSequences(cfg.DescendSequences))
	result, err := engine.Filter(docs, spec, groupBy)
	if err != nil {
		return err
	}
	logger.Debug("Filtered documents",
		zap.Int("documents", len(docs)),
		zap.Int("survivors", result.Count()),
		zap.Int("groups", result.Groups.Len()))

	out, err := codec.EncodeJSON(resultMapping(result))
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readSpec decodes a filter spec file. YAML and JSON both keep group order.
func readSpec(path string, registry *filter.Registry) (*filter.FilterSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw types.Mapping
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = codec.DecodeYAMLMapping(data)
	default:
		raw, err = codec.DecodeDocument(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return filter.ParseSpec(raw, registry)
}

func resultMapping(result *filter.Result) types.Mapping {
	out := types.Mapping{{Key: "count", Value: types.Number(result.Count())}}
	if result.Groups == nil {
		return append(out, types.Entry{Key: "results", Value: roots(result.Survivors)})
	}

	groups := make(types.Sequence, len(result.Groups.Buckets))
	for i, b := range result.Groups.Buckets {
		groups[i] = types.Mapping{
			{Key: "key", Value: b.Key},
			{Key: "documents", Value: roots(b.Documents)},
		}
	}
	return append(out,
		types.Entry{Key: "group_by", Value: types.String(result.Groups.Field)},
		types.Entry{Key: "groups", Value: groups},
	)
}

func roots(docs []types.Document) types.Sequence {
	seq := make(types.Sequence, len(docs))
	for i, d := range docs {
		seq[i] = d.Root
	}
	return seq
}
