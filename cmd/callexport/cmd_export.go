package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"gong-export-go/internal/config"
	"gong-export-go/internal/dataset"
	"gong-export-go/internal/pipeline"
	"gong-export-go/internal/types"
)

type exportFlags struct {
	q          queryFlags
	f          filterFlags
	format     string
	filler     bool
	condense   bool
	metadata   bool
	brief      bool
	stats      bool
	optsFile   string
	ids        []string
	selectFrom string
	out        string
	gzip       bool
}

func newExportCommand(a *app) *cobra.Command {
	var ef exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export calls with their transcripts",
		Long: `Export loads the calls in a date range, narrows them with the filters
or an explicit id list, fetches their transcripts and writes one document.

Options are read from --options (YAML) when given; flags set on the command
line override the file. Use --out - to write the document to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ef.options(cmd)
			if err != nil {
				return err
			}
			query, err := ef.q.query()
			if err != nil {
				return err
			}
			filter := ef.f.filter()
			filter.IDs = ef.ids
			if ef.selectFrom != "" {
				picked, err := dataset.LoadSelection(ef.selectFrom)
				if err != nil {
					return fmt.Errorf("read selection %s: %w", ef.selectFrom, err)
				}
				if len(picked) == 0 {
					return pipeline.ErrNoCalls
				}
				filter.IDs = append(filter.IDs, picked...)
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			res, err := pipeline.Run(cmd.Context(), client, pipeline.Request{
				Query:   query,
				Filter:  filter,
				Options: opts,
			}, a.log)
			if err != nil {
				return err
			}

			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if ef.out == "-" {
				return writeDocument(cmd.OutOrStdout(), res.Export.Content, ef.gzip)
			}
			path, err := ef.write(res.Export)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d calls to %s (~%d tokens, %s)\n",
				len(res.Selected), path, res.Export.TokenEstimate, res.Export.ContextFit)
			return nil
		},
	}

	ef.bind(cmd)
	return cmd
}

func (ef *exportFlags) bind(cmd *cobra.Command) {
	defaults := types.DefaultExportOptions()
	ef.q.bind(cmd)
	ef.f.bind(cmd)
	fl := cmd.Flags()
	fl.StringVar(&ef.format, "format", string(defaults.Format), "Output format: markdown, xml or jsonl")
	fl.BoolVar(&ef.filler, "remove-filler", defaults.RemoveFiller, "Drop short and greeting-only turns")
	fl.BoolVar(&ef.condense, "condense", defaults.CondenseInternal, "Merge long runs of one internal speaker")
	fl.BoolVar(&ef.metadata, "metadata", defaults.IncludeMetadata, "Include account, industry and direction")
	fl.BoolVar(&ef.brief, "brief", defaults.IncludeAIBrief, "Include the Gong AI brief")
	fl.BoolVar(&ef.stats, "stats", defaults.IncludeInteractionStats, "Include interaction stats")
	fl.StringVar(&ef.optsFile, "options", "", "YAML file with export options")
	fl.StringSliceVar(&ef.ids, "ids", nil, "Export only these call ids")
	fl.StringVar(&ef.selectFrom, "select-from", "", "Spreadsheet index whose Selected column picks the calls")
	fl.StringVarP(&ef.out, "out", "o", ".", "Output directory, or - for stdout")
	fl.BoolVar(&ef.gzip, "gzip", false, "Compress the output with gzip")
}

// options starts from --options (or the defaults) and applies only the
// flags that were set explicitly.
func (ef *exportFlags) options(cmd *cobra.Command) (types.ExportOptions, error) {
	opts := types.DefaultExportOptions()
	if ef.optsFile != "" {
		var err error
		if opts, err = config.LoadExportOptions(ef.optsFile); err != nil {
			return opts, err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("format") {
		opts.Format = types.ExportFormat(ef.format)
	}
	if fl.Changed("remove-filler") {
		opts.RemoveFiller = ef.filler
	}
	if fl.Changed("condense") {
		opts.CondenseInternal = ef.condense
	}
	if fl.Changed("metadata") {
		opts.IncludeMetadata = ef.metadata
	}
	if fl.Changed("brief") {
		opts.IncludeAIBrief = ef.brief
	}
	if fl.Changed("stats") {
		opts.IncludeInteractionStats = ef.stats
	}
	return opts, config.ValidateExportOptions(opts)
}

func (ef *exportFlags) write(res types.ExportResult) (string, error) {
	name := res.Filename
	if ef.gzip {
		name += ".gz"
	}
	if err := os.MkdirAll(ef.out, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(ef.out, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	if err := writeDocument(f, res.Content, ef.gzip); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func writeDocument(w io.Writer, content string, compress bool) error {
	if !compress {
		_, err := io.WriteString(w, content)
		return err
	}
	zw := gzip.NewWriter(w)
	if _, err := io.WriteString(zw, content); err != nil {
		zw.Close()
		return fmt.Errorf("gzip: %w", err)
	}
	return zw.Close()
}
