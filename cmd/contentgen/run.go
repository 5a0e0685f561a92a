package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"contentgen/internal/app"
	"contentgen/internal/infra"
	"contentgen/internal/pipeline"
	"contentgen/internal/report"
)

type runFlags struct {
	name        string
	namesFile   string
	sourceFile  string
	output      string
	concurrency int
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Produce the post, short and long packages for one subject",
		Long: `Resolves a subject (--name, SUBJECT_NAME or the names file), fetches its
source text (--source-file, SOURCE_DIR or Wikipedia) and writes every package
under the output directory. Exits non-zero unless every package succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.name, "name", "", "subject name (overrides SUBJECT_NAME)")
	cmd.Flags().StringVar(&f.namesFile, "names-file", "", "xlsx, CSV or text file listing the subject (overrides NAMES_FILE)")
	cmd.Flags().StringVar(&f.sourceFile, "source-file", "", "plain-text source document for the subject")
	cmd.Flags().StringVar(&f.output, "output", "", "output directory (overrides OUTPUT_DIR)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "media jobs in flight per package (overrides MEDIA_CONCURRENCY)")
	return cmd
}

func runOnce(cmd *cobra.Command, f runFlags) error {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger := infra.NewLogger(cfg.AppEnv)

	var sourceText string
	if f.sourceFile != "" {
		if strings.TrimSpace(f.name) == "" && cfg.SubjectName == "" {
			return fmt.Errorf("--source-file requires --name or SUBJECT_NAME")
		}
		data, err := os.ReadFile(f.sourceFile)
		if err != nil {
			return fmt.Errorf("read source file: %w", err)
		}
		sourceText = string(data)
	}

	runner, err := app.BuildRunner(cfg, app.Overrides{
		Subject:          f.name,
		NamesFile:        f.namesFile,
		OutputDir:        f.output,
		MediaConcurrency: f.concurrency,
	}, &logger)
	if err != nil {
		return err
	}

	summary, err := runner.Run(cmd.Context(), pipeline.RunRequest{SourceText: sourceText})
	if err != nil {
		return err
	}
	if err := report.Render(cmd.OutOrStdout(), summary, report.DefaultStyles()); err != nil {
		return err
	}
	if !summary.Success {
		return errIncomplete
	}
	return nil
}
