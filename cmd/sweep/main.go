package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"modlog/internal/config"
	"modlog/internal/database"
	"modlog/internal/domain/image"
	"modlog/internal/logging"
)

var fix bool

var rootCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reconciles image rows with the files under the upload root",
	Long: `Lists image rows whose original file is missing, rows whose project or user
is gone, and originals or thumbnails that have no row. With --fix all of them
are deleted.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVar(&fix, "fix", false, "delete orphan rows and files")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.Must(cfg.LogLevel, cfg.IsProd())
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("database connect failed: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	sweeper := image.NewSweeper(
		image.NewRepository(db),
		image.NewLocalStore(cfg.Upload.Root, cfg.Upload.Quality),
		log,
	)

	report, err := sweeper.Scan(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, img := range report.OrphanRows {
		fmt.Fprintf(out, "orphan row\t%s\t%s/%s\n", img.ID, img.Category, img.Filename())
	}
	for _, img := range report.OwnerlessRows {
		fmt.Fprintf(out, "ownerless row\t%s\t%s/%s\n", img.ID, img.Category.OwnerTable(), img.OwnerID)
	}
	for category, names := range report.OrphanFiles {
		for _, name := range names {
			fmt.Fprintf(out, "orphan file\t%s/%s\n", category, name)
		}
	}
	if report.Clean() {
		fmt.Fprintln(out, "no orphans found")
		return nil
	}
	if !fix {
		return nil
	}

	rows, files, err := sweeper.Fix(cmd.Context(), report)
	log.Info("sweep finished", zap.Int("rows_removed", rows), zap.Int("files_removed", files))
	return err
}
