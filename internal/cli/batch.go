package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/engine"
	"github.com/ivlev/site2video/internal/system"
)

func NewBatchCmd(deps *Dependencies) *cobra.Command {
	var flags recordFlags
	var force bool
	var template bool

	cmd := &cobra.Command{
		Use:   "batch [content-dir]",
		Short: "Record every content folder in a directory",
		Long: "Each subfolder holding an index.html, a PDF or images becomes <output>/<folder>.mp4.\n" +
			"A soundtrack found in the folder sets that video's length. Existing videos are skipped\n" +
			"unless --force is given; failed folders are reported and the batch goes on.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			if err := flags.apply(cmd.Flags(), cfg); err != nil {
				return err
			}
			pool := cfg.ContentDir
			if len(args) == 1 {
				pool = args[0]
			}

			folders, err := system.FindContentFolders(pool)
			if err != nil {
				return err
			}
			if len(folders) == 0 {
				return fmt.Errorf("no content folders in %s", pool)
			}
			deps.printf("[*] %d content folders in %s, %d workers\n", len(folders), pool, cfg.Workers)

			var jobs []config.Job
			for _, dir := range folders {
				audio := cfg.AudioPath
				if found, err := system.FindLatestAudio(dir); err == nil {
					audio = found
				}
				output := filepath.Join(cfg.OutputDir, filepath.Base(dir)+".mp4")
				job, err := deps.newJob(dir, output, audio, template)
				if err != nil {
					deps.printf("[!] Skipping %s: %v\n", dir, err)
					continue
				}
				jobs = append(jobs, job)
			}

			results := engine.New(cfg, deps.Log, deps.Out).RunBatch(cmd.Context(), jobs, cfg.Workers, !force)

			var done, skipped, failed int
			for _, r := range results {
				switch {
				case r.Skipped:
					skipped++
				case r.Err != nil:
					failed++
				default:
					done++
				}
			}
			deps.printf("[+++] Batch finished: %d recorded, %d skipped, %d failed\n", done, skipped, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d videos failed", failed, len(results))
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVarP(&force, "force", "f", false, "re-record folders whose video exists")
	cmd.Flags().BoolVar(&template, "template", false, "pick header, title and CTA from the built-in templates")
	return cmd
}
