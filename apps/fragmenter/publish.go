package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PhantomInTheWire/image-fragmenter/pkg/storage"
)

type publishFlags struct {
	endpoint string
	bucket   string
	prefix   string
	manifest string
}

func publishCmd(g *globalFlags) *cobra.Command {
	sf := &splitFlags{}
	pf := &publishFlags{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Split the source image and upload the fragments to an S3 bucket",
		Long: `publish runs split, uploads every fragment to the configured
S3-compatible bucket (MinIO works) and writes a JSON manifest of
{name, key, url} entries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, sf)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("endpoint") {
				cfg.S3.Endpoint = pf.endpoint
			}
			if cmd.Flags().Changed("bucket") {
				cfg.S3.Bucket = pf.bucket
			}
			if cmd.Flags().Changed("prefix") {
				cfg.S3.Prefix = pf.prefix
			}
			if cmd.Flags().Changed("manifest") {
				cfg.S3.ManifestPath = pf.manifest
			}
			st := cfg.Storage()

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			client, err := storage.NewS3Client(cmd.Context(), st)
			if err != nil {
				return err
			}

			rep, err := runSplit(cmd, cfg, logger)
			if err != nil {
				return err
			}
			files := make([]string, 0, rep.Count())
			for _, f := range rep.Fragments {
				files = append(files, f.Path)
			}

			entries, err := storage.Publish(cmd.Context(), client, st, files, logger)
			if err != nil {
				return fmt.Errorf("publish to %s: %w", st.Bucket, err)
			}
			if err := storage.WriteManifest(st.ManifestPath, entries); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}
			logger.Info("manifest saved", zap.String("path", st.ManifestPath), zap.Int("entries", len(entries)))
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d fragments to s3://%s, manifest saved to %s\n", len(entries), st.Bucket, st.ManifestPath)
			return nil
		},
	}
	sf.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&pf.endpoint, "endpoint", "", "S3 endpoint URL, e.g. http://localhost:9000")
	fs.StringVar(&pf.bucket, "bucket", "", "destination bucket")
	fs.StringVar(&pf.prefix, "prefix", "", "key prefix inside the bucket")
	fs.StringVar(&pf.manifest, "manifest", "", "manifest output path")
	return cmd
}
