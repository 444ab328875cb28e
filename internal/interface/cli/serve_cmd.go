package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	infraConfig "github.com/YoshitsuguKoike/regwiz/internal/infra/config"
)

func newServeCmd(s *session) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the checkout web server",
		Long: "Serve the plan proxy, the payment endpoint and the pages the payment\n" +
			"gateway redirects to. Requires a handoff secret (REGWIZ_HANDOFF_SECRET).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := s.container.GetWebServer()
			if err != nil {
				return s.fail(err)
			}
			if addr == "" {
				addr = s.cfg.ServerAddr()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Checkout server listening on %s\n", addr)
			return server.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from settings)")
	return cmd
}

func newInitCmd(s *session) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default setting.yml",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoContainer: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := s.opts.FS
			if fs == nil {
				fs = afero.NewOsFs()
			}
			dir := s.baseDir()
			path := filepath.Join(dir, infraConfig.SettingFile)

			exists, err := afero.Exists(fs, path)
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}
			if exists && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			if err := afero.WriteFile(fs, path, infraConfig.CreateDefaultSettings(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing setting.yml")
	return cmd
}
