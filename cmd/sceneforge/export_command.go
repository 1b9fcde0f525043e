package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sceneforge/internal/config"
	"sceneforge/internal/export"
)

func newExportCommand(cmdCtx *commandContext) *cobra.Command {
	var outputPath string
	var sceneID int64

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the storyboard archive (or one scene asset)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(cmdCtx.serverAddress(), cmdCtx.apiToken())

			path := "/api/export"
			filename := export.ArchiveName
			if sceneID > 0 {
				path = fmt.Sprintf("/api/scenes/%d/export", sceneID)
				filename = fmt.Sprintf("scene-%d", sceneID)
			}

			data, err := client.download(path)
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				cfg, err := cmdCtx.ensureConfig()
				if err != nil {
					return err
				}
				target = filepath.Join(cfg.Paths.ExportDir, filename)
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
				target = expanded
			}

			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(data), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file for the download")
	cmd.Flags().Int64Var(&sceneID, "scene", 0, "Export a single scene instead of the whole storyboard")
	return cmd
}
