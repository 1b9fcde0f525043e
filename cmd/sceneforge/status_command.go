package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"sceneforge/internal/api"
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"
)

func newStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server status and the scene table",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newAPIClient(cmdCtx.serverAddress(), cmdCtx.apiToken())

			var status api.Status
			if err := client.getJSON("/api/status", &status); err != nil {
				return err
			}
			var listed api.SceneListResponse
			if err := client.getJSON("/api/scenes", &listed); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			printStatusSummary(out, status, colorize)

			if len(listed.Scenes) == 0 {
				fmt.Fprintln(out, "No scenes yet. POST a script to /api/project to build a storyboard.")
				return nil
			}
			fmt.Fprintln(out, renderSceneTable(listed.Scenes))
			return nil
		},
	}
}

func printStatusSummary(out io.Writer, status api.Status, colorize bool) {
	header := fmt.Sprintf("== SceneForge (%d scenes, %d animated) ==", status.TotalScenes, status.AnimatedScenes)
	if colorize {
		header = ansiBlue + header + ansiReset
	}
	fmt.Fprintln(out, header)
	fmt.Fprintf(out, "  params: style=%s ratio=%s quality=%s\n",
		status.Params.Style, status.Params.AspectRatio, status.Params.Quality)
	if status.UptimeSeconds > 0 {
		fmt.Fprintf(out, "  uptime: %s\n", (time.Duration(status.UptimeSeconds) * time.Second).String())
	}
	for kind, ids := range status.Busy {
		if len(ids) > 0 {
			fmt.Fprintf(out, "  in flight (%s): %s\n", kind, joinIDs(ids))
		}
	}
	fmt.Fprintln(out)
}

func renderSceneTable(listed []api.Scene) string {
	rows := make([][]string, 0, len(listed))
	for _, scene := range listed {
		state := "image"
		switch {
		case scene.Regenerating:
			state = "regenerating"
		case scene.Animating:
			state = "animating"
		case scene.VideoURL != "":
			state = "animated"
		}
		rows = append(rows, []string{
			strconv.FormatInt(scene.ID, 10),
			truncate(scene.Text, 60),
			state,
			scene.Timestamp.Local().Format("15:04:05"),
		})
	}
	return renderTable(
		[]string{"ID", "Scene", "State", "Created"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
