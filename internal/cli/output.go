package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vid2txt/internal/catalog"
	"vid2txt/internal/transcribe"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pathStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	quantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// renderSummary formats the end-of-run report with the produced artifacts.
func renderSummary(result transcribe.Result, modelPath string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Transcription complete"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("transcript:"), pathStyle.Render(result.TranscriptPath)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("audio:     "), result.WAVPath))
	b.WriteString(fmt.Sprintf("%s %s", labelStyle.Render("model:     "), modelPath))
	return b.String()
}

// listModels prints the catalog in resolution order, one model per line.
func listModels(cmd *cobra.Command, logger *log.Logger, svc *catalog.Service, refresh, preferQuantized bool) error {
	files, err := svc.Fetch(cmd.Context(), refresh, preferQuantized)
	if err != nil {
		return logged(logger, fmt.Errorf("fetch model catalog: %w", err))
	}
	if len(files) == 0 {
		return logged(logger, fmt.Errorf("the model listing contained no usable entries"))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("Available whisper models"))
	for _, f := range files {
		fmt.Fprintln(out, formatModelLine(f))
	}
	logger.Debug("listed models", "count", len(files), "cache", svc.CachePath())
	return nil
}

// formatModelLine renders one catalog row: name, precision tag, size.
func formatModelLine(f catalog.File) string {
	precision := "full-precision"
	if catalog.IsQuantizedName(f.RFilename) {
		precision = quantStyle.Render("quantized")
	}

	size := "unknown size"
	if f.Size > 0 {
		size = humanize.Bytes(uint64(f.Size))
	}

	return fmt.Sprintf("  %-44s %s, %s", f.RFilename, precision, size)
}
