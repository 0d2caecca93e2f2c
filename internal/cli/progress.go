package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"vid2txt/internal/models"
)

const progressBarWidth = 30

// newDownloadProgress returns a progress callback for model downloads.
// On a terminal it redraws a single-line bar; otherwise it logs a line at
// each 10% step so piped output stays readable.
func newDownloadProgress(logger *log.Logger) models.ProgressFunc {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return terminalProgress()
	}
	return logProgress(logger)
}

func terminalProgress() models.ProgressFunc {
	done := false
	return func(downloaded, total int64) {
		if done {
			return
		}
		if total <= 0 {
			fmt.Fprintf(os.Stderr, "\rdownloading model: %s", humanize.Bytes(uint64(downloaded)))
			return
		}
		percent := int(downloaded * 100 / total)
		filled := progressBarWidth * percent / 100
		bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
		fmt.Fprintf(os.Stderr, "\r[%s] %3d%%  %s / %s", bar, percent,
			humanize.Bytes(uint64(downloaded)), humanize.Bytes(uint64(total)))
		if downloaded >= total {
			fmt.Fprintln(os.Stderr)
			done = true
		}
	}
}

func logProgress(logger *log.Logger) models.ProgressFunc {
	lastStep := -1
	return func(downloaded, total int64) {
		if total <= 0 {
			return
		}
		step := int(downloaded * 10 / total)
		if step == lastStep {
			return
		}
		lastStep = step
		logger.Info("downloading model",
			"progress", fmt.Sprintf("%d%%", step*10),
			"downloaded", humanize.Bytes(uint64(downloaded)),
			"total", humanize.Bytes(uint64(total)))
	}
}
