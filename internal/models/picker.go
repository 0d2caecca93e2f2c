package models

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"

	"vid2txt/internal/catalog"
)

// PickInteractive prompts for a model when none was supplied on the
// command line. Entries are labeled with precision, size, and whether the
// file is already present in the model directory.
func PickInteractive(files []catalog.File, preferQuantized bool, modelsDir string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no models found in the repository listing")
	}

	options := make([]huh.Option[string], 0, len(files))
	for _, f := range files {
		options = append(options, huh.NewOption(optionLabel(f, modelsDir), f.RFilename))
	}

	title := "Pick a Whisper model (full-precision preferred)"
	if preferQuantized {
		title = "Pick a Whisper model (quantized preferred)"
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("model selection: %w", err)
	}
	return selected, nil
}

// optionLabel renders one picker row: name, precision, size, local marker.
func optionLabel(f catalog.File, modelsDir string) string {
	precision := "full-precision"
	if catalog.IsQuantizedName(f.RFilename) {
		precision = "quant"
	}

	size := "?"
	if f.Size > 0 {
		size = humanize.Bytes(uint64(f.Size))
	}

	label := fmt.Sprintf("%s  [%s | %s]", f.RFilename, precision, size)
	if _, err := os.Stat(filepath.Join(modelsDir, f.RFilename)); err == nil {
		label += " (local)"
	}
	return label
}
