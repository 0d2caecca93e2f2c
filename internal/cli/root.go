// Package cli wires the command line surface: flag parsing, settings
// merging, environment checks, model resolution, and the pipeline run.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vid2txt/internal/catalog"
	"vid2txt/internal/config"
	"vid2txt/internal/diagnostics"
	"vid2txt/internal/domain"
	"vid2txt/internal/fsutil"
	"vid2txt/internal/jobs"
	"vid2txt/internal/locator"
	"vid2txt/internal/models"
	"vid2txt/internal/transcribe"
)

type rootFlags struct {
	outputDir       string
	model           string
	language        string
	threads         int
	verbose         bool
	listModels      bool
	preferQuantized bool
	refreshModels   bool
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "vid2txt [input]",
		Short: "Transcribe a video URL or local media file to text",
		Long: "vid2txt downloads or reads a media source, extracts mono 16 kHz audio\n" +
			"with ffmpeg, and transcribes it with whisper-cli. Remote URLs are\n" +
			"fetched via yt-dlp; whisper models are resolved from the local models\n" +
			"directory or downloaded from Hugging Face on demand.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "out", "o", "", "output directory for WAV and transcript (default: current directory)")
	cmd.Flags().StringVarP(&flags.model, "model", "m", "", "whisper model: path, file name, or alias such as large-v3")
	cmd.Flags().StringVarP(&flags.language, "language", "l", "auto", "transcription language code, or auto")
	cmd.Flags().IntVarP(&flags.threads, "threads", "t", 0, "whisper-cli thread count (0 = whisper default)")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "stream tool output and enable debug logging")
	cmd.Flags().BoolVar(&flags.listModels, "list-models", false, "list available whisper models and exit")
	cmd.Flags().BoolVarP(&flags.preferQuantized, "prefer-quantized", "q", false, "prefer quantized model files when matching an alias")
	cmd.Flags().BoolVar(&flags.refreshModels, "refresh-models", false, "ignore the cached model catalog and refetch it")

	return cmd
}

func run(cmd *cobra.Command, flags *rootFlags, args []string) error {
	logger := newLogger(flags.verbose)

	settings := loadSettings(logger)
	mergeFlags(&settings, cmd, flags)

	svc, err := catalog.NewService()
	if err != nil {
		return logged(logger, fmt.Errorf("init model catalog: %w", err))
	}

	if flags.listModels {
		return listModels(cmd, logger, svc, flags.refreshModels, settings.PreferQuantized)
	}

	if len(args) == 0 {
		return logged(logger, errors.New("an input URL or file path is required (or use --list-models)"))
	}
	input := strings.TrimSpace(args[0])
	if input == "" {
		return logged(logger, errors.New("input must not be empty"))
	}

	loc := locator.Classify(input)
	logger.Debug("classified input", "input", input, "remote", loc.IsRemote())

	// An empty output dir means the current directory.
	if settings.OutputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return logged(logger, fmt.Errorf("resolve current directory: %w", err))
		}
		settings.OutputDir = cwd
	}

	modelsDir, dirErr := fsutil.WhisperModelsDir(nil)
	if dirErr != nil {
		// Leave empty; diagnostics reports the missing whisper-cli with a hint.
		modelsDir = ""
	}

	report := diagnostics.NewChecker().Run(diagnostics.Options{
		NeedDownloader: loc.IsRemote(),
		ModelsDir:      modelsDir,
		OutputDir:      settings.OutputDir,
	})
	if report.HasFailures {
		for _, item := range report.Items {
			if item.Status == domain.DiagnosticStatusFail {
				logger.Error(item.Message, "check", item.Name, "hint", item.Hint)
			}
		}
		return logged(logger, errors.New("environment checks failed"))
	}

	files, err := svc.Fetch(cmd.Context(), flags.refreshModels, settings.PreferQuantized)
	if err != nil {
		if !errors.Is(err, catalog.ErrUnavailable) {
			return logged(logger, err)
		}
		logger.Warn("model catalog unavailable, falling back to local models", "err", err)
		files = nil
	}

	modelInput := settings.Model
	if modelInput == "" {
		modelInput, err = chooseModel(files, settings.PreferQuantized, modelsDir)
		if err != nil {
			return logged(logger, err)
		}
	}

	resolver := models.NewResolver(modelsDir, models.NewHTTPDownloader(newDownloadProgress(logger)))
	modelPath, err := resolver.Resolve(cmd.Context(), modelInput, files, settings.PreferQuantized)
	if err != nil {
		if errors.Is(err, models.ErrModelNotFound) {
			return logged(logger, fmt.Errorf("no whisper model matches %q; run with --list-models to see what is available", modelInput))
		}
		return logged(logger, err)
	}
	logger.Info("using model", "path", modelPath)

	manager := jobs.NewManager()
	if err := manager.Start(input); err != nil {
		return logged(logger, err)
	}

	result, err := transcribe.NewPipeline().Run(cmd.Context(), transcribe.Request{
		Input:     input,
		ModelPath: modelPath,
		OutputDir: settings.OutputDir,
		Language:  settings.Language,
		Threads:   flags.threads,
		Verbose:   flags.verbose,
		OnStage: func(status domain.JobStatus) {
			if terr := manager.Transition(status); terr != nil {
				logger.Debug("stage transition rejected", "err", terr)
				return
			}
			logger.Info(stageMessage(status))
		},
	})
	if err != nil {
		_ = manager.Fail()
		reportPipelineError(logger, err)
		return err
	}
	_ = manager.Transition(domain.JobStatusDone)

	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(result, modelPath))
	return nil
}

// newLogger builds the run logger; verbose switches on debug records.
func newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// loadSettings reads persisted defaults, degrading to built-in defaults
// when the settings file is absent or unreadable.
func loadSettings(logger *log.Logger) domain.Settings {
	path, err := config.DefaultPath()
	if err != nil {
		logger.Warn("cannot locate settings file, using defaults", "err", err)
		return config.DefaultSettings()
	}
	settings, err := config.NewJSONStore(path).Load()
	if err != nil {
		logger.Warn("cannot read settings file, using defaults", "path", path, "err", err)
		return config.DefaultSettings()
	}
	return settings
}

// mergeFlags overlays explicitly set flags onto the persisted settings.
func mergeFlags(settings *domain.Settings, cmd *cobra.Command, flags *rootFlags) {
	if cmd.Flags().Changed("out") {
		settings.OutputDir = flags.outputDir
	}
	if cmd.Flags().Changed("model") {
		settings.Model = flags.model
	}
	if cmd.Flags().Changed("language") {
		settings.Language = flags.language
	}
	if cmd.Flags().Changed("prefer-quantized") {
		settings.PreferQuantized = flags.preferQuantized
	}
}

// chooseModel asks interactively when no model was configured. Without a
// terminal there is nothing to ask, so the run fails with guidance.
func chooseModel(files []catalog.File, preferQuantized bool, modelsDir string) (string, error) {
	if len(files) == 0 {
		return "", errors.New("no model configured and the catalog is unavailable; pass --model with a path or file name")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no model configured; pass --model or run interactively to pick one")
	}
	return models.PickInteractive(files, preferQuantized, modelsDir)
}

func stageMessage(status domain.JobStatus) string {
	switch status {
	case domain.JobStatusDownloading:
		return "downloading audio with yt-dlp"
	case domain.JobStatusExtracting:
		return "extracting audio with ffmpeg"
	case domain.JobStatusTranscribing:
		return "transcribing with whisper-cli"
	default:
		return string(status)
	}
}

// reportPipelineError surfaces the failing stage and captured tool output.
func reportPipelineError(logger *log.Logger, err error) {
	var perr *transcribe.PipelineError
	if !errors.As(err, &perr) {
		logger.Error(err.Error())
		return
	}
	logger.Error(perr.Message, "stage", perr.Stage)
	if perr.CommandLog.Command != "" {
		logger.Error("command failed",
			"command", perr.CommandLog.Command,
			"exitCode", perr.CommandLog.ExitCode)
		if stderr := strings.TrimSpace(perr.CommandLog.Stderr); stderr != "" {
			fmt.Fprintln(os.Stderr, tail(stderr, 15))
		}
	}
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// logged records the error before returning it so the user sees it even
// though cobra's own error printing is silenced.
func logged(logger *log.Logger, err error) error {
	logger.Error(err.Error())
	return err
}
