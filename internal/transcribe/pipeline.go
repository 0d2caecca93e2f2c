// Package transcribe sequences the download, extraction, and transcription
// tools into a single run.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vid2txt/internal/domain"
	"vid2txt/internal/fsutil"
	"vid2txt/internal/locator"
)

// Sentinel causes carried inside PipelineError for errors.Is checks.
var (
	ErrMissingTool   = errors.New("required tool not found in PATH")
	ErrInputNotFound = errors.New("input file not found")
)

// Request contains one run's input, model, and output parameters.
type Request struct {
	Input     string // raw user input: remote URL or local path
	ModelPath string
	OutputDir string
	Language  string
	Threads   int
	Verbose   bool
	OnStage   func(status domain.JobStatus)
}

// Result contains the produced artifact paths.
type Result struct {
	WAVPath        string
	TranscriptPath string
	BaseName       string
	Logs           []CommandLog
}

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
}

// PipelineError is a stage-aware error with optional command context.
type PipelineError struct {
	Stage      string     `json:"stage"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats pipeline failures for logs and terminal output.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.CommandLog.Command == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Stage,
		e.Message,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, stream bool, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec. In stream mode the tool's own
// output goes straight to the console; otherwise it is buffered into the
// result for error reporting.
type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, stream bool, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	if stream {
		cmd.Stdout = io.MultiWriter(os.Stdout, &stdout)
		cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Pipeline orchestrates yt-dlp download, ffmpeg extraction, and whisper-cli
// transcription. Control flow is strictly sequential: classify, produce a
// WAV through one of the two branches, transcribe.
type Pipeline struct {
	ytdlpPath   string
	ffmpegPath  string
	whisperPath string
	runner      commandRunner
	lookPath    func(string) (string, error)
	stat        func(string) (os.FileInfo, error)
	mkdirAll    func(string, os.FileMode) error
	mkdirTemp   func(dir, pattern string) (string, error)
	removeAll   func(string) error
	rename      func(oldpath, newpath string) error
	getwd       func() (string, error)
}

// NewPipeline constructs the production pipeline with OS dependencies.
func NewPipeline() *Pipeline {
	return &Pipeline{
		ytdlpPath:   "yt-dlp",
		ffmpegPath:  "ffmpeg",
		whisperPath: "whisper-cli",
		runner:      &execRunner{},
		lookPath:    exec.LookPath,
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		rename:      os.Rename,
		getwd:       os.Getwd,
	}
}

// Run produces a WAV and a plain-text transcript in the output directory.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Input) == "" {
		return Result{}, &PipelineError{
			Stage:   "setup",
			Message: "no input provided; pass a URL or a local video path",
		}
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return Result{}, &PipelineError{
			Stage:   "setup",
			Message: "output directory is required",
		}
	}
	if err := p.mkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{}, &PipelineError{
			Stage:   "setup",
			Message: fmt.Sprintf("cannot create output directory: %s", req.OutputDir),
			Err:     err,
		}
	}

	var (
		logs     []CommandLog
		wavPath  string
		baseName string
		err      error
	)

	loc := locator.Classify(req.Input)
	if loc.IsRemote() {
		wavPath, baseName, logs, err = p.downloadRemote(ctx, req, loc.Value)
	} else {
		wavPath, baseName, logs, err = p.extractLocal(ctx, req, loc.Value)
	}
	if err != nil {
		return Result{}, err
	}

	emitStage(req.OnStage, domain.JobStatusTranscribing)

	outputBase := filepath.Join(req.OutputDir, baseName)
	args := buildWhisperArgs(req.ModelPath, wavPath, outputBase, req.Language, req.Threads)

	cmdResult, runErr := p.runner.Run(ctx, req.Verbose, p.whisperPath, args...)
	log := CommandLog{
		Command:  p.whisperPath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	logs = append(logs, log)
	if runErr != nil {
		return Result{}, &PipelineError{
			Stage:      "transcribing",
			Message:    "whisper-cli transcription failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	transcriptPath := outputBase + ".txt"
	if _, statErr := p.stat(transcriptPath); statErr != nil {
		return Result{}, &PipelineError{
			Stage:      "transcribing",
			Message:    fmt.Sprintf("whisper-cli completed but no transcript was found at %s", transcriptPath),
			CommandLog: log,
			Err:        statErr,
		}
	}

	return Result{
		WAVPath:        wavPath,
		TranscriptPath: transcriptPath,
		BaseName:       baseName,
		Logs:           logs,
	}, nil
}

// downloadRemote hands a remote locator to yt-dlp, which extracts a WAV
// into a scratch directory, then moves the WAV into the output directory
// under a sanitized base name.
func (p *Pipeline) downloadRemote(ctx context.Context, req Request, url string) (string, string, []CommandLog, error) {
	if _, err := p.lookPath(p.ytdlpPath); err != nil {
		return "", "", nil, &PipelineError{
			Stage:   "downloading",
			Message: fmt.Sprintf("required tool %q not found in PATH", p.ytdlpPath),
			Err:     fmt.Errorf("%w: %s", ErrMissingTool, p.ytdlpPath),
		}
	}

	emitStage(req.OnStage, domain.JobStatusDownloading)

	tempDir, err := p.mkdirTemp("", "vid2txt-*")
	if err != nil {
		return "", "", nil, &PipelineError{
			Stage:   "downloading",
			Message: "failed to create temporary workspace",
			Err:     err,
		}
	}
	defer func() { _ = p.removeAll(tempDir) }()

	args := buildYtdlpArgs(url, filepath.Join(tempDir, "%(title)s.%(ext)s"))
	cmdResult, runErr := p.runner.Run(ctx, req.Verbose, p.ytdlpPath, args...)
	log := CommandLog{
		Command:  p.ytdlpPath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	logs := []CommandLog{log}
	if runErr != nil {
		return "", "", nil, &PipelineError{
			Stage:      "downloading",
			Message:    "yt-dlp failed",
			CommandLog: log,
			Err:        runErr,
		}
	}

	producedWAV, ok := fsutil.FindFirstWithExt(tempDir, "wav")
	if !ok {
		return "", "", nil, &PipelineError{
			Stage:      "downloading",
			Message:    "no WAV file produced by yt-dlp",
			CommandLog: log,
		}
	}

	baseName := fsutil.SanitizeBaseName(producedWAV)
	finalWAV := filepath.Join(req.OutputDir, baseName+".wav")
	if err := p.moveFile(producedWAV, finalWAV); err != nil {
		return "", "", nil, &PipelineError{
			Stage:   "downloading",
			Message: fmt.Sprintf("failed to move WAV to %s", finalWAV),
			Err:     err,
		}
	}

	return finalWAV, baseName, logs, nil
}

// extractLocal resolves a local path, inferring a media extension when
// missing, and extracts a mono 16 kHz PCM WAV with ffmpeg.
func (p *Pipeline) extractLocal(ctx context.Context, req Request, input string) (string, string, []CommandLog, error) {
	candidate := input
	if !filepath.IsAbs(candidate) {
		cwd, err := p.getwd()
		if err != nil {
			return "", "", nil, &PipelineError{
				Stage:   "extracting",
				Message: "failed to resolve current working directory",
				Err:     err,
			}
		}
		candidate = filepath.Join(cwd, candidate)
	}

	inputPath := candidate
	if _, err := p.stat(candidate); err != nil {
		inferred, ok := fsutil.InferWithExtension(candidate)
		if !ok {
			return "", "", nil, &PipelineError{
				Stage: "extracting",
				Message: fmt.Sprintf(
					"input file not found, tried: %s (include the extension or use one of: %s)",
					candidate, fsutil.MediaExtensionHint(),
				),
				Err: fmt.Errorf("%w: %s", ErrInputNotFound, candidate),
			}
		}
		inputPath = inferred
	}

	info, err := p.stat(inputPath)
	if err != nil || info.IsDir() {
		return "", "", nil, &PipelineError{
			Stage:   "extracting",
			Message: fmt.Sprintf("input is not a file: %s", inputPath),
			Err:     err,
		}
	}

	emitStage(req.OnStage, domain.JobStatusExtracting)

	base := filepath.Base(inputPath)
	baseName := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.TrimSpace(baseName) == "" {
		baseName = "audio"
	}

	finalWAV := filepath.Join(req.OutputDir, baseName+".wav")
	args := buildFFmpegArgs(inputPath, finalWAV)

	cmdResult, runErr := p.runner.Run(ctx, req.Verbose, p.ffmpegPath, args...)
	log := CommandLog{
		Command:  p.ffmpegPath,
		Args:     args,
		ExitCode: cmdResult.ExitCode,
		Stdout:   cmdResult.Stdout,
		Stderr:   cmdResult.Stderr,
	}
	logs := []CommandLog{log}
	if runErr != nil {
		return "", "", nil, &PipelineError{
			Stage:      "extracting",
			Message:    fmt.Sprintf("ffmpeg failed to extract audio from %s", inputPath),
			CommandLog: log,
			Err:        runErr,
		}
	}

	return finalWAV, baseName, logs, nil
}

// moveFile renames src to dst, falling back to copy-and-remove across
// filesystems.
func (p *Pipeline) moveFile(src, dst string) error {
	if err := p.rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// emitStage forwards stage updates when a callback is configured.
func emitStage(cb func(domain.JobStatus), status domain.JobStatus) {
	if cb != nil {
		cb(status)
	}
}

// buildYtdlpArgs requests best audio extracted to WAV with safe filenames.
func buildYtdlpArgs(url, outputTemplate string) []string {
	return []string{
		url,
		"-f", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "wav",
		"--audio-quality", "0",
		"--restrict-filenames",
		"--windows-filenames",
		"-o", outputTemplate,
	}
}

// buildFFmpegArgs builds extraction args for mono 16k PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// buildWhisperArgs builds whisper-cli args for txt transcript export. The
// language flag is always passed; "auto" selects whisper's own detection,
// and leaving -l off entirely would silently default to English.
func buildWhisperArgs(modelPath, audioPath, outputBase, language string, threads int) []string {
	lang := strings.TrimSpace(language)
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", modelPath,
		"-f", audioPath,
		"-of", outputBase,
		"-otxt",
		"-l", lang,
	}
	if threads > 0 {
		args = append(args, "-t", strconv.Itoa(threads))
	}
	return args
}

// NewPipelineForTests constructs a pipeline with injectable dependencies.
func NewPipelineForTests(
	ytdlpPath string,
	ffmpegPath string,
	whisperPath string,
	runner commandRunner,
	lookPath func(string) (string, error),
) *Pipeline {
	return &Pipeline{
		ytdlpPath:   ytdlpPath,
		ffmpegPath:  ffmpegPath,
		whisperPath: whisperPath,
		runner:      runner,
		lookPath:    lookPath,
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		rename:      os.Rename,
		getwd:       os.Getwd,
	}
}
