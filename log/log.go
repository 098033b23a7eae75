package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(path string) (string, error) {
	// Priority 1: configured path
	if path == "" {
		// Priority 2: EARSHOT_LOG_PATH environment variable
		path = os.Getenv("EARSHOT_LOG_PATH")
	}
	if path != "" {
		if !filepath.IsAbs(path) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, path), nil
		}
		return path, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// TaskError reports a recoverable failure inside one task iteration.
func TaskError(task, op string, err error) {
	if !logReady {
		return
	}
	diagLog.Error().
		Str("task", task).
		Str("op", op).
		Err(err).
		Msg("task_error")
}

func TaskStart(task string, interval time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("task", task).
		Dur("interval", interval).
		Msg("task_start")
}

func TaskStop(task string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("task", task).Msg("task_stop")
}

func PowerMode(from, to string, level float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("from", from).
		Str("to", to).
		Float64("battery", level).
		Msg("power_mode")
}

func PersistBatch(saved int, watermark uint64, failed bool) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if failed {
		ev = diagLog.Warn()
	}
	ev.Int("saved", saved).
		Uint64("watermark", watermark).
		Bool("partial", failed).
		Msg("persist_batch")
}

func PersistGap(lost, watermark uint64) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Uint64("lost", lost).
		Uint64("watermark", watermark).
		Msg("persist_gap")
}

func SyncResult(link string, records int, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Warn().Err(err)
	}
	ev.Str("link", link).
		Int("records", records).
		Msg("sync")
}

func Keyword(text string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("text", text).Msg("keyword_match")
}

func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if transcribeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func SessionStart(engine, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("engine", engine).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(count uint64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Uint64("count", count).
		Msg("session_end")
}

// Transcription records one upload to a remote engine.
func Transcription(engine string, audio, network time.Duration, rateLimit string) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Str("engine", engine).
		Dur("audio", audio).
		Dur("network", network).
		Str("rate_limit", rateLimit).
		Msg("transcription")
}

// SetLevel filters diagnostics below level ("debug", "info", "warn" ...).
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(l)
	return nil
}
