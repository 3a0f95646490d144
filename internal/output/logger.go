// Package output provides the verbosity-aware stderr logger and startup
// banner for the indexer CLI: progress/statistic/debug log levels,
// a progress bar for long directory walks, and TTY-aware banner display.
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// VerbosityLevel controls output detail.
type VerbosityLevel int

const (
	// VerbosityDefault shows clean results only (no progress, no statistics).
	VerbosityDefault VerbosityLevel = iota
	// VerbosityVerbose adds statistics and summary info.
	VerbosityVerbose
	// VerbosityDebug adds timestamps and diagnostic messages.
	VerbosityDebug
)

// Logger provides structured logging with verbosity control. Output goes
// to stderr to keep stdout clean for query results.
type Logger struct {
	verbosity    VerbosityLevel
	writer       io.Writer
	startTime    time.Time
	timings      map[string]time.Duration
	isTTY        bool
	progressBar  *progressbar.ProgressBar
	showProgress bool
}

func NewLogger(verbosity VerbosityLevel) *Logger {
	return NewLoggerWithWriter(verbosity, os.Stderr)
}

// NewLoggerWithWriter creates a logger with a custom output writer,
// primarily for tests.
func NewLoggerWithWriter(verbosity VerbosityLevel, w io.Writer) *Logger {
	isTTY := IsTTY(w)
	return &Logger{
		verbosity:    verbosity,
		writer:       w,
		startTime:    time.Now(),
		timings:      make(map[string]time.Duration),
		isTTY:        isTTY,
		showProgress: isTTY,
	}
}

// Progress logs high-level progress ("Indexing 842 files...").
func (l *Logger) Progress(format string, args ...interface{}) {
	if l.verbosity >= VerbosityVerbose {
		fmt.Fprintf(l.writer, format+"\n", args...)
	}
}

// Statistic logs counts and metrics ("12,483 symbols indexed").
func (l *Logger) Statistic(format string, args ...interface{}) {
	if l.verbosity >= VerbosityVerbose {
		fmt.Fprintf(l.writer, format+"\n", args...)
	}
}

// Debug logs debug diagnostics with an elapsed-time prefix.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbosity >= VerbosityDebug {
		fmt.Fprintf(l.writer, "[%s] %s\n", formatDuration(time.Since(l.startTime)), fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Warning(format string, args ...interface{}) {
	fmt.Fprintf(l.writer, "Warning: %s\n", fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(l.writer, "Error: %s\n", fmt.Sprintf(format, args...))
}

// StartTiming begins timing a named operation; call the returned func when
// it completes.
func (l *Logger) StartTiming(name string) func() {
	start := time.Now()
	return func() { l.timings[name] = time.Since(start) }
}

func (l *Logger) GetTiming(name string) time.Duration { return l.timings[name] }

func (l *Logger) PrintTimingSummary() {
	if l.verbosity < VerbosityVerbose {
		return
	}
	fmt.Fprintln(l.writer, "\nTiming Summary:")
	for name, duration := range l.timings {
		fmt.Fprintf(l.writer, "  %s: %s\n", name, duration.Round(time.Millisecond))
	}
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}

func (l *Logger) Verbosity() VerbosityLevel { return l.verbosity }
func (l *Logger) IsVerbose() bool           { return l.verbosity >= VerbosityVerbose }
func (l *Logger) IsDebug() bool             { return l.verbosity >= VerbosityDebug }
func (l *Logger) IsTTY() bool               { return l.isTTY }
func (l *Logger) GetWriter() io.Writer      { return l.writer }

// StartProgress displays a progress bar (total >= 0) or spinner (total < 0)
// for a long-running operation like a directory walk. In non-TTY output it
// falls back to a single progress line.
func (l *Logger) StartProgress(description string, total int) error {
	if !l.showProgress || !l.isTTY {
		l.Progress("%s...", description)
		return nil
	}
	if l.progressBar != nil {
		_ = l.progressBar.Finish()
	}
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(l.writer),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65 * time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprintf(l.writer, "\n") }),
	}
	if total < 0 {
		opts = append(opts, progressbar.OptionSpinnerType(14))
	} else {
		opts = append(opts, progressbar.OptionShowCount(), progressbar.OptionSetRenderBlankState(true))
	}
	l.progressBar = progressbar.NewOptions(total, opts...)
	return nil
}

func (l *Logger) UpdateProgress(delta int) error {
	if !l.showProgress || !l.isTTY || l.progressBar == nil {
		return nil
	}
	return l.progressBar.Add(delta)
}

func (l *Logger) FinishProgress() error {
	if !l.showProgress || !l.isTTY || l.progressBar == nil {
		return nil
	}
	err := l.progressBar.Finish()
	l.progressBar = nil
	return err
}
