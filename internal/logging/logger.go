// Package logging provides leveled logging and report capture for the
// simulation kernel. It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A ReportLog that appends kernel reports to a JSONL file
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/comalice/simkernel/internal/primitives"
)

// LevelTrace is a custom slog level below Debug. Every process activation
// is logged at this level.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w. format "json"
// selects the JSON handler; anything else is text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ReportLog appends reports to dir/reports.jsonl. It is safe for
// concurrent use. A nil ReportLog is safe to use; all methods are no-ops
// on a nil receiver.
type ReportLog struct {
	mu   sync.Mutex
	file *os.File
}

// NewReportLog opens dir/reports.jsonl for append.
func NewReportLog(dir string) (*ReportLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "reports.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &ReportLog{file: f}, nil
}

type reportEntry struct {
	Time     string `json:"time"`
	Severity string `json:"severity"`
	MsgType  string `json:"msgType"`
	Message  string `json:"message"`
	Process  string `json:"process,omitempty"`
}

// Handle writes r as one JSONL line. Its signature matches a core report
// handler.
func (rl *ReportLog) Handle(r primitives.Report) {
	if rl == nil {
		return
	}
	data, err := json.Marshal(reportEntry{
		Time:     time.Now().UTC().Format(time.RFC3339Nano),
		Severity: r.Severity.String(),
		MsgType:  r.MsgType,
		Message:  r.Message,
		Process:  r.Process,
	})
	if err != nil {
		return
	}
	data = append(data, '\n')

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file != nil {
		_, _ = rl.file.Write(data)
	}
}

// Close closes the underlying file. Safe to call on nil receiver.
func (rl *ReportLog) Close() error {
	if rl == nil {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return nil
	}
	err := rl.file.Close()
	rl.file = nil
	return err
}
