package primitives

import "fmt"

// Severity grades a diagnostic report.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Message types raised by the kernel.
const (
	MsgMethodTerminationEvent = "method-termination-event"
	MsgReentrantDisconnect    = "reentrant-disconnect"
	MsgProcessBodyError       = "process-body-error"
	MsgLateDontInitialize     = "late-dont-initialize"
)

// Report is one diagnostic record. The most recent report raised against a
// process is kept on that process until it is destroyed.
type Report struct {
	Severity Severity `json:"severity" yaml:"severity"`
	MsgType  string   `json:"msgType" yaml:"msgType"`
	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	Process  string   `json:"process,omitempty" yaml:"process,omitempty"`
}

func (r Report) String() string {
	if r.Process == "" {
		return fmt.Sprintf("%s: %s: %s", r.Severity, r.MsgType, r.Message)
	}
	return fmt.Sprintf("%s: %s: %s (process %s)", r.Severity, r.MsgType, r.Message, r.Process)
}
