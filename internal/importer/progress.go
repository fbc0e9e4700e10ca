package importer

// Event types emitted while an import runs. A run produces one start event,
// a progress event every progressInterval rows (and on the last row), and
// exactly one terminal result or error event.
const (
	EventStart    = "start"
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// progressInterval is the row cadence of progress events.
const progressInterval = 10

// Event is one element of the forward-only progress sequence. The HTTP layer
// renders it as one newline-delimited JSON object.
type Event struct {
	Type    string       `json:"type"`
	Total   int          `json:"total,omitempty"`
	Current int          `json:"current,omitempty"`
	Message string       `json:"message,omitempty"`
	Stats   *ImportStats `json:"stats,omitempty"`
	Errors  []string     `json:"errors,omitempty"`
	Preview []string     `json:"preview,omitempty"`
}

// ProgressFunc consumes events as they are produced. A nil ProgressFunc
// disables reporting.
type ProgressFunc func(Event)

func emitStart(emit ProgressFunc, total int) {
	if emit != nil {
		emit(Event{Type: EventStart, Total: total})
	}
}

// emitRowProgress fires on every progressInterval-th row and unconditionally
// on the last row, so short files still render a full bar.
func emitRowProgress(emit ProgressFunc, current, total int) {
	if emit == nil {
		return
	}
	if current%progressInterval == 0 || current == total {
		emit(Event{Type: EventProgress, Current: current, Total: total})
	}
}

func emitResult(emit ProgressFunc, result *ImportResult) {
	if emit != nil {
		emit(Event{
			Type:    EventResult,
			Stats:   &result.Stats,
			Errors:  result.Errors,
			Preview: result.Preview,
		})
	}
}

// EmitError reports the single fatal event of a failed run. Exposed so the
// HTTP layer can terminate the stream for failures that happen before the
// importer starts (unreadable file, structural errors).
func EmitError(emit ProgressFunc, message string) {
	if emit != nil {
		emit(Event{Type: EventError, Message: message})
	}
}
