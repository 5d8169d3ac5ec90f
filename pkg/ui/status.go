package ui

import "fmt"

// Severity classifies a status message.
type Severity string

// Severities.
const (
	Loading Severity = "loading"
	Success Severity = "success"
	Error   Severity = "error"
)

// StatusMessage is the single current status line. Each status-changing
// event replaces it; there is no history.
type StatusMessage struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// IsZero reports whether no status has been set.
func (m StatusMessage) IsZero() bool { return m.Text == "" && m.Severity == "" }

// String formats the message for logs and terminals.
func (m StatusMessage) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("[%s] %s", m.Severity, m.Text)
}

// LoadingStatus returns a Loading message.
func LoadingStatus(text string) StatusMessage { return StatusMessage{Text: text, Severity: Loading} }

// SuccessStatus returns a Success message.
func SuccessStatus(text string) StatusMessage { return StatusMessage{Text: text, Severity: Success} }

// ErrorStatus returns an Error message.
func ErrorStatus(text string) StatusMessage { return StatusMessage{Text: text, Severity: Error} }
