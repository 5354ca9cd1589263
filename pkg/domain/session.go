package domain

import "fmt"

// HistoryEntry records one successful evaluation.
type HistoryEntry struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// String renders the entry as "expression = result".
func (h HistoryEntry) String() string {
	return fmt.Sprintf("%s = %s", h.Expression, h.Result)
}

// Session holds the state that outlives a single edit: the last result and the
// history of evaluations, most recent first.
type Session struct {
	LastResult string
	History    []HistoryEntry
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{History: []HistoryEntry{}}
}

// Record stores a successful evaluation.
func (s *Session) Record(expression, result string) {
	s.LastResult = result
	s.History = append([]HistoryEntry{{Expression: expression, Result: result}}, s.History...)
}

// Entry returns the history entry at index (0 is the most recent).
func (s *Session) Entry(index int) (HistoryEntry, error) {
	if index < 0 || index >= len(s.History) {
		return HistoryEntry{}, fmt.Errorf("%w: %d (len=%d)", ErrHistoryOutOfRange, index, len(s.History))
	}
	return s.History[index], nil
}

// ClearHistory drops all history entries. LastResult is kept.
func (s *Session) ClearHistory() {
	s.History = []HistoryEntry{}
}

// Reset drops history and the last result.
func (s *Session) Reset() {
	s.ClearHistory()
	s.LastResult = ""
}

// Lines renders the history as display strings, most recent first.
func (s *Session) Lines() []string {
	out := make([]string, len(s.History))
	for i, h := range s.History {
		out[i] = h.String()
	}
	return out
}

// Snapshot is a read-only view of a calculator for presentation layers.
type Snapshot struct {
	Text            string   `json:"text"`
	Caret           int      `json:"caret"`
	SelectionStart  int      `json:"selection_start"`
	SelectionLength int      `json:"selection_length"`
	LastResult      string   `json:"last_result"`
	History         []string `json:"history"`
	Evaluating      bool     `json:"evaluating"`
}
