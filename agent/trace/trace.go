package trace

import (
	"fmt"

	contractx "github.com/krzycho/dbagent/agent/contract"
)

// Log is the append-only record of one task. Entries are frozen on append;
// accessors hand out copies so nothing downstream can rewrite history.
type Log struct {
	entries []contractx.TraceEntry
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Append(entry contractx.TraceEntry) error {
	if entry.Action.Tool == "" {
		return fmt.Errorf("%w: trace entry has no action tool", contractx.ErrValidation)
	}
	l.entries = append(l.entries, cloneEntry(entry))
	return nil
}

// cloneEntry copies the plan snapshot and the argument map. Result payloads
// stay shared; they are treated as immutable once appended.
func cloneEntry(e contractx.TraceEntry) contractx.TraceEntry {
	e.PlanSnapshot = e.PlanSnapshot.Clone()
	e.Action = e.Action.Clone()
	return e
}

func (l *Log) Len() int {
	return len(l.entries)
}

func (l *Log) Last() (contractx.TraceEntry, bool) {
	if len(l.entries) == 0 {
		return contractx.TraceEntry{}, false
	}
	return cloneEntry(l.entries[len(l.entries)-1]), true
}

// Entries returns a copy of the full trace oldest-first.
func (l *Log) Entries() []contractx.TraceEntry {
	out := make([]contractx.TraceEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = cloneEntry(e)
	}
	return out
}
