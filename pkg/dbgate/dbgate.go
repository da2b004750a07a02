package dbgate

import (
	"context"
	"encoding/json"
)

// StatusOK is the success marker in the gateway's error field. Any other
// value is a human-readable failure description that flows into the trace.
const StatusOK = "OK"

// Envelope is the uniform reply shape of every database capability.
type Envelope struct {
	Reply json.RawMessage `json:"reply"`
	Error string          `json:"error"`
}

func (e Envelope) OK() bool {
	return e.Error == StatusOK
}

// Gateway runs one database query and returns its enveloped reply.
// Implementations: the HQ HTTP API and a direct Postgres connection.
// A returned Go error means transport-level failure; domain failures
// (unknown table, bad SQL) come back inside the envelope.
type Gateway interface {
	Query(ctx context.Context, query string) (Envelope, error)
}
