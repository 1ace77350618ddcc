package types

// Event represents a structured state change emitted by the protocol.
// Attributes are string-encoded so downstream consumers (logs, indexers)
// do not need to know module-specific types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
