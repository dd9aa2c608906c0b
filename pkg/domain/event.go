package domain

// Event is the marker interface for lifecycle events published around ledger
// mutations. Subscribers key off Type.
type Event interface {
	Type() string
}

// FieldChange captures one column's previous and current value in an edit.
type FieldChange struct {
	Prev string `json:"prev"`
	Cur  string `json:"cur"`
}

// FieldDiff is the field-level diff of an edit, consumed by the audit log
// collaborator. Only changed columns appear.
type FieldDiff map[string]FieldChange
