package transaction

import "github.com/google/uuid"

// Lifecycle hook points published on the event bus around ledger mutations.
// Subscribers key off these types; the ledger makes no assumption about
// subscriber behavior.
const (
	EventBeforeAdd     = "transaction.add.before"
	EventAfterAdd      = "transaction.add.after"
	EventBeforeEdit    = "transaction.edit.before"
	EventAfterEdit     = "transaction.edit.after"
	EventBeforeDelete  = "transaction.delete.before"
	EventAfterDelete   = "transaction.delete.after"
	EventBeforeApply   = "transaction.apply.before"
	EventAfterApply    = "transaction.apply.after"
	EventBeforeUnapply = "transaction.unapply.before"
	EventAfterUnapply  = "transaction.unapply.after"
)

// Event is the payload published at every lifecycle hook point.
type Event struct {
	name          string
	TransactionID uuid.UUID
	ClientID      uuid.UUID
}

// Type implements domain.Event.
func (e Event) Type() string { return e.name }

func newEvent(name string, transactionID, clientID uuid.UUID) Event {
	return Event{name: name, TransactionID: transactionID, ClientID: clientID}
}
