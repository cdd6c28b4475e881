// Package order implements the order-taking conversation: the per-user
// draft, the session store, the state machine driving a draft through
// its steps, and the finalizer that turns a confirmed draft into an
// email plus a durable record.
package order

import "time"

// State identifies the step an order conversation is waiting on.
type State string

const (
	// StateAwaitingProduct waits for a product choice.
	StateAwaitingProduct State = "awaiting_product"
	// StateAwaitingQuantity waits for a positive integer quantity.
	StateAwaitingQuantity State = "awaiting_quantity"
	// StateAwaitingDetails waits for free-text shipping details.
	StateAwaitingDetails State = "awaiting_details"
	// StateAwaitingConfirmation waits for a si/no answer.
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// Draft is one user's in-progress order. Product name and price are
// snapshotted at selection time so a catalog change cannot alter an
// order mid-flight. Terminal drafts never linger: the machine removes
// them from the store on completion, cancellation, or expiry.
type Draft struct {
	UserID      int64
	Username    string
	ProductKey  string
	ProductName string
	UnitPrice   int
	Quantity    int
	Details     string
	State       State
	UpdatedAt   time.Time
}

// Total computes the order total from the snapshotted unit price.
// It is derived on demand and never stored, so it cannot go stale.
func (d *Draft) Total() int {
	return d.UnitPrice * d.Quantity
}
