package domain

import "time"

// Action is what happened in an activity entry.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionImport   Action = "import"
	ActionExport   Action = "export"
	ActionStockIn  Action = "stock_in"
	ActionStockOut Action = "stock_out"
)

// Entity is the kind of record an activity touched.
type Entity string

const (
	EntityProduct     Entity = "product"
	EntityInventory   Entity = "inventory"
	EntityTransaction Entity = "transaction"
)

// Activity is an entry in the operation history.
type Activity struct {
	ID       string    `json:"id,omitempty"`
	Action   Action    `json:"action"`
	Entity   Entity    `json:"entity"`
	EntityID string    `json:"entityId,omitempty"`
	Summary  string    `json:"summary"`
	Actor    string    `json:"actor,omitempty"`
	At       time.Time `json:"at"`
}
