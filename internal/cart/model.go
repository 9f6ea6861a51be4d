package cart

// SyncStatus reflects where the local snapshot stands relative to the
// authoritative backend.
type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusLoading SyncStatus = "loading"
	StatusReady   SyncStatus = "ready"
	StatusError   SyncStatus = "error"
)

// Item is a single product line held in the cart. Items are owned by the
// Store and mutated only through the Coordinator.
type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int64  `json:"quantity"`
	ImageURL  string `json:"imageUrl"`
}

// Snapshot is the authoritative-as-known cart state. It is replaced
// wholesale on a successful load and mutated incrementally between loads.
type Snapshot struct {
	Items      []Item     `json:"items"`
	SyncStatus SyncStatus `json:"syncStatus"`
	LastError  string     `json:"lastError,omitempty"`
}
