package domain

// WebHints carries the web-push delivery options of a message.
type WebHints struct {
	Urgency string `json:"urgency"`
	TTL     int    `json:"ttl"`
	Icon    string `json:"icon"`
	Link    string `json:"link"`
}

// MobileHints carries the platform-specific mobile delivery options.
type MobileHints struct {
	Priority string `json:"priority"`
	Sound    string `json:"sound"`
}

// PushMessage is one per-token payload. Built fresh for every send, never
// persisted.
type PushMessage struct {
	Token  string            `json:"token"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
	Web    WebHints          `json:"web"`
	Mobile MobileHints       `json:"mobile"`
}

// SendError is one failed send attempt inside a dispatch.
type SendError struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// DispatchResult aggregates the outcomes of one notification event.
type DispatchResult struct {
	Sent   int         `json:"sent"`
	Errors []SendError `json:"errors"`
}

// OrderEventType discriminates change-feed events on the orders table.
type OrderEventType string

const (
	OrderEventCreated  OrderEventType = "created"
	OrderEventModified OrderEventType = "modified"
	OrderEventRemoved  OrderEventType = "removed"
)

// OrderEvent is a typed change-feed record: before/after snapshots of one
// order document. Before is nil on create, After is nil on remove.
type OrderEvent struct {
	Type    OrderEventType
	OrderID string
	Before  *Order
	After   *Order
}
