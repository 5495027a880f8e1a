package model

// Notification is the payload dispatched asynchronously to the
// notification collaborator. Delivery is fire-and-forget: a dropped or
// failed notification never affects engine state.
type Notification struct {
	ID      string // unique id for queue accounting
	UserID  string
	Kind    string // e.g. "overtaken", "rank_changed"
	Payload any
}
