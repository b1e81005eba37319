package types

// EventReport is the per-event registered/claimed aggregate.
type EventReport struct {
	EventID    string `json:"event_id"`
	Title      string `json:"title"`
	Registered int    `json:"registered"`
	Claimed    int    `json:"claimed"`
}

// ReportRow is one event's line in the platform-wide report.
type ReportRow struct {
	EventID    string `json:"event_id"`
	Title      string `json:"title"`
	Organizer  string `json:"organizer"`
	Contact    string `json:"contact"`
	Registered int    `json:"registered"`
	Claimed    int    `json:"claimed"`
}
