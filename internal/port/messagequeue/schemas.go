package messagequeue

import "time"

// StoryMapPayload is the schema for storymaps.generated, storymaps.refined,
// storymaps.saved and storymaps.deleted messages.
type StoryMapPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Source    string    `json:"source,omitempty"`
	Intent    string    `json:"intent,omitempty"`
	Saved     bool      `json:"saved"`
	Epics     int       `json:"epics"`
	Stories   int       `json:"stories"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImportPayload is the schema for storymaps.imported messages.
type ImportPayload struct {
	Imported int `json:"imported"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}
