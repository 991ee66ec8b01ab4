package database

import "time"

// DefaultName is stored when a submission leaves the name blank.
const DefaultName = "Anonymous"

// Entry is one persisted journal post. Rows are only ever inserted or
// deleted, never updated.
type Entry struct {
	ID        int64     `db:"id"         json:"id"`
	Content   string    `db:"content"    json:"content"`
	Greentext string    `db:"greentext"  json:"greentext"`
	Name      string    `db:"name"       json:"name"`
	Sub       string    `db:"sub"        json:"sub"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
