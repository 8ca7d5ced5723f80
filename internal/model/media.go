package model

import (
	"database/sql"
	"time"
)

// MediaObject is a blob stored in the vault.
// Hash is the SHA-256 of the plaintext and doubles as the vault key.
type MediaObject struct {
	Hash            string    `db:"hash" json:"hash"`
	Filename        string    `db:"filename" json:"filename"`
	ContentType     string    `db:"content_type" json:"contentType"`
	Size            int64     `db:"size" json:"size"`
	Encrypted       bool      `db:"encrypted" json:"encrypted"`
	UploaderAddress string    `db:"uploader_address" json:"uploaderAddress"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	URL             string    `db:"-" json:"url"`
}

// Operation tracks a CLI or server run that may mutate the database.
type Operation struct {
	ID         int64        `db:"id"`
	Operation  string       `db:"operation"`
	Parameters string       `db:"parameters"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
	Status     string       `db:"status"`
}
