package model

import (
	"time"

	"github.com/google/uuid"
)

type RecordID string

// NewRecordID generates a new unique RecordID
func NewRecordID() RecordID {
	return RecordID(uuid.New().String())
}

// Record is a saved recognition result. It is created once on an explicit save
// and never updated afterwards.
type Record struct {
	ID      RecordID `firestore:"-" json:"id" yaml:"id"`
	OwnerID string   `firestore:"userId" json:"owner_id" yaml:"owner_id"`

	// Image is the compressed thumbnail as a data URI
	Image string `firestore:"imageUrl" json:"image" yaml:"image"`
	Text  string `firestore:"recognizedNumber" json:"text" yaml:"text"`

	// CreatedAt is assigned by the store, Timestamp (epoch millis) by the client.
	// Listing is ordered by Timestamp.
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp" json:"created_at" yaml:"created_at"`
	Timestamp int64     `firestore:"timestamp" json:"timestamp" yaml:"timestamp"`

	ArchiveKey string `firestore:"archiveKey,omitempty" json:"archive_key,omitempty" yaml:"archive_key,omitempty"`
}

// ClientTime returns Timestamp as time.Time
func (r *Record) ClientTime() time.Time {
	return time.UnixMilli(r.Timestamp)
}
