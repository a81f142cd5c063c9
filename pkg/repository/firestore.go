package repository

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const collectionRecognitions = "recognitions"

// Firestore stores records in the "recognitions" collection. Listing needs a
// composite index on (userId ASC, timestamp DESC).
type Firestore struct {
	client *firestore.Client
}

var _ Repository = (*Firestore)(nil)

// New creates a Firestore repository
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID), goerr.V("database_id", databaseID))
	}
	return &Firestore{client: client}, nil
}

// Close releases the underlying client
func (r *Firestore) Close() error {
	return r.client.Close()
}

func (r *Firestore) PutRecord(ctx context.Context, record *model.Record) error {
	ref, wr, err := r.client.Collection(collectionRecognitions).Add(ctx, record)
	if err != nil {
		return goerr.Wrap(toStorageError(err), "failed to add record", goerr.V("owner_id", record.OwnerID))
	}

	record.ID = model.RecordID(ref.ID)
	// The serverTimestamp field is resolved at commit time
	record.CreatedAt = wr.UpdateTime
	return nil
}

func (r *Firestore) ListRecords(ctx context.Context, ownerID string) ([]*model.Record, error) {
	iter := r.client.Collection(collectionRecognitions).
		Where("userId", "==", ownerID).
		OrderBy("timestamp", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var records []*model.Record
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(toListError(err), "failed to list records", goerr.V("owner_id", ownerID))
		}

		var record model.Record
		if err := doc.DataTo(&record); err != nil {
			return nil, goerr.Wrap(err, "failed to decode record", goerr.V("doc_id", doc.Ref.ID))
		}
		record.ID = model.RecordID(doc.Ref.ID)
		records = append(records, &record)
	}

	return records, nil
}
