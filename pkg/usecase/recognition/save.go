package recognition

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/digitnote/pkg/imaging"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/sanitize"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrSignInToSave   = model.InvalidRequest("Please sign in to save recognitions.")
	ErrVerifyToSave   = model.InvalidRequest("Please verify your email to save recognitions.")
	ErrNoImageToSave  = model.InvalidRequest("No image to save.")
	ErrNoTextToSave   = model.InvalidRequest("No recognized number to save.")
	ErrInvalidText    = model.InvalidRequest("Only recognized digits can be saved.")
	ErrSignInHistory  = model.InvalidRequest("Please sign in to view history.")
	ErrArchiveMissing = goerr.New("archive storage is not configured")
)

// Save stores a recognition for the session owner. The image is compressed
// before it is written; no step is retried.
func (uc *UseCase) Save(ctx context.Context, session *model.Session, image, text string) (*model.Record, error) {
	switch {
	case session == nil:
		return nil, ErrSignInToSave
	case !session.EmailVerified:
		return nil, ErrVerifyToSave
	case image == "":
		return nil, ErrNoImageToSave
	case strings.TrimSpace(text) == "":
		return nil, ErrNoTextToSave
	}

	// Stored text is always a sanitizer result
	if digits, err := sanitize.Digits(text); err != nil || digits != text {
		return nil, goerr.Wrap(ErrInvalidText, "text is not a sanitized recognition", goerr.V("owner_id", session.UID))
	}

	thumbnail, err := imaging.Compress(image, uc.compress...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to compress image", goerr.V("owner_id", session.UID))
	}

	record := &model.Record{
		OwnerID:   session.UID,
		Image:     thumbnail,
		Text:      text,
		Timestamp: uc.now().UnixMilli(),
	}

	if uc.archive != nil {
		key, err := uc.archiveOriginal(ctx, session.UID, image)
		if err != nil {
			return nil, err
		}
		record.ArchiveKey = key
	}

	if err := uc.repo.PutRecord(ctx, record); err != nil {
		return nil, goerr.Wrap(err, "failed to save record", goerr.V("owner_id", session.UID))
	}

	logging.From(ctx).Info("saved recognition",
		"id", record.ID,
		"owner_id", record.OwnerID,
		"thumbnail_bytes", len(thumbnail),
	)
	return record, nil
}

func (uc *UseCase) archiveOriginal(ctx context.Context, ownerID, image string) (string, error) {
	uri, err := imaging.ParseDataURI(image)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse original image")
	}

	key := ArchiveKey(ownerID, uuid.NewString(), uri.Extension())
	w, err := uc.archive.Put(ctx, key, uri.MIMEType)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open archive object", goerr.V("key", key))
	}
	if _, err := w.Write(uri.Data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write archive object", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to upload archive object", goerr.V("key", key))
	}

	return key, nil
}

// ArchiveKey builds the object key of an archived original
func ArchiveKey(ownerID, id, ext string) string {
	return ownerPrefix(ownerID) + id + "." + ext
}

func ownerPrefix(ownerID string) string {
	return "originals/" + ownerID + "/"
}
