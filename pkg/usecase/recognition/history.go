package recognition

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// History lists the session owner's records, newest first
func (uc *UseCase) History(ctx context.Context, session *model.Session) ([]*model.Record, error) {
	if session == nil {
		return nil, ErrSignInHistory
	}

	records, err := uc.repo.ListRecords(ctx, session.UID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list records", goerr.V("owner_id", session.UID))
	}
	return records, nil
}

// Original opens an archived full-size image. Only keys under the session
// owner's prefix can be read.
func (uc *UseCase) Original(ctx context.Context, session *model.Session, key string) (io.ReadCloser, error) {
	if session == nil {
		return nil, ErrSignInHistory
	}
	if uc.archive == nil {
		return nil, ErrArchiveMissing
	}
	if !ownsKey(session.UID, key) {
		return nil, goerr.Wrap(model.InvalidRequest("Invalid archive key"), "key is outside of owner prefix",
			goerr.V("key", key), goerr.V("owner_id", session.UID))
	}

	r, err := uc.archive.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open archived image", goerr.V("key", key))
	}
	return r, nil
}

// ownsKey reports whether key names an object directly under the owner's
// originals prefix. Keys must already be in canonical form.
func ownsKey(ownerID, key string) bool {
	if ownerID == "" || strings.Contains(ownerID, "/") || strings.Contains(key, "..") || path.Clean(key) != key {
		return false
	}
	rest, ok := strings.CutPrefix(key, ownerPrefix(ownerID))
	return ok && rest != "" && !strings.Contains(rest, "/")
}
