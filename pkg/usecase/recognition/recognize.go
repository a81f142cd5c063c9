package recognition

import (
	"context"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Recognize returns the digits written in image (a data URI or bare base64)
func (uc *UseCase) Recognize(ctx context.Context, image string) (string, error) {
	if image == "" {
		return "", goerr.Wrap(model.InvalidRequest("No image data provided"), "empty image")
	}

	text, err := uc.recognizer.Recognize(ctx, image)
	if err != nil {
		return "", goerr.Wrap(err, "failed to recognize digits")
	}

	logging.From(ctx).Debug("recognized digits", "length", len(text))
	return text, nil
}
