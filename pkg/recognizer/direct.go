package recognizer

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/digitnote/pkg/adapter"
	"github.com/m-mizutani/digitnote/pkg/imaging"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/sanitize"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// Direct calls the model API itself. It needs the model credential and is
// used by the relay server and by trusted local clients.
type Direct struct {
	gemini adapter.Gemini
}

func NewDirect(gemini adapter.Gemini) *Direct {
	return &Direct{gemini: gemini}
}

func (d *Direct) Recognize(ctx context.Context, image string) (string, error) {
	uri, err := imaging.ParseDataURI(image)
	if err != nil {
		return "", goerr.Wrap(model.InvalidRequest("Invalid image data"), "failed to parse image", goerr.V("cause", err.Error()))
	}

	raw, err := d.generate(ctx, uri)
	if err != nil {
		return "", err
	}

	logging.From(ctx).Debug("model answered", "raw", raw)
	return sanitize.Digits(raw)
}

func (d *Direct) generate(ctx context.Context, uri *imaging.DataURI) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: Prompt()},
				{InlineData: &genai.Blob{MIMEType: uri.MIMEType, Data: uri.Data}},
			},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}

	resp, err := d.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok {
			return "", goerr.Wrap(model.RecognitionFailed(apiErr.Message, apiErr.Code), "gemini returned an error",
				goerr.V("status", apiErr.Status), goerr.V("code", apiErr.Code))
		}
		return "", goerr.Wrap(model.RecognitionFailed("", 0), "failed to call gemini", goerr.V("cause", err.Error()))
	}

	return firstCandidateText(resp), nil
}

// firstCandidateText returns the text parts of the first candidate, or an
// empty string when the response carries no usable content
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func asAPIError(err error) (*genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &apiErr, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr, true
	}
	return nil, false
}
