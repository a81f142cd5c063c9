package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/sanitize"
	"github.com/m-mizutani/goerr/v2"
)

// RelayRequest is the body accepted by the relay endpoint
type RelayRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

// RelayResponse is the body returned by the relay endpoint. Either Result or
// Error is set; Code identifies known rejections.
type RelayResponse struct {
	Result string            `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
	Code   model.FailureKind `json:"code,omitempty"`
}

// Relay sends images to the relay server, which holds the model credential
type Relay struct {
	endpoint string
	httpc    *http.Client
}

type RelayOption func(*Relay)

func WithHTTPClient(c *http.Client) RelayOption {
	return func(r *Relay) {
		r.httpc = c
	}
}

func NewRelay(endpoint string, opts ...RelayOption) *Relay {
	r := &Relay{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Recognize(ctx context.Context, image string) (string, error) {
	payload, err := json.Marshal(RelayRequest{ImageBase64: image})
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal relay request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create relay request", goerr.V("endpoint", r.endpoint))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", goerr.Wrap(model.RecognitionFailed("", 0), "failed to call relay",
			goerr.V("endpoint", r.endpoint), goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", goerr.Wrap(model.RecognitionFailed("", resp.StatusCode), "failed to read relay response",
			goerr.V("cause", err.Error()))
	}

	var out RelayResponse
	// Non-JSON error pages leave out empty and fall through to the generic failure
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", goerr.Wrap(relayFailure(resp.StatusCode, &out), "relay returned an error",
			goerr.V("status", resp.StatusCode), goerr.V("code", out.Code))
	}

	// The relay sanitizes already; sanitizing again is a no-op on valid output
	return sanitize.Digits(out.Result)
}

func relayFailure(status int, out *RelayResponse) *model.Failure {
	switch out.Code {
	case model.FailureEmptyResponse:
		return model.ErrEmptyResponse
	case model.FailureNoDigitsFound:
		return model.ErrNoDigitsFound
	case model.FailureImageDecode, model.FailureInvalidRequest:
		return &model.Failure{Kind: out.Code, Message: out.Error, Status: status}
	}
	return model.RecognitionFailed(out.Error, status)
}
