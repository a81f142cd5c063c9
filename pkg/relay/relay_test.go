package relay_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/recognizer"
	"github.com/m-mizutani/digitnote/pkg/relay"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

var testImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))

type fakeRecognizer struct {
	result string
	err    error
	images []string
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image string) (string, error) {
	f.images = append(f.images, image)
	return f.result, f.err
}

func newTestServer(t *testing.T, upstream recognizer.Recognizer, opts ...relay.Option) *httptest.Server {
	t.Helper()
	opts = append([]relay.Option{relay.WithLogger(logging.New("error", io.Discard))}, opts...)
	srv := httptest.NewServer(relay.New(upstream, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (int, recognizer.RelayResponse) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	gt.NoError(t, err)
	defer resp.Body.Close()

	var out recognizer.RelayResponse
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func requestBody(t *testing.T, image string) string {
	t.Helper()
	raw, err := json.Marshal(recognizer.RelayRequest{ImageBase64: image})
	gt.NoError(t, err)
	return string(raw)
}

func TestRecognizeSuccess(t *testing.T) {
	upstream := &fakeRecognizer{result: "12\n34"}
	srv := newTestServer(t, upstream)

	for _, path := range []string{relay.RecognizePath, relay.NetlifyPath} {
		status, out := post(t, srv.URL+path, requestBody(t, testImage))
		gt.Equal(t, status, http.StatusOK)
		gt.Equal(t, out.Result, "12\n34")
		gt.Equal(t, out.Error, "")
	}
	gt.A(t, upstream.images).Length(2)
	gt.Equal(t, upstream.images[0], testImage)
}

func TestRecognizeErrors(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		msg    string
		code   model.FailureKind
	}{
		{"no digits", model.ErrNoDigitsFound, http.StatusBadRequest, "No handwritten numbers found in the image", model.FailureNoDigitsFound},
		{"empty response", model.ErrEmptyResponse, http.StatusBadRequest, "No response from AI", model.FailureEmptyResponse},
		{"provider status kept", model.RecognitionFailed("API key not valid", 403), http.StatusForbidden, "API key not valid", ""},
		{"provider 5xx kept", model.RecognitionFailed("backend error", 503), http.StatusServiceUnavailable, "backend error", ""},
		{"transport failure", model.RecognitionFailed("", 0), http.StatusBadGateway, "Failed to analyze image", ""},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "Internal server error", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeRecognizer{err: tc.err})
			status, out := post(t, srv.URL+relay.RecognizePath, requestBody(t, testImage))
			gt.Equal(t, status, tc.status)
			gt.Equal(t, out.Error, tc.msg)
			gt.Equal(t, out.Code, tc.code)
		})
	}
}

func TestRecognizeBadRequest(t *testing.T) {
	upstream := &fakeRecognizer{result: "1"}
	srv := newTestServer(t, upstream)

	for _, body := range []string{`{}`, `{"imageBase64": ""}`, `not json`} {
		status, out := post(t, srv.URL+relay.RecognizePath, body)
		gt.Equal(t, status, http.StatusBadRequest)
		gt.Equal(t, out.Error, "No image data provided")
	}
	gt.A(t, upstream.images).Length(0)
}

func TestRecognizeTooLarge(t *testing.T) {
	srv := newTestServer(t, &fakeRecognizer{result: "1"}, relay.WithMaxBodyBytes(64))

	status, out := post(t, srv.URL+relay.RecognizePath, requestBody(t, strings.Repeat("A", 256)))
	gt.Equal(t, status, http.StatusRequestEntityTooLarge)
	gt.Equal(t, out.Error, "Image is too large")
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeRecognizer{result: "1"})

	resp, err := http.Get(srv.URL + relay.RecognizePath)
	gt.NoError(t, err)
	defer resp.Body.Close()

	gt.Equal(t, resp.StatusCode, http.StatusMethodNotAllowed)
	var out recognizer.RelayResponse
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	gt.Equal(t, out.Error, "Method not allowed")
}

func TestMisconfigured(t *testing.T) {
	srv := newTestServer(t, nil)

	status, out := post(t, srv.URL+relay.RecognizePath, requestBody(t, testImage))
	gt.Equal(t, status, http.StatusInternalServerError)
	gt.Equal(t, out.Error, "Server misconfigured: API key not set")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	gt.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	gt.NoError(t, err)
	gt.Equal(t, resp.StatusCode, http.StatusOK)
	gt.Equal(t, string(body), "ok")
}

type scriptedGemini struct {
	text string
}

func (g *scriptedGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: g.text}}}},
		},
	}, nil
}

// The relay-mode client and the direct client must produce the same outcome
func TestRelayAndDirectAgree(t *testing.T) {
	testCases := []struct {
		raw    string
		expect string
		err    error
	}{
		{"I see the numbers 4 and 2 written down.", "4 2", nil},
		{"NONE", "", model.ErrNoDigitsFound},
		{"", "", model.ErrEmptyResponse},
	}

	for _, tc := range testCases {
		gemini := &scriptedGemini{text: tc.raw}
		direct := recognizer.NewDirect(gemini)
		srv := newTestServer(t, direct)
		client := recognizer.NewRelay(srv.URL + relay.RecognizePath)

		for _, r := range []recognizer.Recognizer{direct, client} {
			got, err := r.Recognize(context.Background(), testImage)
			if tc.err != nil {
				gt.True(t, errors.Is(err, tc.err))
				continue
			}
			gt.NoError(t, err)
			gt.Equal(t, got, tc.expect)
		}
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := relay.New(&fakeRecognizer{result: "1"}, relay.WithLogger(logging.New("error", io.Discard)))

	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	cancel()
	gt.NoError(t, <-done)
}
