package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/recognizer"
	"github.com/m-mizutani/digitnote/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"gopkg.in/yaml.v3"
)

func testRecords() []*model.Record {
	return []*model.Record{
		{ID: "b", OwnerID: "u", Text: "12\n34", Timestamp: 1700000001000},
		{ID: "a", OwnerID: "u", Text: "5", Timestamp: 1700000000000},
	}
}

func TestWriteRecordsText(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, writeRecords(&buf, "text", testRecords()))
	gt.S(t, buf.String()).Contains("b\t")
	gt.S(t, buf.String()).Contains("12 / 34")

	buf.Reset()
	gt.NoError(t, writeRecords(&buf, "text", nil))
	gt.S(t, buf.String()).Contains("No saved recognitions yet.")
}

func TestWriteRecordsJSON(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, writeRecords(&buf, "json", testRecords()))

	var out []map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	gt.A(t, out).Length(2)
	gt.Equal(t, out[0]["text"], any("12\n34"))
	gt.Equal(t, out[1]["id"], any("a"))
}

func TestWriteRecordsYAML(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, writeRecords(&buf, "yaml", testRecords()))

	var out []map[string]any
	gt.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	gt.A(t, out).Length(2)
	gt.Equal(t, out[1]["text"], any("5"))
}

func TestWriteRecordsUnsupported(t *testing.T) {
	var buf bytes.Buffer
	gt.Error(t, writeRecords(&buf, "csv", testRecords()))
}

func TestErrorMessage(t *testing.T) {
	err := goerr.Wrap(model.ErrNoDigitsFound, "failed to recognize digits")
	gt.Equal(t, errorMessage(err), "No handwritten numbers found in the image")

	err = goerr.New("project is required")
	gt.S(t, errorMessage(err)).Contains("project is required")
}

func TestNewRecognizer(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid mode", func(t *testing.T) {
		cfg := config{mode: "magic"}
		_, err := cfg.newRecognizer(ctx)
		gt.Error(t, err)
	})

	t.Run("relay requires url", func(t *testing.T) {
		cfg := config{mode: string(recognizer.ModeRelay)}
		_, err := cfg.newRecognizer(ctx)
		gt.Error(t, err)
	})

	t.Run("relay", func(t *testing.T) {
		cfg := config{mode: string(recognizer.ModeRelay), relayURL: "http://localhost:8080/api/recognize"}
		rec, err := cfg.newRecognizer(ctx)
		gt.NoError(t, err)
		_, ok := rec.(*recognizer.Relay)
		gt.True(t, ok)
	})

	t.Run("direct requires credentials", func(t *testing.T) {
		cfg := config{mode: string(recognizer.ModeDirect)}
		_, err := cfg.newRecognizer(ctx)
		gt.Error(t, err)
	})
}

func TestNewRepositoryAndStorage(t *testing.T) {
	ctx := context.Background()

	cfg := config{memory: true}
	repo, err := cfg.newRepository(ctx)
	gt.NoError(t, err)
	_, ok := repo.(*repository.Memory)
	gt.True(t, ok)

	_, err = (&config{}).newRepository(ctx)
	gt.Error(t, err)

	storage, err := (&config{}).newStorage(ctx)
	gt.NoError(t, err)
	gt.True(t, storage == nil)
}

func TestNewManagerRequiresKey(t *testing.T) {
	_, err := (&config{}).newManager(context.Background())
	gt.Error(t, err)
}
