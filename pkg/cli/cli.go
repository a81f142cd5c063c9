package cli

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// Values from .env never override the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Default().Warn("failed to load .env", "error", err)
	}

	cmd := &cli.Command{
		Name:  "digitnote",
		Usage: "Handwritten digit recognition with history",
		Commands: []*cli.Command{
			serveCommand(),
			recognizeCommand(),
			historyCommand(),
			accountCommand(),
			originalCommand(),
			shellCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Debug("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: errorMessage(err),
		}
	}

	return nil
}

// errorMessage prefers the user-facing text and falls back to the error chain
// for configuration and I/O failures
func errorMessage(err error) string {
	if msg := model.DisplayMessage(err); msg != model.DefaultErrorMessage {
		return msg
	}
	return err.Error()
}
