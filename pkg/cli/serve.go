package cli

import (
	"context"

	"github.com/m-mizutani/digitnote/pkg/recognizer"
	"github.com/m-mizutani/digitnote/pkg/relay"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg          config
		addr         string
		maxBodyBytes int64
		allowOrigins []string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("DIGITNOTE_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "max-body-bytes",
			Usage:       "Maximum request body size",
			Value:       relay.DefaultMaxBodyBytes,
			Sources:     cli.EnvVars("DIGITNOTE_MAX_BODY_BYTES"),
			Destination: &maxBodyBytes,
		},
		&cli.StringSliceFlag{
			Name:        "allow-origin",
			Usage:       "Allowed CORS origin (repeatable, default any http/https origin)",
			Sources:     cli.EnvVars("DIGITNOTE_ALLOW_ORIGINS"),
			Destination: &allowOrigins,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the recognition relay that keeps the model API key server side",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx)
			logger := logging.From(ctx)

			// Without credentials the relay still starts and answers with a
			// misconfiguration error, so that clients get a clear message.
			var upstream recognizer.Recognizer
			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				logger.Warn("model is not configured", "error", err)
			} else {
				upstream = recognizer.NewDirect(gemini)
			}

			srv := relay.New(upstream,
				relay.WithLogger(logger),
				relay.WithMaxBodyBytes(maxBodyBytes),
				relay.WithAllowOrigins(allowOrigins...),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}
}
