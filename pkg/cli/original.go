package cli

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func originalCommand() *cli.Command {
	var (
		cfg    config
		key    string
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "key",
			Aliases:     []string{"k"},
			Usage:       "Archive key of the image (archive_key in history output)",
			Destination: &key,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output file, stdout if omitted",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, credentialFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "original",
		Usage: "Download the full-size original of a saved recognition",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx)

			manager, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			session, err := cfg.signIn(ctx, manager)
			if err != nil {
				return err
			}

			uc, err := cfg.newUseCase(ctx, false)
			if err != nil {
				return err
			}

			r, err := uc.Original(ctx, session, key)
			if err != nil {
				return err
			}
			defer r.Close()

			w := c.Root().Writer
			if output != "" {
				fd, err := os.Create(output)
				if err != nil {
					return goerr.Wrap(err, "failed to create output file", goerr.V("path", output))
				}
				defer fd.Close()
				w = fd
			}

			if _, err := io.Copy(w, r); err != nil {
				return goerr.Wrap(err, "failed to write image")
			}
			return nil
		},
	}
}
