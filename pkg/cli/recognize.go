package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/digitnote/pkg/imaging"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func recognizeCommand() *cli.Command {
	var (
		cfg  config
		save bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the result to history (requires email and password)",
			Destination: &save,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, recognizerFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, credentialFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:      "recognize",
		Usage:     "Recognize handwritten digits in an image file",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx)

			path := c.Args().First()
			if path == "" {
				return goerr.New("image file is required")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return goerr.Wrap(err, "failed to read image", goerr.V("path", path))
			}
			image := imaging.FromBytes(data).String()

			// Sign in first so that a bad password does not waste a model call
			var session *model.Session
			if save {
				manager, err := cfg.newManager(ctx)
				if err != nil {
					return err
				}
				if session, err = cfg.signIn(ctx, manager); err != nil {
					return err
				}
			}

			uc, err := cfg.newUseCase(ctx, true)
			if err != nil {
				return err
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			s.Suffix = " Recognizing..."
			s.Start()
			text, err := uc.Recognize(ctx, image)
			s.Stop()
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, text)

			if !save {
				return nil
			}
			record, err := uc.Save(ctx, session, image, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Root().Writer, "Saved as %s\n", record.ID)
			return nil
		},
	}
}
