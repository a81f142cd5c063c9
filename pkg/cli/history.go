package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func historyCommand() *cli.Command {
	var (
		cfg       config
		format    string
		withImage bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "Output format (text, json, yaml)",
			Value:       "text",
			Destination: &format,
		},
		&cli.BoolFlag{
			Name:        "with-image",
			Usage:       "Include the thumbnail data URI in json/yaml output",
			Destination: &withImage,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, credentialFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "history",
		Usage: "List saved recognitions, newest first",
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

			records, err := uc.History(ctx, session)
			if err != nil {
				return err
			}

			if !withImage {
				for _, r := range records {
					r.Image = ""
				}
			}
			return writeRecords(c.Root().Writer, format, records)
		},
	}
}

func writeRecords(w io.Writer, format string, records []*model.Record) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return goerr.Wrap(err, "failed to encode records as json")
		}

	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(records); err != nil {
			return goerr.Wrap(err, "failed to encode records as yaml")
		}

	case "text":
		if len(records) == 0 {
			fmt.Fprintln(w, "No saved recognitions yet.")
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				r.ID,
				r.ClientTime().Format("2006-01-02 15:04:05"),
				strings.ReplaceAll(r.Text, "\n", " / "),
			)
		}

	default:
		return goerr.New("unsupported format", goerr.V("format", format))
	}

	return nil
}
