package cli

import (
	"context"

	"github.com/m-mizutani/digitnote/pkg/shell"
	"github.com/urfave/cli/v3"
)

func shellCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, recognizerFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive session: sign in, recognize, save and browse history",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx)

			manager, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			uc, err := cfg.newUseCase(ctx, true)
			if err != nil {
				return err
			}

			sh := shell.New(manager, uc, shell.WithOutput(c.Root().Writer))
			defer sh.Close()
			return sh.Run(ctx)
		},
	}
}
