package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage your account",
		Commands: []*cli.Command{
			accountSignUpCommand(),
			accountResetPasswordCommand(),
			accountResendVerificationCommand(),
			accountSetNameCommand(),
		},
	}
}

func accountSignUpCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, credentialFlags(&cfg)...)

	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account and send the verification email",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx)

			manager, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			if cfg.email == "" || cfg.password == "" {
				return goerr.New("email and password are required")
			}
			if _, err := manager.SignUp(ctx, cfg.email, cfg.password); err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, "Account created! Please check your email to verify your account.")
			return nil
		},
	}
}

func accountResetPasswordCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, credentialFlags(&cfg)...)

	return &cli.Command{
		Name:  "reset-password",
		Usage: "Send a password reset email",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx)

			manager, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			if cfg.email == "" {
				return goerr.New("email is required")
			}
			if err := manager.SendPasswordReset(ctx, cfg.email); err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, "Password reset email sent! Check your inbox.")
			return nil
		},
	}
}

func accountResendVerificationCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, credentialFlags(&cfg)...)

	return &cli.Command{
		Name:  "resend-verification",
		Usage: "Send the verification email again",
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
			if session.EmailVerified {
				fmt.Fprintln(c.Root().Writer, "Email is already verified.")
				return nil
			}
			if err := manager.ResendVerification(ctx, session); err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, "Verification email sent! Check your inbox.")
			return nil
		},
	}
}

func accountSetNameCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, identityFlags(&cfg)...)
	flags = append(flags, credentialFlags(&cfg)...)

	return &cli.Command{
		Name:      "set-name",
		Usage:     "Change the display name",
		ArgsUsage: "<name>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.withLogger(ctx)

			name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if name == "" {
				return goerr.New("display name is required")
			}

			manager, err := cfg.newManager(ctx)
			if err != nil {
				return err
			}
			session, err := cfg.signIn(ctx, manager)
			if err != nil {
				return err
			}
			if _, err := manager.UpdateDisplayName(ctx, session, name); err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, "Name updated!")
			return nil
		},
	}
}
