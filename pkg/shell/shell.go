package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/digitnote/pkg/identity"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/usecase/recognition"
	"github.com/m-mizutani/goerr/v2"
)

const defaultPrompt = "digitnote> "

// Prompter reads answers to follow-up questions of a command
type Prompter interface {
	Prompt(label string) (string, error)
	Password(label string) (string, error)
}

// Shell is an interactive front end over the identity Manager and the
// recognition use case
type Shell struct {
	auth     *identity.Manager
	uc       *recognition.UseCase
	out      io.Writer
	prompter Prompter
	state    State

	lastUID     string
	unsubscribe func()
}

// Option is a functional option for Shell
type Option func(*Shell)

// WithOutput sets the output writer
func WithOutput(w io.Writer) Option {
	return func(s *Shell) {
		s.out = w
	}
}

// WithPrompter replaces the terminal prompter
func WithPrompter(p Prompter) Option {
	return func(s *Shell) {
		s.prompter = p
	}
}

// New creates a Shell. It prints session changes until Close is called.
func New(auth *identity.Manager, uc *recognition.UseCase, opts ...Option) *Shell {
	s := &Shell{
		auth: auth,
		uc:   uc,
		out:  os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.unsubscribe = auth.Subscribe(s.onSessionChange)
	return s
}

// Close stops session notifications
func (s *Shell) Close() {
	s.unsubscribe()
}

// State returns a copy of the screen state
func (s *Shell) State() State {
	return s.state
}

func (s *Shell) onSessionChange(session *model.Session) {
	switch {
	case session == nil && s.lastUID != "":
		s.printf("Signed out\n")
		s.lastUID = ""
	case session != nil && session.UID != s.lastUID:
		s.printf("Signed in as %s\n", session.Name())
		if !session.EmailVerified {
			s.printf("Your email is not verified. Run 'verify' after clicking the link, or 'resend' to get a new one.\n")
		}
		s.lastUID = session.UID
	}
}

// Run reads commands from the terminal until exit or EOF
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          defaultPrompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          s.out,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to initialize terminal")
	}
	defer rl.Close()

	if s.prompter == nil {
		s.prompter = &terminal{rl: rl}
	}

	s.printf("digitnote shell. Type 'help' for commands.\n")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read input")
		}

		if quit := s.Exec(ctx, line); quit {
			return nil
		}
	}
}

// Exec runs a single command line. It returns true when the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	name, args := fields[0], fields[1:]
	if name == "exit" || name == "quit" {
		return true
	}

	cmd, ok := commands[name]
	if !ok {
		s.printf("Unknown command: %s. Type 'help' for commands.\n", name)
		return false
	}
	cmd.run(ctx, s, args)
	return false
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

type terminal struct {
	rl *readline.Instance
}

func (t *terminal) Prompt(label string) (string, error) {
	t.rl.SetPrompt(label)
	defer t.rl.SetPrompt(defaultPrompt)

	line, err := t.rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *terminal) Password(label string) (string, error) {
	b, err := t.rl.ReadPassword(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
