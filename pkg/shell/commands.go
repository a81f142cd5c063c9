package shell

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/m-mizutani/digitnote/pkg/identity"
	"github.com/m-mizutani/digitnote/pkg/imaging"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
)

type command struct {
	usage string
	desc  string
	run   func(ctx context.Context, s *Shell, args []string)
}

var (
	commands     map[string]*command
	commandOrder []string
)

func init() {
	list := []struct {
		name string
		cmd  *command
	}{
		{"signin", &command{"signin [email]", "Sign in with email and password", withAuthMode(AuthSignIn)}},
		{"signup", &command{"signup [email]", "Create an account", withAuthMode(AuthSignUp)}},
		{"reset", &command{"reset [email]", "Send a password reset email", withAuthMode(AuthReset)}},
		{"google", &command{"google [id-token]", "Sign in with a Google ID token", cmdGoogle}},
		{"signout", &command{"signout", "Sign out", cmdSignOut}},
		{"whoami", &command{"whoami", "Show the signed-in user", cmdWhoami}},
		{"name", &command{"name <display name>", "Change your display name", cmdName}},
		{"verify", &command{"verify", "Check whether your email is verified", cmdVerify}},
		{"resend", &command{"resend", "Send the verification email again", cmdResend}},
		{"open", &command{"open <file>", "Load a JPEG or PNG image", cmdOpen}},
		{"recognize", &command{"recognize", "Recognize digits in the loaded image", cmdRecognize}},
		{"save", &command{"save", "Save the current result to history", cmdSave}},
		{"clear", &command{"clear", "Clear the loaded image and result", cmdClear}},
		{"history", &command{"history", "List saved recognitions", cmdHistory}},
		{"load", &command{"load <n>", "Show entry n of the last history listing", cmdLoad}},
		{"help", &command{"help", "Show this help", cmdHelp}},
	}

	commands = make(map[string]*command, len(list))
	for _, c := range list {
		commands[c.name] = c.cmd
		commandOrder = append(commandOrder, c.name)
	}
}

func (s *Shell) printError(ctx context.Context, prefix string, err error) {
	logging.From(ctx).Debug("command failed", "error", err)
	s.printf("%s%s\n", prefix, model.DisplayMessage(err))
}

func (s *Shell) argOrPrompt(args []string, label string) (string, bool) {
	if len(args) > 0 {
		return strings.Join(args, " "), true
	}
	v, err := s.prompter.Prompt(label)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func withAuthMode(mode AuthMode) func(ctx context.Context, s *Shell, args []string) {
	return func(ctx context.Context, s *Shell, args []string) {
		s.state.Auth = mode

		// A signed-in user resets the password of their own account
		if mode == AuthReset && len(args) == 0 {
			if current := s.auth.Current(); current != nil {
				args = []string{current.Email}
			}
		}

		email, ok := s.argOrPrompt(args, "Email: ")
		if !ok {
			return
		}
		if email == "" {
			s.printf("Email is required.\n")
			return
		}
		s.submitAuth(ctx, email)
	}
}

func (s *Shell) submitAuth(ctx context.Context, email string) {
	switch s.state.Auth {
	case AuthReset:
		if err := s.auth.SendPasswordReset(ctx, email); err != nil {
			s.printError(ctx, "", err)
			return
		}
		s.printf("Password reset email sent! Check your inbox.\n")

	case AuthSignUp:
		password, err := s.prompter.Password("Password: ")
		if err != nil {
			return
		}
		if _, err := s.auth.SignUp(ctx, email, password); err != nil {
			s.printError(ctx, "", err)
			return
		}
		s.printf("Account created! Please check your email to verify your account.\n")

	case AuthSignIn:
		password, err := s.prompter.Password("Password: ")
		if err != nil {
			return
		}
		if _, err := s.auth.SignIn(ctx, email, password); err != nil {
			s.printError(ctx, "", err)
		}
	}
}

func cmdGoogle(ctx context.Context, s *Shell, args []string) {
	token, ok := s.argOrPrompt(args, "Google ID token: ")
	if !ok {
		return
	}
	cred := identity.Credential{ProviderID: "google.com", IDToken: token}
	if _, err := s.auth.SignInWithProvider(ctx, cred); err != nil {
		s.printError(ctx, "", err)
	}
}

func cmdSignOut(ctx context.Context, s *Shell, args []string) {
	if s.auth.Current() == nil {
		s.printf("Not signed in\n")
		return
	}
	s.auth.SignOut()
	s.state.Reset()
}

func cmdWhoami(ctx context.Context, s *Shell, args []string) {
	current := s.auth.Current()
	if current == nil {
		s.printf("Not signed in\n")
		return
	}

	verified := "no"
	if current.EmailVerified {
		verified = "yes"
	}
	s.printf("Name:     %s\nEmail:    %s\nVerified: %s\n", current.Name(), current.Email, verified)
}

func cmdName(ctx context.Context, s *Shell, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		s.printf("Please enter a name\n")
		return
	}
	if _, err := s.auth.UpdateDisplayName(ctx, s.auth.Current(), name); err != nil {
		s.printError(ctx, "", err)
		return
	}
	s.printf("Name updated!\n")
}

func cmdVerify(ctx context.Context, s *Shell, args []string) {
	current := s.auth.Current()
	if current == nil {
		s.printf("Please sign in again.\n")
		return
	}

	updated, err := s.auth.Reload(ctx, current)
	if err != nil {
		logging.From(ctx).Debug("reload failed", "error", err)
		s.printf("Failed to check verification status. Please try again.\n")
		return
	}
	if updated.EmailVerified {
		s.printf("Email verified successfully!\n")
		return
	}
	s.printf("Email not verified yet. Please check your inbox and click the verification link.\n")
}

func cmdResend(ctx context.Context, s *Shell, args []string) {
	if err := s.auth.ResendVerification(ctx, s.auth.Current()); err != nil {
		s.printError(ctx, "", err)
		return
	}
	s.printf("Verification email sent! Check your inbox.\n")
}

func cmdOpen(ctx context.Context, s *Shell, args []string) {
	path := strings.Join(args, " ")
	if path == "" {
		s.printf("Usage: open <file>\n")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logging.From(ctx).Debug("failed to read image", "path", path, "error", err)
		s.printf("Cannot read %s\n", path)
		return
	}

	uri := imaging.FromBytes(data)
	if uri.MIMEType != "image/jpeg" && uri.MIMEType != "image/png" {
		s.printf("Please upload a JPEG or PNG image.\n")
		return
	}

	s.state.SetImage(uri.String())
	s.printf("Loaded %s (%d bytes)\n", path, len(data))
}

func cmdRecognize(ctx context.Context, s *Shell, args []string) {
	if s.state.Image == "" {
		s.printf("Open an image first with 'open <file>'.\n")
		return
	}

	s.printf("Recognizing...\n")
	text, err := s.uc.Recognize(ctx, s.state.Image)
	if err != nil {
		logging.From(ctx).Debug("recognition failed", "error", err)
		s.state.SetError(model.DisplayMessage(err))
		s.printf("Error: %s\n", s.state.Err)
		return
	}

	s.state.SetResult(text)
	s.printf("Result:\n%s\n", text)
}

func cmdSave(ctx context.Context, s *Shell, args []string) {
	switch s.state.Save {
	case SaveSaved:
		s.printf("Already saved.\n")
		return
	case SaveSaving:
		s.printf("Save in progress.\n")
		return
	}
	if !s.state.CanSave() {
		s.printf("Nothing to save. Run 'recognize' first.\n")
		return
	}

	s.state.Save = SaveSaving
	record, err := s.uc.Save(ctx, s.auth.Current(), s.state.Image, s.state.Result)
	if err != nil {
		s.state.Save = SaveIdle
		s.printError(ctx, "Failed to save: ", err)
		return
	}

	s.state.Save = SaveSaved
	logging.From(ctx).Debug("record saved", "id", record.ID)
	s.printf("Saved.\n")
}

func cmdClear(ctx context.Context, s *Shell, args []string) {
	s.state.Clear()
	s.printf("Cleared.\n")
}

func cmdHistory(ctx context.Context, s *Shell, args []string) {
	records, err := s.uc.History(ctx, s.auth.Current())
	if err != nil {
		s.printError(ctx, "", err)
		return
	}

	s.state.History = records
	if len(records) == 0 {
		s.printf("No saved recognitions yet.\n")
		return
	}
	for i, r := range records {
		s.printf("%d\t%s\t%s\n", i+1, r.ClientTime().Format("2006-01-02 15:04"), strings.ReplaceAll(r.Text, "\n", " / "))
	}
}

func cmdLoad(ctx context.Context, s *Shell, args []string) {
	if len(args) != 1 {
		s.printf("Usage: load <n>\n")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(s.state.History) {
		s.printf("No history entry %s. Run 'history' first.\n", args[0])
		return
	}

	record := s.state.History[n-1]
	s.state.Load(record)
	s.printf("Entry %d:\n%s\n", n, record.Text)
}

func cmdHelp(ctx context.Context, s *Shell, args []string) {
	for _, name := range commandOrder {
		c := commands[name]
		s.printf("  %-22s %s\n", c.usage, c.desc)
	}
	s.printf("  %-22s %s\n", "exit", "Leave the shell")
}
