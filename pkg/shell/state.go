package shell

import (
	"github.com/m-mizutani/digitnote/pkg/model"
)

// AuthMode selects what submitting the auth form does
type AuthMode int

const (
	AuthSignIn AuthMode = iota
	AuthSignUp
	AuthReset
)

func (m AuthMode) String() string {
	switch m {
	case AuthSignIn:
		return "signin"
	case AuthSignUp:
		return "signup"
	case AuthReset:
		return "reset"
	default:
		return "unknown"
	}
}

// SaveState tracks whether the current result has been persisted
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveSaving
	SaveSaved
)

func (s SaveState) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SaveSaving:
		return "saving"
	case SaveSaved:
		return "saved"
	default:
		return "unknown"
	}
}

// State is the screen state of one shell session
type State struct {
	Auth AuthMode

	// Image is the loaded picture as a data URI
	Image  string
	Result string
	Err    string
	Save   SaveState

	// History is the last listing, indexed by the load command
	History []*model.Record
}

// SetImage replaces the picture and forgets the previous result
func (s *State) SetImage(image string) {
	s.Image = image
	s.Result = ""
	s.Err = ""
	s.Save = SaveIdle
}

func (s *State) Clear() {
	s.SetImage("")
}

// SetResult stores a fresh recognition, which is not saved yet
func (s *State) SetResult(text string) {
	s.Result = text
	s.Err = ""
	s.Save = SaveIdle
}

func (s *State) SetError(msg string) {
	s.Result = ""
	s.Err = msg
}

// CanSave reports whether a save may start now
func (s *State) CanSave() bool {
	return s.Image != "" && s.Result != "" && s.Save == SaveIdle
}

// Load shows a stored record. It is already persisted, so it cannot be saved again.
func (s *State) Load(record *model.Record) {
	s.Image = record.Image
	s.Result = record.Text
	s.Err = ""
	s.Save = SaveSaved
}

// Reset drops everything tied to the signed-in user
func (s *State) Reset() {
	*s = State{}
}
