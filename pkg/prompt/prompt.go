// Package prompt defines the interactive question capability the wizard is
// written against, with a terminal implementation and a scripted one.
package prompt

import (
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrInterrupted is returned when the user aborts a prompt (Ctrl+C).
var ErrInterrupted = errors.New("prompt interrupted")

// Prompter asks the user for input. Calls block until an answer is available.
type Prompter interface {
	// Select returns the index of the chosen option.
	Select(message string, options []string) (int, error)

	// Input returns free text accepted by validate. A nil validate accepts anything.
	Input(message string, validate func(string) error) (string, error)

	// Confirm returns a yes/no answer.
	Confirm(message string, def bool) (bool, error)
}

// Survey prompts on the terminal.
type Survey struct {
	PageSize int
	opts     []survey.AskOpt
}

// NewSurvey creates a terminal prompter.
func NewSurvey(opts ...survey.AskOpt) *Survey {
	return &Survey{PageSize: 10, opts: opts}
}

// Select shows a single-choice list.
func (s *Survey) Select(message string, options []string) (int, error) {
	var idx int
	err := survey.AskOne(&survey.Select{
		Message:  message,
		Options:  options,
		PageSize: s.PageSize,
	}, &idx, s.opts...)
	return idx, translate(err)
}

// Input asks for free text, re-asking until validate accepts it.
func (s *Survey) Input(message string, validate func(string) error) (string, error) {
	var answer string
	opts := append([]survey.AskOpt(nil), s.opts...)
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			str, _ := ans.(string)
			return validate(str)
		}))
	}
	err := survey.AskOne(&survey.Input{Message: message}, &answer, opts...)
	return answer, translate(err)
}

// Confirm asks a yes/no question.
func (s *Survey) Confirm(message string, def bool) (bool, error) {
	answer := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer, s.opts...)
	return answer, translate(err)
}

func translate(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrInterrupted
	}
	return err
}
