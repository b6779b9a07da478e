package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoAnswer is returned when a Scripted prompter runs out of answers.
var ErrNoAnswer = errors.New("no scripted answer left")

// Scripted replays canned answers in order, for tests and non-interactive runs.
//
// Select answers may be the option text or its 1-based position. Input answers
// rejected by the validator are recorded in Rejected and the next answer is
// tried, the way a terminal re-prompts. Confirm accepts y/yes/true and n/no/false.
type Scripted struct {
	Answers  []string
	Asked    []string
	Rejected []string
}

// NewScripted creates a prompter that answers with answers.
func NewScripted(answers ...string) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) next(message string) (string, error) {
	s.Asked = append(s.Asked, message)
	if len(s.Answers) == 0 {
		return "", fmt.Errorf("%w for %q", ErrNoAnswer, message)
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, nil
}

// Select picks the option named by the next answer.
func (s *Scripted) Select(message string, options []string) (int, error) {
	answer, err := s.next(message)
	if err != nil {
		return 0, err
	}
	for i, opt := range options {
		if opt == answer {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return n - 1, nil
	}
	return 0, fmt.Errorf("scripted answer %q is not an option of %q", answer, message)
}

// Input returns the first remaining answer accepted by validate.
func (s *Scripted) Input(message string, validate func(string) error) (string, error) {
	for {
		answer, err := s.next(message)
		if err != nil {
			return "", err
		}
		if validate == nil {
			return answer, nil
		}
		if verr := validate(answer); verr != nil {
			s.Rejected = append(s.Rejected, verr.Error())
			continue
		}
		return answer, nil
	}
}

// Confirm interprets the next answer as yes or no. An empty answer yields def.
func (s *Scripted) Confirm(message string, def bool) (bool, error) {
	answer, err := s.next(message)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return def, nil
	case "y", "yes", "true":
		return true, nil
	case "n", "no", "false":
		return false, nil
	default:
		return false, fmt.Errorf("scripted answer %q is not yes/no", answer)
	}
}
