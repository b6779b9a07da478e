package core

import "fmt"

// FormatError reports an unsupported file type or structurally empty content.
type FormatError struct {
	Path    string
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error [%s]: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("format error [%s]: %s", e.Path, e.Message)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError reports user-supplied column selections that cannot be used.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IOError reports a file system failure on read or write.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
