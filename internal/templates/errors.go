package templates

import (
	"errors"
	"fmt"
)

// ErrTemplateNotFound is wrapped by a RenderError when no template has the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// ParseError reports the template source that failed to load.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse template %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// RenderError reports a failed execution of a named template.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template %s: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
