// Package plugin provides the registry the interactive menu dispatches through.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned by Dispatch when no plugin handles a command.
var ErrUnknownCommand = errors.New("unknown command")

// Plugin is a menu entry that runs to completion when executed.
type Plugin interface {
	Name() string
	Description() string
	Commands() []string
	Execute(ctx context.Context, command string) error
}

// Registry holds plugins by display name, in registration order.
type Registry struct {
	plugins map[string]Plugin
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds p, replacing any plugin with the same name.
func (r *Registry) Register(p Plugin) {
	if _, ok := r.plugins[p.Name()]; !ok {
		r.order = append(r.order, p.Name())
	}
	r.plugins[p.Name()] = p
}

// Get returns the plugin registered under name.
func (r *Registry) Get(name string) (Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// All returns plugins in registration order.
func (r *Registry) All() []Plugin {
	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// Lookup finds the plugin handling command. Matching ignores case and a leading '/'.
func (r *Registry) Lookup(command string) (Plugin, string, bool) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
	for _, p := range r.All() {
		for _, c := range p.Commands() {
			if strings.ToLower(c) == name {
				return p, name, true
			}
		}
	}
	return nil, name, false
}

// Dispatch runs the plugin that handles command.
func (r *Registry) Dispatch(ctx context.Context, command string) error {
	p, name, ok := r.Lookup(command)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	if err := p.Execute(ctx, name); err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}
