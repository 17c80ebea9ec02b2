package commandstructure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown preview command")

// CommandRegistry maps preview command names to their factories
type CommandRegistry struct {
	factories map[string]CommandFactory
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		factories: make(map[string]CommandFactory),
	}
}

// Register adds a factory under a unique, non-empty name
func (r *CommandRegistry) Register(name string, factory CommandFactory) error {
	switch {
	case name == "":
		return fmt.Errorf("command name cannot be empty")
	case factory == nil:
		return fmt.Errorf("command factory for %s cannot be nil", name)
	case r.IsRegistered(name):
		return fmt.Errorf("command %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create builds the named command. Unknown names wrap ErrUnknownCommand and
// list the available commands.
func (r *CommandRegistry) Create(name string, params map[string]any) (Command, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownCommand, name, strings.Join(r.GetRegisteredNames(), ", "))
	}

	command, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters for %s: %w", name, err)
	}
	return command, nil
}

// Validate builds every configured step once and reports all failures, so a
// bad pipeline is rejected when the configuration is loaded.
func (r *CommandRegistry) Validate(configs []CommandConfig) error {
	var errs []error
	for i, config := range configs {
		if _, err := r.Create(config.Name, config.Params); err != nil {
			errs = append(errs, fmt.Errorf("preview command at index %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (r *CommandRegistry) IsRegistered(name string) bool {
	_, exists := r.factories[name]
	return exists
}

// GetRegisteredNames returns the registered command names in sorted order
func (r *CommandRegistry) GetRegisteredNames() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the commands registered by the commands package
var DefaultRegistry = NewCommandRegistry()
