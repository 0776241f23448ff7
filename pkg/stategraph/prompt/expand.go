package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// varPattern matches {varname} - varname can contain alphanumeric and
// underscore characters.
var varPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// MissingAction specifies how to handle missing variables.
type MissingAction int

const (
	// MissingKeep keeps the placeholder as-is when the variable is not
	// found. This is the default behavior.
	MissingKeep MissingAction = iota

	// MissingEmpty replaces the placeholder with an empty string when
	// the variable is not found.
	MissingEmpty

	// MissingError returns an error when a variable is not found.
	MissingError
)

// Option configures an Expander.
type Option func(*Expander)

// WithMissingAction sets how missing variables are handled.
//
// Default: MissingKeep (keep placeholder as-is)
func WithMissingAction(action MissingAction) Option {
	return func(e *Expander) {
		e.missingAction = action
	}
}

// Expander expands {var} placeholders in prompt templates.
//
// Create with NewExpander() and configure with Option functions.
// Expander is safe for concurrent use after construction.
type Expander struct {
	missingAction MissingAction
}

// NewExpander creates a new Expander with the given options.
func NewExpander(opts ...Option) *Expander {
	e := &Expander{missingAction: MissingKeep}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand replaces {var} placeholders in s using the provided vars.
// Values render with fmt's %v verb.
//
// Errors are only returned when MissingAction is MissingError and a
// variable is not found; the partially expanded string is returned
// alongside the error.
func (e *Expander) Expand(s string, vars map[string]any) (string, error) {
	if s == "" {
		return "", nil
	}

	var missingVars []string
	result := varPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1 : len(match)-1]
		if val, ok := vars[varName]; ok {
			return fmt.Sprintf("%v", val)
		}
		switch e.missingAction {
		case MissingEmpty:
			return ""
		case MissingError:
			missingVars = append(missingVars, varName)
			return match
		default: // MissingKeep
			return match
		}
	})

	if len(missingVars) > 0 {
		return result, &UndefinedVariableError{Names: missingVars}
	}
	return result, nil
}

// MustExpand expands placeholders in s and panics on error. Use when
// all variables are known present, or with MissingKeep/MissingEmpty
// which never return errors.
func (e *Expander) MustExpand(s string, vars map[string]any) string {
	result, err := e.Expand(s, vars)
	if err != nil {
		panic(fmt.Sprintf("prompt: %v", err))
	}
	return result
}

// Vars returns the distinct placeholder names in s, in first-appearance
// order. Useful for validating a template before a run.
func Vars(s string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range varPattern.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// UndefinedVariableError is returned when MissingError is set and one
// or more variables are not found.
type UndefinedVariableError struct {
	// Names is the list of undefined variable names.
	Names []string
}

func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

// defaultExpander is the package-level expander with default settings.
var defaultExpander = NewExpander()

// Expand replaces {var} placeholders in s using the default expander.
// Missing variables stay as-is.
func Expand(s string, vars map[string]any) string {
	// Default expander never returns errors (MissingKeep).
	result, _ := defaultExpander.Expand(s, vars)
	return result
}
