package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"rteditor/internal/commands"
	"rteditor/internal/policy"
)

const (
	// Separator groups toolbar buttons
	Separator = "|"

	// HeadingMenu is the toolbar dropdown offering the heading and paragraph commands
	HeadingMenu = "heading"
)

// DefaultToolbar is the button layout used when none is configured
var DefaultToolbar = []string{
	"bold", "italic", "underline", "strikethrough",
	Separator,
	HeadingMenu,
	Separator,
	"unorderedList", "orderedList", "blockquote",
	Separator,
	"link", "image",
	Separator,
	"undo", "redo",
	Separator,
	"clearFormatting",
}

// Config holds configuration options for one editor instance
type Config struct {
	// ClassMap overrides the canonical class of individual tags
	ClassMap map[string]string

	// InitialHTML is loaded (normalized) when the editor is created
	InitialHTML string

	// Toolbar lists the button names; the core only validates them
	Toolbar []string

	// HistoryCapacity bounds the undo stack
	HistoryCapacity int `validate:"min=1"`

	// SnapshotInterval stores every Nth history entry in full
	SnapshotInterval int `validate:"min=1"`

	// TypingDebounce is the idle time after which typing is snapshotted
	TypingDebounce time.Duration `validate:"gte=0"`

	// BoundaryChars force an immediate snapshot when typed
	BoundaryChars string

	// LinkTarget and LinkRel are set on links the editor creates
	LinkTarget string
	LinkRel    string
}

var validate = validator.New()

var limitMessages = map[string]string{
	"HistoryCapacity":  "history capacity must be positive, got %v",
	"SnapshotInterval": "snapshot interval must be positive, got %v",
	"TypingDebounce":   "typing debounce must not be negative, got %v",
}

// Default returns the standard editor configuration
func Default() Config {
	return Config{
		Toolbar:          append([]string(nil), DefaultToolbar...),
		HistoryCapacity:  100,
		SnapshotInterval: 20,
		TypingDebounce:   1500 * time.Millisecond,
		BoundaryChars:    " .!?,;",
		LinkTarget:       "_blank",
		LinkRel:          "noopener noreferrer",
	}
}

// Classes builds the per-instance class map: defaults merged with the overrides
func (c Config) Classes() policy.ClassMap {
	return policy.NewClassMap(c.ClassMap)
}

// IsBoundary reports whether typing s forces an immediate history snapshot
func (c Config) IsBoundary(s string) bool {
	return utf8.RuneCountInString(s) == 1 && strings.Contains(c.BoundaryChars, s)
}

// Validate checks the configuration for values the editor cannot work with
func (c Config) Validate() error {
	var errs []error

	var unknown []string
	for _, name := range c.Toolbar {
		if name == Separator || name == HeadingMenu {
			continue
		}
		if _, ok := commands.Parse(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		errs = append(errs, fmt.Errorf("unknown toolbar commands: %s", strings.Join(unknown, ", ")))
	}

	for tag := range c.ClassMap {
		if !policy.IsAllowed(strings.TrimSpace(tag)) {
			errs = append(errs, fmt.Errorf("class map entry for unsupported tag %q", tag))
		}
	}

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			if msg, ok := limitMessages[fe.StructField()]; ok {
				errs = append(errs, fmt.Errorf(msg, fe.Value()))
			} else {
				errs = append(errs, fe)
			}
		}
	}

	return errors.Join(errs...)
}
