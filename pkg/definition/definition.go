// Package definition loads the declarative service file: functions, their
// eventBridge events, declared bus resources and imported buses.
package definition

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EventBusResourceType is the resource type that declares a bus.
const EventBusResourceType = "AWS::Events::EventBus"

// SupportedVersions is the semver constraint the file version must satisfy.
const SupportedVersions = "^1"

var validate = validator.New()

// File is the decoded definitions file.
type File struct {
	Version            string              `yaml:"version" validate:"required"`
	Functions          map[string]Function `yaml:"functions" validate:"dive"`
	Resources          Resources           `yaml:"resources"`
	ImportedEventBuses map[string]string   `yaml:"imported-event-buses"`
}

// Function is a handler and the events it listens to.
type Function struct {
	URL         string            `yaml:"url" validate:"omitempty,url"`
	Command     []string          `yaml:"command"`
	Dir         string            `yaml:"dir"`
	Environment map[string]string `yaml:"environment"`
	Timeout     time.Duration     `yaml:"timeout" validate:"gte=0"`
	Events      []Event           `yaml:"events" validate:"dive"`
}

// Event is one entry of a function's events list. Only eventBridge events are
// understood; others are ignored.
type Event struct {
	EventBridge *EventBridge `yaml:"eventBridge"`
}

// EventBridge declares either a pattern subscription or a schedule.
type EventBridge struct {
	EventBus any            `yaml:"eventBus"`
	Pattern  map[string]any `yaml:"pattern"`
	Input    map[string]any `yaml:"input"`
	Schedule string         `yaml:"schedule"`
	Enabled  *bool          `yaml:"enabled"`
}

// IsEnabled reports whether the event is active. Absent means enabled.
func (e *EventBridge) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// Resources mirrors the CloudFormation resources block.
type Resources struct {
	Resources map[string]Resource `yaml:"Resources"`
}

// Resource is one declared resource.
type Resource struct {
	Type       string         `yaml:"Type"`
	Properties map[string]any `yaml:"Properties"`
}

// Load reads and validates the definitions file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes and validates definitions from YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the version constraint, struct tags and that every function
// has exactly one target.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid definitions: %w", err)
	}

	v, err := semver.NewVersion(f.Version)
	if err != nil {
		return fmt.Errorf("invalid definitions version %q: %w", f.Version, err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("invalid version constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("definitions version %s is not supported (want %s)", f.Version, SupportedVersions)
	}

	var errs []error
	for _, key := range f.FunctionKeys() {
		fn := f.Functions[key]
		hasURL := strings.TrimSpace(fn.URL) != ""
		hasCommand := len(fn.Command) > 0
		switch {
		case hasURL && hasCommand:
			errs = append(errs, fmt.Errorf("function %s: url and command are mutually exclusive", key))
		case !hasURL && !hasCommand:
			errs = append(errs, fmt.Errorf("function %s: one of url or command is required", key))
		}
	}
	return errors.Join(errs...)
}

// FunctionKeys returns the function names, sorted.
func (f *File) FunctionKeys() []string {
	keys := make([]string, 0, len(f.Functions))
	for k := range f.Functions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EventBuses returns logical id -> bus name for every declared bus resource.
func (f *File) EventBuses() map[string]string {
	out := map[string]string{}
	for id, r := range f.Resources.Resources {
		if r.Type != EventBusResourceType {
			continue
		}
		if name, ok := r.Properties["Name"].(string); ok {
			out[id] = name
		}
	}
	return out
}
