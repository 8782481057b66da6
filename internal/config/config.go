// Package config provides the named-parameter registry for the scanner.
// Every tunable in the pipeline is a registered parameter looked up by
// dotted name; values are validated against the parameter's type and range
// on every Set and can be persisted to a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Kind identifies a parameter's value type.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindDuration:
		return "duration"
	}
	return "unknown"
}

// Parameter describes one registered tunable.
type Parameter struct {
	Name        string
	Description string
	Kind        Kind
	Default     interface{}

	// Min/Max bound numeric kinds (int, float, duration in seconds).
	// Ignored for bool and string.
	Min, Max float64

	value interface{}
}

// Change records one successful Set for the change history.
type Change struct {
	Name     string
	Old, New interface{}
	At       time.Time
}

// Registry is a thread-safe collection of parameters.
type Registry struct {
	mu      sync.RWMutex
	params  map[string]*Parameter
	order   []string
	history []Change
	path    string
}

// New returns a registry with all scanner parameters registered at their
// defaults. The persistence path defaults to the XDG config directory.
func New() *Registry {
	r := &Registry{
		params: make(map[string]*Parameter),
		path:   filepath.Join(xdg.ConfigHome, "continue-clicker", "config.yaml"),
	}
	registerDefaults(r)
	return r
}

// SetPath overrides the YAML persistence location.
func (r *Registry) SetPath(path string) {
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
}

// Path returns the YAML persistence location.
func (r *Registry) Path() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}

// Register adds a parameter. Registering a duplicate name is a programming
// error and panics during startup wiring.
func (r *Registry) Register(p Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.params[p.Name]; ok {
		panic("config: duplicate parameter " + p.Name)
	}
	p.value = p.Default
	r.params[p.Name] = &p
	r.order = append(r.order, p.Name)
}

// Get returns the current value of a parameter.
func (r *Registry) Get(name string) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.params[name]
	if !ok {
		return nil, fmt.Errorf("config: unknown parameter %q", name)
	}
	return p.value, nil
}

// Set validates and stores a new value for a parameter.
func (r *Registry) Set(name string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.params[name]
	if !ok {
		return fmt.Errorf("config: unknown parameter %q", name)
	}
	v, err := coerce(p, value)
	if err != nil {
		return err
	}
	old := p.value
	p.value = v
	r.history = append(r.history, Change{Name: name, Old: old, New: v, At: time.Now()})
	return nil
}

// SetString parses a textual value according to the parameter's kind and
// stores it. Used for command-line overrides.
func (r *Registry) SetString(name, raw string) error {
	r.mu.RLock()
	p, ok := r.params[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("config: unknown parameter %q", name)
	}

	var value interface{}
	switch p.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("config: parameter %q wants int: %w", name, err)
		}
		value = n
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("config: parameter %q wants float: %w", name, err)
		}
		value = f
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: parameter %q wants bool: %w", name, err)
		}
		value = b
	case KindDuration:
		value = raw // coerce parses duration strings
	default:
		value = raw
	}
	return r.Set(name, value)
}

// Reset restores a parameter to its default.
func (r *Registry) Reset(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.params[name]
	if !ok {
		return fmt.Errorf("config: unknown parameter %q", name)
	}
	p.value = p.Default
	return nil
}

// History returns a copy of the change log, newest last.
func (r *Registry) History() []Change {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Change, len(r.history))
	copy(out, r.history)
	return out
}

// Names returns all parameter names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Describe returns a copy of the parameter definition.
func (r *Registry) Describe(name string) (Parameter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.params[name]
	if !ok {
		return Parameter{}, fmt.Errorf("config: unknown parameter %q", name)
	}
	cp := *p
	return cp, nil
}

// coerce validates value against the parameter definition and normalizes
// its type. Callers hold the registry lock.
func coerce(p *Parameter, value interface{}) (interface{}, error) {
	switch p.Kind {
	case KindInt:
		n, ok := asInt(value)
		if !ok {
			return nil, typeErr(p, value)
		}
		if err := checkRange(p, float64(n)); err != nil {
			return nil, err
		}
		return n, nil
	case KindFloat:
		f, ok := asFloat(value)
		if !ok {
			return nil, typeErr(p, value)
		}
		if err := checkRange(p, f); err != nil {
			return nil, err
		}
		return f, nil
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, typeErr(p, value)
		}
		return b, nil
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, typeErr(p, value)
		}
		return s, nil
	case KindDuration:
		d, ok := asDuration(value)
		if !ok {
			return nil, typeErr(p, value)
		}
		if err := checkRange(p, d.Seconds()); err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("config: parameter %q has unknown kind", p.Name)
}

func typeErr(p *Parameter, value interface{}) error {
	return fmt.Errorf("config: parameter %q wants %s, got %T", p.Name, p.Kind, value)
}

func checkRange(p *Parameter, v float64) error {
	if p.Min == 0 && p.Max == 0 {
		return nil
	}
	if v < p.Min || v > p.Max {
		return fmt.Errorf("config: parameter %q value %v outside range [%v, %v]",
			p.Name, v, p.Min, p.Max)
	}
	return nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asDuration(v interface{}) (time.Duration, bool) {
	switch d := v.(type) {
	case time.Duration:
		return d, true
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case int:
		return time.Duration(d) * time.Second, true
	case float64:
		return time.Duration(d * float64(time.Second)), true
	}
	return 0, false
}

// Save writes all current values to the registry's YAML file.
func (r *Registry) Save() error {
	r.mu.RLock()
	values := make(map[string]interface{}, len(r.params))
	for name, p := range r.params {
		if p.Kind == KindDuration {
			values[name] = p.value.(time.Duration).String()
		} else {
			values[name] = p.value
		}
	}
	path := r.path
	r.mu.RUnlock()

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads values from the YAML file, skipping unknown names and invalid
// values with a logged warning. A missing file is not an error.
func (r *Registry) Load() error {
	r.mu.RLock()
	path := r.path
	r.mu.RUnlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read: %w", err)
	}

	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	for name, value := range values {
		if err := r.Set(name, value); err != nil {
			slog.Warn("ignoring config value", "name", name, "error", err)
		}
	}
	return nil
}
