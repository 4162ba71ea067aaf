package annotations

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Capability names a product feature that can be switched off.
type Capability string

const (
	Chart                 Capability = "Chart"
	MicroChart            Capability = "MicroChart"
	UShell                Capability = "UShell"
	IntentBasedNavigation Capability = "IntentBasedNavigation"
	AppState              Capability = "AppState"
)

var knownCapabilities = map[Capability]bool{
	Chart:                 true,
	MicroChart:            true,
	UShell:                true,
	IntentBasedNavigation: true,
	AppState:              true,
}

// Capabilities holds feature switches. A capability that is absent is enabled.
type Capabilities map[Capability]bool

// Enabled reports whether c is switched on.
func (caps Capabilities) Enabled(c Capability) bool {
	enabled, ok := caps[c]
	return !ok || enabled
}

// Disabled returns the switched off capabilities in sorted order.
func (caps Capabilities) Disabled() []Capability {
	var out []Capability
	for c, enabled := range caps {
		if !enabled {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the disabled capabilities, e.g. "-Chart,-MicroChart".
func (caps Capabilities) String() string {
	disabled := caps.Disabled()
	if len(disabled) == 0 {
		return "all"
	}
	parts := make([]string, len(disabled))
	for i, c := range disabled {
		parts[i] = "-" + string(c)
	}
	return strings.Join(parts, ",")
}

// LoadCapabilities reads capability switches from YAML:
//
//	capabilities:
//	  Chart: false
//	  IntentBasedNavigation: false
func LoadCapabilities(r io.Reader) (Capabilities, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading capabilities: %w", err)
	}

	var wrapper struct {
		Capabilities map[string]bool `yaml:"capabilities"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("parsing capabilities: %w", err)
	}

	caps := make(Capabilities, len(wrapper.Capabilities))
	for name, enabled := range wrapper.Capabilities {
		c := Capability(name)
		if !knownCapabilities[c] {
			return nil, fmt.Errorf("unknown capability %q", name)
		}
		caps[c] = enabled
	}
	return caps, nil
}

// LoadCapabilitiesFile reads capability switches from a YAML file.
func LoadCapabilitiesFile(path string) (Capabilities, error) {
	f, err := os.Open(path) // #nosec G304 -- path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("opening capabilities file: %w", err)
	}
	defer f.Close()
	return LoadCapabilities(f)
}
