// Package prompt holds the system prompts and canned replies for each chat capability.
package prompt

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Capability identifies a chat product surface.
type Capability string

const (
	CapabilityChat       Capability = "chat"
	CapabilityCode       Capability = "code"
	CapabilityCodeReview Capability = "code-review"
	CapabilityFunBot     Capability = "funbot"
	CapabilityCoach      Capability = "coach"
)

// Capabilities lists every chat capability the catalog must define.
var Capabilities = []Capability{
	CapabilityChat,
	CapabilityCode,
	CapabilityCodeReview,
	CapabilityFunBot,
	CapabilityCoach,
}

// Prompt is the catalog entry for one capability.
type Prompt struct {
	System   string `yaml:"system"`
	Fallback string `yaml:"fallback"`
	Error    string `yaml:"error"`
}

// Catalog maps capabilities to prompts.
type Catalog struct {
	prompts map[Capability]Prompt
}

//go:embed prompts.yaml
var defaultCatalog []byte

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// MustDefault is like Default but panics on a malformed embedded catalog.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a YAML catalog and checks every capability is present.
func Parse(data []byte) (*Catalog, error) {
	prompts := make(map[Capability]Prompt)
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}

	for _, capability := range Capabilities {
		p, ok := prompts[capability]
		if !ok {
			return nil, fmt.Errorf("prompt catalog: missing capability %q", capability)
		}
		if p.System == "" {
			return nil, fmt.Errorf("prompt catalog: capability %q has no system prompt", capability)
		}
		if p.Error == "" {
			p.Error = "Internal server error"
			prompts[capability] = p
		}
	}

	return &Catalog{prompts: prompts}, nil
}

// Get returns the prompt for capability.
func (c *Catalog) Get(capability Capability) (Prompt, bool) {
	p, ok := c.prompts[capability]
	return p, ok
}
