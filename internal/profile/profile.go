// Package profile serves the portfolio owner's résumé data.
package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var defaultProfile []byte

var ErrNoName = errors.New("profile has no name")

type Experience struct {
	Title      string   `json:"title" yaml:"title"`
	Company    string   `json:"company" yaml:"company"`
	Period     string   `json:"period" yaml:"period"`
	Location   string   `json:"location,omitempty" yaml:"location"`
	Highlights []string `json:"highlights" yaml:"highlights"`
}

// Current reports whether the position is still held.
func (e Experience) Current() bool {
	return strings.HasSuffix(strings.TrimSpace(e.Period), "Present")
}

type SkillGroup struct {
	Category string   `json:"category" yaml:"category"`
	Items    []string `json:"items" yaml:"items"`
}

type Link struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

type Profile struct {
	Name           string       `json:"name" yaml:"name"`
	Headline       string       `json:"headline" yaml:"headline"`
	Location       string       `json:"location" yaml:"location"`
	Experiences    []Experience `json:"experiences" yaml:"experiences"`
	Skills         []SkillGroup `json:"skills" yaml:"skills"`
	Certifications []string     `json:"certifications" yaml:"certifications"`
	Links          []Link       `json:"links" yaml:"links"`
}

// Default returns the profile compiled into the binary.
func Default() (*Profile, error) {
	return parse(defaultProfile)
}

// Load reads a profile from a YAML file. An empty path yields Default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Default()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	return parse(b)
}

func parse(b []byte) (*Profile, error) {
	p := &Profile{}
	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if strings.TrimSpace(p.Name) == "" {
		return nil, ErrNoName
	}

	return p, nil
}
