// Package target provides huntable-creature profile definitions loaded
// from YAML, including the visual signature the screen sensor searches for.
package target

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Signature describes the pixel appearance of a creature for cluster search.
//
// The screen sensor owns the matching semantics; the engine treats the
// signature as an opaque search key.
type Signature struct {
	// Red, Green, Blue are the reference highlight color components (0-255).
	Red   int `yaml:"red"`
	Green int `yaml:"green"`
	Blue  int `yaml:"blue"`
	// Tolerance is the per-channel match tolerance (0-255).
	Tolerance int `yaml:"tolerance"`
	// MinClusterPx is the minimum pixel count for a cluster to count as a
	// match; smaller blobs are noise.
	MinClusterPx int `yaml:"min_cluster_px"`
}

// Validate checks the signature's channel and size invariants.
//
// Postcondition: Returns nil iff all channels are 0-255, Tolerance is
// 0-255, and MinClusterPx >= 1.
func (s Signature) Validate() error {
	for _, ch := range []struct {
		name  string
		value int
	}{
		{"red", s.Red},
		{"green", s.Green},
		{"blue", s.Blue},
		{"tolerance", s.Tolerance},
	} {
		if ch.value < 0 || ch.value > 255 {
			return fmt.Errorf("signature %s must be 0-255, got %d", ch.name, ch.value)
		}
	}
	if s.MinClusterPx < 1 {
		return fmt.Errorf("signature min_cluster_px must be >= 1, got %d", s.MinClusterPx)
	}
	return nil
}

// Profile defines one huntable creature archetype loaded from YAML.
type Profile struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// AttackAction is the context-menu label that must be present for an
	// attack tap to be issued, e.g. "Attack Chicken".
	AttackAction string    `yaml:"attack_action"`
	Signature    Signature `yaml:"signature"`
	// SearchRadiusTiles is the half-width of the world-space search region
	// centered on the anchor.
	SearchRadiusTiles int `yaml:"search_radius_tiles"`
}

// Validate checks that the profile satisfies basic invariants.
//
// Precondition: p must not be nil.
// Postcondition: Returns nil iff ID, Name, and AttackAction are non-empty,
// SearchRadiusTiles >= 1, and the signature validates.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("target profile: id must not be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("target profile %q: name must not be empty", p.ID)
	}
	if p.AttackAction == "" {
		return fmt.Errorf("target profile %q: attack_action must not be empty", p.ID)
	}
	if p.SearchRadiusTiles < 1 {
		return fmt.Errorf("target profile %q: search_radius_tiles must be >= 1, got %d", p.ID, p.SearchRadiusTiles)
	}
	if err := p.Signature.Validate(); err != nil {
		return fmt.Errorf("target profile %q: %w", p.ID, err)
	}
	return nil
}

// LoadProfileFromBytes parses a single profile from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Profile.
// Postcondition: Returns a validated *Profile, or an error.
func LoadProfileFromBytes(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing target profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfiles loads every .yaml/.yml file in dir as a Profile.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all validated profiles, or an error naming the
// first failing file. Profile IDs are unique within the result.
func LoadProfiles(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading target profile directory %q: %w", dir, err)
	}

	var profiles []*Profile
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading target profile %q: %w", path, err)
		}
		p, err := LoadProfileFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading target profile %q: %w", path, err)
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate target profile id %q in %q (first seen in %q)", p.ID, path, prev)
		}
		seen[p.ID] = path
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// FindProfile returns the profile with the given ID.
//
// Postcondition: Returns (profile, true) if found, or (nil, false) otherwise.
func FindProfile(profiles []*Profile, id string) (*Profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}
