package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spawn is one actor placement from the scene's actors.yaml.
type Spawn struct {
	ID      string     `yaml:"id"`
	Name    string     `yaml:"name"`
	Profile string     `yaml:"profile"`
	Species string     `yaml:"species"`
	Pos     [3]float64 `yaml:"pos"`
	Health  float64    `yaml:"health"`
}

type spawnsFile struct {
	Actors []Spawn `yaml:"actors"`
}

func LoadSpawns(path string) ([]Spawn, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f spawnsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("actors.yaml: %w", err)
	}
	seen := map[string]bool{}
	for i, sp := range f.Actors {
		if sp.ID == "" || sp.Profile == "" {
			return nil, fmt.Errorf("actors.yaml: actor %d missing id or profile", i)
		}
		if seen[sp.ID] {
			return nil, fmt.Errorf("actors.yaml: duplicate actor id %q", sp.ID)
		}
		seen[sp.ID] = true
	}
	return f.Actors, nil
}
