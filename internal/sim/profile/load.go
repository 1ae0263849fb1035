package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// rawProfile mirrors the yaml document shape. Section field values are
// decoded loosely and stringified so that authors can write bare numbers.
type rawProfile struct {
	Name      string                    `yaml:"name"`
	Archetype string                    `yaml:"archetype"`
	Sections  map[string]map[string]any `yaml:"sections"`
}

// LoadDir loads every *.yaml profile under dir, validating each against
// the JSON schema at schemaPath. Validation failures are fatal to the
// caller: a malformed profile must stop setup, not produce a half-bound
// actor.
func LoadDir(dir, schemaPath string) (*Set, error) {
	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read profiles dir: %w", err)
	}

	set := &Set{ByName: map[string]*Profile{}}
	h := sha256.New()

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read profile %s: %w", name, err)
		}
		p, err := parseProfile(raw, schema)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if _, dup := set.ByName[p.Name]; dup {
			return nil, fmt.Errorf("profile %s: duplicate profile name %q", name, p.Name)
		}
		set.ByName[p.Name] = p
		h.Write([]byte(name))
		h.Write(raw)
	}

	if len(set.ByName) == 0 {
		return nil, fmt.Errorf("no profiles found in %s", dir)
	}
	set.Digest = hex.EncodeToString(h.Sum(nil))
	return set, nil
}

func parseProfile(raw []byte, schema *jsonschema.Schema) (*Profile, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	// The schema validator expects json-decoded values; roundtrip the
	// yaml document through json before validating.
	jb, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	var jdoc any
	if err := json.Unmarshal(jb, &jdoc); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	if err := schema.Validate(jdoc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var rp rawProfile
	if err := yaml.Unmarshal(raw, &rp); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	p := &Profile{
		Name:      rp.Name,
		Archetype: rp.Archetype,
		Sections:  make(map[string]Section, len(rp.Sections)),
	}
	for sec, fields := range rp.Sections {
		out := make(Section, len(fields))
		for k, v := range fields {
			out[k] = stringify(v)
		}
		p.Sections[sec] = out
	}
	return p, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
