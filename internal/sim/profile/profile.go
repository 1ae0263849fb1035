package profile

// Profile is one actor's hierarchical logic configuration: named
// sections of string fields, addressed by section name. Profiles are
// read-only after load; the activation core never mutates them.
type Profile struct {
	Name      string
	Archetype string
	Sections  map[string]Section
}

type Section map[string]string

// EntrySection is the section every configured actor starts resolution
// from when no explicit target is given.
const EntrySection = "logic"

func (p *Profile) Section(name string) (Section, bool) {
	s, ok := p.Sections[name]
	return s, ok
}

func (p *Profile) HasSection(name string) bool {
	_, ok := p.Sections[name]
	return ok
}

// Field reads one field of one section. Missing section or field both
// report ok=false; callers decide whether absence is fatal.
func (p *Profile) Field(section, key string) (string, bool) {
	s, ok := p.Sections[section]
	if !ok {
		return "", false
	}
	v, ok := s[key]
	return v, ok
}

// Set is the loaded collection of profiles, keyed by profile name.
type Set struct {
	ByName map[string]*Profile
	Digest string
}

func (s *Set) Get(name string) (*Profile, bool) {
	p, ok := s.ByName[name]
	return p, ok
}
