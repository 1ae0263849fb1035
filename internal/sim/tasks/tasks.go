package tasks

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// JobSite is a work location that grants a logic section to actors
// assigned to it. Sites are static content loaded at startup.
type JobSite struct {
	ID       string `yaml:"id"`
	Section  string `yaml:"section"`
	Pos      [3]int `yaml:"pos"`
	Capacity int    `yaml:"capacity"`
}

type Job struct {
	SiteID  string
	Section string
	Pos     [3]int
}

type sitesFile struct {
	Sites []JobSite `yaml:"sites"`
}

// LoadSites reads the job-site catalog. A site without capacity defaults
// to one slot.
func LoadSites(path string) ([]JobSite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f sitesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("jobs.yaml: %w", err)
	}
	seen := map[string]bool{}
	for i := range f.Sites {
		s := &f.Sites[i]
		if s.ID == "" || s.Section == "" {
			return nil, fmt.Errorf("jobs.yaml: site %d missing id or section", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("jobs.yaml: duplicate site id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Capacity <= 0 {
			s.Capacity = 1
		}
	}
	return f.Sites, nil
}

// Board tracks which actor holds which job slot. It is owned by the
// world loop and accessed only from it.
type Board struct {
	sites    map[string]JobSite
	order    []string // site ids, deterministic assignment order
	byActor  map[string]string
	occupied map[string]int
}

func NewBoard(sites []JobSite) *Board {
	b := &Board{
		sites:    make(map[string]JobSite, len(sites)),
		byActor:  map[string]string{},
		occupied: map[string]int{},
	}
	for _, s := range sites {
		b.sites[s.ID] = s
		b.order = append(b.order, s.ID)
	}
	sort.Strings(b.order)
	return b
}

// Assign binds the actor to the first site with a free slot. Re-assigning
// an already bound actor returns its current job.
func (b *Board) Assign(actorID string) (Job, bool) {
	if siteID, ok := b.byActor[actorID]; ok {
		return b.jobAt(siteID), true
	}
	for _, id := range b.order {
		s := b.sites[id]
		if b.occupied[id] >= s.Capacity {
			continue
		}
		b.occupied[id]++
		b.byActor[actorID] = id
		return b.jobAt(id), true
	}
	return Job{}, false
}

// AssignTo binds the actor to a specific site, used by snapshot restore.
func (b *Board) AssignTo(actorID, siteID string) error {
	s, ok := b.sites[siteID]
	if !ok {
		return fmt.Errorf("unknown job site %q", siteID)
	}
	if cur, ok := b.byActor[actorID]; ok {
		if cur == siteID {
			return nil
		}
		b.Release(actorID)
	}
	if b.occupied[siteID] >= s.Capacity {
		return fmt.Errorf("job site %q full", siteID)
	}
	b.occupied[siteID]++
	b.byActor[actorID] = siteID
	return nil
}

// JobFor reports the actor's current assignment without side effects.
func (b *Board) JobFor(actorID string) (Job, bool) {
	siteID, ok := b.byActor[actorID]
	if !ok {
		return Job{}, false
	}
	return b.jobAt(siteID), true
}

// Assignments lists actor to site bindings, for persistence.
func (b *Board) Assignments() map[string]string {
	out := make(map[string]string, len(b.byActor))
	for actorID, siteID := range b.byActor {
		out[actorID] = siteID
	}
	return out
}

func (b *Board) Release(actorID string) {
	siteID, ok := b.byActor[actorID]
	if !ok {
		return
	}
	delete(b.byActor, actorID)
	if b.occupied[siteID] > 0 {
		b.occupied[siteID]--
	}
}

func (b *Board) jobAt(siteID string) Job {
	s := b.sites[siteID]
	return Job{SiteID: s.ID, Section: s.Section, Pos: s.Pos}
}
