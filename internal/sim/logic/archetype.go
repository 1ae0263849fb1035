package logic

import "fmt"

// Archetype is the fixed structural category of an actor. It is decided
// once at actor creation and never inferred from a dynamic type tag.
type Archetype uint8

const (
	ArchetypeHumanoid Archetype = iota + 1
	ArchetypeCreature
	ArchetypeProp
	ArchetypeVehicle
)

func (a Archetype) String() string {
	switch a {
	case ArchetypeHumanoid:
		return "humanoid"
	case ArchetypeCreature:
		return "creature"
	case ArchetypeProp:
		return "prop"
	case ArchetypeVehicle:
		return "vehicle"
	}
	return fmt.Sprintf("archetype(%d)", uint8(a))
}

func ParseArchetype(s string) (Archetype, error) {
	switch s {
	case "humanoid":
		return ArchetypeHumanoid, nil
	case "creature":
		return ArchetypeCreature, nil
	case "prop":
		return ArchetypeProp, nil
	case "vehicle":
		return ArchetypeVehicle, nil
	}
	return 0, fmt.Errorf("unknown archetype %q", s)
}
