package derive

import (
	"fmt"

	"github.com/louisbranch/duality-sheet/internal/services/sheet/compendium"
	"github.com/louisbranch/duality-sheet/internal/services/sheet/domain/character"
)

// healExperiences pads the experience list with blanks or drops trailing
// entries until it matches max_experiences.
func healExperiences(c *character.Character, env Env) []string {
	if !env.complete() {
		return nil
	}
	want := env.Sheet.MaxExperiences
	have := len(c.Experiences)
	switch {
	case have < want:
		for len(c.Experiences) < want {
			c.Experiences = append(c.Experiences, "")
		}
		return []string{fmt.Sprintf("experiences padded from %d to %d", have, want)}
	case have > want:
		c.Experiences = c.Experiences[:want:want]
		return []string{fmt.Sprintf("experiences truncated from %d to %d", have, want)}
	}
	return nil
}

func healMarkedResources(c *character.Character, env Env) []string {
	if !env.complete() {
		return nil
	}
	sheet := env.Sheet
	var messages []string
	resources := []struct {
		name  string
		value *int
		max   int
	}{
		{name: "marked hp", value: &c.MarkedHP, max: sheet.MaxHP},
		{name: "marked stress", value: &c.MarkedStress, max: sheet.MaxStress},
		{name: "hope", value: &c.Hope, max: sheet.MaxHope},
		{name: "marked armor", value: &c.MarkedArmor, max: sheet.MaxArmor},
	}
	for _, resource := range resources {
		if clamped := clamp(*resource.value, 0, resource.max); clamped != *resource.value {
			messages = append(messages, fmt.Sprintf("%s %d clamped to %d", resource.name, *resource.value, clamped))
			*resource.value = clamped
		}
	}
	return messages
}

func healCompanion(c *character.Character, _ Env) []string {
	if c.Companion == nil || hasCompanionSubclass(c) {
		return nil
	}
	c.Companion = nil
	return []string{"companion cleared without the " + CompanionSubclassID + " subclass"}
}

// healBeastform clears beastform state for characters outside the druid
// class and selections naming unknown forms.
func healBeastform(c *character.Character, env Env) []string {
	if c.Beastform == nil {
		return nil
	}
	if !canBeastform(c) {
		c.Beastform = nil
		return []string{"beastform cleared without the " + BeastformClassID + " class"}
	}
	if !env.loaded(compendium.KindBeastforms) {
		return nil
	}
	if _, ok := env.Compendium.Beastform(c.Beastform.BeastformID); !ok {
		message := fmt.Sprintf("unknown beastform %q cleared", c.Beastform.BeastformID)
		c.Beastform = nil
		return []string{message}
	}
	return nil
}
