package interview

import (
	"fmt"
	"strings"
)

// Difficulty is the tier a question is pitched at.
type Difficulty int

const (
	Beginner Difficulty = iota
	Intermediate
	Advanced
	Expert
)

// DefaultDifficulty is the tier every session starts at.
const DefaultDifficulty = Intermediate

var difficultyNames = map[Difficulty]string{
	Beginner:     "beginner",
	Intermediate: "intermediate",
	Advanced:     "advanced",
	Expert:       "expert",
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool { return d >= Beginner && d <= Expert }

// Escalate returns the next tier, capped at Expert.
func (d Difficulty) Escalate() Difficulty {
	if d >= Expert {
		return Expert
	}
	return d + 1
}

// Deescalate returns the previous tier, floored at Beginner.
func (d Difficulty) Deescalate() Difficulty {
	if d <= Beginner {
		return Beginner
	}
	return d - 1
}

// ParseDifficulty accepts tier names case-insensitively. "basic" is an alias for beginner.
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "basic" {
		return Beginner, nil
	}
	for d, candidate := range difficultyNames {
		if candidate == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown difficulty %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid difficulty %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(text []byte) error {
	parsed, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
