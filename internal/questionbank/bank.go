// Package questionbank loads the read-only question catalog shared by all sessions.
package questionbank

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-coach/internal/interview"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Version   int                  `yaml:"version"`
	Questions []interview.Question `yaml:"questions"`
}

// Bank is safe for concurrent use: it is never mutated after Load.
type Bank struct {
	questions []interview.Question
	byID      map[string]int
}

// Default returns the embedded catalog.
func Default() (*Bank, error) {
	return Load(defaultCatalog)
}

// LoadFile reads a catalog from path. An empty path yields the embedded catalog.
func LoadFile(path string) (*Bank, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question catalog %s: %w", path, err)
	}
	bank, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("load question catalog %s: %w", path, err)
	}
	return bank, nil
}

// Load parses and validates a YAML catalog.
func Load(data []byte) (*Bank, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Questions) == 0 {
		return nil, errors.New("catalog has no questions")
	}

	bank := &Bank{byID: make(map[string]int, len(file.Questions))}
	for i, q := range file.Questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i, q.ID, err)
		}
		if _, dup := bank.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		bank.byID[q.ID] = len(bank.questions)
		bank.questions = append(bank.questions, q)
	}
	return bank, nil
}

func validateQuestion(q interview.Question) error {
	switch {
	case strings.TrimSpace(q.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(q.Prompt) == "":
		return errors.New("missing prompt")
	case !q.Phase.Valid() || q.Phase.Terminal():
		return fmt.Errorf("phase %q cannot own questions", q.Phase)
	case !q.Difficulty.Valid():
		return fmt.Errorf("invalid difficulty %d", int(q.Difficulty))
	}

	switch q.Type {
	case interview.TypeConceptual, interview.TypeScenario:
	case interview.TypeFormula:
		if !q.Checkable() {
			return errors.New("formula question needs expected.accepted_functions")
		}
	case interview.TypeReflection:
		switch q.ReflectionField {
		case interview.ReflectionConfidence, interview.ReflectionStrengths,
			interview.ReflectionWeaknesses, interview.ReflectionImprovementPlan:
		default:
			return fmt.Errorf("reflection question needs reflection_field, got %q", q.ReflectionField)
		}
	default:
		return fmt.Errorf("unknown type %q", q.Type)
	}
	return nil
}

// Question returns the question with the given id.
func (b *Bank) Question(id string) (interview.Question, bool) {
	idx, ok := b.byID[id]
	if !ok {
		return interview.Question{}, false
	}
	return b.questions[idx], true
}

// QuestionsFor returns the questions of phase tagged with difficulty, in catalog order.
func (b *Bank) QuestionsFor(phase interview.Phase, difficulty interview.Difficulty) []interview.Question {
	var out []interview.Question
	for _, q := range b.questions {
		if q.Phase == phase && q.Difficulty == difficulty {
			out = append(out, q)
		}
	}
	return out
}

// Candidates returns every question of phase ordered by tier distance from difficulty,
// then by catalog order. The first entries are the ones QuestionsFor would return.
func (b *Bank) Candidates(phase interview.Phase, difficulty interview.Difficulty) []interview.Question {
	var out []interview.Question
	for _, q := range b.questions {
		if q.Phase == phase {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return distance(out[i].Difficulty, difficulty) < distance(out[j].Difficulty, difficulty)
	})
	return out
}

// Next picks the first question of phase that is not in asked, preferring difficulty.
func (b *Bank) Next(phase interview.Phase, difficulty interview.Difficulty, asked []string) (interview.Question, error) {
	seen := make(map[string]struct{}, len(asked))
	for _, id := range asked {
		seen[id] = struct{}{}
	}
	for _, q := range b.Candidates(phase, difficulty) {
		if _, ok := seen[q.ID]; !ok {
			return q, nil
		}
	}
	return interview.Question{}, fmt.Errorf("select %s question: %w", phase, interview.ErrQuestionBankExhausted)
}

// Count returns how many questions phase owns across all tiers.
func (b *Bank) Count(phase interview.Phase) int {
	n := 0
	for _, q := range b.questions {
		if q.Phase == phase {
			n++
		}
	}
	return n
}

// Validate checks that every phase owns at least the configured number of questions.
func (b *Bank) Validate(counts map[interview.Phase]int) error {
	for _, phase := range interview.Phases {
		want := counts[phase]
		if want < 0 {
			return fmt.Errorf("phase %s: negative question count %d", phase, want)
		}
		if have := b.Count(phase); have < want {
			return fmt.Errorf("phase %s needs %d questions, catalog has %d: %w", phase, want, have, interview.ErrQuestionBankExhausted)
		}
	}
	return nil
}

func distance(a, b interview.Difficulty) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
