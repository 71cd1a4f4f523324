package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-coach/internal/interview"
)

func TestStore(t *testing.T) {
	t.Parallel()

	deps := testDeps(t, fixedEvaluator{}, nil)
	store := NewStore()

	_, err := store.Get("b")
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)

	for _, id := range []string{"b", "a"} {
		c, err := NewController(id, DefaultConfig(), deps)
		require.NoError(t, err)
		_, added := store.Add(c)
		assert.True(t, added)
	}

	dup, err := NewController("a", DefaultConfig(), deps)
	require.NoError(t, err)
	existing, added := store.Add(dup)
	assert.False(t, added)
	assert.NotSame(t, dup, existing)

	assert.Equal(t, []string{"a", "b"}, store.IDs())
	store.Delete("a")
	assert.Equal(t, 1, store.Len())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Questions.Intro = 0
	cfg.DefaultDifficulty = "guru"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interview.questions.intro")
	assert.Contains(t, err.Error(), "default-difficulty")

	cfg = DefaultConfig()
	cfg.DefaultDifficulty = "Basic"
	d, err := cfg.StartDifficulty()
	require.NoError(t, err)
	assert.Equal(t, interview.Beginner, d)
}
