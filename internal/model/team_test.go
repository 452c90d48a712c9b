package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTeamCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := NewTeamCode()
		assert.Len(t, code, TeamCodeLength)
		for _, r := range code {
			assert.Truef(t, strings.ContainsRune(teamCodeAlphabet, r), "unexpected rune %q in %s", r, code)
		}
		seen[code] = true
	}
	// 36^6 candidates; 1000 draws colliding would point at a broken
	// generator, not bad luck.
	assert.Greater(t, len(seen), 990)
}

func TestTeamHasMember(t *testing.T) {
	team := &Team{Members: []string{"a", "b"}}
	assert.True(t, team.HasMember("a"))
	assert.True(t, team.HasMember("b"))
	assert.False(t, team.HasMember("c"))
}
