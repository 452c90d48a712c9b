package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "asha@gmail.com", NormalizeEmail("  Asha@Gmail.COM "))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("asha@gmail.com"))
	for _, bad := range []string{"", "asha", "asha@", "@gmail.com", "asha@gmail"} {
		assert.ErrorIsf(t, ValidateEmail(bad), ErrValidation, "email %q", bad)
	}
}

func TestIsIIITEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"asha@iiit.ac.in", true},
		{"asha@students.iiit.ac.in", true},
		{"Asha@Research.IIIT.AC.IN", true},
		{"asha@gmail.com", false},
		{"asha@iiit.ac.in.evil.com", false},
		{"asha@notiiit.ac.in", false},
	}
	for _, tc := range tests {
		assert.Equalf(t, tc.want, IsIIITEmail(tc.email), "email %q", tc.email)
	}
}
