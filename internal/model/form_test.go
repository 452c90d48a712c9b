package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFormFields(t *testing.T) {
	t.Run("derives field name from label", func(t *testing.T) {
		fields := []FormField{{Label: "Roll Number (IIIT)", FieldType: FieldText}}
		require.NoError(t, ValidateFormFields(fields))
		assert.Equal(t, "roll_number_iiit", fields[0].FieldName)
	})

	t.Run("keeps explicit field name", func(t *testing.T) {
		fields := []FormField{{Label: "Roll Number", FieldName: "roll", FieldType: FieldText}}
		require.NoError(t, ValidateFormFields(fields))
		assert.Equal(t, "roll", fields[0].FieldName)
	})

	t.Run("rejects missing label", func(t *testing.T) {
		err := ValidateFormFields([]FormField{{FieldType: FieldText}})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		err := ValidateFormFields([]FormField{{Label: "X", FieldType: "slider"}})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("choice fields need options", func(t *testing.T) {
		for _, ft := range []FieldType{FieldSelect, FieldCheckbox, FieldRadio} {
			err := ValidateFormFields([]FormField{{Label: "Pick", FieldType: ft}})
			assert.ErrorIsf(t, err, ErrValidation, "type %s", ft)

			err = ValidateFormFields([]FormField{{Label: "Pick", FieldType: ft, Options: []string{"a", "b"}}})
			assert.NoErrorf(t, err, "type %s", ft)
		}
	})
}

func TestValidateAnswers(t *testing.T) {
	fields := []FormField{
		{Label: "Roll Number", FieldName: "roll_number", FieldType: FieldText, Required: true},
		{Label: "Dietary Notes", FieldName: "dietary_notes", FieldType: FieldTextarea},
	}

	assert.NoError(t, ValidateAnswers(fields, []Answer{{Label: "Roll Number", Value: "2023101042"}}))

	// Optional fields may be omitted; required ones may not.
	assert.ErrorIs(t, ValidateAnswers(fields, nil), ErrValidation)
	assert.ErrorIs(t, ValidateAnswers(fields, []Answer{{Label: "Dietary Notes", Value: "vegan"}}), ErrValidation)

	// Whitespace does not satisfy a required field.
	assert.ErrorIs(t, ValidateAnswers(fields, []Answer{{Label: "Roll Number", Value: "   "}}), ErrValidation)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Roll Number", "roll_number"},
		{"  T-Shirt  Size!  ", "t_shirt_size"},
		{"Phone", "phone"},
		{"???", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.out, slugify(tc.in), tc.in)
	}
}
