package model

import (
	"fmt"
	"strings"
)

// FieldType enumerates the supported registration form field types.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldRadio    FieldType = "radio"
	FieldDate     FieldType = "date"
)

// FormField describes one question on an event's registration form.
type FormField struct {
	FieldName   string    `json:"field_name"`
	FieldType   FieldType `json:"field_type"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
}

// Answer pairs a form field label with the participant's response.
type Answer struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// needsOptions reports whether the field type requires an options list.
func (t FieldType) needsOptions() bool {
	return t == FieldSelect || t == FieldCheckbox || t == FieldRadio
}

// ValidateFormFields checks a form schema at event-creation time.
// Missing field names are derived from the label.
func ValidateFormFields(fields []FormField) error {
	for i := range fields {
		f := &fields[i]
		if f.Label == "" || f.FieldType == "" {
			return fmt.Errorf("%w: each form field must have a label and field type", ErrValidation)
		}
		switch f.FieldType {
		case FieldText, FieldEmail, FieldNumber, FieldTextarea, FieldSelect, FieldCheckbox, FieldRadio, FieldDate:
		default:
			return fmt.Errorf("%w: unknown field type %q", ErrValidation, f.FieldType)
		}
		if f.FieldType.needsOptions() && len(f.Options) == 0 {
			return fmt.Errorf("%w: field %q requires options", ErrValidation, f.Label)
		}
		if f.FieldName == "" {
			f.FieldName = slugify(f.Label)
		}
	}
	return nil
}

// ValidateAnswers verifies that every required field has a non-empty
// answer matched by label.
func ValidateAnswers(fields []FormField, answers []Answer) error {
	byLabel := make(map[string]string, len(answers))
	for _, a := range answers {
		byLabel[a.Label] = a.Value
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(byLabel[f.Label]) == "" {
			return fmt.Errorf("%w: please answer %q", ErrValidation, f.Label)
		}
	}
	return nil
}

func slugify(label string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
