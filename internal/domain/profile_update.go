package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ProfileField is the canonical name of an updatable profile attribute
type ProfileField string

const (
	FieldAge               ProfileField = "age"
	FieldGender            ProfileField = "gender"
	FieldHeightCM          ProfileField = "height_cm"
	FieldWeightKG          ProfileField = "weight_kg"
	FieldMedicalConditions ProfileField = "medical_conditions"
	FieldAllergies         ProfileField = "allergies"
)

var fieldAliases = map[string]ProfileField{
	"age":                FieldAge,
	"gender":             FieldGender,
	"height":             FieldHeightCM,
	"height_cm":          FieldHeightCM,
	"heightcm":           FieldHeightCM,
	"weight":             FieldWeightKG,
	"weight_kg":          FieldWeightKG,
	"weightkg":           FieldWeightKG,
	"medical_conditions": FieldMedicalConditions,
	"medicalconditions":  FieldMedicalConditions,
	"conditions":         FieldMedicalConditions,
	"allergies":          FieldAllergies,
}

// CanonicalField resolves a field name or alias
func CanonicalField(name string) (ProfileField, bool) {
	field, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	return field, ok
}

// FieldUpdate is one field assignment. Value is int for age, Gender for gender,
// float64 for height/weight and string for free-text fields.
type FieldUpdate struct {
	Field ProfileField
	Value any
}

// ProfileUpdate is an ordered partial profile. Only listed fields change.
type ProfileUpdate []FieldUpdate

// NewFieldUpdate validates and normalizes a raw value for the named field
func NewFieldUpdate(name string, raw any) (FieldUpdate, error) {
	field, ok := CanonicalField(name)
	if !ok {
		return FieldUpdate{}, fmt.Errorf("unknown profile field %q", name)
	}

	switch field {
	case FieldAge:
		n, err := toNumber(raw)
		if err != nil {
			return FieldUpdate{}, fmt.Errorf("age: %w", err)
		}
		if n < 0 || n != math.Trunc(n) || n > 200 {
			return FieldUpdate{}, fmt.Errorf("age must be a non-negative integer, got %v", raw)
		}
		return FieldUpdate{Field: field, Value: int(n)}, nil

	case FieldGender:
		s, ok := raw.(string)
		if !ok {
			if g, isGender := raw.(Gender); isGender {
				s = string(g)
			} else {
				return FieldUpdate{}, fmt.Errorf("gender must be a string, got %T", raw)
			}
		}
		gender, err := ParseGender(s)
		if err != nil {
			return FieldUpdate{}, err
		}
		return FieldUpdate{Field: field, Value: gender}, nil

	case FieldHeightCM, FieldWeightKG:
		n, err := toNumber(raw)
		if err != nil {
			return FieldUpdate{}, fmt.Errorf("%s: %w", field, err)
		}
		if n < 0 || math.IsInf(n, 0) || math.IsNaN(n) {
			return FieldUpdate{}, fmt.Errorf("%s must be non-negative, got %v", field, raw)
		}
		return FieldUpdate{Field: field, Value: n}, nil

	default:
		switch v := raw.(type) {
		case nil:
			return FieldUpdate{Field: field, Value: ""}, nil
		case string:
			return FieldUpdate{Field: field, Value: strings.TrimSpace(v)}, nil
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			return FieldUpdate{Field: field, Value: strings.Join(parts, ", ")}, nil
		default:
			return FieldUpdate{}, fmt.Errorf("%s must be text, got %T", field, raw)
		}
	}
}

// NumericValue reads a stored update value as a number. Values that went
// through a JSON column come back as float64 or json.Number.
func NumericValue(raw any) (float64, bool) {
	n, err := toNumber(raw)
	return n, err == nil
}

func toNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
}

// Set adds or replaces a field, keeping the position of its first occurrence
func (u ProfileUpdate) Set(fu FieldUpdate) ProfileUpdate {
	for i := range u {
		if u[i].Field == fu.Field {
			u[i].Value = fu.Value
			return u
		}
	}
	return append(u, fu)
}

// Has reports whether the update touches field
func (u ProfileUpdate) Has(field ProfileField) bool {
	for _, fu := range u {
		if fu.Field == field {
			return true
		}
	}
	return false
}

// Apply merges the update into p and returns the result; p is not modified
func (u ProfileUpdate) Apply(p HealthProfile) HealthProfile {
	out := p.Clone()
	for _, fu := range u {
		switch fu.Field {
		case FieldAge:
			age := fu.Value.(int)
			out.Age = &age
		case FieldGender:
			out.Gender = fu.Value.(Gender)
		case FieldHeightCM:
			height := fu.Value.(float64)
			out.HeightCM = &height
		case FieldWeightKG:
			weight := fu.Value.(float64)
			out.WeightKG = &weight
		case FieldMedicalConditions:
			out.MedicalConditions = fu.Value.(string)
		case FieldAllergies:
			out.Allergies = fu.Value.(string)
		}
	}
	return out
}

// Confirmation renders "field: value" pairs in update order
func (u ProfileUpdate) Confirmation() string {
	parts := make([]string, 0, len(u))
	for _, fu := range u {
		parts = append(parts, fmt.Sprintf("%s: %s", fu.Field, FormatValue(fu.Value)))
	}
	return strings.Join(parts, ", ")
}

// FieldNames lists the updated fields in update order, without values
func (u ProfileUpdate) FieldNames() []string {
	names := make([]string, 0, len(u))
	for _, fu := range u {
		names = append(names, string(fu.Field))
	}
	return names
}

// AsMap converts the update into a JSON-friendly map for chat metadata
func (u ProfileUpdate) AsMap() map[string]any {
	out := make(map[string]any, len(u))
	for _, fu := range u {
		if g, ok := fu.Value.(Gender); ok {
			out[string(fu.Field)] = string(g)
			continue
		}
		out[string(fu.Field)] = fu.Value
	}
	return out
}

// FormatValue renders an update value the way confirmations show it
func FormatValue(v any) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case Gender:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// DecodeProfileUpdate decodes a JSON object into an ordered update.
// Fields that fail validation are skipped and reported in rejected.
func DecodeProfileUpdate(data []byte) (update ProfileUpdate, rejected []error, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("read updates: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("updates must be an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("read update key: %w", err)
		}
		key, _ := keyTok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("read update %q: %w", key, err)
		}

		fu, ferr := NewFieldUpdate(key, raw)
		if ferr != nil {
			rejected = append(rejected, ferr)
			continue
		}
		update = update.Set(fu)
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("read updates end: %w", err)
	}
	return update, rejected, nil
}
