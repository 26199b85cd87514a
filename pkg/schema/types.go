package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Type defines the contract for field validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// ScalarType accepts strings, numbers and booleans.
type ScalarType struct{}

func (t *ScalarType) Name() string { return "scalar" }

func (t *ScalarType) Validate(value any) error {
	switch value.(type) {
	case string, bool:
		return nil
	}
	if _, ok := toFloat(value); ok {
		return nil
	}
	return fmt.Errorf("expected scalar, got %T", value)
}

// Bound restricts a numeric value.
type Bound func(float64) error

// Min rejects values below lo.
func Min(lo float64) Bound {
	return func(v float64) error {
		if v < lo {
			return fmt.Errorf("must be >= %g", lo)
		}
		return nil
	}
}

// Max rejects values above hi.
func Max(hi float64) Bound {
	return func(v float64) error {
		if v > hi {
			return fmt.Errorf("must be <= %g", hi)
		}
		return nil
	}
}

// NumberType validates numeric values, optionally requiring whole numbers.
type NumberType struct {
	whole  bool
	bounds []Bound
}

func (t *NumberType) Name() string {
	if t.whole {
		return "int"
	}
	return "float"
}

func (t *NumberType) Validate(value any) error {
	f, ok := toFloat(value)
	if !ok {
		return fmt.Errorf("expected %s, got %T", t.Name(), value)
	}
	if t.whole && f != math.Trunc(f) {
		return fmt.Errorf("expected int, got float (not a whole number)")
	}
	for _, b := range t.bounds {
		if err := b(f); err != nil {
			return err
		}
	}
	return nil
}

// EnumType validates strings against a fixed set.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enum(" + strings.Join(t.values, "|") + ")" }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	for _, v := range t.values {
		if v == s {
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(t.values, ", "))
}

// RequiredType marks a field as mandatory.
type RequiredType struct {
	Type
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Scalar creates a validator accepting any string, number or boolean.
func Scalar() Type { return &ScalarType{} }

// Int creates a whole-number validator.
func Int(bounds ...Bound) Type { return &NumberType{whole: true, bounds: bounds} }

// Float creates a numeric validator.
func Float(bounds ...Bound) Type { return &NumberType{bounds: bounds} }

// Enum creates a validator for a fixed set of strings.
func Enum(values ...string) Type { return &EnumType{values: values} }

// Required makes a field mandatory.
func Required(t Type) Type { return &RequiredType{Type: t} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
