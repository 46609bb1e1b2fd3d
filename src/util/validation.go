package util

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"
)

// FieldError is one entry of a validation failure response.
type FieldError struct {
	Type     string      `json:"type"`
	Value    interface{} `json:"value"`
	Msg      string      `json:"msg"`
	Path     string      `json:"path"`
	Location string      `json:"location"`
}

type Field struct {
	location string
	path     string
	value    interface{}
	rules    []validation.Rule
}

func Body(path string, value interface{}, rules ...validation.Rule) Field {
	return Field{location: "body", path: path, value: value, rules: rules}
}

func Param(path string, value interface{}, rules ...validation.Rule) Field {
	return Field{location: "params", path: path, value: value, rules: rules}
}

// Check runs every rule of every field and collects all failures, so a
// single field may contribute several entries.
func Check(fields ...Field) []FieldError {
	var errs []FieldError
	for _, f := range fields {
		for _, rule := range f.rules {
			if err := rule.Validate(f.value); err != nil {
				errs = append(errs, FieldError{
					Type:     "field",
					Value:    f.value,
					Msg:      err.Error(),
					Path:     f.path,
					Location: f.location,
				})
			}
		}
	}
	return errs
}

func Required(msg string) validation.Rule {
	return validation.Required.Error(msg)
}

func Email(msg string) validation.Rule {
	return strict(is.Email, msg)
}

func MinLength(n int, msg string) validation.Rule {
	return strict(validation.Length(n, 0), msg)
}

func ExactLength(n int, msg string) validation.Rule {
	return strict(validation.Length(n, n), msg)
}

func IsInt(msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return errors.New(msg)
		}
		return nil
	})
}

func Numeric(msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		if _, ok := ToDecimal(value); !ok {
			return errors.New(msg)
		}
		return nil
	})
}

func Positive(msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		d, ok := ToDecimal(value)
		if !ok || !d.IsPositive() {
			return errors.New(msg)
		}
		return nil
	})
}

// strict fails on empty values too; ozzo's built-in rules skip them.
func strict(rule validation.Rule, msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		if validation.IsEmpty(value) || rule.Validate(value) != nil {
			return errors.New(msg)
		}
		return nil
	})
}

// ToDecimal converts a decoded JSON value or a path segment into a decimal.
func ToDecimal(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Decimal{}, false
}

// ParseID parses a path identifier already accepted by IsInt and Positive.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}

// DecodeJSON decodes a request body into dst. An empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// InvalidBody is the validation failure reported for undecodable JSON.
func InvalidBody() []FieldError {
	return []FieldError{{Type: "field", Msg: "invalid request body", Path: "", Location: "body"}}
}
