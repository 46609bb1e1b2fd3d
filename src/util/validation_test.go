package util

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_RunsEveryRule(t *testing.T) {
	errs := Check(
		Body("email", "", Required("email is required"), Email("invalid email")),
		Body("password", "", Required("password is required"), MinLength(8, "too short")),
	)

	require.Len(t, errs, 4)
	assert.Equal(t, "email is required", errs[0].Msg)
	assert.Equal(t, "invalid email", errs[1].Msg)
	assert.Equal(t, "password", errs[2].Path)
	assert.Equal(t, "body", errs[3].Location)
}

func TestCheck_ValidInput(t *testing.T) {
	errs := Check(
		Body("email", "test@test.com", Required("required"), Email("invalid email")),
		Body("password", "password", Required("required"), MinLength(8, "too short")),
		Body("token", "123456", Required("required"), ExactLength(6, "invalid token")),
	)
	assert.Empty(t, errs)
}

func TestCheck_IDRules(t *testing.T) {
	rules := func(raw string) []FieldError {
		return Check(Param("budgetId", raw, IsInt("invalid id"), Positive("invalid id")))
	}

	assert.Len(t, rules("abc"), 2)
	assert.Len(t, rules("-1"), 1)
	assert.Len(t, rules("0"), 1)
	assert.Len(t, rules("1.5"), 1)
	assert.Empty(t, rules("12"))
	assert.Equal(t, "params", rules("abc")[0].Location)
}

func TestCheck_AmountRules(t *testing.T) {
	rules := func(v interface{}) []FieldError {
		return Check(Body("amount", v, Required("required"), Numeric("not numeric"), Positive("must be positive")))
	}

	assert.Len(t, rules(nil), 3)
	assert.Len(t, rules("abc"), 2)
	assert.Len(t, rules(json.Number("0")), 1)
	assert.Len(t, rules(json.Number("-4")), 1)
	assert.Empty(t, rules(json.Number("250.50")))
	assert.Empty(t, rules("100"))
}

func TestExactLength(t *testing.T) {
	assert.Len(t, Check(Body("token", "12345", ExactLength(6, "bad"))), 1)
	assert.Len(t, Check(Body("token", "1234567", ExactLength(6, "bad"))), 1)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name   string      `json:"name"`
		Amount interface{} `json:"amount"`
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Food","amount":12.5}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "Food", dst.Name)
	assert.Equal(t, json.Number("12.5"), dst.Amount)

	empty := httptest.NewRequest("POST", "/", nil)
	assert.NoError(t, DecodeJSON(empty, &dst))

	broken := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	assert.Error(t, DecodeJSON(broken, &dst))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("15")
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	_, err = ParseID("0")
	assert.Error(t, err)
	_, err = ParseID("x")
	assert.Error(t, err)
}

func TestFieldError_AlwaysCarriesValue(t *testing.T) {
	errs := Check(Body("name", "", Required("name is required")))
	require.Len(t, errs, 1)

	raw, err := json.Marshal(errs[0])
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "value")
	assert.Equal(t, "", decoded["value"])
}
