package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/pdv-terminal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"username":"ana","password":"x","extra":1}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsMissingFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"username":"ana"}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["password"])
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingData(t *testing.T) {
	var body loginBody
	err := DecodeJSONBody(httptest.NewRequest("POST", "/", nil), &body)
	require.Error(t, err)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"username":"ana","password":"x"}{"username":"bia"}`))
	err = DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=50&bad=x&big=900", nil)

	v, err := ParseQueryInt(req, "limit", 20, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	v, err = ParseQueryInt(req, "missing", 20, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = ParseQueryInt(req, "bad", 20, 1, 500)
	assert.Error(t, err)
	_, err = ParseQueryInt(req, "big", 20, 1, 500)
	assert.Error(t, err)
}

func TestParsePathIndex(t *testing.T) {
	v, err := ParsePathIndex("3", "index")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = ParsePathIndex("-1", "index")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParsePathIndex("x", "index")
	assert.Error(t, err)
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "abc", SanitizeText("  abcdef ", 3))
	assert.Equal(t, "abc", SanitizeText(" abc ", 0))
	assert.Equal(t, "7891000100103", SanitizeText("7891000100103\r\n", MaxCodeLen))
	assert.Equal(t, "Cafe Torrado 500g", SanitizeText("Cafe \t Torrado\x00  500g", 0))
	assert.Equal(t, "Pão", SanitizeText("Pão de queijo", 3))
	assert.Equal(t, "Pão", SanitizeText("Pão de queijo", 4), "a trailing space is never kept")
}

func TestSanitizeOptional(t *testing.T) {
	assert.Nil(t, SanitizeOptional(nil, 10))
	blank := "  \t "
	assert.Nil(t, SanitizeOptional(&blank, 10))
	name := "  Maria  Silva "
	got := SanitizeOptional(&name, 0)
	require.NotNil(t, got)
	assert.Equal(t, "Maria Silva", *got)
}
