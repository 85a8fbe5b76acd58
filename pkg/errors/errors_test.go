package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeSessionExpired, status: http.StatusUnauthorized, publicMsg: "session expired, log in again"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusBadGateway, publicMsg: "pdv api unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		assert.Equal(t, tt.status, meta.HTTPStatus, "status for %s", tt.code)
		assert.Equal(t, tt.publicMsg, meta.PublicMessage, "public message for %s", tt.code)
		assert.Equal(t, tt.retryable, meta.Retryable, "retryable for %s", tt.code)
		assert.Equal(t, tt.detailsOK, meta.DetailsAllowed, "details allowed for %s", tt.code)
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing code")
	assert.Equal(t, CodeValidation, base.Code())
	assert.Equal(t, "missing code", base.Message())
	assert.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "code"})
	assert.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "lookup failed")
	assert.True(t, stdErrors.Is(wrapped, cause))
	assert.Equal(t, CodeDependency, wrapped.Code())
	assert.Contains(t, wrapped.Error(), "boom")

	formatted := Newf(CodeNotFound, "session %s not found", "abc")
	assert.Equal(t, "session abc not found", formatted.Message())
}

func TestAsAndIsCodeFollowTheChain(t *testing.T) {
	err := fmt.Errorf("scan: %w", New(CodeForbidden, "no entry"))

	got := As(err)
	require.NotNil(t, got)
	assert.Equal(t, CodeForbidden, got.Code())
	assert.True(t, IsCode(err, CodeForbidden))
	assert.False(t, IsCode(err, CodeNotFound))
	assert.Nil(t, As(nil))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
}

type fakeUpstream struct{}

func (fakeUpstream) Error() string        { return "upstream said no" }
func (fakeUpstream) UpstreamStatus() int  { return 502 }
func (fakeUpstream) UpstreamPath() string { return "/api/sales" }

func TestDumpCapturesChainAndUpstream(t *testing.T) {
	err := Wrap(CodeDependency, fakeUpstream{}, "submit sale")

	d := Dump(err)
	assert.Equal(t, CodeDependency, d.Code)
	assert.Len(t, d.Chain, 2)
	assert.Equal(t, 502, d.UpstreamStatus)
	assert.Equal(t, "/api/sales", d.UpstreamPath)

	assert.Equal(t, ErrorDump{}, Dump(nil))
}
