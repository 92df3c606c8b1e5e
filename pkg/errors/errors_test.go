package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeLeadNotFound, "lead not found")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeLeadNotFound, err.Code)
	assert.Equal(t, "[LEAD_001] lead not found", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWithDetail(t *testing.T) {
	err := NotFound("account not found").WithDetail("id=ACME-001")
	assert.Equal(t, "[COMMON_003] account not found: id=ACME-001", err.Error())

	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("x"))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "query failed"))

	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "query failed")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeDatabaseError, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_PreservesDomainCode(t *testing.T) {
	inner := New(ErrCodeAccountNotFound, "account missing")
	outer := Wrap(inner, ErrCodeInternal, "propensity scoring failed")
	assert.Equal(t, ErrCodeAccountNotFound, outer.Code)
}

func TestWrap_ExplicitCodeWins(t *testing.T) {
	inner := New(ErrCodeAccountNotFound, "account missing")
	outer := Wrap(inner, ErrCodeBatchReplaceFailed, "replace aborted")
	assert.Equal(t, ErrCodeBatchReplaceFailed, outer.Code)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(ErrCodeWeightsNotNormalized, "weights sum to 0.9"))
	assert.True(t, IsCode(err, ErrCodeWeightsNotNormalized))
	assert.False(t, IsCode(err, ErrCodeThresholdsNotOrdered))
	assert.False(t, IsCode(nil, ErrCodeInternal))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeLeadNotFound, "x")))
	assert.True(t, IsNotFound(New(ErrCodeAccountNotFound, "x")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsNotFound(New(ErrCodeCatalogEmpty, "x")))
	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeConfigInvalid, GetCode(InvalidConfig("bad weights")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrCodeLeadNotFound.HTTPStatus())
	assert.Equal(t, http.StatusConflict, ErrCodeRunAlreadyActive.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("NOPE_999").HTTPStatus())
}

func TestIsFatalConfig(t *testing.T) {
	assert.True(t, ErrCodeWeightsNotNormalized.IsFatalConfig())
	assert.True(t, ErrCodeThresholdsNotOrdered.IsFatalConfig())
	assert.False(t, ErrCodeLeadNotFound.IsFatalConfig())
}
