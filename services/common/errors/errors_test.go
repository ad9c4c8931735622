package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := Conflict("order %s already cancelled", "abc")

	assert.True(t, stderrors.Is(err, ErrConflict))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusConflict, err.Code)
	assert.Equal(t, "order abc already cancelled", err.Error())
}

func TestIs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("cancel: %w", NotFound("order not found"))

	assert.True(t, stderrors.Is(wrapped, ErrNotFound))
	assert.Equal(t, http.StatusNotFound, As(wrapped).Code)
}

func TestAs_FallsBackToInternal(t *testing.T) {
	appErr := As(stderrors.New("boom"))

	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Contains(t, appErr.Error(), "boom")
}

func TestDependency_KeepsCause(t *testing.T) {
	cause := stderrors.New("smtp down")
	err := Dependency("failed to send delivery OTP", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, stderrors.Is(err, ErrDependency))
}

func TestErrorMiddleware_RendersAttachedError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(Validation("quantity must be at least 1"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quantity must be at least 1")
}
