package customerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomErrors_HTTPCodes(t *testing.T) {
	testCases := []struct {
		name string
		err  CustomError
		code int
	}{
		{name: "unique violation", err: NewUniqueViolationError("dup"), code: http.StatusConflict},
		{name: "pg error", err: NewCommonPGError("boom"), code: http.StatusInternalServerError},
		{name: "not found", err: NewNotFoundError("Order not found"), code: http.StatusNotFound},
		{name: "forbidden", err: NewForbiddenError("Not your order"), code: http.StatusForbidden},
		{name: "gateway", err: NewGatewayError("down"), code: http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.GetHTTPCode())
			assert.NotEmpty(t, tc.err.Error())
		})
	}
}

func TestSettlementError_KindAndUnwrap(t *testing.T) {
	err := fmt.Errorf("initiate: %w", NewSettlementError(PolicyViolation, ErrAttemptInProgress))

	assert.Equal(t, PolicyViolation, KindOf(err))
	assert.True(t, errors.Is(err, ErrAttemptInProgress))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestUserMessage_TimeoutPointsToSupport(t *testing.T) {
	assert.Contains(t, UserMessage(VerificationTimeout), "contact support")
	assert.NotEqual(t, UserMessage(VerificationTimeout), UserMessage(VerificationFailed))
}
