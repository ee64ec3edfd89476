package user

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyUniqueViolation(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23505",
		Constraint: "users_email_lower_unique",
	}

	err := classify(fmt.Errorf("insert: %w", pqErr))
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.Contains(t, err.Error(), "users_email_lower_unique")
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	cause := errors.New("connection refused")
	assert.Equal(t, cause, classify(cause))

	pqErr := &pq.Error{Code: "40001"} // serialization_failure
	assert.NotErrorIs(t, classify(pqErr), ErrUniqueViolation)
}
