package vaulterrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSecurityCritical(t *testing.T) {
	assert.True(t, IsSecurityCritical(ErrAuthFailed))
	assert.True(t, IsSecurityCritical(fmt.Errorf("wrap: %w", ErrHMACVerification)))
	assert.False(t, IsSecurityCritical(ErrVaultNotFound))
}

func TestRequiresLockdown(t *testing.T) {
	assert.True(t, RequiresLockdown(ErrVaultCorrupted))
	assert.True(t, RequiresLockdown(ErrHMACVerification))
	assert.False(t, RequiresLockdown(ErrAuthFailed))
}
