package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, uint32(5), c.MaxFailedAttempts)
}

func TestValidatePassword(t *testing.T) {
	c := DefaultConfig()

	assert.NotEmpty(t, c.ValidatePassword("abc"))
	assert.NotEmpty(t, c.ValidatePassword("abcdefgh"))
	assert.Empty(t, c.ValidatePassword("abcdefgh1"))
}

func TestValidatePassword_RequireSpecial(t *testing.T) {
	c := HighSecurityConfig()

	assert.NotEmpty(t, c.ValidatePassword("abcdefgh12345678"))
	assert.Empty(t, c.ValidatePassword("abcdefgh12345678!"))
}

func TestThreatLevelFromScore(t *testing.T) {
	assert.Equal(t, ThreatNormal, ThreatLevelFromScore(10))
	assert.Equal(t, ThreatElevated, ThreatLevelFromScore(30))
	assert.Equal(t, ThreatHigh, ThreatLevelFromScore(60))
	assert.Equal(t, ThreatCritical, ThreatLevelFromScore(90))
}

func TestIsAllowedHour(t *testing.T) {
	c := DefaultConfig()
	assert.True(t, c.IsAllowedHour(3))

	c.AllowedHours = []int{9, 10, 11, 12, 13, 14, 15, 16, 17}
	assert.False(t, c.IsAllowedHour(3))
	assert.True(t, c.IsAllowedHour(10))
}

func TestAutoTuneArgon2(t *testing.T) {
	timeCost, memKiB, par := AutoTuneArgon2(8, 16000)

	assert.Equal(t, uint8(4), par)
	assert.GreaterOrEqual(t, memKiB, uint32(16*1024))
	assert.LessOrEqual(t, memKiB, uint32(512*1024))
	assert.Positive(t, timeCost)
}
