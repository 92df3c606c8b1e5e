package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_Valid(t *testing.T) {
	assert.True(t, TypeRenewal.Valid())
	assert.True(t, TypeHardwareRefresh.Valid())
	assert.True(t, TypeServiceAttach.Valid())
	assert.False(t, Type("upsell").Valid())
}

func TestPriority_Rank(t *testing.T) {
	assert.Greater(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, Priority("NOPE").Rank())
}

func TestPriority_Valid(t *testing.T) {
	assert.True(t, PriorityLow.Valid())
	assert.False(t, Priority("").Valid())
}
