package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from InstanceStatus
		to   InstanceStatus
		want bool
	}{
		{InstanceStatusScheduled, InstanceStatusOngoing, true},
		{InstanceStatusScheduled, InstanceStatusCancelled, true},
		{InstanceStatusOngoing, InstanceStatusCompleted, true},

		{InstanceStatusScheduled, InstanceStatusCompleted, false},
		{InstanceStatusOngoing, InstanceStatusCancelled, false}, // идущее занятие не отменяется
		{InstanceStatusOngoing, InstanceStatusScheduled, false},
		{InstanceStatusCompleted, InstanceStatusOngoing, false},
		{InstanceStatusCompleted, InstanceStatusScheduled, false},
		{InstanceStatusCancelled, InstanceStatusScheduled, false},
		{InstanceStatusCancelled, InstanceStatusOngoing, false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestInstanceIsFull(t *testing.T) {
	inst := &ClassInstance{Capacity: 2, RegisteredIDs: []int64{10}}
	assert.False(t, inst.IsFull())

	inst.RegisteredIDs = append(inst.RegisteredIDs, 11)
	assert.True(t, inst.IsFull())
}
