package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleMatch() *SwapMatch {
	return &SwapMatch{
		ID:         "m1",
		StudentAID: "s1",
		StudentBID: "s2",
		CourseAID:  "course-a",
		CourseBID:  "course-b",
	}
}

func TestSwapMatchSideOf(t *testing.T) {
	m := sampleMatch()

	side, ok := m.SideOf("s1")
	assert.True(t, ok)
	assert.Equal(t, MatchSideA, side)

	side, ok = m.SideOf("s2")
	assert.True(t, ok)
	assert.Equal(t, MatchSideB, side)

	_, ok = m.SideOf("stranger")
	assert.False(t, ok)
}

func TestSwapMatchCounterpartID(t *testing.T) {
	m := sampleMatch()
	assert.Equal(t, "s2", m.CounterpartID(MatchSideA))
	assert.Equal(t, "s1", m.CounterpartID(MatchSideB))
}

func TestSwapMatchCourseDirections(t *testing.T) {
	m := sampleMatch()
	assert.Equal(t, "course-a", m.GivenCourseID(MatchSideA))
	assert.Equal(t, "course-b", m.ReceivedCourseID(MatchSideA))
	assert.Equal(t, "course-b", m.GivenCourseID(MatchSideB))
	assert.Equal(t, "course-a", m.ReceivedCourseID(MatchSideB))
}

func TestSwapMatchConfirmationFlags(t *testing.T) {
	m := sampleMatch()
	assert.False(t, m.ConfirmedBy(MatchSideA))
	m.AConfirmed = true
	assert.True(t, m.ConfirmedBy(MatchSideA))
	assert.False(t, m.ConfirmedBy(MatchSideB))

	m.BCompleted = true
	assert.True(t, m.CompletedBy(MatchSideB))
	assert.False(t, m.CompletedBy(MatchSideA))
}
