package simulator

import (
	"testing"
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectAgentPicksNearestIdle(t *testing.T) {
	course := newTestCourse(t, nil)

	agents := []AgentSnapshot{
		{ID: "cart_1", Kind: models.AgentKindCart, ZoneID: 3, Idle: true},
		{ID: "cart_2", Kind: models.AgentKindCart, ZoneID: 2, Idle: true},
		{ID: "cart_3", Kind: models.AgentKindCart, ZoneID: 1, Idle: false},
	}
	id, ok := SelectAgent(agents, 1, course)
	require.True(t, ok)
	assert.Equal(t, "cart_2", id, "busy agents are skipped even when closer")
}

func TestSelectAgentBreaksTiesByRosterOrder(t *testing.T) {
	course := newTestCourse(t, nil)

	agents := []AgentSnapshot{
		{ID: "cart_2", Kind: models.AgentKindCart, ZoneID: 1, Idle: true},
		{ID: "cart_1", Kind: models.AgentKindCart, ZoneID: 3, Idle: true},
	}
	id, ok := SelectAgent(agents, 2, course)
	require.True(t, ok)
	assert.Equal(t, "cart_2", id)
}

func TestSelectAgentMeasuresRunnersThroughTheClubhouse(t *testing.T) {
	course := newTestCourse(t, nil)

	runner := AgentSnapshot{ID: "runner_1", Kind: models.AgentKindRunner, ZoneID: 3, Idle: true}
	assert.Equal(t, 1800.0+1200.0, ApproachDistance(runner, 2, course))

	// A cart at hole 3 is 600 m from hole 2; a runner at the clubhouse needs 1200 m.
	agents := []AgentSnapshot{
		{ID: "runner_1", Kind: models.AgentKindRunner, ZoneID: models.ClubhouseZoneID, Idle: true},
		{ID: "cart_1", Kind: models.AgentKindCart, ZoneID: 3, Idle: true},
	}
	id, ok := SelectAgent(agents, 2, course)
	require.True(t, ok)
	assert.Equal(t, "cart_1", id)
}

func TestSelectAgentWithoutIdleAgents(t *testing.T) {
	course := newTestCourse(t, nil)
	_, ok := SelectAgent([]AgentSnapshot{{ID: "cart_1", Kind: models.AgentKindCart}}, 1, course)
	assert.False(t, ok)
	_, ok = SelectAgent(nil, 1, course)
	assert.False(t, ok)
}

func TestNextServableSkipsBlockedZones(t *testing.T) {
	course := newTestCourse(t, map[int][]models.WindowConfig{
		1: {{Start: 0, End: 30 * time.Minute}},
	})
	queue := []QueuedGroup{{ID: "grp_0001", ZoneID: 1}, {ID: "grp_0002", ZoneID: 2}, {ID: "grp_0003", ZoneID: 1}}

	idx, ok := NextServable(queue, testShiftStart.Add(10*time.Minute), course)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = NextServable(queue, testShiftStart.Add(30*time.Minute), course)
	require.True(t, ok)
	assert.Equal(t, 0, idx, "FIFO once the window has closed")

	_, ok = NextServable(queue[:1], testShiftStart, course)
	assert.False(t, ok)
}
