package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
scenario: unit
seed: 7
shift_start: "2025-06-14T07:00:00Z"
shift_duration: 4h
course:
  clubhouse: { lat: 40.0, lon: -75.0 }
  zones:
    - id: 1
      location: { lat: 40.001, lon: -75.0 }
      blocked:
        - { start: 1h, end: 1h30m }
    - { id: 2, location: { lat: 40.002, lon: -75.0 } }
agents:
  - { kind: cart, count: 1 }
  - { kind: runner, count: 2, speed: 2.5, start_after: 1h }
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigAppliesDefaultsAndDecodes(t *testing.T) {
	cfg, err := LoadConfigWith(viper.New(), writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "unit", cfg.Scenario)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 1, cfg.Runs)
	assert.Equal(t, time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC), cfg.ShiftStart.UTC())
	assert.Equal(t, 4*time.Hour, cfg.ShiftDuration)
	assert.Equal(t, 20*time.Minute, cfg.SLA)
	assert.Equal(t, BlockedPolicyDefer, cfg.BlockedPolicy)
	assert.Equal(t, ArrivalProcessPoisson, cfg.Arrivals.Process)
	assert.Equal(t, []float64{0.7, 0.2, 0.1}, cfg.Arrivals.GroupSizeWeights)
	assert.Equal(t, 3*time.Minute, cfg.Service.LoadTime)

	require.Len(t, cfg.Course.Zones, 2)
	require.Len(t, cfg.Course.Zones[0].Blocked, 1)
	assert.Equal(t, 90*time.Minute, cfg.Course.Zones[0].Blocked[0].End)

	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, DefaultSpeeds[AgentKindCart], cfg.Agents[0].Speed)
	assert.Equal(t, 2.5, cfg.Agents[1].Speed)
	assert.Equal(t, time.Hour, cfg.Agents[1].StartAfter)
	assert.Equal(t, 3, cfg.TotalAgents())
	assert.Equal(t, shiftStartPlus(4*time.Hour), cfg.ShiftEnd().UTC())
}

func shiftStartPlus(d time.Duration) time.Time {
	return time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC).Add(d)
}

func TestLoadConfigRejectsInvalidScenario(t *testing.T) {
	body := scenarioYAML + "blocked_policy: maybe\n"
	_, err := LoadConfigWith(viper.New(), writeScenario(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked_policy")
}

func validConfig() *Config {
	return &Config{
		Scenario:      "valid",
		Runs:          1,
		ShiftStart:    shiftStartPlus(0),
		ShiftDuration: 8 * time.Hour,
		SLA:           20 * time.Minute,
		QueueTimeout:  30 * time.Minute,
		BlockedPolicy: BlockedPolicyDefer,
		Course: CourseConfig{
			Zones: []ZoneConfig{{ID: 1}, {ID: 2}},
		},
		Agents: []AgentConfig{{Kind: AgentKindCart, Count: 1, Speed: 4}},
		Arrivals: ArrivalConfig{
			Process:          ArrivalProcessPoisson,
			GroupsPerHour:    2,
			GroupSizeWeights: []float64{1},
		},
		Money: MoneyConfig{OrderValue: ValueDistribution{Mean: 12, Min: 4, Max: 40}},
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Agents = nil
	cfg.SLA = -time.Minute
	cfg.Course.Distances = []DistanceConfig{{From: 1, To: 42, Meters: 10}}
	cfg.Arrivals.Process = ArrivalProcessSchedule
	cfg.Arrivals.Schedule = []ScheduledArrival{{At: time.Minute, Zone: 9, Orders: 1}}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "at least one agent")
	assert.Contains(t, msg, "sla")
	assert.Contains(t, msg, "1->42")
	assert.Contains(t, msg, "unknown zone 9")
}

func TestCloneDoesNotAliasSlices(t *testing.T) {
	cfg := validConfig()
	clone := cfg.Clone()
	clone.Agents[0].Count = 5
	clone.Course.Zones[0].ID = 99
	clone.Arrivals.GroupSizeWeights[0] = 0.5

	assert.Equal(t, 1, cfg.Agents[0].Count)
	assert.Equal(t, 1, cfg.Course.Zones[0].ID)
	assert.Equal(t, 1.0, cfg.Arrivals.GroupSizeWeights[0])
}

func TestMeanGroupSize(t *testing.T) {
	cfg := validConfig()
	cfg.Arrivals.GroupSizeWeights = []float64{0.5, 0.5}
	assert.InDelta(t, 1.5, cfg.MeanGroupSize(), 1e-9)
}
