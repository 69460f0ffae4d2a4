package factories

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/jaswdr/faker"
)

// AgentFactory mints the roster of a run. Ids are numbered per kind in roster
// order; display names come from a seeded faker so replays match.
type AgentFactory struct {
	fake   faker.Faker
	counts map[string]int
}

func NewAgentFactory(seed int64) *AgentFactory {
	return &AgentFactory{
		fake:   faker.NewWithSeed(rand.NewSource(seed)),
		counts: make(map[string]int),
	}
}

func (af *AgentFactory) CreateAgent(cfg models.AgentConfig, activateAt time.Time) *models.Agent {
	af.counts[cfg.Kind]++
	return &models.Agent{
		ID:             fmt.Sprintf("%s_%d", cfg.Kind, af.counts[cfg.Kind]),
		Kind:           cfg.Kind,
		Name:           af.fake.Person().FirstName(),
		Speed:          cfg.Speed,
		ZoneID:         models.ClubhouseZoneID,
		Status:         models.AgentStatusOffShift,
		ActivateAt:     activateAt,
		LastUpdateTime: activateAt,
	}
}

// CreateRoster expands every agent entry of the scenario in configuration order.
func (af *AgentFactory) CreateRoster(config *models.Config) []*models.Agent {
	var agents []*models.Agent
	for _, ac := range config.Agents {
		for i := 0; i < ac.Count; i++ {
			agents = append(agents, af.CreateAgent(ac, config.ShiftStart.Add(ac.StartAfter)))
		}
	}
	return agents
}
