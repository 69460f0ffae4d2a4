package models

import (
	"fmt"
	"sort"
	"time"
)

// BlockedWindow is a half-open interval [Start, End) during which a zone cannot be served.
type BlockedWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w BlockedWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

type Zone struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Location Location        `json:"location"`
	Weight   float64         `json:"weight"`
	Blocked  []BlockedWindow `json:"blocked,omitempty"`
}

type zonePair struct {
	from int
	to   int
}

// Course is the static geography of a run. It is immutable once built.
type Course struct {
	Name      string
	clubhouse Zone
	zones     []Zone
	index     map[int]int
	distances map[zonePair]float64
}

// NewCourse builds the course for a shift starting at shiftStart. Blocked window
// offsets in the configuration are relative to the shift start.
func NewCourse(cfg CourseConfig, shiftStart time.Time) (*Course, error) {
	c := &Course{
		Name: cfg.Name,
		clubhouse: Zone{
			ID:       ClubhouseZoneID,
			Name:     "Clubhouse",
			Location: cfg.Clubhouse,
		},
		index:     make(map[int]int, len(cfg.Zones)),
		distances: make(map[zonePair]float64, len(cfg.Distances)),
	}

	zones := append([]ZoneConfig(nil), cfg.Zones...)
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].ID < zones[j].ID })

	for _, zc := range zones {
		if zc.ID <= ClubhouseZoneID {
			return nil, fmt.Errorf("zone id %d: must be positive", zc.ID)
		}
		if _, dup := c.index[zc.ID]; dup {
			return nil, fmt.Errorf("zone id %d: duplicate", zc.ID)
		}
		name := zc.Name
		if name == "" {
			name = fmt.Sprintf("Hole %d", zc.ID)
		}
		weight := zc.Weight
		if weight == 0 {
			weight = 1
		}
		zone := Zone{
			ID:       zc.ID,
			Name:     name,
			Location: zc.Location,
			Weight:   weight,
		}
		for _, wc := range zc.Blocked {
			zone.Blocked = append(zone.Blocked, BlockedWindow{
				Start: shiftStart.Add(wc.Start),
				End:   shiftStart.Add(wc.End),
			})
		}
		sort.Slice(zone.Blocked, func(i, j int) bool { return zone.Blocked[i].Start.Before(zone.Blocked[j].Start) })
		c.index[zc.ID] = len(c.zones)
		c.zones = append(c.zones, zone)
	}

	for _, dc := range cfg.Distances {
		if !c.HasZone(dc.From) || !c.HasZone(dc.To) {
			return nil, fmt.Errorf("distance %d->%d: unknown zone", dc.From, dc.To)
		}
		if dc.Meters < 0 {
			return nil, fmt.Errorf("distance %d->%d: negative meters", dc.From, dc.To)
		}
		c.distances[zonePair{dc.From, dc.To}] = dc.Meters
		if _, ok := c.distances[zonePair{dc.To, dc.From}]; !ok {
			c.distances[zonePair{dc.To, dc.From}] = dc.Meters
		}
	}

	return c, nil
}

// Zones returns the playable zones ordered by id.
func (c *Course) Zones() []Zone {
	return append([]Zone(nil), c.zones...)
}

// Zone resolves a zone id; id 0 resolves to the clubhouse.
func (c *Course) Zone(id int) (Zone, bool) {
	if id == ClubhouseZoneID {
		return c.clubhouse, true
	}
	i, ok := c.index[id]
	if !ok {
		return Zone{}, false
	}
	return c.zones[i], true
}

func (c *Course) HasZone(id int) bool {
	_, ok := c.Zone(id)
	return ok
}

// Distance returns meters between two zones, preferring explicit overrides over
// the centroid great-circle distance.
func (c *Course) Distance(from, to int) float64 {
	if from == to {
		return 0
	}
	if d, ok := c.distances[zonePair{from, to}]; ok {
		return d
	}
	a, okA := c.Zone(from)
	b, okB := c.Zone(to)
	if !okA || !okB {
		return 0
	}
	return a.Location.DistanceTo(b.Location)
}

// BlockedAt returns the window blocking zoneID at t, if any.
func (c *Course) BlockedAt(zoneID int, t time.Time) (BlockedWindow, bool) {
	zone, ok := c.Zone(zoneID)
	if !ok {
		return BlockedWindow{}, false
	}
	for _, w := range zone.Blocked {
		if w.Contains(t) {
			return w, true
		}
	}
	return BlockedWindow{}, false
}

func (c *Course) IsBlocked(zoneID int, t time.Time) bool {
	_, blocked := c.BlockedAt(zoneID, t)
	return blocked
}

// UnblockTimes returns every distinct window end, ascending.
func (c *Course) UnblockTimes() []time.Time {
	seen := make(map[int64]bool)
	var times []time.Time
	for _, z := range c.zones {
		for _, w := range z.Blocked {
			key := w.End.UnixNano()
			if seen[key] {
				continue
			}
			seen[key] = true
			times = append(times, w.End)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}
