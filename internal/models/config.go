package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type WindowConfig struct {
	Start time.Duration `mapstructure:"start"`
	End   time.Duration `mapstructure:"end"`
}

type ZoneConfig struct {
	ID       int            `mapstructure:"id"`
	Name     string         `mapstructure:"name"`
	Location Location       `mapstructure:"location"`
	Weight   float64        `mapstructure:"weight"`
	Blocked  []WindowConfig `mapstructure:"blocked"`
}

type DistanceConfig struct {
	From   int     `mapstructure:"from"`
	To     int     `mapstructure:"to"`
	Meters float64 `mapstructure:"meters"`
}

type CourseConfig struct {
	Name      string           `mapstructure:"name"`
	Clubhouse Location         `mapstructure:"clubhouse"`
	Zones     []ZoneConfig     `mapstructure:"zones"`
	Distances []DistanceConfig `mapstructure:"distances"`
}

type AgentConfig struct {
	Kind       string        `mapstructure:"kind"`
	Count      int           `mapstructure:"count"`
	Speed      float64       `mapstructure:"speed"`       // meters per second
	StartAfter time.Duration `mapstructure:"start_after"` // activation offset from shift start
}

type ScheduledArrival struct {
	At     time.Duration `mapstructure:"at"`
	Zone   int           `mapstructure:"zone"`
	Orders int           `mapstructure:"orders"`
}

type ArrivalConfig struct {
	Process          string             `mapstructure:"process"`
	GroupsPerHour    float64            `mapstructure:"groups_per_hour"`
	GroupSizeWeights []float64          `mapstructure:"group_size_weights"` // index i weights a group of i+1 orders
	LastCall         time.Duration      `mapstructure:"last_call"`
	Schedule         []ScheduledArrival `mapstructure:"schedule"`
}

type ValueDistribution struct {
	Mean float64 `mapstructure:"mean"`
	Std  float64 `mapstructure:"std"`
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
}

type MoneyConfig struct {
	OrderValue ValueDistribution `mapstructure:"order_value"`
	TipRate    float64           `mapstructure:"tip_rate"`
}

type ServiceConfig struct {
	BaseTime       time.Duration `mapstructure:"base_time"`
	PerExtraOrder  time.Duration `mapstructure:"per_extra_order"`
	Variance       float64       `mapstructure:"variance"`
	TravelVariance float64       `mapstructure:"travel_variance"`
	MinTravel      time.Duration `mapstructure:"min_travel"`
	LoadTime       time.Duration `mapstructure:"load_time"` // runner loading at the clubhouse
	AbandonRate    float64       `mapstructure:"abandon_rate"`
}

type StaffingConfig struct {
	WagePerHour          float64 `mapstructure:"wage_per_hour"`
	VariableCostPerOrder float64 `mapstructure:"variable_cost_per_order"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type CloudStorageConfig struct {
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket"`
}

type OutputConfig struct {
	Destination     string             `mapstructure:"destination"`
	Path            string             `mapstructure:"path"`
	Folder          string             `mapstructure:"folder"`
	KafkaBrokerList string             `mapstructure:"kafka_broker_list"`
	KafkaTopic      string             `mapstructure:"kafka_topic"`
	CloudStorage    CloudStorageConfig `mapstructure:"s3"`
	Database        DatabaseConfig     `mapstructure:"database"`
}

type SweepConfig struct {
	OrderVolumes []int `mapstructure:"order_volumes"`
	AgentCounts  []int `mapstructure:"agent_counts"`
	Parallelism  int   `mapstructure:"parallelism"`
}

type Config struct {
	Scenario      string         `mapstructure:"scenario"`
	Seed          int64          `mapstructure:"seed"`
	Runs          int            `mapstructure:"runs"`
	ShiftStart    time.Time      `mapstructure:"shift_start"`
	ShiftDuration time.Duration  `mapstructure:"shift_duration"`
	Rounds        int            `mapstructure:"rounds"`
	SLA           time.Duration  `mapstructure:"sla"`
	QueueTimeout  time.Duration  `mapstructure:"queue_timeout"`
	BlockedPolicy string         `mapstructure:"blocked_policy"`
	Course        CourseConfig   `mapstructure:"course"`
	Agents        []AgentConfig  `mapstructure:"agents"`
	Arrivals      ArrivalConfig  `mapstructure:"arrivals"`
	Money         MoneyConfig    `mapstructure:"money"`
	Service       ServiceConfig  `mapstructure:"service"`
	Staffing      StaffingConfig `mapstructure:"staffing"`
	Output        OutputConfig   `mapstructure:"output"`
	Sweep         SweepConfig    `mapstructure:"sweep"`
	Verbose       bool           `mapstructure:"verbose"`

	// DemandKey overrides Scenario when deriving run seeds. Sweep cells that
	// only differ in staffing share it, so they see the same demand.
	DemandKey string `mapstructure:"-"`
}

// DefaultSpeeds are used when an agent entry leaves speed unset (meters per second).
var DefaultSpeeds = map[string]float64{
	AgentKindCart:   4.5,
	AgentKindRunner: 3.0,
}

// SetDefaults registers the scenario defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scenario", "default")
	v.SetDefault("seed", 42)
	v.SetDefault("runs", 1)
	v.SetDefault("shift_start", "2025-06-14T07:00:00Z")
	v.SetDefault("shift_duration", "9h")
	v.SetDefault("sla", "20m")
	v.SetDefault("queue_timeout", "30m")
	v.SetDefault("blocked_policy", BlockedPolicyDefer)
	v.SetDefault("arrivals.process", ArrivalProcessPoisson)
	v.SetDefault("arrivals.groups_per_hour", 2.0)
	v.SetDefault("arrivals.group_size_weights", []float64{0.7, 0.2, 0.1})
	v.SetDefault("arrivals.last_call", "30m")
	v.SetDefault("money.order_value.mean", 12.0)
	v.SetDefault("money.order_value.std", 4.0)
	v.SetDefault("money.order_value.min", 4.0)
	v.SetDefault("money.order_value.max", 40.0)
	v.SetDefault("money.tip_rate", 0.15)
	v.SetDefault("service.base_time", "2m")
	v.SetDefault("service.per_extra_order", "30s")
	v.SetDefault("service.variance", 0.1)
	v.SetDefault("service.travel_variance", 0.15)
	v.SetDefault("service.min_travel", "1m")
	v.SetDefault("service.load_time", "3m")
	v.SetDefault("staffing.wage_per_hour", 15.0)
	v.SetDefault("staffing.variable_cost_per_order", 4.0)
	v.SetDefault("output.destination", "console")
	v.SetDefault("output.path", "output")
	v.SetDefault("output.kafka_topic", "golfsim_runs")
	v.SetDefault("sweep.parallelism", 4)
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigWith(viper.GetViper(), cfgFile)
}

// LoadConfigWith reads cfgFile into v and decodes a validated Config.
func LoadConfigWith(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Default config location
		v.AddConfigPath("examples")
		v.SetConfigName("scenario")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("golfsim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // Read in environment variables that match
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := DecodeConfig(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", config.Scenario, err)
	}
	return config, nil
}

// DecodeConfig unmarshals v without validating.
func DecodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	config.applyAgentDefaults()
	return &config, nil
}

func (cfg *Config) applyAgentDefaults() {
	for i := range cfg.Agents {
		if cfg.Agents[i].Speed == 0 {
			cfg.Agents[i].Speed = DefaultSpeeds[cfg.Agents[i].Kind]
		}
	}
}

func (cfg *Config) ShiftEnd() time.Time {
	return cfg.ShiftStart.Add(cfg.ShiftDuration)
}

// SeedKey is the name run seeds are derived from.
func (cfg *Config) SeedKey() string {
	if cfg.DemandKey != "" {
		return cfg.DemandKey
	}
	return cfg.Scenario
}

// TotalAgents counts every configured agent, including late starters.
func (cfg *Config) TotalAgents() int {
	total := 0
	for _, a := range cfg.Agents {
		total += a.Count
	}
	return total
}

// MeanGroupSize is the expected number of orders per group under GroupSizeWeights.
func (cfg *Config) MeanGroupSize() float64 {
	var sum, weighted float64
	for i, w := range cfg.Arrivals.GroupSizeWeights {
		sum += w
		weighted += w * float64(i+1)
	}
	if sum == 0 {
		return 1
	}
	return weighted / sum
}

// Clone returns a deep copy so sweeps can vary a scenario without aliasing slices.
func (cfg *Config) Clone() *Config {
	c := *cfg
	c.Course.Zones = make([]ZoneConfig, len(cfg.Course.Zones))
	for i, z := range cfg.Course.Zones {
		z.Blocked = append([]WindowConfig(nil), z.Blocked...)
		c.Course.Zones[i] = z
	}
	c.Course.Distances = append([]DistanceConfig(nil), cfg.Course.Distances...)
	c.Agents = append([]AgentConfig(nil), cfg.Agents...)
	c.Arrivals.GroupSizeWeights = append([]float64(nil), cfg.Arrivals.GroupSizeWeights...)
	c.Arrivals.Schedule = append([]ScheduledArrival(nil), cfg.Arrivals.Schedule...)
	c.Sweep.OrderVolumes = append([]int(nil), cfg.Sweep.OrderVolumes...)
	c.Sweep.AgentCounts = append([]int(nil), cfg.Sweep.AgentCounts...)
	return &c
}

// Validate reports every configuration problem at once. A scenario that fails
// validation must not be simulated.
func (cfg *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if cfg.Runs < 1 {
		add("runs must be at least 1, got %d", cfg.Runs)
	}
	if cfg.ShiftStart.IsZero() {
		add("shift_start is required")
	}
	if cfg.ShiftDuration <= 0 {
		add("shift_duration must be positive, got %s", cfg.ShiftDuration)
	}
	if cfg.Rounds < 0 {
		add("rounds must not be negative, got %d", cfg.Rounds)
	}
	if cfg.SLA <= 0 {
		add("sla must be positive, got %s", cfg.SLA)
	}
	if cfg.QueueTimeout <= 0 {
		add("queue_timeout must be positive, got %s", cfg.QueueTimeout)
	}
	if cfg.BlockedPolicy != BlockedPolicyDefer && cfg.BlockedPolicy != BlockedPolicyFail {
		add("blocked_policy must be %q or %q, got %q", BlockedPolicyDefer, BlockedPolicyFail, cfg.BlockedPolicy)
	}

	zones := make(map[int]bool, len(cfg.Course.Zones))
	if len(cfg.Course.Zones) == 0 {
		add("course must define at least one zone")
	}
	for _, z := range cfg.Course.Zones {
		if z.ID <= ClubhouseZoneID {
			add("zone id %d must be positive", z.ID)
		}
		if zones[z.ID] {
			add("zone id %d is duplicated", z.ID)
		}
		zones[z.ID] = true
		if z.Weight < 0 {
			add("zone %d: weight must not be negative", z.ID)
		}
		for _, w := range z.Blocked {
			if w.Start < 0 || w.End <= w.Start {
				add("zone %d: blocked window %s-%s is invalid", z.ID, w.Start, w.End)
			}
		}
	}
	knownZone := func(id int) bool { return id == ClubhouseZoneID || zones[id] }
	for _, d := range cfg.Course.Distances {
		if !knownZone(d.From) || !knownZone(d.To) {
			add("distance %d->%d references an unknown zone", d.From, d.To)
		}
		if d.Meters < 0 {
			add("distance %d->%d must not be negative", d.From, d.To)
		}
	}

	if cfg.TotalAgents() == 0 {
		add("at least one agent is required")
	}
	for i, a := range cfg.Agents {
		if a.Kind != AgentKindCart && a.Kind != AgentKindRunner {
			add("agents[%d]: kind must be %q or %q, got %q", i, AgentKindCart, AgentKindRunner, a.Kind)
		}
		if a.Count < 0 {
			add("agents[%d]: count must not be negative", i)
		}
		if a.Speed <= 0 {
			add("agents[%d]: speed must be positive", i)
		}
		if a.StartAfter < 0 || (cfg.ShiftDuration > 0 && a.StartAfter >= cfg.ShiftDuration) {
			add("agents[%d]: start_after %s is outside the shift", i, a.StartAfter)
		}
	}

	switch cfg.Arrivals.Process {
	case ArrivalProcessPoisson:
		if cfg.Arrivals.GroupsPerHour < 0 {
			add("arrivals.groups_per_hour must not be negative")
		}
		if len(cfg.Arrivals.GroupSizeWeights) == 0 {
			add("arrivals.group_size_weights must not be empty")
		}
		var total float64
		for _, w := range cfg.Arrivals.GroupSizeWeights {
			if w < 0 {
				add("arrivals.group_size_weights must not be negative")
			}
			total += w
		}
		if len(cfg.Arrivals.GroupSizeWeights) > 0 && total == 0 {
			add("arrivals.group_size_weights must not all be zero")
		}
		if cfg.Arrivals.LastCall < 0 {
			add("arrivals.last_call must not be negative")
		}
	case ArrivalProcessSchedule:
		for i, s := range cfg.Arrivals.Schedule {
			if !zones[s.Zone] {
				add("arrivals.schedule[%d] references unknown zone %d", i, s.Zone)
			}
			if s.Orders < 1 {
				add("arrivals.schedule[%d]: orders must be at least 1", i)
			}
			if s.At < 0 {
				add("arrivals.schedule[%d]: at must not be negative", i)
			}
		}
	default:
		add("arrivals.process must be %q or %q, got %q", ArrivalProcessPoisson, ArrivalProcessSchedule, cfg.Arrivals.Process)
	}

	ov := cfg.Money.OrderValue
	if ov.Min < 0 || ov.Max < ov.Min || ov.Std < 0 {
		add("money.order_value must satisfy 0 <= min <= max and std >= 0")
	}
	if cfg.Money.TipRate < 0 {
		add("money.tip_rate must not be negative")
	}

	svc := cfg.Service
	if svc.BaseTime < 0 || svc.PerExtraOrder < 0 || svc.MinTravel < 0 || svc.LoadTime < 0 {
		add("service durations must not be negative")
	}
	if svc.Variance < 0 || svc.TravelVariance < 0 {
		add("service variances must not be negative")
	}
	if svc.AbandonRate < 0 || svc.AbandonRate > 1 {
		add("service.abandon_rate must be within [0, 1]")
	}

	if cfg.Staffing.WagePerHour < 0 || cfg.Staffing.VariableCostPerOrder < 0 {
		add("staffing costs must not be negative")
	}

	return errors.Join(errs...)
}
