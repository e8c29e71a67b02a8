package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomz197/rollrun/internal/errkind"
)

// ClampMode selects how the lane boundary is enforced on the player.
type ClampMode string

const (
	// ClampHard pins the player exactly to the lane edge.
	ClampHard ClampMode = "hard"
	// ClampSoft only checks the position before moving, allowing up to one
	// frame of overshoot past the edge.
	ClampSoft ClampMode = "soft"
)

// Broadphase names accepted by Config.Broadphase.
const (
	BroadphaseSpace = "space"
	BroadphaseGrid  = "grid"
	BroadphaseNaive = "naive"
)

// Config holds every tunable game parameter.
type Config struct {
	// Player
	PlayerSpeed   float64 // Lateral speed in units per second
	PlayerRadius  float64
	LaneHalfWidth float64 // Player stays within [-LaneHalfWidth, LaneHalfWidth]
	ClampMode     ClampMode

	// Obstacles
	LoseRadius     float64       // Player-obstacle distance that ends the run
	ObstacleTTL    time.Duration // Age at which an obstacle is removed
	ConveyorStep   float64       // Approach-axis push per tick
	SpawnBatch     int           // Obstacles per spawn; 0 disables spawning
	SpawnPeriodMin time.Duration
	SpawnPeriodMax time.Duration
	SpawnRadiusMin float64
	SpawnRadiusMax float64
	SpawnAheadMin  float64 // Distance ahead of the player
	SpawnAheadMax  float64

	// Scoring
	ScoreEvery time.Duration

	// Physics
	FixedStep   time.Duration
	MaxSubSteps int
	Gravity     float64
	Friction    float64
	Restitution float64
	Broadphase  string

	// Host
	FPS          int
	AudioEnabled bool
	HitSoundPath string
	EnvMapPath   string
	LogLevel     string
	LogFile      string
}

// Default returns the tuning of the original game.
func Default() Config {
	return Config{
		PlayerSpeed:   25,
		PlayerRadius:  1,
		LaneHalfWidth: 25,
		ClampMode:     ClampHard,

		LoseRadius:     3,
		ObstacleTTL:    7000 * time.Millisecond,
		ConveyorStep:   0.75,
		SpawnBatch:     8,
		SpawnPeriodMin: 1000 * time.Millisecond,
		SpawnPeriodMax: 1200 * time.Millisecond,
		SpawnRadiusMin: 2,
		SpawnRadiusMax: 3,
		SpawnAheadMin:  70,
		SpawnAheadMax:  170,

		ScoreEvery: 100 * time.Millisecond,

		FixedStep:   time.Second / 60,
		MaxSubSteps: 3,
		Gravity:     -9.82,
		Friction:    0.1,
		Restitution: 0.7,
		Broadphase:  BroadphaseSpace,

		FPS:          60,
		AudioEnabled: true,
		HitSoundPath: "assets/sounds/hit.mp3",
		EnvMapPath:   "assets/textures/environment.png",
		LogLevel:     "info",
		LogFile:      "rollrun.log",
	}
}

// Load reads an optional .env file, then ROLLRUN_* variables over the defaults,
// and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv applies ROLLRUN_* environment variables over Default and validates.
func FromEnv() (Config, error) {
	cfg := Default()
	var err error

	floats := []struct {
		key string
		dst *float64
	}{
		{"ROLLRUN_PLAYER_SPEED", &cfg.PlayerSpeed},
		{"ROLLRUN_PLAYER_RADIUS", &cfg.PlayerRadius},
		{"ROLLRUN_LANE_HALF_WIDTH", &cfg.LaneHalfWidth},
		{"ROLLRUN_LOSE_RADIUS", &cfg.LoseRadius},
		{"ROLLRUN_CONVEYOR_STEP", &cfg.ConveyorStep},
		{"ROLLRUN_SPAWN_RADIUS_MIN", &cfg.SpawnRadiusMin},
		{"ROLLRUN_SPAWN_RADIUS_MAX", &cfg.SpawnRadiusMax},
		{"ROLLRUN_SPAWN_AHEAD_MIN", &cfg.SpawnAheadMin},
		{"ROLLRUN_SPAWN_AHEAD_MAX", &cfg.SpawnAheadMax},
		{"ROLLRUN_GRAVITY", &cfg.Gravity},
		{"ROLLRUN_FRICTION", &cfg.Friction},
		{"ROLLRUN_RESTITUTION", &cfg.Restitution},
	}
	for _, f := range floats {
		if *f.dst, err = envFloat(f.key, *f.dst); err != nil {
			return Config{}, errkind.InvalidConfig(f.key, err.Error())
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ROLLRUN_OBSTACLE_TTL", &cfg.ObstacleTTL},
		{"ROLLRUN_SPAWN_PERIOD_MIN", &cfg.SpawnPeriodMin},
		{"ROLLRUN_SPAWN_PERIOD_MAX", &cfg.SpawnPeriodMax},
		{"ROLLRUN_SCORE_EVERY", &cfg.ScoreEvery},
		{"ROLLRUN_FIXED_STEP", &cfg.FixedStep},
	}
	for _, d := range durations {
		if *d.dst, err = envDuration(d.key, *d.dst); err != nil {
			return Config{}, errkind.InvalidConfig(d.key, err.Error())
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ROLLRUN_SPAWN_BATCH", &cfg.SpawnBatch},
		{"ROLLRUN_MAX_SUBSTEPS", &cfg.MaxSubSteps},
		{"ROLLRUN_FPS", &cfg.FPS},
	}
	for _, i := range ints {
		if *i.dst, err = envInt(i.key, *i.dst); err != nil {
			return Config{}, errkind.InvalidConfig(i.key, err.Error())
		}
	}

	if cfg.AudioEnabled, err = envBool("ROLLRUN_AUDIO", cfg.AudioEnabled); err != nil {
		return Config{}, errkind.InvalidConfig("ROLLRUN_AUDIO", err.Error())
	}

	cfg.ClampMode = ClampMode(GetEnv("ROLLRUN_CLAMP", string(cfg.ClampMode)))
	cfg.Broadphase = GetEnv("ROLLRUN_BROADPHASE", cfg.Broadphase)
	cfg.HitSoundPath = GetEnv("ROLLRUN_HIT_SOUND", cfg.HitSoundPath)
	cfg.EnvMapPath = GetEnv("ROLLRUN_ENV_MAP", cfg.EnvMapPath)
	cfg.LogLevel = GetEnv("ROLLRUN_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = GetEnv("ROLLRUN_LOG_FILE", cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first unusable parameter as an invalid-configuration error.
func (c Config) Validate() error {
	nonNegative := []struct {
		field string
		value float64
	}{
		{"PlayerSpeed", c.PlayerSpeed},
		{"LaneHalfWidth", c.LaneHalfWidth},
		{"LoseRadius", c.LoseRadius},
		{"ConveyorStep", c.ConveyorStep},
		{"SpawnAheadMin", c.SpawnAheadMin},
		{"Friction", c.Friction},
		{"Restitution", c.Restitution},
	}
	for _, n := range nonNegative {
		if n.value < 0 {
			return errkind.InvalidConfig(n.field, "must not be negative")
		}
	}

	positive := []struct {
		field string
		value float64
	}{
		{"PlayerRadius", c.PlayerRadius},
		{"SpawnRadiusMin", c.SpawnRadiusMin},
		{"ObstacleTTL", float64(c.ObstacleTTL)},
		{"SpawnPeriodMin", float64(c.SpawnPeriodMin)},
		{"ScoreEvery", float64(c.ScoreEvery)},
		{"FixedStep", float64(c.FixedStep)},
		{"MaxSubSteps", float64(c.MaxSubSteps)},
		{"FPS", float64(c.FPS)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return errkind.InvalidConfig(p.field, "must be positive")
		}
	}

	switch {
	case c.SpawnBatch < 0:
		return errkind.InvalidConfig("SpawnBatch", "must not be negative")
	case c.SpawnPeriodMax < c.SpawnPeriodMin:
		return errkind.InvalidConfig("SpawnPeriodMax", "must not be below SpawnPeriodMin")
	case c.SpawnRadiusMax < c.SpawnRadiusMin:
		return errkind.InvalidConfig("SpawnRadiusMax", "must not be below SpawnRadiusMin")
	case c.SpawnAheadMax < c.SpawnAheadMin:
		return errkind.InvalidConfig("SpawnAheadMax", "must not be below SpawnAheadMin")
	}

	switch c.ClampMode {
	case ClampHard, ClampSoft:
	default:
		return errkind.InvalidConfig("ClampMode", fmt.Sprintf("unknown mode %q", c.ClampMode))
	}

	switch c.Broadphase {
	case BroadphaseSpace, BroadphaseGrid, BroadphaseNaive:
	default:
		return errkind.InvalidConfig("Broadphase", fmt.Sprintf("unknown broadphase %q", c.Broadphase))
	}

	return nil
}
