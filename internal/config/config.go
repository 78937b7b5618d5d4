// Package config provides Viper-based configuration loading for the hunter.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// AnchorConfig holds the home-position tolerance and walk-back bounds.
type AnchorConfig struct {
	// ToleranceTiles is the allowed drift radius from the anchor.
	ToleranceTiles float64 `mapstructure:"tolerance_tiles"`
	// WalkbackTimeout bounds a single walk-back wait.
	WalkbackTimeout time.Duration `mapstructure:"walkback_timeout"`
	// MaxWalkbackRetries bounds consecutive walk-back failures before the
	// session escalates to recovery.
	MaxWalkbackRetries int `mapstructure:"max_walkback_retries"`
}

// TrackerConfig holds the positional-feed ageing settings.
type TrackerConfig struct {
	// AgeOut is how long an unseen identity stays active. It is a fixed
	// wall-clock timeout, independent of tick rate.
	AgeOut time.Duration `mapstructure:"age_out"`
}

// CorrelateConfig holds the cluster-to-identity acceptance tuning.
type CorrelateConfig struct {
	// FloorPx is the minimum acceptable center-distance in pixels.
	FloorPx int `mapstructure:"floor_px"`
	// SizeFactor scales the cluster's longest side into an acceptable
	// center-distance.
	SizeFactor float64 `mapstructure:"size_factor"`
}

// CombatConfig holds engagement and kill-detection timeouts.
type CombatConfig struct {
	// EngageConfirmTimeout bounds the wait for the overlay to appear after
	// an attack tap.
	EngageConfirmTimeout time.Duration `mapstructure:"engage_confirm_timeout"`
	// MaxEngageMisses bounds consecutive menu-validation misses before the
	// target is cleared.
	MaxEngageMisses int `mapstructure:"max_engage_misses"`
	// MaxReengageRetries bounds re-attack attempts on a locked target.
	MaxReengageRetries int `mapstructure:"max_reengage_retries"`
	// ReengageRadiusTiles is how far from its last known tile a locked
	// target may plausibly be for a re-attack.
	ReengageRadiusTiles float64 `mapstructure:"reengage_radius_tiles"`

	// OverlayGraceMin/Max bound the randomized disappearance grace window.
	OverlayGraceMin time.Duration `mapstructure:"overlay_grace_min"`
	OverlayGraceMax time.Duration `mapstructure:"overlay_grace_max"`
	// IdleConfirm is the sustained player-idle threshold.
	IdleConfirm time.Duration `mapstructure:"idle_confirm"`
	// HPStallTimeout is how long an unchanged HP reading counts as a stall.
	HPStallTimeout time.Duration `mapstructure:"hp_stall_timeout"`
	// InactiveKillTimeout is the extended identity-absence kill timeout.
	InactiveKillTimeout time.Duration `mapstructure:"inactive_kill_timeout"`
	// LostTimeout is the identity-absence duration that, with sustained
	// idle, calls the target lost.
	LostTimeout time.Duration `mapstructure:"lost_timeout"`

	// PostKillLockMin/Max bound the randomized re-target suppression after
	// a kill.
	PostKillLockMin time.Duration `mapstructure:"post_kill_lock_min"`
	PostKillLockMax time.Duration `mapstructure:"post_kill_lock_max"`
	// FirstCastTimeout bounds the first-cast confirmation gate.
	FirstCastTimeout time.Duration `mapstructure:"first_cast_timeout"`
}

// FoodConfig describes the configured food item.
type FoodConfig struct {
	ItemID int `mapstructure:"item_id"`
	// HealAmount is the HP percentage restored per consumption.
	HealAmount int `mapstructure:"heal_amount"`
}

// EatConfig holds the randomized eat-threshold settings.
type EatConfig struct {
	// MinPercent/MaxPercent bound the randomized self-HP eat threshold.
	MinPercent int `mapstructure:"min_percent"`
	MaxPercent int `mapstructure:"max_percent"`
	// Cooldown is the minimum spacing between consumptions.
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// RunesConfig describes the rune consumables required for casting and
// which of them the equipped staff covers.
type RunesConfig struct {
	AirItemID   int `mapstructure:"air_item_id"`
	WaterItemID int `mapstructure:"water_item_id"`
	EarthItemID int `mapstructure:"earth_item_id"`
	FireItemID  int `mapstructure:"fire_item_id"`

	StaffCoversAir   bool `mapstructure:"staff_covers_air"`
	StaffCoversWater bool `mapstructure:"staff_covers_water"`
	StaffCoversEarth bool `mapstructure:"staff_covers_earth"`
	StaffCoversFire  bool `mapstructure:"staff_covers_fire"`
}

// Required returns the item IDs of runes the staff does not cover.
//
// Postcondition: only configured (non-zero) item IDs are returned.
func (r RunesConfig) Required() []int {
	var required []int
	for _, rn := range []struct {
		id      int
		covered bool
	}{
		{r.AirItemID, r.StaffCoversAir},
		{r.WaterItemID, r.StaffCoversWater},
		{r.EarthItemID, r.StaffCoversEarth},
		{r.FireItemID, r.StaffCoversFire},
	} {
		if rn.id != 0 && !rn.covered {
			required = append(required, rn.id)
		}
	}
	return required
}

// LootConfig selects the post-kill loot behavior.
type LootConfig struct {
	// Mode is "none", "own", or "all".
	Mode string `mapstructure:"mode"`
}

// XPFailsafeConfig holds the progress watchdog settings.
type XPFailsafeConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	TimeoutMinutes int  `mapstructure:"timeout_minutes"`
	// WarnBefore is how long before expiry the pre-expiry warning logs.
	WarnBefore time.Duration `mapstructure:"warn_before"`
	// PauseDuringLogout suspends the watchdog while logged out.
	PauseDuringLogout bool `mapstructure:"pause_during_logout"`
}

// Timeout returns the watchdog duration.
func (x XPFailsafeConfig) Timeout() time.Duration {
	return time.Duration(x.TimeoutMinutes) * time.Minute
}

// RecoveryConfig holds the retry budget and backoff settings.
type RecoveryConfig struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	BackoffFactor    float64       `mapstructure:"backoff_factor"`
	BackoffCap       time.Duration `mapstructure:"backoff_cap"`
	BackoffJitterMin time.Duration `mapstructure:"backoff_jitter_min"`
	BackoffJitterMax time.Duration `mapstructure:"backoff_jitter_max"`
}

// EngineConfig holds tick-loop settings.
type EngineConfig struct {
	// TickInterval is the host loop's spacing between ticks.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// WaitPoll is the polling interval inside bounded waits.
	WaitPoll time.Duration `mapstructure:"wait_poll"`
	// DialogueDelayMin/Max bound the human-like delay before dismissing a
	// blocking dialogue.
	DialogueDelayMin time.Duration `mapstructure:"dialogue_delay_min"`
	DialogueDelayMax time.Duration `mapstructure:"dialogue_delay_max"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Anchor     AnchorConfig     `mapstructure:"anchor"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Correlate  CorrelateConfig  `mapstructure:"correlate"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Food       FoodConfig       `mapstructure:"food"`
	Eat        EatConfig        `mapstructure:"eat"`
	Runes      RunesConfig      `mapstructure:"runes"`
	Loot       LootConfig       `mapstructure:"loot"`
	XPFailsafe XPFailsafeConfig `mapstructure:"xp_failsafe"`
	Recovery   RecoveryConfig   `mapstructure:"recovery"`
	Engine     EngineConfig     `mapstructure:"engine"`
	// DebugLogging forces the log level to debug regardless of Logging.Level.
	DebugLogging bool `mapstructure:"debug_logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAnchor(c.Anchor); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTracker(c.Tracker); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCorrelate(c.Correlate); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEat(c.Eat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLoot(c.Loot); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateXPFailsafe(c.XPFailsafe); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRecovery(c.Recovery); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateAnchor(a AnchorConfig) error {
	var errs []string
	if a.ToleranceTiles <= 0 {
		errs = append(errs, fmt.Sprintf("anchor.tolerance_tiles must be > 0, got %v", a.ToleranceTiles))
	}
	if a.WalkbackTimeout <= 0 {
		errs = append(errs, "anchor.walkback_timeout must be > 0")
	}
	if a.MaxWalkbackRetries < 1 {
		errs = append(errs, fmt.Sprintf("anchor.max_walkback_retries must be >= 1, got %d", a.MaxWalkbackRetries))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTracker(t TrackerConfig) error {
	if t.AgeOut <= 0 {
		return errors.New("tracker.age_out must be > 0")
	}
	return nil
}

func validateCorrelate(c CorrelateConfig) error {
	var errs []string
	if c.FloorPx < 0 {
		errs = append(errs, fmt.Sprintf("correlate.floor_px must be >= 0, got %d", c.FloorPx))
	}
	if c.SizeFactor < 0 {
		errs = append(errs, fmt.Sprintf("correlate.size_factor must be >= 0, got %v", c.SizeFactor))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.EngageConfirmTimeout <= 0 {
		errs = append(errs, "combat.engage_confirm_timeout must be > 0")
	}
	if c.MaxEngageMisses < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_engage_misses must be >= 1, got %d", c.MaxEngageMisses))
	}
	if c.MaxReengageRetries < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_reengage_retries must be >= 1, got %d", c.MaxReengageRetries))
	}
	if c.ReengageRadiusTiles <= 0 {
		errs = append(errs, fmt.Sprintf("combat.reengage_radius_tiles must be > 0, got %v", c.ReengageRadiusTiles))
	}
	if c.OverlayGraceMin < 0 || c.OverlayGraceMin > c.OverlayGraceMax {
		errs = append(errs, "combat.overlay_grace_min must be >= 0 and <= combat.overlay_grace_max")
	}
	if c.IdleConfirm <= 0 {
		errs = append(errs, "combat.idle_confirm must be > 0")
	}
	if c.HPStallTimeout <= 0 {
		errs = append(errs, "combat.hp_stall_timeout must be > 0")
	}
	if c.InactiveKillTimeout <= 0 {
		errs = append(errs, "combat.inactive_kill_timeout must be > 0")
	}
	if c.LostTimeout < c.InactiveKillTimeout {
		errs = append(errs, "combat.lost_timeout must be >= combat.inactive_kill_timeout")
	}
	if c.PostKillLockMin < 0 || c.PostKillLockMin > c.PostKillLockMax {
		errs = append(errs, "combat.post_kill_lock_min must be >= 0 and <= combat.post_kill_lock_max")
	}
	if c.FirstCastTimeout <= 0 {
		errs = append(errs, "combat.first_cast_timeout must be > 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEat(e EatConfig) error {
	var errs []string
	if e.MinPercent < 1 || e.MinPercent > 99 {
		errs = append(errs, fmt.Sprintf("eat.min_percent must be 1-99, got %d", e.MinPercent))
	}
	if e.MaxPercent < e.MinPercent || e.MaxPercent > 99 {
		errs = append(errs, fmt.Sprintf("eat.max_percent must be %d-99, got %d", e.MinPercent, e.MaxPercent))
	}
	if e.Cooldown < 0 {
		errs = append(errs, "eat.cooldown must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLoot(l LootConfig) error {
	validModes := map[string]bool{"none": true, "own": true, "all": true}
	if !validModes[l.Mode] {
		return fmt.Errorf("loot.mode must be one of [none, own, all], got %q", l.Mode)
	}
	return nil
}

func validateXPFailsafe(x XPFailsafeConfig) error {
	if !x.Enabled {
		return nil
	}
	var errs []string
	if x.TimeoutMinutes < 1 {
		errs = append(errs, fmt.Sprintf("xp_failsafe.timeout_minutes must be >= 1 when enabled, got %d", x.TimeoutMinutes))
	}
	if x.WarnBefore < 0 || x.WarnBefore >= x.Timeout() {
		errs = append(errs, "xp_failsafe.warn_before must be >= 0 and shorter than the timeout")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRecovery(r RecoveryConfig) error {
	var errs []string
	if r.MaxRetries < 1 {
		errs = append(errs, fmt.Sprintf("recovery.max_retries must be >= 1, got %d", r.MaxRetries))
	}
	if r.BackoffBase <= 0 {
		errs = append(errs, "recovery.backoff_base must be > 0")
	}
	if r.BackoffFactor < 1 {
		errs = append(errs, fmt.Sprintf("recovery.backoff_factor must be >= 1, got %v", r.BackoffFactor))
	}
	if r.BackoffCap < r.BackoffBase {
		errs = append(errs, "recovery.backoff_cap must be >= recovery.backoff_base")
	}
	if r.BackoffJitterMin < 0 || r.BackoffJitterMin > r.BackoffJitterMax {
		errs = append(errs, "recovery.backoff_jitter_min must be >= 0 and <= recovery.backoff_jitter_max")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.TickInterval <= 0 {
		errs = append(errs, "engine.tick_interval must be > 0")
	}
	if e.WaitPoll <= 0 {
		errs = append(errs, "engine.wait_poll must be > 0")
	}
	if e.DialogueDelayMin < 0 || e.DialogueDelayMin > e.DialogueDelayMax {
		errs = append(errs, "engine.dialogue_delay_min must be >= 0 and <= engine.dialogue_delay_max")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with HUNTER_ prefix
	v.SetEnvPrefix("HUNTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("anchor.tolerance_tiles", 6.0)
	v.SetDefault("anchor.walkback_timeout", "8s")
	v.SetDefault("anchor.max_walkback_retries", 3)

	v.SetDefault("tracker.age_out", "3s")

	v.SetDefault("correlate.floor_px", 12)
	v.SetDefault("correlate.size_factor", 0.5)

	v.SetDefault("combat.engage_confirm_timeout", "4s")
	v.SetDefault("combat.max_engage_misses", 3)
	v.SetDefault("combat.max_reengage_retries", 2)
	v.SetDefault("combat.reengage_radius_tiles", 2.0)
	v.SetDefault("combat.overlay_grace_min", "1200ms")
	v.SetDefault("combat.overlay_grace_max", "2400ms")
	v.SetDefault("combat.idle_confirm", "3s")
	v.SetDefault("combat.hp_stall_timeout", "25s")
	v.SetDefault("combat.inactive_kill_timeout", "10s")
	v.SetDefault("combat.lost_timeout", "18s")
	v.SetDefault("combat.post_kill_lock_min", "2s")
	v.SetDefault("combat.post_kill_lock_max", "5s")
	v.SetDefault("combat.first_cast_timeout", "3s")

	v.SetDefault("food.item_id", 0)
	v.SetDefault("food.heal_amount", 0)

	v.SetDefault("eat.min_percent", 45)
	v.SetDefault("eat.max_percent", 65)
	v.SetDefault("eat.cooldown", "2s")

	v.SetDefault("loot.mode", "none")

	v.SetDefault("xp_failsafe.enabled", false)
	v.SetDefault("xp_failsafe.timeout_minutes", 10)
	v.SetDefault("xp_failsafe.warn_before", "1m")
	v.SetDefault("xp_failsafe.pause_during_logout", true)

	v.SetDefault("recovery.max_retries", 5)
	v.SetDefault("recovery.backoff_base", "2s")
	v.SetDefault("recovery.backoff_factor", 2.0)
	v.SetDefault("recovery.backoff_cap", "60s")
	v.SetDefault("recovery.backoff_jitter_min", "0s")
	v.SetDefault("recovery.backoff_jitter_max", "1s")

	v.SetDefault("engine.tick_interval", "600ms")
	v.SetDefault("engine.wait_poll", "50ms")
	v.SetDefault("engine.dialogue_delay_min", "300ms")
	v.SetDefault("engine.dialogue_delay_max", "900ms")

	v.SetDefault("debug_logging", false)
}
