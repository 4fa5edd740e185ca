// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Vision() VisionConfig
	Input() InputConfig
	Interact() InteractConfig
	Pipeline() PipelineConfig
	Browser() BrowserConfig
	Case() CaseConfig

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserAttachURL(string)

	// Pipeline Setters
	SetPipelinePreStepDelay(time.Duration)
	SetPipelineStepPacing(time.Duration)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	VisionCfg   VisionConfig   `mapstructure:"vision" yaml:"vision"`
	InputCfg    InputConfig    `mapstructure:"input" yaml:"input"`
	InteractCfg InteractConfig `mapstructure:"interact" yaml:"interact"`
	PipelineCfg PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	CaseCfg     CaseConfig     `mapstructure:"case" yaml:"case"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Vision() VisionConfig     { return c.VisionCfg }
func (c *Config) Input() InputConfig       { return c.InputCfg }
func (c *Config) Interact() InteractConfig { return c.InteractCfg }
func (c *Config) Pipeline() PipelineConfig { return c.PipelineCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Case() CaseConfig         { return c.CaseCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)    { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserAttachURL(u string) { c.BrowserCfg.AttachURL = u }

func (c *Config) SetPipelinePreStepDelay(d time.Duration) { c.PipelineCfg.PreStepDelay = d }
func (c *Config) SetPipelineStepPacing(d time.Duration)   { c.PipelineCfg.StepPacing = d }

// LoggerConfig configures the zap-based global logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// VisionConfig configures the template registry and locator.
type VisionConfig struct {
	// TemplateDir is the directory holding the PNG template assets.
	TemplateDir string `mapstructure:"template_dir" yaml:"template_dir"`
	// DefaultThreshold is the acceptance threshold used when a template
	// does not declare its own. Must lie in (0, 1].
	DefaultThreshold float64 `mapstructure:"default_threshold" yaml:"default_threshold"`
}

// InputConfig defines the input persona: how sloppy and how slow the
// synthetic operator is. All randomness derived from these values flows
// through a single seedable source so tests can pin it down.
type InputConfig struct {
	// JitterPx is the uniform jitter radius, in pixels, applied
	// independently to both axes of every click target.
	JitterPx int `mapstructure:"jitter_px" yaml:"jitter_px"`
	// MoveDuration is how long a pointer glide to a click target takes.
	MoveDuration time.Duration `mapstructure:"move_duration" yaml:"move_duration"`
	// PerCharDelay is the base pause between keystrokes while typing.
	PerCharDelay time.Duration `mapstructure:"per_char_delay" yaml:"per_char_delay"`
	// PerCharJitter is the ceiling of the uniform extra pause added on
	// top of PerCharDelay for each keystroke.
	PerCharJitter time.Duration `mapstructure:"per_char_jitter" yaml:"per_char_jitter"`
	// EventsPerSecond caps the raw input event dispatch rate.
	EventsPerSecond float64 `mapstructure:"events_per_second" yaml:"events_per_second"`
	// Seed pins the randomness source when non-zero. Zero seeds from
	// the wall clock.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// InteractConfig holds the retry and wait budgets of the synchronization
// layer. These budgets are the only place wall-clock waiting occurs.
type InteractConfig struct {
	ClickRetries    int           `mapstructure:"click_retries" yaml:"click_retries"`
	ClickRetryDelay time.Duration `mapstructure:"click_retry_delay" yaml:"click_retry_delay"`

	SignatureTimeout   time.Duration `mapstructure:"signature_timeout" yaml:"signature_timeout"`
	SignaturePoll      time.Duration `mapstructure:"signature_poll" yaml:"signature_poll"`
	SignatureThreshold float64       `mapstructure:"signature_threshold" yaml:"signature_threshold"`

	MaxWindowSwitches int           `mapstructure:"max_window_switches" yaml:"max_window_switches"`
	SwitchPause       time.Duration `mapstructure:"switch_pause" yaml:"switch_pause"`
}

// PipelineConfig paces the step sequencer so an audience can follow along.
type PipelineConfig struct {
	// PreStepDelay is the pause between announcing a step and running
	// it, so the "about to execute" state is observable.
	PreStepDelay time.Duration `mapstructure:"pre_step_delay" yaml:"pre_step_delay"`
	// StepPacing is the pause between a step completing and the next
	// one being scheduled during a full run.
	StepPacing time.Duration `mapstructure:"step_pacing" yaml:"step_pacing"`
}

// BrowserConfig configures the CDP session that hosts the target windows
// and the document source.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// AttachURL, when set, attaches to a running browser instead of
	// launching one (a ws:// devtools endpoint).
	AttachURL string `mapstructure:"attach_url" yaml:"attach_url"`
	// DocumentURL is where the document source is served.
	DocumentURL string `mapstructure:"document_url" yaml:"document_url"`
	WindowWidth  int `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int `mapstructure:"window_height" yaml:"window_height"`
	// LaunchCommands are collaborator applications started before a run
	// (thin glue; may be empty when the windows are started by hand).
	LaunchCommands []string `mapstructure:"launch_commands" yaml:"launch_commands"`
}

// CaseConfig seeds the values of the queued CRM case that cannot be read
// through the visual layer.
type CaseConfig struct {
	ID       string `mapstructure:"id" yaml:"id"`
	RefNr    string `mapstructure:"ref_nr" yaml:"ref_nr"`
	TjanstNr string `mapstructure:"tjanstenr" yaml:"tjanstenr"`
}

// Load reads configuration from the provided viper instance, applying
// defaults first, and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the automation layers cannot honor.
func (c *Config) Validate() error {
	if t := c.VisionCfg.DefaultThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("vision.default_threshold must be in (0,1], got %v", t)
	}
	if c.InputCfg.JitterPx < 0 {
		return fmt.Errorf("input.jitter_px must be non-negative, got %d", c.InputCfg.JitterPx)
	}
	if c.InteractCfg.ClickRetries < 1 {
		return fmt.Errorf("interact.click_retries must be at least 1, got %d", c.InteractCfg.ClickRetries)
	}
	if c.InteractCfg.SignaturePoll <= 0 {
		return fmt.Errorf("interact.signature_poll must be positive, got %v", c.InteractCfg.SignaturePoll)
	}
	return nil
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "bryggan")
	v.SetDefault("logger.log_file", "bryggan.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Vision --
	v.SetDefault("vision.template_dir", "templates")
	v.SetDefault("vision.default_threshold", 0.80)

	// -- Input --
	v.SetDefault("input.jitter_px", 3)
	v.SetDefault("input.move_duration", "250ms")
	v.SetDefault("input.per_char_delay", "20ms")
	v.SetDefault("input.per_char_jitter", "10ms")
	v.SetDefault("input.events_per_second", 240.0)
	v.SetDefault("input.seed", 0)

	// -- Interact --
	v.SetDefault("interact.click_retries", 25)
	v.SetDefault("interact.click_retry_delay", "250ms")
	v.SetDefault("interact.signature_timeout", "5s")
	v.SetDefault("interact.signature_poll", "200ms")
	v.SetDefault("interact.signature_threshold", 0.75)
	v.SetDefault("interact.max_window_switches", 8)
	v.SetDefault("interact.switch_pause", "800ms")

	// -- Pipeline --
	v.SetDefault("pipeline.pre_step_delay", "250ms")
	v.SetDefault("pipeline.step_pacing", "450ms")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.attach_url", "")
	v.SetDefault("browser.document_url", "http://localhost:8000/index.html")
	v.SetDefault("browser.window_width", 1400)
	v.SetDefault("browser.window_height", 900)

	// -- Case --
	v.SetDefault("case.id", "A-1001")
	v.SetDefault("case.ref_nr", "E-0000-00")
	v.SetDefault("case.tjanstenr", "445323")
}
