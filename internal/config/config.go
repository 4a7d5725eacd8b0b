package config

import (
	"math"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultWakeupUS   = 3_000_000
	DefaultPlatform   = "sim"
	DefaultRTCDevice  = "rtc0"
	DefaultSleepState = "freeze"
	DefaultLogLevel   = "info"
	DefaultMetricsDB  = "/var/lib/sleepctl/cycles.db"
	DefaultSerialBaud = 115200
	DefaultBatchSize  = 10
	DefaultFlushSecs  = 30

	// Largest delay that still fits a time.Duration.
	maxWakeupUS = math.MaxInt64 / int64(time.Microsecond)

	defaultConfigName = "sleepctl"
	defaultConfigDir  = "/etc"
	defaultEnvPrefix  = "SLEEPCTL"
)

type Config struct {
	WakeupUS     int64   `mapstructure:"wakeup_us"`
	Cycles       int     `mapstructure:"cycles"`
	Platform     string  `mapstructure:"platform"`
	EarlyWake    float64 `mapstructure:"early_wake"`
	RTCDevice    string  `mapstructure:"rtc_device"`
	SleepState   string  `mapstructure:"sleep_state"`
	LogLevel     string  `mapstructure:"log_level"`
	Metrics      bool    `mapstructure:"metrics"`
	MetricsDB    string  `mapstructure:"metrics_db"`
	BatchSize    int     `mapstructure:"batch_size"`
	BatchTimeout int     `mapstructure:"batch_timeout"`
	SerialPort   string  `mapstructure:"serial_port"`
	SerialBaud   int     `mapstructure:"serial_baud"`
	PIDDir       string  `mapstructure:"pid_dir"`
}

// WakeupDuration returns the configured timer wakeup as a duration.
func (c *Config) WakeupDuration() time.Duration {
	return time.Duration(c.WakeupUS) * time.Microsecond
}

// Load reads defaults, the TOML config file, SLEEPCTL_* environment
// variables and command line flags, in increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		configPath: os.Getenv("SLEEPCTL_CONFIG"),
		envPrefix:  defaultEnvPrefix,
		args:       os.Args[1:],
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	flags := newFlagSet()
	if err := flags.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if path, _ := flags.GetString("config"); path != "" {
		o.configPath = path
	}

	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("toml")
		v.AddConfigPath(defaultConfigDir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Override config file values with command line flags
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	if bindErr != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, bindErr)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that the loaded values can drive the sleep loop.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.WakeupUS <= 0 || c.WakeupUS > maxWakeupUS {
		return errFactory.WithData(errors.ErrInvalidInterval, c.WakeupUS)
	}

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	switch {
	case c.Cycles < 0:
		return errFactory.WithData(errors.ErrInvalidConfig, "cycles must not be negative")
	case c.EarlyWake < 0 || c.EarlyWake > 1:
		return errFactory.WithData(errors.ErrInvalidConfig, "early_wake must be between 0 and 1")
	case c.Platform != "sim" && c.Platform != "linux":
		return errFactory.WithData(errors.ErrInvalidConfig, "unknown platform "+c.Platform)
	case c.Metrics && c.MetricsDB == "":
		return errFactory.WithData(errors.ErrInvalidConfig, "metrics_db is required when metrics is enabled")
	case c.SerialPort != "" && c.SerialBaud <= 0:
		return errFactory.WithData(errors.ErrInvalidConfig, "serial_baud must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("wakeup_us", DefaultWakeupUS)
	v.SetDefault("cycles", 0)
	v.SetDefault("platform", DefaultPlatform)
	v.SetDefault("early_wake", 0.0)
	v.SetDefault("rtc_device", DefaultRTCDevice)
	v.SetDefault("sleep_state", DefaultSleepState)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", DefaultMetricsDB)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("batch_timeout", DefaultFlushSecs)
	v.SetDefault("serial_port", "")
	v.SetDefault("serial_baud", DefaultSerialBaud)
	v.SetDefault("pid_dir", os.TempDir())
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("sleepctl", pflag.ContinueOnError)
	flags.String("config", "", "Path to the TOML config file")
	flags.Int64("wakeup-us", DefaultWakeupUS, "Timer wakeup delay in microseconds")
	flags.Int("cycles", 0, "Number of sleep cycles to run, 0 runs until stopped")
	flags.String("platform", DefaultPlatform, "Sleep platform: sim or linux")
	flags.Float64("early-wake", 0, "Sim platform: probability of a non-timer wakeup per cycle")
	flags.String("rtc-device", DefaultRTCDevice, "Linux platform: RTC used for the timer wakeup")
	flags.String("sleep-state", DefaultSleepState, "Linux platform: state written to /sys/power/state")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warning, error")
	flags.Bool("metrics", false, "Record every sleep cycle to the metrics database")
	flags.String("metrics-db", DefaultMetricsDB, "Path to the metrics database")
	flags.Int("batch-size", DefaultBatchSize, "Cycles buffered before a metrics flush")
	flags.Int("batch-timeout", DefaultFlushSecs, "Seconds between periodic metrics flushes")
	flags.String("serial-port", "", "Mirror console lines to this serial port")
	flags.Int("serial-baud", DefaultSerialBaud, "Baud rate of the serial mirror")
	flags.String("pid-dir", os.TempDir(), "Directory holding the PID file")

	return flags
}
