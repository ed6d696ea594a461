package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Settings holds everything hexarctl needs to locate and drive the radar
// controller. All values have working defaults so a bare checkout can run
// without a config file.
type Settings struct {
	// BinaryPath is the radar controller executable produced by the build step.
	BinaryPath string `mapstructure:"binary_path"`

	// BuildCommand is the opaque build invocation, argv style.
	BuildCommand []string `mapstructure:"build_command"`

	// RadarConfigPath is passed through to the controller when the file exists.
	// hexarctl never parses its contents.
	RadarConfigPath string `mapstructure:"radar_config_path"`

	RunDir string `mapstructure:"run_dir"`
	LogDir string `mapstructure:"log_dir"`

	// StopTimeout is the default graceful-stop bound in seconds.
	StopTimeout uint `mapstructure:"stop_timeout"`

	LogLevel string `mapstructure:"log_level"`
}

// MarkerPath is where the running instance's PID is recorded.
func (s *Settings) MarkerPath() string {
	return filepath.Join(s.RunDir, "hexar.pid")
}

// RadarLogPath is the managed process's combined output sink.
func (s *Settings) RadarLogPath() string {
	return filepath.Join(s.LogDir, "hexar.log")
}

// BuildLogPath is where build output is kept for diagnosis.
func (s *Settings) BuildLogPath() string {
	return filepath.Join(s.LogDir, "build.log")
}

// StopTimeoutDuration returns the stop timeout as a duration.
func (s *Settings) StopTimeoutDuration() time.Duration {
	return time.Duration(s.StopTimeout) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("binary_path", "./bin/hexar")
	v.SetDefault("build_command", []string{"make", "build"})
	v.SetDefault("radar_config_path", "config.toml")
	v.SetDefault("run_dir", ".")
	v.SetDefault("log_dir", "./logs")
	v.SetDefault("stop_timeout", 30)
	v.SetDefault("log_level", "info")
}

// Load reads hexarctl settings from the given file, or searches the working
// directory and $HOME/.hexarctl when no file is given. A missing config file
// is not an error; defaults and HEXARCTL_* environment overrides apply.
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("hexarctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".hexarctl"))
		}
	}

	v.SetEnvPrefix("HEXARCTL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only an explicitly named file is required to exist; a failed search
		// falls back to defaults, but a malformed file is always fatal.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &s, nil
}

// EnsureDirs creates the run and log directories if they do not exist.
func (s *Settings) EnsureDirs() error {
	for _, dir := range []string{s.RunDir, s.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
