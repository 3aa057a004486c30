package config

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/oclaw/polybuild/common"
	"github.com/oclaw/polybuild/types"
	"gopkg.in/yaml.v3"
)

const (
	appDir         = "polybuild"
	configFileName = "config.yaml"

	// TargetPlaceholder is replaced by the target identifier inside toolchain args.
	TargetPlaceholder = "{target}"
)

type Duration time.Duration

var (
	_ yaml.Marshaler   = Duration(0)
	_ yaml.Unmarshaler = (*Duration)(nil)
)

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	dd, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// ReachedBy reports whether the threshold is set and elapsed is at least as long.
func (d *Duration) ReachedBy(elapsed time.Duration) bool {
	if d == nil {
		return false
	}
	return elapsed >= time.Duration(*d)
}

type ExitPolicy string

const (
	ExitPolicyMirror        ExitPolicy = "mirror"         // exit code follows the toolchain exit code
	ExitPolicyAlwaysSucceed ExitPolicy = "always-succeed" // report and exit 0 whatever the build did
)

func (p ExitPolicy) Valid() bool {
	switch p {
	case ExitPolicyMirror, ExitPolicyAlwaysSucceed:
		return true
	}
	return false
}

type ToolchainConfig struct {
	Binary  string   `yaml:"binary"`
	Args    []string `yaml:"args"`
	WorkDir string   `yaml:"work_dir,omitempty"` // empty means the current directory
}

// Argv builds the argument vector for target. Every configured arg stays a
// single element, so target never reaches a shell.
func (tc *ToolchainConfig) Argv(target string) []string {
	argv := make([]string, 0, len(tc.Args)+1)
	argv = append(argv, tc.Binary)
	for _, arg := range tc.Args {
		argv = append(argv, strings.ReplaceAll(arg, TargetPlaceholder, target))
	}
	return argv
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type NotificationConditions struct {
	RunLongerThan *Duration `yaml:"run_longer_than,omitempty"` // 30s, 1m, 1h
	OnFailure     bool      `yaml:"on_failure,omitempty"`
}

type Notification struct {
	Type       types.NotificationType `yaml:"type"`
	Conditions NotificationConditions `yaml:"conditions"`
}

type NotifierSettings struct {
	TelegramChatID int64 `yaml:"telegram_chat_id,omitempty"`
}

type BuildConfig struct {
	Toolchain        ToolchainConfig  `yaml:"toolchain"`
	ExitPolicy       ExitPolicy       `yaml:"exit_policy"`
	Log              LogConfig        `yaml:"log"`
	Notifications    []Notification   `yaml:"notifications"`
	NotifierSettings NotifierSettings `yaml:"notifier_settings,omitempty"`
}

func DefaultBuildConfig() *BuildConfig {
	timeout := Duration(time.Second * 30)

	return &BuildConfig{
		Toolchain: ToolchainConfig{
			Binary: "cargo",
			Args:   []string{"build", "--release", "--target", TargetPlaceholder},
		},
		ExitPolicy: ExitPolicyMirror,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Notifications: []Notification{
			{
				Type: types.NotificationCLI,
				Conditions: NotificationConditions{
					RunLongerThan: &timeout,
				},
			},
		},
	}
}

// Validate fills the zero values a partial config file leaves behind and
// rejects values nothing can act on.
func (cfg *BuildConfig) Validate() error {
	def := DefaultBuildConfig()
	if cfg.Toolchain.Binary == "" {
		cfg.Toolchain.Binary = def.Toolchain.Binary
		if cfg.Toolchain.Args == nil {
			cfg.Toolchain.Args = def.Toolchain.Args
		}
	}
	if cfg.ExitPolicy == "" {
		cfg.ExitPolicy = def.ExitPolicy
	}
	if !cfg.ExitPolicy.Valid() {
		return fmt.Errorf("unknown exit_policy '%s'", cfg.ExitPolicy)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	for _, n := range cfg.Notifications {
		switch n.Type {
		case types.NotificationCLI, types.NotificationTelegram:
		default:
			return fmt.Errorf("notification type '%s' is not supported", n.Type)
		}
	}
	return nil
}

func (cfg *BuildConfig) Save(filePath string) error {
	dirPath := path.Dir(filePath)
	if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
		return err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	defer encoder.Close()

	return encoder.Encode(cfg)
}

func DefaultLocation() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return path.Join(dir, appDir, configFileName), nil
}

// SecretPath points to a secret file stored next to the default config.
func SecretPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return path.Join(dir, appDir, name), nil
}

func SaveConfigToDefaultLoc(cfg *BuildConfig) (string, error) {
	loc, err := DefaultLocation()
	if err != nil {
		return "", err
	}
	return loc, cfg.Save(loc)
}

func ReadFrom(filePath string) (*BuildConfig, error) {
	reader, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var ret BuildConfig
	decoder := yaml.NewDecoder(reader)
	if err := decoder.Decode(&ret); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	return &ret, nil
}

// Load reads filePath when given. Without one it tries the default location
// and falls back to the defaults when nothing is there.
func Load(filePath string) (*BuildConfig, error) {
	if filePath != "" {
		return ReadFrom(filePath)
	}

	loc, err := DefaultLocation()
	if err != nil {
		return DefaultBuildConfig(), nil
	}

	cfg, err := ReadFrom(loc)
	if common.IgnoreErr(err, os.ErrNotExist) != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = DefaultBuildConfig()
	}
	return cfg, nil
}
