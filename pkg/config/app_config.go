package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig 进程级配置（日志、随机种子、帧率、持久化）
type AppConfig struct {
	LogLevel string `mapstructure:"logLevel"`
	Seed     int64  `mapstructure:"seed"`
	TPS      int    `mapstructure:"tps"`
	SaveDir  string `mapstructure:"saveDir"`
	DataDir  string `mapstructure:"dataDir"`

	Spawn struct {
		Mode string `mapstructure:"mode"` // 覆盖 spawn_rules.yaml 中的 mode，空表示不覆盖
	} `mapstructure:"spawn"`

	Recorder struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"` // SQLite 文件路径，空表示内存库
	} `mapstructure:"recorder"`
}

// LoadAppConfig 读取 horde.yaml（可选）与 HORDE_ 环境变量，返回合并了默认值的配置
// configDir 为空时只使用默认值与环境变量
func LoadAppConfig(configDir string) (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("logLevel", "info")
	v.SetDefault("seed", 1)
	v.SetDefault("tps", 60)
	v.SetDefault("saveDir", "horde")
	v.SetDefault("dataDir", "data")
	v.SetDefault("spawn.mode", "")
	v.SetDefault("recorder.enabled", true)
	v.SetDefault("recorder.path", "")

	v.SetEnvPrefix("HORDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		v.SetConfigName("horde")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if cfg.TPS <= 0 {
		return nil, fmt.Errorf("tps must be positive, got %d", cfg.TPS)
	}
	switch SpawnMode(cfg.Spawn.Mode) {
	case "", SpawnModeWaves, SpawnModeEndless:
	default:
		return nil, fmt.Errorf("spawn.mode must be empty, %q or %q, got %q", SpawnModeWaves, SpawnModeEndless, cfg.Spawn.Mode)
	}

	return &cfg, nil
}
