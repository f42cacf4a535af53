package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

const (
	PairedUpdateTransactional = "transactional"
	PairedUpdateBestEffort    = "best_effort"
)

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 SETMATCH_* 可覆盖文件配置
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("setmatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	Cfg = &cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("mongo.database", "setmatch")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.slow_ms", 200)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("timeouts.store_ms", 3000)
	v.SetDefault("timeouts.directory_ms", 2000)
	v.SetDefault("negotiation.paired_update", PairedUpdateTransactional)
	v.SetDefault("negotiation.mirror_repair", true)
	v.SetDefault("realtime.channel_prefix", "realtime:room:")
	v.SetDefault("realtime.send_buffer", 64)
	v.SetDefault("realtime.write_timeout_ms", 10000)
	v.SetDefault("cron.reconcile_spec", "0 */5 * * * *")
	v.SetDefault("cron.reconcile_lookback_minutes", 60)
	v.SetDefault("kafka.producer.retry_max", 3)
	v.SetDefault("kafka.producer.timeout_s", 5)
	v.SetDefault("kafka_mirror_consumer.topic", "setmatch.notification.mirror")
	v.SetDefault("kafka_mirror_consumer.group_id", "setmatch-mirror")
}

// Validate 启动前的配置自检
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Mongo.URL == "" {
		return errors.New("mongo.url is required")
	}
	switch c.Negotiation.PairedUpdate {
	case PairedUpdateTransactional, PairedUpdateBestEffort:
	default:
		return fmt.Errorf("negotiation.paired_update must be %q or %q, got %q",
			PairedUpdateTransactional, PairedUpdateBestEffort, c.Negotiation.PairedUpdate)
	}
	if c.Timeouts.StoreMs <= 0 {
		return fmt.Errorf("timeouts.store_ms must be positive, got %d", c.Timeouts.StoreMs)
	}
	if c.Timeouts.DirectoryMs <= 0 {
		return fmt.Errorf("timeouts.directory_ms must be positive, got %d", c.Timeouts.DirectoryMs)
	}
	return nil
}
