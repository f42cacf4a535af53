package config

// Config 配置主体
type Config struct {
	Server              ServerConfig        `mapstructure:"server"`
	DB                  DBConfig            `mapstructure:"database"`
	Redis               RedisConfig         `mapstructure:"redis"`
	Mongo               MongoConfig         `mapstructure:"mongo"`
	Logstash            LogstashConfig      `mapstructure:"logstash"`
	Log                 LogConfig           `mapstructure:"log"`
	JWT                 JWTConfig           `mapstructure:"jwt"`
	Timeouts            TimeoutConfig       `mapstructure:"timeouts"`
	Negotiation         NegotiationConfig   `mapstructure:"negotiation"`
	Realtime            RealtimeConfig      `mapstructure:"realtime"`
	Cron                CronConfig          `mapstructure:"cron"`
	Kafka               KafkaConfig         `mapstructure:"kafka"`
	KafkaMirrorConsumer KafkaMirrorConsumer `mapstructure:"kafka_mirror_consumer"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置 (用户目录 & 好友关系)
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig 通知 / 好友申请 / 报价历史存储
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	SlowMs int    `mapstructure:"slow_ms"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// TimeoutConfig 外部依赖调用超时
type TimeoutConfig struct {
	StoreMs     int `mapstructure:"store_ms"`
	DirectoryMs int `mapstructure:"directory_ms"`
}

// NegotiationConfig 双向通知同步策略
type NegotiationConfig struct {
	PairedUpdate string `mapstructure:"paired_update"` // transactional | best_effort
	MirrorRepair bool   `mapstructure:"mirror_repair"`
}

type RealtimeConfig struct {
	ChannelPrefix  string `mapstructure:"channel_prefix"`
	SendBuffer     int    `mapstructure:"send_buffer"`
	WriteTimeoutMs int    `mapstructure:"write_timeout_ms"`
}

type CronConfig struct {
	ReconcileSpec            string `mapstructure:"reconcile_spec"`
	ReconcileLookbackMinutes int    `mapstructure:"reconcile_lookback_minutes"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Producer ProducerConfig `mapstructure:"producer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type ProducerConfig struct {
	RetryMax int `mapstructure:"retry_max"`
	TimeoutS int `mapstructure:"timeout_s"`
}

type KafkaMirrorConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}
