// Application configuration: ./config/config.yaml with FRAME_* overrides
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	App       AppConfig       `mapstructure:"app"`
	ImageHost ImageHostConfig `mapstructure:"image_host"`
	Signer    SignerConfig    `mapstructure:"signer"`
	Hub       HubConfig       `mapstructure:"hub"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"app_version"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

type AppConfig struct {
	JobTimeout     time.Duration `mapstructure:"job_timeout"`
	MaxImageBytes  int64         `mapstructure:"max_image_bytes"`
	MaxImagePixels int64         `mapstructure:"max_image_pixels"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	RemoteTimeout  time.Duration `mapstructure:"remote_timeout"`
	QRSize         int           `mapstructure:"qr_size"`
}

type ImageHostConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type SignerConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	RequestFID   uint64        `mapstructure:"request_fid"`
	DeadlineTTL  time.Duration `mapstructure:"deadline_ttl"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

type HubConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig selects the credential store. With Enabled false credentials
// live in process memory.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

func LoadConfig() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FRAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("app.job_timeout", 15*time.Minute)
	v.SetDefault("app.max_image_bytes", 20<<20)
	v.SetDefault("app.max_image_pixels", 40_000_000)
	v.SetDefault("app.fetch_timeout", 20*time.Second)
	v.SetDefault("app.remote_timeout", 15*time.Second)
	v.SetDefault("app.qr_size", 256)

	v.SetDefault("image_host.base_url", "http://localhost:3001")
	v.SetDefault("signer.base_url", "http://localhost:3002")
	v.SetDefault("signer.request_fid", 0)
	v.SetDefault("signer.deadline_ttl", 24*time.Hour)
	v.SetDefault("signer.poll_interval", 2*time.Second)
	v.SetDefault("signer.max_wait", 10*time.Minute)
	v.SetDefault("hub.base_url", "https://api.warpcast.com")

	v.SetDefault("storage.path", "./storage")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "pfpframe:credential")
	v.SetDefault("redis.ttl", time.Duration(0))

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "pfp-changed")
	v.SetDefault("kafka.group_id", "pfp-events")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
