package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	App     AppConfig     `mapstructure:"app"`
}

type HTTPConfig struct {
	Addr            string   `mapstructure:"addr"`
	MaxRequestBytes int64    `mapstructure:"max_request_bytes"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	TrustProxy      bool     `mapstructure:"trust_proxy"`
}

type StorageConfig struct {
	Backend      string   `mapstructure:"backend"`
	Dir          string   `mapstructure:"dir"`
	MaxFileBytes int64    `mapstructure:"max_file_bytes"`
	S3           S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	GelfAddr string `mapstructure:"gelf_addr"`
}

type AppConfig struct {
	Version string `mapstructure:"version"`
}

const envPrefix = "JURIDOC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.max_request_bytes", 64<<20)
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.trust_proxy", false)

	v.SetDefault("storage.backend", "disk")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("storage.max_file_bytes", 10<<20)
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "uploads")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.gelf_addr", "")

	v.SetDefault("app.version", "dev")
}

// Load reads defaults, then the optional YAML file at path, then
// JURIDOC_* environment variables (JURIDOC_HTTP_ADDR overrides http.addr).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr: required"))
	}
	if c.HTTP.MaxRequestBytes <= 0 {
		errs = append(errs, errors.New("http.max_request_bytes: must be positive"))
	}
	if c.Storage.MaxFileBytes <= 0 {
		errs = append(errs, errors.New("storage.max_file_bytes: must be positive"))
	}
	if c.Storage.MaxFileBytes > c.HTTP.MaxRequestBytes {
		errs = append(errs, errors.New("storage.max_file_bytes: must not exceed http.max_request_bytes"))
	}
	switch c.Storage.Backend {
	case "disk":
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir: required for disk backend"))
		}
	case "s3":
		s3 := c.Storage.S3
		if s3.Endpoint == "" || s3.AccessKey == "" || s3.SecretKey == "" || s3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3: endpoint, access_key, secret_key and bucket are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend: must be disk or s3 (got %q)", c.Storage.Backend))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be json or text (got %q)", c.Log.Format))
	}
	return errors.Join(errs...)
}
