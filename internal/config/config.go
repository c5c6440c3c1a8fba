package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/khanghh/naversign/internal/signature"
	"github.com/khanghh/naversign/params"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultListenAddr   = ":3000"
	DefaultEnv          = "production"
	DevelopmentEnv      = "development"
	DefaultMode         = signature.ModeGeneratedSalt
	DefaultLogMaxSizeMB = params.LogFileMaxSizeMB
)

type SignatureConfig struct {
	Mode            string        `mapstructure:"mode"`
	Cost            int           `mapstructure:"cost"`
	MaxCost         int           `mapstructure:"maxCost"`
	StrictTimestamp bool          `mapstructure:"strictTimestamp"`
	Workers         int           `mapstructure:"workers"`
	Timeout         time.Duration `mapstructure:"timeout"`
	NodeID          int64         `mapstructure:"nodeID"`
}

type NaverConfig struct {
	TokenURL     string `mapstructure:"tokenURL"`
	ClientID     string `mapstructure:"clientID"`
	ClientSecret string `mapstructure:"clientSecret"`
	Type         string `mapstructure:"type"`
	AccountID    string `mapstructure:"accountID"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress"`
}

type Config struct {
	Debug           bool            `mapstructure:"debug"`
	Env             string          `mapstructure:"env"`
	Port            int             `mapstructure:"port"`
	ListenAddr      string          `mapstructure:"listenAddr"`
	HealthCheckAddr string          `mapstructure:"healthCheckAddr"`
	AllowOrigins    []string        `mapstructure:"allowOrigins"`
	Signature       SignatureConfig `mapstructure:"signature"`
	Naver           NaverConfig     `mapstructure:"naver"`
	Log             LogConfig       `mapstructure:"log"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == DevelopmentEnv
}

// SignatureOptions converts the signature section into engine options.
func (c *Config) SignatureOptions() signature.Options {
	mode, _ := signature.ParseMode(c.Signature.Mode)
	return signature.Options{
		Mode:            mode,
		Cost:            c.Signature.Cost,
		MaxCost:         c.Signature.MaxCost,
		StrictTimestamp: c.Signature.StrictTimestamp,
	}
}

func (c *Config) Sanitize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = DefaultEnv
	}
	if c.Port != 0 {
		c.ListenAddr = fmt.Sprintf(":%d", c.Port)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.HealthCheckAddr == "" {
		c.HealthCheckAddr = params.HealthCheckServerAddr
	}
	if len(c.AllowOrigins) == 0 {
		c.AllowOrigins = []string{"*"}
	}

	mode, err := signature.ParseMode(c.Signature.Mode)
	if err != nil {
		return err
	}
	c.Signature.Mode = mode.String()
	if c.Signature.Cost == 0 {
		c.Signature.Cost = signature.DefaultCost
	}
	if c.Signature.Cost < bcrypt.MinCost || c.Signature.Cost > bcrypt.MaxCost {
		return fmt.Errorf("signature.cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Signature.MaxCost < 0 || c.Signature.MaxCost > bcrypt.MaxCost {
		return fmt.Errorf("signature.maxCost must be between 0 and %d", bcrypt.MaxCost)
	}
	if c.Signature.Workers <= 0 {
		c.Signature.Workers = runtime.NumCPU()
	}
	if c.Signature.NodeID < 0 || c.Signature.NodeID > 1023 {
		return fmt.Errorf("signature.nodeID must be between 0 and 1023")
	}

	c.Naver.Type = strings.ToUpper(c.Naver.Type)
	if c.Naver.Type == "" {
		c.Naver.Type = params.NaverTokenTypeSelf
	}
	if c.Naver.Type != params.NaverTokenTypeSelf && c.Naver.Type != params.NaverTokenTypeSeller {
		return fmt.Errorf("unsupported naver token type %q", c.Naver.Type)
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("env", DefaultEnv)
	v.SetDefault("port", 0)
	v.SetDefault("listenAddr", DefaultListenAddr)
	v.SetDefault("healthCheckAddr", params.HealthCheckServerAddr)
	v.SetDefault("allowOrigins", []string{"*"})
	v.SetDefault("signature.mode", DefaultMode.String())
	v.SetDefault("signature.cost", signature.DefaultCost)
	v.SetDefault("signature.maxCost", params.SignatureMaxSaltCost)
	v.SetDefault("signature.strictTimestamp", true)
	v.SetDefault("signature.workers", 0)
	v.SetDefault("signature.timeout", params.SignatureCallTimeout)
	v.SetDefault("signature.nodeID", 1)
	v.SetDefault("naver.tokenURL", params.NaverTokenURL)
	v.SetDefault("naver.clientID", "")
	v.SetDefault("naver.clientSecret", "")
	v.SetDefault("naver.type", params.NaverTokenTypeSelf)
	v.SetDefault("naver.accountID", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", params.LogFileMaxSizeMB)
	v.SetDefault("log.maxBackups", params.LogFileMaxBackups)
	v.SetDefault("log.maxAgeDays", params.LogFileMaxAgeDays)
	v.SetDefault("log.compress", false)
}

// LoadConfig reads the YAML file at filename, if any, on top of the defaults.
// Environment variables (optionally from a .env file) override both, e.g.
// SIGNATURE_MODE=base64 or PORT=8080.
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("env", "ENV", "APP_ENV")

	if filename != "" {
		v.SetConfigFile(filename)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
