package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"go-agenda-sync/core/logger"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	GoogleAPI GoogleAPIConfig `mapstructure:"google"`
	Email     EmailConfig     `mapstructure:"email"`
	SMS       SMSConfig       `mapstructure:"sms"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	JWT       JWTConfig       `mapstructure:"jwt"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type GoogleAPIConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

// EmailConfig holds the templated-email provider credentials. An empty
// ServiceID, TemplateID or PublicKey leaves the email channel unconfigured.
type EmailConfig struct {
	ServiceID   string `mapstructure:"service_id"`
	TemplateID  string `mapstructure:"template_id"`
	PublicKey   string `mapstructure:"public_key"`
	SenderName  string `mapstructure:"sender_name"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

func (e EmailConfig) Configured() bool {
	return e.ServiceID != "" && e.TemplateID != "" && e.PublicKey != ""
}

// SMSConfig holds the SMS provider credentials. Empty AccountSID or AuthToken
// leaves the SMS channel unconfigured.
type SMSConfig struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	FromNumber  string `mapstructure:"from_number"`
	APIEndpoint string `mapstructure:"api_endpoint"`
}

func (s SMSConfig) Configured() bool {
	return s.AccountSID != "" && s.AuthToken != "" && s.FromNumber != ""
}

type SchedulerConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type JWTConfig struct {
	StateSecret string `mapstructure:"state_secret"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

func Init() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("Config:Init:NoDotEnv", "reason", "no .env file, relying on environment")
	}

	v := viper.New()
	v.SetEnvPrefix("AGENDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	mu.Lock()
	instance = &cfg
	mu.Unlock()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 7070)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "agenda_sync")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_uri", "")

	v.SetDefault("email.service_id", "")
	v.SetDefault("email.template_id", "")
	v.SetDefault("email.public_key", "")
	v.SetDefault("email.sender_name", "Agenda Sync")
	v.SetDefault("email.api_endpoint", "https://api.emailjs.com/api/v1.0/email/send")

	v.SetDefault("sms.account_sid", "")
	v.SetDefault("sms.auth_token", "")
	v.SetDefault("sms.from_number", "")
	v.SetDefault("sms.api_endpoint", "https://api.twilio.com/2010-04-01")

	v.SetDefault("scheduler.timezone", "Local")

	v.SetDefault("jwt.state_secret", "")
}

func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return nil, false
	}
	return instance, true
}

// Set replaces the config singleton. Test helper.
func Set(cfg *Config) {
	mu.Lock()
	instance = cfg
	mu.Unlock()
}
