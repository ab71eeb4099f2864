package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Receiver ReceiverConfig
	Files    FilesConfig
	Display  DisplayConfig
	Server   ServerConfig
	Database DatabaseConfig
	AWS      AWSConfig
	MQTT     MQTTConfig
	LogLevel string
}

// ReceiverConfig holds settings for polling the receiver
type ReceiverConfig struct {
	URL            string
	NoPrompt       bool
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// FilesConfig holds on-disk locations
type FilesConfig struct {
	LogFile       string
	LastURLFile   string
	BandNamesFile string
}

// DisplayConfig holds dashboard settings
type DisplayConfig struct {
	RefreshInterval time.Duration
	SmoothWindow    int
	TimeZone        string
	Location        *time.Location
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// DatabaseConfig holds the optional poll mirror configuration
type DatabaseConfig struct {
	URL string
}

// AWSConfig holds the optional S3/MinIO log archive configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string
}

// MQTTConfig holds the optional MQTT republish configuration
type MQTTConfig struct {
	Broker   string
	Topic    string
	Username string
	Password string
}

var keys = []string{
	"KIWI_URL", "NO_PROMPT", "POLL_INTERVAL", "REQUEST_TIMEOUT",
	"LOG_FILE_PATH", "LAST_URL_FILE", "BAND_NAMES_FILE",
	"REFRESH_INTERVAL", "SMOOTH_WINDOW", "DISPLAY_TZ",
	"PORT", "ENVIRONMENT", "ALLOWED_ORIGINS", "LOG_LEVEL",
	"DATABASE_URL",
	"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "S3_BUCKET", "S3_ENDPOINT",
	"MQTT_BROKER", "MQTT_TOPIC", "MQTT_USERNAME", "MQTT_PASSWORD",
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("KIWI_URL", "")
	v.SetDefault("NO_PROMPT", false)
	v.SetDefault("POLL_INTERVAL", "60s")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("LOG_FILE_PATH", "KiwiSDR_SNR_latest.log")
	v.SetDefault("LAST_URL_FILE", "last_kiwi_url.txt")
	v.SetDefault("BAND_NAMES_FILE", "")
	v.SetDefault("REFRESH_INTERVAL", "30s")
	v.SetDefault("SMOOTH_WINDOW", 3)
	v.SetDefault("DISPLAY_TZ", "Local")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "dev")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("MQTT_BROKER", "")
	v.SetDefault("MQTT_TOPIC", "kiwisnr/snr")
	v.SetDefault("MQTT_USERNAME", "")
	v.SetDefault("MQTT_PASSWORD", "")
}

// Load loads configuration from defaults, .env files and environment variables.
// Flags bound on v by the caller take precedence over all of these.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Read .env file (ignore error if file doesn't exist)
	_ = v.ReadInConfig()

	// Environment variables override .env file values
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var config Config
	config.Receiver.URL = strings.TrimSpace(v.GetString("KIWI_URL"))
	config.Receiver.NoPrompt = v.GetBool("NO_PROMPT")
	config.Receiver.PollInterval = v.GetDuration("POLL_INTERVAL")
	config.Receiver.RequestTimeout = v.GetDuration("REQUEST_TIMEOUT")
	config.Files.LogFile = v.GetString("LOG_FILE_PATH")
	config.Files.LastURLFile = v.GetString("LAST_URL_FILE")
	config.Files.BandNamesFile = v.GetString("BAND_NAMES_FILE")
	config.Display.RefreshInterval = v.GetDuration("REFRESH_INTERVAL")
	config.Display.SmoothWindow = v.GetInt("SMOOTH_WINDOW")
	config.Display.TimeZone = v.GetString("DISPLAY_TZ")
	config.Server.Port = v.GetString("PORT")
	config.Server.Env = v.GetString("ENVIRONMENT")
	config.Server.AllowedOrigins = splitCSV(v.GetString("ALLOWED_ORIGINS"))
	config.LogLevel = v.GetString("LOG_LEVEL")
	config.Database.URL = v.GetString("DATABASE_URL")
	config.AWS.Region = v.GetString("AWS_REGION")
	config.AWS.AccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	config.AWS.SecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")
	config.AWS.S3Bucket = v.GetString("S3_BUCKET")
	config.AWS.S3Endpoint = v.GetString("S3_ENDPOINT")
	config.MQTT.Broker = v.GetString("MQTT_BROKER")
	config.MQTT.Topic = v.GetString("MQTT_TOPIC")
	config.MQTT.Username = v.GetString("MQTT_USERNAME")
	config.MQTT.Password = v.GetString("MQTT_PASSWORD")

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Dur("poll_interval", config.Receiver.PollInterval).
		Dur("refresh_interval", config.Display.RefreshInterval).
		Str("log_file", config.Files.LogFile).
		Str("time_zone", config.Display.Location.String()).
		Msg("Configuration loaded")

	return &config, nil
}

func (c *Config) validate() error {
	if c.Receiver.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Receiver.PollInterval)
	}
	if c.Receiver.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.Receiver.RequestTimeout)
	}
	if c.Display.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.Display.RefreshInterval)
	}
	if c.Display.SmoothWindow < 1 || c.Display.SmoothWindow%2 == 0 {
		return fmt.Errorf("SMOOTH_WINDOW must be a positive odd number, got %d", c.Display.SmoothWindow)
	}
	if c.Files.LogFile == "" {
		return fmt.Errorf("LOG_FILE_PATH is required")
	}

	loc, err := time.LoadLocation(c.Display.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid DISPLAY_TZ %q: %w", c.Display.TimeZone, err)
	}
	c.Display.Location = loc
	return nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
