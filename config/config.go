// Initializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	App    AppConfig    `mapstructure:"app"`
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

type ServerConfig struct {
	AppVersion  string        `mapstructure:"appVersion"`
	Host        string        `mapstructure:"host"`
	Port        string        `mapstructure:"port"`
	Timeout     time.Duration `mapstructure:"timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Mode        string        `mapstructure:"mode"`
}

type AppConfig struct {
	TargetSize     int    `mapstructure:"target_size"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	AllowedOrigin  string `mapstructure:"allowed_origin"`
}

type OpenAIConfig struct {
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
	ChatModel         string `mapstructure:"chat_model"`
	ImageModel        string `mapstructure:"image_model"`
	EditModel         string `mapstructure:"edit_model"`
	MaxAnalysisTokens int    `mapstructure:"max_analysis_tokens"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}

	// Secrets and deploy-specific values come from the environment, never
	// from the yaml file. The API key may legitimately be empty here: the
	// client reports a configuration error on first use instead of the
	// process refusing to start.
	c.Server.Port = GetEnv("PORT", c.Server.Port)
	c.App.AllowedOrigin = GetEnv("ALLOWED_ORIGIN", c.App.AllowedOrigin)
	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.BaseURL = GetEnv("OPENAI_BASE_URL", c.OpenAI.BaseURL)

	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
