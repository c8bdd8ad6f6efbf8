package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env  string `env:"APP_ENV" env-default:"local"`
	Port string `env:"PORT" env-default:"8080"`

	DB     DBConfig
	SMTP   SMTPConfig
	AI     AIConfig
	Upload UploadConfig
}

type DBConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASS" env-default:"postgres"`
	Name     string `env:"DB_NAME" env-default:"lcai"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" env-default:"localhost"`
	Port     string `env:"SMTP_PORT" env-default:"587"`
	From     string `env:"SMTP_FROM" env-default:"noreply@localhost"`
	Password string `env:"SMTP_PASS" env-default:""`
}

type AIConfig struct {
	URL    string `env:"AI_API_URL" env-default:"https://api.openai.com/v1/chat/completions"`
	APIKey string `env:"AI_API_KEY" env-default:""`
	Model  string `env:"AI_MODEL" env-default:"gpt-4o-mini"`
}

type UploadConfig struct {
	Dir     string `env:"UPLOAD_DIR" env-default:"./uploads"`
	BaseURL string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
}

// Load reads configuration from the environment. Defaults cover local
// development; production deployments set the variables explicitly.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
