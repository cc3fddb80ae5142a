package helper

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DatabaseConfiguration holds the Postgres connection settings.
type DatabaseConfiguration struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Database string `envconfig:"DB_DATABASE" default:"pagerag"`
	Username string `envconfig:"DB_USERNAME" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD"`
	Schema   string `envconfig:"DB_SCHEMA" default:"public"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// NewDatabaseConfiguration reads the database settings from the
// environment, loading a .env file first if one exists.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{}
	err := envconfig.Process("", config)
	if err != nil {
		return nil, NewError("process database env", err)
	}
	return config, nil
}

// EmbedderConfiguration selects and configures the embedding provider.
// Provider is one of "openai", "ollama", "gemini" or "local".
type EmbedderConfiguration struct {
	Provider  string `envconfig:"EMBEDDER_PROVIDER" default:"local"`
	Model     string `envconfig:"EMBEDDER_MODEL"`
	BaseURL   string `envconfig:"EMBEDDER_BASE_URL"`
	APIKey    string `envconfig:"EMBEDDER_API_KEY"`
	ModelPath string `envconfig:"EMBEDDER_MODEL_PATH" default:"./models"`
}

func NewEmbedderConfiguration() (*EmbedderConfiguration, error) {
	_ = godotenv.Load()

	config := &EmbedderConfiguration{}
	err := envconfig.Process("", config)
	if err != nil {
		return nil, NewError("process embedder env", err)
	}
	return config, nil
}
