package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Database   Database
	Auth       Auth
	Storage    Storage
	Submission Submission
}

type Server struct {
	Port string
	Mode string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Auth struct {
	JWTSecret     string
	TokenTTLHours int
}

type Storage struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Submission struct {
	// MaxFileBytes caps the declared size of file answers. 16 MiB unless overridden.
	MaxFileBytes int64
	// RateLimitPerMinute bounds public submissions per client IP. 0 disables the limiter.
	RateLimitPerMinute int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("AUTH_TOKEN_TTL_HOURS", 24)
	viper.SetDefault("STORAGE_BUCKET", "form-uploads")
	viper.SetDefault("SUBMISSION_MAX_FILE_BYTES", int64(16<<20))
	viper.SetDefault("SUBMISSION_RATE_LIMIT_PER_MINUTE", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.Mode = viper.GetString("SERVER_MODE")

	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Auth.JWTSecret = viper.GetString("AUTH_JWT_SECRET")
	config.Auth.TokenTTLHours = viper.GetInt("AUTH_TOKEN_TTL_HOURS")

	config.Storage.Endpoint = viper.GetString("STORAGE_ENDPOINT")
	config.Storage.AccessKey = viper.GetString("STORAGE_ACCESS_KEY")
	config.Storage.SecretKey = viper.GetString("STORAGE_SECRET_KEY")
	config.Storage.Bucket = viper.GetString("STORAGE_BUCKET")
	config.Storage.UseSSL = viper.GetBool("STORAGE_USE_SSL")

	config.Submission.MaxFileBytes = viper.GetInt64("SUBMISSION_MAX_FILE_BYTES")
	config.Submission.RateLimitPerMinute = viper.GetInt("SUBMISSION_RATE_LIMIT_PER_MINUTE")

	log.Info().Str("port", config.Server.Port).Str("db_host", config.Database.Host).Msg("Config loaded")
	return &config, nil
}
