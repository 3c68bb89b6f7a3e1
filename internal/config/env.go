package config

import (
	"fmt"
	"strings"
	"time"

	"shuttle/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Env struct {
	AppAddr string `mapstructure:"APP_ADDR" validate:"required"`
	GinMode string `mapstructure:"GIN_MODE" validate:"omitempty,oneof=debug release test"`

	DBHost         string `mapstructure:"DB_HOST" validate:"required"`
	DBPort         int    `mapstructure:"DB_PORT" validate:"min=1,max=65535"`
	DBUser         string `mapstructure:"DB_USER" validate:"required"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME" validate:"required"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS" validate:"min=1"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL" validate:"min=1m"`

	CORSAllowedOrigins []string `mapstructure:"-"`

	NATSURL           string `mapstructure:"NATS_URL"`
	NATSSubjectPrefix string `mapstructure:"NATS_SUBJECT_PREFIX"`

	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
	TZ             string `mapstructure:"TZ"`
}

var envKeys = []string{
	"APP_ADDR", "GIN_MODE",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_MAX_OPEN_CONNS",
	"JWT_SECRET", "JWT_TTL", "CORS_ALLOWED_ORIGINS",
	"NATS_URL", "NATS_SUBJECT_PREFIX", "METRICS_ENABLED", "TZ",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_NAME", "shuttle")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("NATS_SUBJECT_PREFIX", "shuttle.vehicles")
	v.SetDefault("METRICS_ENABLED", true)
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()
	return loadFrom(viper.New())
}

func loadFrom(v *viper.Viper) (Env, error) {
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return Env{}, fmt.Errorf("read config: %w", err)
	}
	env.AppAddr = strings.TrimSpace(env.AppAddr)
	env.GinMode = strings.TrimSpace(env.GinMode)
	env.CORSAllowedOrigins = utils.SplitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := validator.New().Struct(env); err != nil {
		return Env{}, fmt.Errorf("invalid config: %w", err)
	}
	if env.JWTSecret == "" {
		if env.GinMode == "release" {
			return Env{}, fmt.Errorf("invalid config: JWT_SECRET is required in release mode")
		}
		env.JWTSecret = "dev-secret-change-me"
	}
	return env, nil
}

// Location resolves TZ, defaulting to the process local zone.
func (e Env) Location() (*time.Location, error) {
	if strings.TrimSpace(e.TZ) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(e.TZ)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ: %w", err)
	}
	return loc, nil
}
