// Package config предоставляет структуры и функции для загрузки конфигурации
// сервиса из YAML-файла и переменных окружения.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Crypto                  `yaml:"crypto"`
	LoginLimit              `yaml:"login_limit"`
	APILimit                `yaml:"api_limit"`
	RedisConnection         `yaml:"redis_connection"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"1h"`
}

// Crypto хранит секрет, из которого выводится ключ шифрования записей.
type Crypto struct {
	CryptoSecretKey string `yaml:"secret_key" env:"CRYPTO_SECRET_KEY" env-required:"true"`
}

// LoginLimit задаёт скользящее окно для попыток входа с одного адреса.
type LoginLimit struct {
	LoginAttempts int           `yaml:"attempts" env:"LOGIN_LIMIT_ATTEMPTS" env-default:"5"`
	LoginWindow   time.Duration `yaml:"window" env:"LOGIN_LIMIT_WINDOW" env-default:"60s"`
}

// APILimit задаёт ограничение частоты запросов к защищённым маршрутам.
type APILimit struct {
	APIRps   float64 `yaml:"rps" env:"API_LIMIT_RPS" env-default:"20"`
	APIBurst int     `yaml:"burst" env:"API_LIMIT_BURST" env-default:"40"`
}

// RedisConnection структура для настройки подключения к redis.
// Если адрес пуст, лимит входа хранится в памяти процесса.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT"`
}

// Load читает конфиг из файла CONFIG_PATH, если он задан, иначе только из окружения.
// Переменные окружения перекрывают значения из файла.
func Load() (*Config, error) {
	const op = "config.Load"
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг и завершает процесс, если обязательные значения не заданы.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"LoginLimit:\n"+
			"  Attempts: %d\n"+
			"  Window: %s\n"+
			"APILimit:\n"+
			"  RPS: %g\n"+
			"  Burst: %d\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n",
		c.Env,
		c.MigrationsPath,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.LoginAttempts,
		c.LoginWindow,
		c.APIRps,
		c.APIBurst,
		c.AddressRedis,
		c.DB,
	)
}
