// Command vaultctl — утилита первичной настройки хранилища: применяет миграции
// и заводит или удаляет учетные записи без HTTP-сервера.
//
//	vaultctl migrate
//	vaultctl user add alice s3cret --family 1
//	vaultctl user add root s3cret --admin
//	vaultctl user delete alice
//
// Строка подключения берётся из STORAGE_CONNECTION_STRING, путь к миграциям
// из MIGRATIONS_PATH.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/familyvault/internal/storage"
)

// ctlConfig содержит часть настроек сервера, нужную утилите.
type ctlConfig struct {
	StorageConnectionString string `env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

var rootCmd = &cobra.Command{
	Use:           "vaultctl",
	Short:         "Family vault bootstrap tool",
	Long:          `Apply database migrations and manage user accounts directly in the store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}

func loadConfig() (ctlConfig, error) {
	var cfg ctlConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return ctlConfig{}, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func openStorage(ctx context.Context) (*storage.Storage, ctlConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, ctlConfig{}, err
	}
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, ctlConfig{}, err
	}
	return db, cfg, nil
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
