package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	EnvPath     = "BOOKREC_CONFIG"
	DefaultPath = "bookrec.yaml"
)

// CatalogConfig источник каталога книг
type CatalogConfig struct {
	Path        string `yaml:"path"`
	StripMarkup bool   `yaml:"strip_markup"`
}

// ExportConfig настройки выгрузки результатов в таблицу
type ExportConfig struct {
	DefaultDir        string `yaml:"default_dir"`
	SheetName         string `yaml:"sheet_name"`
	ProgressThreshold int    `yaml:"progress_threshold"`
}

// ShellConfig настройки интерактивной оболочки
type ShellConfig struct {
	HistoryFile     string `yaml:"history_file"`
	SuggestionLimit int    `yaml:"suggestion_limit"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// MetricsConfig куда сбрасывать метрики при выходе (пусто = никуда)
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Config корень дерева конфигурации, соответствует bookrec.yaml
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Export  ExportConfig  `yaml:"export"`
	Shell   ShellConfig   `yaml:"shell"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Default возвращает конфигурацию, с которой программа работает без bookrec.yaml
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Path: "books.json"},
		Export: ExportConfig{
			SheetName:         "Recommendations",
			ProgressThreshold: 500,
		},
		Shell: ShellConfig{
			HistoryFile:     ".bookrec_history",
			SuggestionLimit: 20,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Resolve выбирает путь к конфигу: флаг, затем переменная окружения, затем bookrec.yaml.
// explicit=false только для пути по умолчанию.
func Resolve(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// Load читает YAML поверх значений по умолчанию и проверяет результат.
// Отсутствие файла по умолчанию не ошибка.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return cfg, nil
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Catalog),
		validation.Field(&c.Export),
		validation.Field(&c.Shell),
		validation.Field(&c.Logging),
	)
}

func (c CatalogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	)
}

func (c ExportConfig) Validate() error {
	return validation.ValidateStruct(&c,
		// Excel limits sheet names to 31 characters.
		validation.Field(&c.SheetName, validation.Required, validation.RuneLength(1, 31)),
		validation.Field(&c.ProgressThreshold, validation.Min(0)),
	)
}

func (c ShellConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SuggestionLimit, validation.Required, validation.Min(1)),
	)
}

func (c LoggingConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("trace", "debug", "info", "warn", "warning", "error")),
	)
}
