// Package config loads the deployment configuration: the warehouse map the
// derivation engine is parameterized with, database connection settings,
// and the shared logger.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// WarehouseConfig is the on-disk shape of the warehouse map. The hopper
// warehouse is optional; leaving it empty disables hopper receipts on
// submit.
type WarehouseConfig struct {
	RawMaterialSource string `yaml:"raw_material_source"`
	ScrapTarget       string `yaml:"scrap_target"`
	MainProductTarget string `yaml:"main_product_target"`
	HopperWarehouse   string `yaml:"hopper_warehouse"`
}

// DatabaseConfig holds MySQL connection settings, read from the
// environment.
type DatabaseConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// DSN renders the MySQL data source name.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// Config is the full deployment configuration.
type Config struct {
	Warehouses WarehouseConfig
	Database   DatabaseConfig
	LogLevel   string
}

// LoadWarehouseConfig reads and validates a warehouse map YAML file.
func LoadWarehouseConfig(path string) (*WarehouseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading warehouse config: %w", err)
	}

	var cfg WarehouseConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing warehouse config %s: %w", path, err)
	}
	if _, err := cfg.WarehouseMap(); err != nil {
		return nil, fmt.Errorf("warehouse config %s: %w", path, err)
	}
	return &cfg, nil
}

// WarehouseMap converts the file shape to the validated domain mapping.
func (c WarehouseConfig) WarehouseMap() (*entities.WarehouseMap, error) {
	return entities.NewWarehouseMap(c.RawMaterialSource, c.ScrapTarget, c.MainProductTarget)
}

// LoadEnv reads the environment (optionally seeded from a .env file) into
// a Config. The warehouse map file is loaded separately.
func LoadEnv() Config {
	// A missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	return Config{
		Database: DatabaseConfig{
			User:     getenv("DB_USER", "root"),
			Password: os.Getenv("DB_PASSWORD"),
			Host:     getenv("DB_HOST", "127.0.0.1"),
			Port:     getenv("DB_PORT", "3306"),
			Name:     getenv("DB_NAME", "prodlog"),
		},
		LogLevel: getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// NewLogger builds the shared JSON logger at the configured level.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}
