package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Redis      RedisConfig      `yaml:"redis"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
	Google     GoogleConfig     `yaml:"google"`
	ItemsPath  string           `yaml:"items_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Address         string `yaml:"address"`
	ReadTimeoutSec  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSec int    `yaml:"write_timeout_seconds"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type GatewayConfig struct {
	PublicKey  string `yaml:"public_key"`
	SecretKey  string `yaml:"secret_key"`
	BaseURL    string `yaml:"base_url"`
	Sandbox    bool   `yaml:"sandbox"`
	Currency   string `yaml:"currency"`
	TimeoutSec int    `yaml:"timeout_seconds"`
}

// Timeout bounds every outbound gateway call.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutSec) * time.Second
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type GoogleConfig struct {
	CredentialsFile           string `yaml:"credentials_file"`
	ReservationsSpreadsheetID string `yaml:"reservations_spreadsheet_id"`
}

// Load reads the YAML config, expanding ${VAR} references from the
// environment. A .env file is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

type itemSpec struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Kind      models.ItemKind   `yaml:"kind"`
	Price     int64             `yaml:"price"`
	Capacity  int               `yaml:"capacity"`
	Remaining *int              `yaml:"remaining"`
	Extra     map[string]string `yaml:"extra"`
}

// LoadItems reads the bookable items file. An absent remaining field
// means the full capacity is available; remaining: 0 is a sold-out item.
func LoadItems(itemsPath string) ([]models.Item, error) {
	data, err := os.ReadFile(itemsPath)
	if err != nil {
		return nil, err
	}

	var itemsConfig struct {
		Items []itemSpec `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &itemsConfig); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(itemsConfig.Items))
	for _, spec := range itemsConfig.Items {
		if !spec.Kind.Valid() {
			return nil, fmt.Errorf("item %s: unknown kind %q", spec.ID, spec.Kind)
		}
		remaining := spec.Capacity
		if spec.Remaining != nil {
			remaining = *spec.Remaining
		}
		if remaining < 0 || remaining > spec.Capacity {
			return nil, fmt.Errorf("item %s: remaining %d out of range 0..%d", spec.ID, remaining, spec.Capacity)
		}
		items = append(items, models.Item{
			ID:                spec.ID,
			Name:              spec.Name,
			Kind:              spec.Kind,
			UnitPrice:         spec.Price,
			TotalCapacity:     spec.Capacity,
			RemainingCapacity: remaining,
			Extra:             spec.Extra,
		})
	}

	return items, nil
}
