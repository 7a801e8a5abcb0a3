package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration -- time.Duration с разбором из yaml-строки ("30m", "6h").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type SyncConfig struct {
	SalesDepthDays   int      `yaml:"sales_depth_days"`
	PageLimit        int      `yaml:"page_limit"`
	Workers          int      `yaml:"workers"`
	JobRetries       int      `yaml:"job_retries"`
	JobRetryDelay    Duration `yaml:"job_retry_delay"`
	ProductsInterval Duration `yaml:"products_interval"`
	SalesInterval    Duration `yaml:"sales_interval"`
	StocksInterval   Duration `yaml:"stocks_interval"`
}

type DashboardConfig struct {
	// порог "мало на складе"; намеренно настраиваемый
	LowStockThreshold int `yaml:"low_stock_threshold"`
}

type AppConfig struct {
	Sync      SyncConfig      `yaml:"sync"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Sync: SyncConfig{
			SalesDepthDays:   90,
			PageLimit:        100,
			Workers:          4,
			JobRetries:       3,
			JobRetryDelay:    Duration(60 * time.Second),
			ProductsInterval: Duration(6 * time.Hour),
			SalesInterval:    Duration(30 * time.Minute),
			StocksInterval:   Duration(time.Hour),
		},
		Dashboard: DashboardConfig{LowStockThreshold: 10},
	}
}

// LoadAppConfig читает yaml поверх дефолтов; отсутствующий файл -- дефолты.
func LoadAppConfig(filename string) (*AppConfig, error) {
	config := defaultAppConfig()

	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return config, nil
}
