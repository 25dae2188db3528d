package config

// Config is the top-level application configuration.
type Config struct {
	// Listen is the address of the main HTTP listener.
	Listen string `yaml:"listen"`

	Admin   AdminConfig   `yaml:"admin"`
	Logging LoggingConfig `yaml:"logging"`
	Routing RoutingKeys   `yaml:"routing"`
	Redis   RedisConfig   `yaml:"redis"`
}

// AdminConfig configures the optional admin/metrics listener.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File, when set, routes log output to a rotating file.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// RoutingKeys is the file-backed form of the routing key/value store.
type RoutingKeys struct {
	NewService    string `yaml:"new_service"`
	LegacyService string `yaml:"legacy_service"`
	GET           string `yaml:"get"`
	POST          string `yaml:"post"`
}

// Get implements Store, mapping the canonical key names onto the file
// configuration fields.
func (k RoutingKeys) Get(key string) string {
	switch key {
	case KeyNewService:
		return k.NewService
	case KeyLegacyService:
		return k.LegacyService
	case KeyGET:
		return k.GET
	case KeyPOST:
		return k.POST
	}
	return ""
}

// RedisConfig configures the optional Redis-backed routing store. When
// enabled it takes precedence over the routing section of the file.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen: ":8080",
		Admin: AdminConfig{
			Enabled: true,
			Listen:  ":9090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}
