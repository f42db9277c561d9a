package config

import "time"

// Config is the root configuration for the canelink bridge.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Device    DeviceConfig    `yaml:"device"`
	Hub       HubConfig       `yaml:"hub"`
	Database  DatabaseConfig  `yaml:"database"`
	MCP       MCPConfig       `yaml:"mcp"`
	Redis     RedisConfig     `yaml:"redis"`
	Tunnel    TunnelConfig    `yaml:"tunnel"`
	Listeners ListenersConfig `yaml:"listeners"`
}

// ServerConfig configures the HTTP bridge. Host defaults to all interfaces
// so the phone can reach it over the LAN; set 127.0.0.1 to keep it local.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	PublicURL   string   `yaml:"public_url"`
	LogLevel    string   `yaml:"log_level"`
	LogFile     string   `yaml:"log_file"`
	CORSOrigins []string `yaml:"cors_origins"` // empty allows any origin
}

// Transport kinds accepted in device.transport.
const (
	TransportMemory = "memory"
	TransportBLE    = "ble"
)

type DeviceConfig struct {
	Name      string `yaml:"name"`
	Transport string `yaml:"transport"`
}

type HubConfig struct {
	// Strict rejects attaching the same listener twice.
	Strict bool `yaml:"strict"`
}

type DatabaseConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type MCPConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MinInterval time.Duration `yaml:"min_interval"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type TunnelConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"authtoken"`
	Domain    string `yaml:"domain"`
}

type ListenersConfig struct {
	MobileApp bool `yaml:"mobile_app"`
	History   bool `yaml:"history"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     5000,
			LogLevel: "info",
		},
		Device: DeviceConfig{
			Name:      "SmartCane",
			Transport: TransportBLE,
		},
		Database: DatabaseConfig{
			Path:          "~/.config/canelink/canelink.db",
			RetentionDays: 30,
		},
		MCP: MCPConfig{
			Enabled:     true,
			MinInterval: time.Second,
		},
		Redis: RedisConfig{
			Addr:    "127.0.0.1:6379",
			Channel: "canelink:messages",
		},
		Listeners: ListenersConfig{
			MobileApp: true,
			History:   true,
		},
	}
}
