// Package config loads the Orchestrator and Differential Indexer's
// ambient settings: the LLM backend, the report log path, Neo4j
// connection parameters, and the mesh-cache Redis address.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings for the brain and indexer.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Report    ReportConfig    `yaml:"report"`
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
	MeshRedis MeshRedisConfig `yaml:"mesh_redis"`
}

type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type ReportConfig struct {
	LogPath string `yaml:"log_path"`
	BoltDB  string `yaml:"bolt_db"`
}

type Neo4jConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type MeshRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       "gemini-1.5-flash",
			Temperature: 0.2,
		},
		Neo4j: Neo4jConfig{
			URL:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		MeshRedis: MeshRedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// Load loads configuration from an optional YAML file, then layers
// environment variable overrides on top.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("llm", cfg.LLM)
	v.SetDefault("report", cfg.Report)
	v.SetDefault("neo4j", cfg.Neo4j)
	v.SetDefault("mesh_redis", cfg.MeshRedis)

	v.SetEnvPrefix("RCABRAIN")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".rcabrain")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadEnvFiles() {
	envFiles := []string{".env.local", ".env"}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
}

// applyEnvOverrides applies raw (un-prefixed) environment variable
// overrides for the well-known variable names.
func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	} else if cfg.LLM.APIKey == "" {
		km := NewKeyringManager()
		if km.IsAvailable() {
			if keychainKey, err := km.GetAPIKey(); err == nil && keychainKey != "" {
				cfg.LLM.APIKey = keychainKey
			}
		}
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if temp := os.Getenv("LLM_TEMPERATURE"); temp != "" {
		if t, err := strconv.ParseFloat(temp, 64); err == nil {
			cfg.LLM.Temperature = t
		}
	}

	if path := os.Getenv("REPORT_LOG_PATH"); path != "" {
		cfg.Report.LogPath = expandPath(path)
	}

	if url := os.Getenv("NEO4J_URL"); url != "" {
		cfg.Neo4j.URL = url
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		cfg.Neo4j.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		cfg.Neo4j.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		cfg.Neo4j.Database = db
	}

	if addr := os.Getenv("MESH_REDIS_ADDR"); addr != "" {
		cfg.MeshRedis.Addr = addr
	}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, path[1:])
}
