package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile      = "file"
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

type Config struct {
	Port       string `yaml:"port"`
	Backend    string `yaml:"backend"`
	DataDir    string `yaml:"data_dir"`
	StorageKey string `yaml:"storage_key"`

	GoogleCloudProject    string `yaml:"google_cloud_project"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`

	DatabaseURL string `yaml:"database_url"`

	LineChannelToken  string `yaml:"line_channel_token"`
	LineChannelSecret string `yaml:"line_channel_secret"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		Backend:        BackendFile,
		DataDir:        "data",
		StorageKey:     "todo.tasks.v1",
		AllowedOrigins: []string{"*"},
	}
}

// Load reads .env, then the YAML file named by TODO_CONFIG, then the environment.
// Later sources win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := Default()

	if path := os.Getenv("TODO_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %v", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Backend, "TODO_BACKEND")
	setString(&cfg.DataDir, "TODO_DATA_DIR")
	setString(&cfg.StorageKey, "TODO_STORAGE_KEY")
	setString(&cfg.GoogleCloudProject, "GOOGLE_CLOUD_PROJECT")
	setString(&cfg.GoogleCredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.LineChannelToken, "LINE_CHANNEL_TOKEN")
	setString(&cfg.LineChannelSecret, "LINE_CHANNEL_SECRET")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if c.StorageKey == "" {
		return fmt.Errorf("storage key must not be empty")
	}

	switch c.Backend {
	case BackendMemory:
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("TODO_DATA_DIR is required for the file backend")
		}
	case BackendFirestore:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if (c.LineChannelToken == "") != (c.LineChannelSecret == "") {
		return fmt.Errorf("LINE_CHANNEL_TOKEN and LINE_CHANNEL_SECRET must be set together")
	}
	return nil
}

// LineEnabled reports whether the LINE webhook should be mounted.
func (c Config) LineEnabled() bool {
	return c.LineChannelToken != "" && c.LineChannelSecret != ""
}
