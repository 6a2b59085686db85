package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	LLM struct {
		Provider    string        `yaml:"provider" default:"gemini"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"gemini-2.5-flash"`
		MaxTokens   int           `yaml:"max_tokens" default:"8192"`
		Temperature float32       `yaml:"temperature" default:"0.2"`
		Timeout     time.Duration `yaml:"timeout" default:"120s"`
	} `yaml:"llm"`

	Auth struct {
		CredentialsFile string `yaml:"credentials_file" default:"serviceAccountKey.json"`
		ProjectID       string `yaml:"project_id"`
	} `yaml:"auth"`

	Database struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     string `yaml:"port" default:"5432"`
		User     string `yaml:"user" default:"postgres"`
		Password string `yaml:"password"`
		Name     string `yaml:"name" default:"careergpt"`
		SSLMode  string `yaml:"ssl_mode" default:"disable"`
	} `yaml:"database"`

	Redis struct {
		URL            string        `yaml:"url" default:"redis://localhost:6379"`
		Password       string        `yaml:"password"`
		DB             int           `yaml:"db" default:"0"`
		Timeout        time.Duration `yaml:"timeout" default:"5s"`
		Enabled        bool          `yaml:"enabled" default:"false"`
		ExplanationTTL time.Duration `yaml:"explanation_ttl" default:"24h"`
	} `yaml:"redis"`

	RateLimit struct {
		AnalyzePerMinute int `yaml:"analyze_per_minute" default:"5"`
		AnalyzeBurst     int `yaml:"analyze_burst" default:"2"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`
}

// HasDatabase reports whether enough database configuration is present to
// open a connection. When false the service still starts: reads degrade to
// empty results and writes surface explicit errors.
func (c *Config) HasDatabase() bool {
	return c.Database.Host != "" && c.Database.Name != "" && c.Database.User != ""
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.LLM.Provider = "gemini"
	config.LLM.Model = "gemini-2.5-flash"
	config.LLM.MaxTokens = 8192
	config.LLM.Temperature = 0.2
	config.LLM.Timeout = 120 * time.Second

	config.Auth.CredentialsFile = "serviceAccountKey.json"

	// Database.Host is left empty on purpose: persistence is opt-in, and
	// the service runs degraded until a host is configured.
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Name = "careergpt"
	config.Database.SSLMode = "disable"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second
	config.Redis.ExplanationTTL = 24 * time.Hour

	config.RateLimit.AnalyzePerMinute = 5
	config.RateLimit.AnalyzeBurst = 2

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	// Also support LLM_API_KEY for compatibility
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		c.Auth.CredentialsFile = credsFile
	}

	if projectID := os.Getenv("AUTH_PROJECT_ID"); projectID != "" {
		c.Auth.ProjectID = projectID
	}

	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		c.Database.Host = host
	}

	if port := os.Getenv("POSTGRES_PORT"); port != "" {
		c.Database.Port = port
	}

	if user := os.Getenv("POSTGRES_USER"); user != "" {
		c.Database.User = user
	}

	if password := os.Getenv("POSTGRES_PASSWORD"); password != "" {
		c.Database.Password = password
	}

	if name := os.Getenv("POSTGRES_NAME"); name != "" {
		c.Database.Name = name
	}

	if sslMode := os.Getenv("POSTGRES_SSL_MODE"); sslMode != "" {
		c.Database.SSLMode = sslMode
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
		c.Redis.Enabled = true
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if perMinute := os.Getenv("ANALYZE_RATE_LIMIT"); perMinute != "" {
		if limit, err := strconv.Atoi(perMinute); err == nil {
			c.RateLimit.AnalyzePerMinute = limit
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}
}
