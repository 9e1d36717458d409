package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database engines
const (
	EngineMongo    = "mongodb"
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

type (
	ServerConfig struct {
		Addr                      string
		Host                      string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		AllowedOrigins            []string
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string
		URI           string // mongodb connection string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
		Timeout       time.Duration
	}

	BatchConfig struct {
		Concurrency int
	}

	Config struct {
		AppName          string
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		WorkDir          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Batch    BatchConfig
	}
)

// Address returns the host:port of the postgres server.
func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// QueryTimeout returns the per-query timeout, never zero.
func (c DatabaseConfig) QueryTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}

func (c *Config) FromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.DefaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// NewConfig loads the configuration of the current environment (`ENV`: DEV by default, TEST, QA, PROD).
// Values are read from `config/.env.<env>` when present, then from `<ENV>_`-prefixed environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	v.SetDefault("appName", "ERP Cell")
	v.SetDefault("env", env)
	v.SetDefault("build", "dev")
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("secretKey", "vb3n+0x=k2$a7mz!c%f9q*w&t8h#e1u4r_y(l)p6s^d5g-jo")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("defaultFromEmail", "ERP Cell <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", EngineMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "erp")
	v.SetDefault("database.password", "erp")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.name", "erp_cell")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("batch.concurrency", 8)

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	conf.Env = env
	conf.WorkDir = workDir
	if conf.Batch.Concurrency < 1 {
		conf.Batch.Concurrency = 1
	}
	return conf
}
