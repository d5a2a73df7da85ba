package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// EnvPrefix is prepended to every environment override, e.g. QRLINKS_AUTH_JWT_SECRET.
const EnvPrefix = "QRLINKS"

const minIDLength = 12

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env             string     `yaml:"env"`
	IDLength        int        `yaml:"id_length" split_words:"true"`
	RedirectBaseURL string     `yaml:"redirect_base_url" split_words:"true"`
	HTTPServer      HTTPServer `yaml:"http_server" split_words:"true"`
	Postgres        Postgres   `yaml:"postgres"`
	Storage         Storage    `yaml:"storage"`
	Shortener       Shortener  `yaml:"shortener"`
	QR              QR         `yaml:"qr"`
	Auth            Auth       `yaml:"auth"`
	Log             Log        `yaml:"log"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout   time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" split_words:"true"`
	CertFile       string        `yaml:"cert_file" split_words:"true"`
	KeyFile        string        `yaml:"key_file" split_words:"true"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode" split_words:"true"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" split_words:"true"`
	MaxIdleConns    int           `yaml:"max_idle_conns" split_words:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" split_words:"true"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.DB,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type Storage struct {
	Driver         string `yaml:"driver"`
	MigrationsPath string `yaml:"migrations_path" split_words:"true"`
}

var defaultStorage = Storage{
	Driver:         StorageDriverPostgres,
	MigrationsPath: "file://migrations",
}

// Shortener configures the external alias provider. An empty endpoint
// disables it and every link uses its internal URL as the public alias.
type Shortener struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

var defaultShortener = Shortener{
	Endpoint: "https://tinyurl.com/api-create.php",
	Timeout:  3 * time.Second,
}

type QR struct {
	Size int `yaml:"size"`
}

var defaultQR = QR{
	Size: 256,
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" split_words:"true"`
	Issuer    string `yaml:"issuer"`
}

var defaultAuth = Auth{
	Issuer: "qr-links",
}

type Log struct {
	Level string `yaml:"level"`
}

var defaultLog = Log{
	Level: "info",
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads the YAML file at path on top of the defaults, applies
// QRLINKS_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to apply environment overrides: %w", op, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvStage, EnvProd:
	default:
		return fmt.Errorf("%w: unknown env %q", ErrInvalidConfig, c.Env)
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.IDLength < minIDLength {
		return fmt.Errorf("%w: id_length must be at least %d", ErrInvalidConfig, minIDLength)
	}

	u, err := url.Parse(c.RedirectBaseURL)
	if c.RedirectBaseURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: redirect_base_url must be an absolute http or https url", ErrInvalidConfig)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("%w: auth.jwt_secret is required", ErrInvalidConfig)
	}

	if c.Env == EnvProd && (c.HTTPServer.CertFile == "" || c.HTTPServer.KeyFile == "") {
		return fmt.Errorf("%w: cert_file and key_file are required in prod", ErrInvalidConfig)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.IDLength = 14
	cfg.RedirectBaseURL = "http://localhost:8080/qr"
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Storage = defaultStorage
	cfg.Shortener = defaultShortener
	cfg.QR = defaultQR
	cfg.Auth = defaultAuth
	cfg.Log = defaultLog
}
