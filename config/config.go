package config

import (
	"errors"
	"io/fs"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from MOODBOARD_* environment variables, optionally seeded from a .env file.
type Config struct {
	Host string `default:"127.0.0.1"`
	Port int    `default:"8888"`

	SpotifyID          string `split_words:"true"`
	SpotifySecret      string `split_words:"true"`
	SpotifyRedirectURL string `split_words:"true" default:"http://127.0.0.1:8888/callback"`
	TokenFile          string `split_words:"true" default:".spotify_token.json"`
	FirestoreProject   string `split_words:"true"`

	PlaylistDir string `split_words:"true" default:"playlist"`
	TempDir     string `split_words:"true" default:"temp"`
	FFmpegPath  string `envconfig:"FFMPEG_PATH"`
	FFprobePath string `envconfig:"FFPROBE_PATH"`

	FeatureServiceURL string        `split_words:"true" default:"https://api.reccobeats.com/v1/analysis/audio-features"`
	MoodServiceURL    string        `split_words:"true" default:"http://127.0.0.1:5001/predict-mood"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	FeatureAttempts   int           `split_words:"true" default:"3"`
	RetryBackoff      time.Duration `split_words:"true" default:"500ms"`

	PollInterval   time.Duration `split_words:"true" default:"30s"`
	PlayerInterval time.Duration `split_words:"true" default:"1s"`

	LedgerBackend string `split_words:"true" default:"csv"`
	LedgerDir     string `split_words:"true" default:"CSVS"`
	DatabaseURL   string `split_words:"true"`

	LogLevel      string `split_words:"true" default:"info"`
	LogFile       string `split_words:"true"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxBackups int    `split_words:"true" default:"5"`
	LogMaxAgeDays int    `split_words:"true" default:"30"`
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process("moodboard", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ProvideConfig() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}

var Options = ProvideConfig
