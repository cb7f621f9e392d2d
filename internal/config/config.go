package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server       ServerConfig       `envPrefix:"SERVER_"`
	Log          LogConfig          `envPrefix:"LOG_"`
	Bot          BotConfig          `envPrefix:"BOT_"`
	MTeam        TrackerConfig      `envPrefix:"TRACKER_MTEAM_"`
	Carpt        TrackerConfig      `envPrefix:"TRACKER_CARPT_"`
	Downloaders  string             `env:"DOWNLOADERS" envDefault:"qbittorrent"`
	QBittorrent  QBittorrentConfig  `envPrefix:"QBITTORRENT_"`
	Transmission TransmissionConfig `envPrefix:"TRANSMISSION_"`
	Notifier     NotifierConfig     `envPrefix:"NOTIFIER_"`
	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Kafka        KafkaConfig        `envPrefix:"KAFKA_"`
}

type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080" validate:"required"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format string `env:"FORMAT" envDefault:"json" validate:"oneof=json console"`
	// File enables a rotating log file next to stderr output.
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
}

type BotConfig struct {
	PageSize         int           `env:"PAGE_SIZE" envDefault:"5" validate:"min=1,max=100"`
	MaxMessageLength int           `env:"MAX_MESSAGE_LENGTH" envDefault:"4096" validate:"min=256"`
	NetworkTimeout   time.Duration `env:"NETWORK_TIMEOUT" envDefault:"20s" validate:"min=1s"`
	DefaultTracker   string        `env:"DEFAULT_TRACKER" envDefault:"mteam" validate:"required"`
	AllowedChatIDs   []string      `env:"ALLOWED_CHAT_IDS" envSeparator:","`
}

type TrackerConfig struct {
	BaseURL string `env:"BASE_URL" validate:"omitempty,url"`
	APIKey  string `env:"API_KEY"`
}

type QBittorrentConfig struct {
	URL      string `env:"URL" envDefault:"http://localhost:8080" validate:"omitempty,url"`
	Username string `env:"USERNAME" envDefault:"admin"`
	Password string `env:"PASSWORD"`
	Category string `env:"CATEGORY"`
	SavePath string `env:"SAVE_PATH"`
}

type TransmissionConfig struct {
	URL         string `env:"URL" envDefault:"http://localhost:9091/transmission/rpc" validate:"omitempty,url"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	DownloadDir string `env:"DOWNLOAD_DIR"`
}

type NotifierConfig struct {
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`
	TelegramAPIURL string `env:"TELEGRAM_API_URL" envDefault:"https://api.telegram.org" validate:"url"`
}

type DatabaseConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"torrentbot"`
}

type KafkaConfig struct {
	Enabled     bool     `env:"ENABLED" envDefault:"false"`
	Brokers     []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	GroupID     string   `env:"GROUP_ID" envDefault:"torrent-bot"`
	EventTopic  string   `env:"EVENT_TOPIC" envDefault:"torrent-bot.events"`
	ReplyTopic  string   `env:"REPLY_TOPIC" envDefault:"torrent-bot.replies"`
	// Workers bounds how many chats are handled at once; each chat's events
	// still run one at a time.
	Workers     int      `env:"WORKERS" envDefault:"64" validate:"min=1"`
	// MaxInFlight bounds unfinished events per partition claim.
	MaxInFlight int      `env:"MAX_IN_FLIGHT" envDefault:"256" validate:"min=1"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	return cfg
}
