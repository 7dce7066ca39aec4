package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Discord  DiscordConfig
	Tickets  TicketsConfig
	Announce AnnounceConfig
	Store    StoreConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Log      LogConfig
	LangFile string
}

type DiscordConfig struct {
	Token   string
	GuildID string
}

type TicketsConfig struct {
	CategoryName   string
	Prefix         string
	StaffRole      string
	AuditChannelID string
	DeleteDelay    time.Duration
}

type AnnounceConfig struct {
	APIBase string
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
	MongoURI   string
	MongoDB    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment, with an optional .env file.
// Defaults are applied here so the rest of the bot never re-checks for zero
// values.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Discord: DiscordConfig{
			Token:   os.Getenv("DISCORD_TOKEN"),
			GuildID: os.Getenv("GUILD_ID"),
		},
		Tickets: TicketsConfig{
			CategoryName:   getEnv("TICKET_CATEGORY", "Support Tickets"),
			Prefix:         getEnv("TICKET_PREFIX", "ticket"),
			StaffRole:      getEnv("STAFF_ROLE", "Staff"),
			AuditChannelID: normalizeChannelID(os.Getenv("AUDIT_CHANNEL_ID")),
			DeleteDelay:    time.Duration(getEnvAsInt("TICKET_DELETE_DELAY_SECONDS", 3)) * time.Second,
		},
		Announce: AnnounceConfig{
			APIBase: getEnv("EVENTS_API_BASE", "https://api.truckersmp.com"),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", "sqlite"),
			SQLitePath: getEnv("SQLITE_PATH", "data/tickets.db"),
			MongoURI:   getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:    getEnv("MONGO_DATABASE", "convoybot"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnv("AMQP_EXCHANGE", "convoy.events"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		LangFile: os.Getenv("LANG_FILE"),
	}

	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.Discord.GuildID == "" {
		return nil, fmt.Errorf("GUILD_ID is required")
	}
	switch cfg.Store.Driver {
	case "sqlite", "mongodb", "none":
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER: %s (use \"sqlite\", \"mongodb\" or \"none\")", cfg.Store.Driver)
	}
	if cfg.Tickets.DeleteDelay < 0 {
		cfg.Tickets.DeleteDelay = 0
	}
	return cfg, nil
}

// normalizeChannelID treats "0" the same as unset.
func normalizeChannelID(v string) string {
	if v == "0" {
		return ""
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
