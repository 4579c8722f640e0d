package config

import "github.com/caarlos0/env/v11"

type Config struct {
	ListenAddr          string `env:"LISTEN_ADDR"           envDefault:":8080"`
	DBPath              string `env:"DB_PATH"               envDefault:"db.sqlite"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY,required,notEmpty"`
	JWTSecret           string `env:"JWT_SECRET,required,notEmpty"`
	DefaultModel        string `env:"DEFAULT_MODEL"         envDefault:"gpt-5-mini-2025-08-07"`
	DefaultWindowDays   int64  `env:"DEFAULT_WINDOW_DAYS"   envDefault:"7"`
	DefaultCooldownSecs int64  `env:"DEFAULT_COOLDOWN_SECS" envDefault:"3600"`
	FeedCooldownSecs    int64  `env:"FEED_COOLDOWN_SECS"    envDefault:"600"`
	EnableFeedCron      bool   `env:"ENABLE_FEED_CRON"      envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
