// Package config reads settings from the environment and an optional .env
// file. Command-line flags registered with RegisterFlags take precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting.
type Config struct {
	DBPath        string
	Addr          string
	AdminUser     string
	AdminPassword string
	LogPath       string
	Debug         bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ShopName      string
	PageSize      int
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DBPath:    "hms.sqlite3",
		Addr:      ":8080",
		AdminUser: "Admin",
		ShopName:  "Nuclear Hardware",
		PageSize:  30,
	}
}

// Load reads the given .env files (".env" when none are named) into the
// environment and builds the configuration from it. Missing files are
// ignored; variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from HMS_* variables over the defaults.
func FromEnv() (*Config, error) {
	c := Default()

	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := os.LookupEnv(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	str(&c.DBPath, "HMS_DB")
	str(&c.Addr, "HMS_ADDR")
	str(&c.AdminUser, "HMS_ADMIN_USER", "SUPERUSER_USERNAME")
	str(&c.AdminPassword, "HMS_ADMIN_PASSWORD", "SUPERUSER_PASSWORD")
	str(&c.LogPath, "HMS_LOG")
	str(&c.RedisAddr, "HMS_REDIS_ADDR")
	str(&c.RedisPassword, "HMS_REDIS_PASSWORD")
	str(&c.ShopName, "HMS_SHOP_NAME")

	var err error
	if c.RedisDB, err = intEnv("HMS_REDIS_DB", c.RedisDB); err != nil {
		return nil, err
	}
	if c.PageSize, err = intEnv("HMS_PAGE_SIZE", c.PageSize); err != nil {
		return nil, err
	}
	if v := os.Getenv("HMS_DEBUG"); v != "" {
		if c.Debug, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("HMS_DEBUG: %q is not a boolean", v)
		}
	}
	if c.PageSize < 1 {
		return nil, fmt.Errorf("HMS_PAGE_SIZE must be at least 1")
	}

	return c, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return n, nil
}

// RegisterFlags binds the short and long command-line flags to c, using the
// current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DBPath, "db", c.DBPath, "")
	fs.StringVar(&c.DBPath, "d", c.DBPath, "")

	fs.StringVar(&c.Addr, "addr", c.Addr, "")
	fs.StringVar(&c.Addr, "a", c.Addr, "")

	fs.StringVar(&c.AdminUser, "user", c.AdminUser, "")
	fs.StringVar(&c.AdminUser, "u", c.AdminUser, "")

	fs.StringVar(&c.LogPath, "log", c.LogPath, "")
	fs.StringVar(&c.LogPath, "l", c.LogPath, "")

	fs.BoolVar(&c.Debug, "debug", c.Debug, "")

	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "")
	fs.StringVar(&c.RedisAddr, "r", c.RedisAddr, "")
}

// UseRedis reports whether carts are kept in Redis.
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}
