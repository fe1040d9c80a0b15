package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

type Config struct {
	ProjectID         string
	Region            string
	LogLevel          string
	Port              string
	StoreDriver       string
	DatabaseURL       string
	CronSecret        string
	CronSecretName    string
	TimeZone          string
	NotifyWindowDays  int
	CycleTimeout      time.Duration
	SchedulerInterval time.Duration
	MaxCatchUp        int
}

func New() *Config {
	// .env is optional; Cloud Run injects the environment directly
	_ = godotenv.Load()

	return &Config{
		ProjectID:         os.Getenv("PROJECTID"),
		Region:            os.Getenv("REGION"),
		LogLevel:          os.Getenv("LOGLEVEL"),
		Port:              getEnvOrDefault("PORT", "8080"),
		StoreDriver:       strings.ToLower(getEnvOrDefault("STOREDRIVER", StoreFirestore)),
		DatabaseURL:       os.Getenv("DATABASEURL"),
		CronSecret:        os.Getenv("CRONSECRET"),
		CronSecretName:    os.Getenv("CRONSECRETNAME"),
		TimeZone:          getEnvOrDefault("TIMEZONE", "UTC"),
		NotifyWindowDays:  getIntOrDefault("NOTIFYWINDOWDAYS", 3),
		CycleTimeout:      getDurationOrDefault("CYCLETIMEOUT", 60*time.Second),
		SchedulerInterval: getDurationOrDefault("SCHEDULERINTERVAL", time.Hour),
		MaxCatchUp:        getIntOrDefault("MAXCATCHUP", 366),
	}
}

// Location resolves TimeZone, falling back to UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
