// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	LogLevel string
	Database Database
	Reports  Reports
	Mail     Mail
	HgAuth   HgAuth
}

// Database selects the report store.
type Database struct {
	Driver string
	DSN    string
}

// Reports holds the settings of the digest job.
type Reports struct {
	URLRoot             string
	Secret              string
	DefaultSubscription string
	DefaultRecipient    string
	SubscriptionsFile   string
	// ScheduleHour is the UTC hour after which scheduled runs start.
	ScheduleHour int
}

// Mail holds the settings of the digest transport.
type Mail struct {
	Transport    string
	From         string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SESRegion    string
	AWSAccessKey string
	AWSSecretKey string
}

// HgAuth holds the settings of the authorized_keys generator.
type HgAuth struct {
	Repository string
	File       string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	smtpPort := 25
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		p, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid SMTP_PORT %q", raw)
		}
		smtpPort = p
	}

	scheduleHour := 6
	if raw := os.Getenv("DIGEST_HOUR"); raw != "" {
		h, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("invalid DIGEST_HOUR %q", raw)
		}
		scheduleHour = h
	}

	driver := strings.ToLower(envOrDefault("DATABASE_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q, use: sqlite, postgres", driver)
	}

	transport := strings.ToLower(envOrDefault("MAIL_TRANSPORT", "log"))
	switch transport {
	case "smtp", "ses", "log":
	default:
		return nil, fmt.Errorf("unsupported MAIL_TRANSPORT %q, use: smtp, ses, log", transport)
	}

	return &Config{
		LogLevel: envOrDefault("LOG_LEVEL", "info"),
		Database: Database{
			Driver: driver,
			DSN:    envOrDefault("DATABASE_DSN", "./data/reports.db"),
		},
		Reports: Reports{
			URLRoot:             os.Getenv("REPORTS_URL_ROOT"),
			Secret:              os.Getenv("REPORTS_SECRET"),
			DefaultSubscription: envOrDefault("DEFAULT_SUBSCRIPTION_NAME", "Default"),
			DefaultRecipient:    os.Getenv("DEFAULT_SUBSCRIPTION_RECIPIENT"),
			SubscriptionsFile:   envOrDefault("SUBSCRIPTIONS_FILE", "./data/subscriptions.yaml"),
			ScheduleHour:        scheduleHour,
		},
		Mail: Mail{
			Transport:    transport,
			From:         envOrDefault("MAIL_FROM", "reports@localhost"),
			SMTPHost:     envOrDefault("SMTP_HOST", "localhost"),
			SMTPPort:     smtpPort,
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			SESRegion:    envOrDefault("SES_REGION", "us-east-1"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		HgAuth: HgAuth{
			Repository: os.Getenv("HG_AUTH_REPOSITORY"),
			File:       os.Getenv("HG_AUTH_FILE"),
		},
	}, nil
}

// RequireDigest checks the settings needed by the digest job.
func (c *Config) RequireDigest() error {
	if c.Reports.URLRoot == "" {
		return fmt.Errorf("REPORTS_URL_ROOT is required")
	}
	if c.Reports.Secret == "" {
		return fmt.Errorf("REPORTS_SECRET is required")
	}
	if c.Reports.DefaultRecipient == "" {
		return fmt.Errorf("DEFAULT_SUBSCRIPTION_RECIPIENT is required")
	}
	return nil
}

// RequireHgAuth checks the settings needed by the authorized_keys generator.
func (c *Config) RequireHgAuth() error {
	if c.HgAuth.Repository == "" {
		return fmt.Errorf("HG_AUTH_REPOSITORY is required")
	}
	if c.HgAuth.File == "" {
		return fmt.Errorf("HG_AUTH_FILE is required")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
