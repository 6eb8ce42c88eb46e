package utils

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config is loaded once at startup and handed to every collaborator that
// needs it. Nothing reads the environment after this point.
type Config struct {
	Addr string

	DBUser string
	DBPass string
	DBName string

	JWTSecret  []byte
	AdminEmail string

	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration

	OtpCodeDuration time.Duration
	OtpMaxAttempts  int

	MailServer   string
	MailPort     int
	MailUsername string
	MailPassword string
	MailSender   string
}

func LoadConfig() (*Config, error) {
	secret := os.Getenv(JWT_SECRET_KEY)
	if secret == "" {
		return nil, errors.New("JWT_SECRET_KEY is not set")
	}

	cfg := &Config{
		Addr:                 getEnvDefault(ADDR, ":5005"),
		DBUser:               os.Getenv(DBUSER),
		DBPass:               os.Getenv(DBPASS),
		DBName:               os.Getenv(DBNAME),
		JWTSecret:            []byte(secret),
		AdminEmail:           NormalizeEmail(os.Getenv(ADMIN_EMAIL)),
		AccessTokenDuration:  time.Minute * time.Duration(getEnvInt(ACCESS_TOKEN_MINUTES, ACCESS_TOKEN_DURATION)),
		RefreshTokenDuration: time.Hour * time.Duration(getEnvInt(REFRESH_TOKEN_HOURS, REFRESH_TOKEN_DURATION)),
		OtpCodeDuration:      time.Minute * time.Duration(getEnvInt(OTP_CODE_MINUTES, OTP_CODE_DURATION)),
		OtpMaxAttempts:       MAX_NUM_OTP_ATTEMPTS,
		MailServer:           os.Getenv(MAIL_SERVER),
		MailPort:             getEnvInt(MAIL_PORT, 465),
		MailUsername:         os.Getenv(MAIL_USERNAME),
		MailPassword:         os.Getenv(MAIL_PASSWORD),
		MailSender:           os.Getenv(MAIL_SENDER),
	}
	return cfg, nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
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
