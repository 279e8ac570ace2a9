package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"stamp_card/internal/model"
	"stamp_card/internal/utils"
)

const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config is the server configuration, read from the environment
type Config struct {
	ServerPort  string
	StaticDir   string
	DataFile    string
	MenuFile    string
	StoreDriver string
	SQLitePath  string

	VAPIDKeysFile   string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushConcurrency int

	JWTSecret          string
	JWTExpirationHours int64
	RequireAdminAuth   bool

	DefaultAdmin model.AdminCredentials
}

// Load reads the configuration from environment variables, applying defaults
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "3000"),
		StaticDir:       getEnv("STATIC_DIR", "public"),
		DataFile:        getEnv("DATA_FILE", "data.json"),
		MenuFile:        getEnv("MENU_FILE", "menu_data.json"),
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFile)),
		SQLitePath:      getEnv("SQLITE_PATH", "stamp_card.db"),
		VAPIDKeysFile:   getEnv("VAPID_KEYS_FILE", "webpush-keys.json"),
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@example.com"),
		JWTSecret:       os.Getenv("JWT_SECRET_KEY"),
	}

	switch cfg.StoreDriver {
	case StoreDriverFile, StoreDriverPostgres, StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (use file, postgres or sqlite)", cfg.StoreDriver)
	}

	var err error
	cfg.JWTExpirationHours, err = strconv.ParseInt(getEnv("JWT_EXPIRATION_HOURS", "24"), 10, 64)
	if err != nil {
		log.Printf("Invalid JWT_EXPIRATION_HOURS, defaulting to 24: %v", err)
		cfg.JWTExpirationHours = 24
	}
	cfg.PushConcurrency, err = strconv.Atoi(getEnv("PUSH_CONCURRENCY", "4"))
	if err != nil || cfg.PushConcurrency < 1 {
		log.Printf("Invalid PUSH_CONCURRENCY, defaulting to 4")
		cfg.PushConcurrency = 4
	}
	cfg.RequireAdminAuth, err = strconv.ParseBool(getEnv("REQUIRE_ADMIN_AUTH", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUIRE_ADMIN_AUTH: %w", err)
	}

	if cfg.JWTSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(secret)
		log.Println("JWT_SECRET_KEY not set, using a random secret; admin tokens will not survive a restart")
	}

	cfg.DefaultAdmin, err = defaultAdmin()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultAdmin is the credential written into a fresh state. A password from
// the environment is stored as a bcrypt hash.
func defaultAdmin() (model.AdminCredentials, error) {
	admin := model.AdminCredentials{
		Username: getEnv("ADMIN_USERNAME", "REBL"),
		Password: "Corp",
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return model.AdminCredentials{}, fmt.Errorf("failed to hash ADMIN_PASSWORD: %w", err)
		}
		admin.Password = hashed
	}
	return admin, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
