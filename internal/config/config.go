package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

const (
	// Telegram limits.
	MaxMessageLength   = 4096
	MaxCallbackPayload = 64

	DefaultAuthorID   = 0
	DefaultAuthorName = `Обложки "Фаргус"`
	DefaultAuthorURL  = "https://vk.com/farguscovers"

	ErrorText  = "Возникла какая-то проблема. Попробуйте повторить запрос или попробовать чуть позже..."
	PleaseWait = "Пожалуйста, подождите..."
)

type Config struct {
	Token        string
	DBPath       string
	DataDir      string
	DumpFile     string
	ItemsPerPage int

	// Usernames (with "@") allowed to run maintenance commands.
	AdminUsernames []string

	LogMode string
}

func Load() Config {
	token := os.Getenv("TOKEN")
	if token == "" {
		// Local development keeps the token in TOKEN.txt next to the binary.
		if data, err := os.ReadFile("TOKEN.txt"); err == nil {
			token = strings.TrimSpace(string(data))
		}
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "database/database.sqlite"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data_vk"
	}

	dumpFile := os.Getenv("DUMP_FILE")
	if dumpFile == "" {
		dumpFile = "data_vk/dump.json"
	}

	itemsPerPage := 10
	if v := os.Getenv("ITEMS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			itemsPerPage = n
		}
	}

	admins := []string{"@ilya_petrash"}
	if v := os.Getenv("ADMIN_USERNAMES"); v != "" {
		admins = nil
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if !strings.HasPrefix(name, "@") {
				name = "@" + name
			}
			admins = append(admins, name)
		}
	}

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "dev"
	}

	return Config{
		Token:          token,
		DBPath:         dbPath,
		DataDir:        dataDir,
		DumpFile:       dumpFile,
		ItemsPerPage:   itemsPerPage,
		AdminUsernames: admins,
		LogMode:        logMode,
	}
}

// Validate checks the parts only the bot process needs.
func (c Config) Validate() error {
	if c.Token == "" {
		return errors.New("bot token is empty: set TOKEN env var or TOKEN.txt")
	}
	return nil
}

func (c Config) IsAdmin(username string) bool {
	if username == "" {
		return false
	}
	if !strings.HasPrefix(username, "@") {
		username = "@" + username
	}
	for _, admin := range c.AdminUsernames {
		if strings.EqualFold(admin, username) {
			return true
		}
	}
	return false
}
