// Package settings is a small versioned key-value store for runtime
// configuration: admin identities, exchange rates, and payment
// destinations. Values live in a .env-format file rewritten atomically
// (write-temp-then-rename); the ledger core never reads it directly.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Well-known keys.
const (
	KeyAdmins              = "ADMINS"
	KeyUSDRate             = "USD_RATE"
	KeyUSDTRate            = "USDT_RATE"
	KeySyriatelCashNumbers = "SYRIATEL_CASH_NUMBERS"
	KeyMTNCashNumbers      = "MTN_CASH_NUMBERS"
	KeyShamcashNumbers     = "SHAMCASH_NUMBERS"
	KeyUSDTWalletCoinex    = "USDT_WALLET_COINEX"
	KeyUSDTWalletCwallet   = "USDT_WALLET_CWALLET"
	KeyUSDWalletPayeer     = "USD_WALLET_PAYEER"
	KeyUSDTWalletPEB20     = "USDT_WALLET_PEB20"
)

type Store struct {
	mu      sync.RWMutex
	path    string
	values  map[string]string
	version int64
	logger  *slog.Logger
}

// Open loads the settings file. A missing file is not an error; the
// store starts empty and the file appears on the first Set.
func Open(path string, logger *slog.Logger) (*Store, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("Failed to read settings file", "path", path, "error", err)
			return nil, fmt.Errorf("read settings: %w", err)
		}
		values = map[string]string{}
	}

	return &Store{
		path:   path,
		values: values,
		logger: logger,
	}, nil
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok
}

// Decimal parses the value under key as an exact decimal.
func (s *Store) Decimal(key string) (decimal.Decimal, bool) {
	value, ok := s.Get(key)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		s.logger.Warn("Settings value is not a decimal", "key", key, "value", value)
		return decimal.Decimal{}, false
	}
	return d, true
}

// Int64List parses a comma-separated list of integers, skipping blanks.
func (s *Store) Int64List(key string) []int64 {
	value, ok := s.Get(key)
	if !ok {
		return nil
	}

	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			s.logger.Warn("Settings list entry is not an integer", "key", key, "entry", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsAdmin reports whether id appears in the ADMINS list.
func (s *Store) IsAdmin(id int64) bool {
	for _, admin := range s.Int64List(KeyAdmins) {
		if admin == id {
			return true
		}
	}
	return false
}

// Set updates one key and persists the whole file atomically. The
// version counter increments only after a successful rewrite.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, had := s.values[key]
	s.values[key] = value

	if err := s.persistLocked(); err != nil {
		if had {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		s.logger.Error("Failed to persist settings", "key", key, "error", err)
		return err
	}

	s.version++
	s.logger.Info("Settings updated", "key", key, "version", s.version)
	return nil
}

// Version returns the number of successful updates since Open.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// All returns a copy of the current values.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Store) persistLocked() error {
	content, err := godotenv.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp settings file: %w", err)
	}

	// Rename within the same directory is atomic on POSIX.
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
