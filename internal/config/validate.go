package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Upload.Dir == "" {
		return fmt.Errorf("upload.dir must not be empty")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be > 0 when enabled (got %d)", c.RateLimit.RequestsPerMinute)
	}

	if err := c.Broker.validate(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}

	return nil
}

func (b *BrokerConfig) validate() error {
	if (b.ZerodhaAPIKey == "") != (b.ZerodhaAccessToken == "") {
		return fmt.Errorf("zerodha_api_key and zerodha_access_token must be set together")
	}

	accounts, err := ParseGrowwAccounts(b.GrowwAccountsRaw)
	if err != nil {
		return fmt.Errorf("groww_accounts: %w", err)
	}
	b.GrowwAccounts = accounts

	return nil
}

// ParseGrowwAccounts parses a comma-separated string of name:token pairs
// (e.g. "GROWW-ME:tok1,GROWW-DAD:tok2") into a slice of GrowwAccount.
// An empty string returns a nil slice.
func ParseGrowwAccounts(raw string) ([]GrowwAccount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	accounts := make([]GrowwAccount, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, token, ok := strings.Cut(p, ":")
		name = strings.TrimSpace(name)
		token = strings.TrimSpace(token)
		if !ok || name == "" || token == "" {
			return nil, fmt.Errorf("invalid account entry %q, want name:token", p)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate account name %q", name)
		}
		seen[name] = struct{}{}
		accounts = append(accounts, GrowwAccount{Name: name, AccessToken: token})
	}

	return accounts, nil
}
