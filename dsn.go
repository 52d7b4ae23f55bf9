package mysqlnative

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDSN parses a semicolon-separated key=value connection string per
// spec.md §6: keys host, user, pwd, db, port (port defaults to 3306).
// Unknown keys fail, generalizing go-sql-driver-mysql/utils.go's
// regexp-based parseDSN to this driver's own grammar. Per spec.md §9, a
// literal ';' inside a value is rejected rather than escaped — the grammar
// has no escape mechanism, matching the teacher's own DSN parser.
func ParseDSN(dsn string) (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("mysqlnative: empty connection string")
	}

	for _, pair := range strings.Split(dsn, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("mysqlnative: malformed connection string segment %q", pair)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "host":
			cfg.Host = value
		case "user":
			cfg.User = value
		case "pwd":
			cfg.Password = value
		case "db":
			cfg.Database = value
		case "port":
			port, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("mysqlnative: invalid port %q: %w", value, err)
			}
			cfg.Port = port
		default:
			return nil, fmt.Errorf("mysqlnative: unknown connection string key %q", key)
		}
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("mysqlnative: connection string is missing host")
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	return cfg, nil
}
