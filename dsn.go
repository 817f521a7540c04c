package snowql

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Config is the parsed, caller-constructible configuration for a
// Session. ParseDSN produces one from a connection string; callers
// embedding this package in their own driver may populate one
// directly instead.
type Config struct {
	User     string
	Password string
	Account  string // host component before ".snowflakecomputing.com", e.g. "acct.region"

	Role      string
	Database  string
	Schema    string
	Warehouse string

	// MaxParallelDownloads bounds chunk-download concurrency; zero
	// means the default of 1 (serial).
	MaxParallelDownloads int
	// OverallTimeout is the end-to-end deadline applied by Execute /
	// ExecuteAsync when the caller's context carries none already.
	OverallTimeout int64 // nanoseconds; 0 means "use ctx only"

	// ProxyURL, if set, routes every request (login, query submission,
	// monitoring, and chunk downloads) through an HTTP(S) proxy.
	ProxyURL string
}

// accountName returns the logical account name: everything in Account
// before the first '.'. The remainder, if any, is the region.
func (c *Config) accountName() string {
	if i := strings.IndexByte(c.Account, '.'); i >= 0 {
		return c.Account[:i]
	}
	return c.Account
}

func (c *Config) region() string {
	if i := strings.IndexByte(c.Account, '.'); i >= 0 {
		return c.Account[i+1:]
	}
	return ""
}

func (c *Config) host() string {
	return c.Account + ".snowflakecomputing.com"
}

// transport builds the http.RoundTripper every request on this
// session uses, routing through ProxyURL when set.
func (c *Config) transport() (http.RoundTripper, error) {
	if c.ProxyURL == "" {
		return http.DefaultTransport, nil
	}
	u, err := url.Parse(c.ProxyURL)
	if err != nil {
		return nil, newConfigError("invalid proxy url: %v", err)
	}
	return &http.Transport{Proxy: http.ProxyURL(u)}, nil
}

// ParseDSN parses a DSN of the form:
//
//	snowflake://<user>:<password>@<account>/?role=<r>&database=<d>&schema=<s>&warehouse=<w>
//
// Scheme must be exactly "snowflake". User, password, and account are
// mandatory; role, database, schema, warehouse are optional. Every
// component is percent-decoded. No network I/O is performed; any
// parse failure is a *Error with Kind KindConfig.
func ParseDSN(dsn string) (*Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		ce := newConfigError("invalid dsn: %v", err)
		ce.Err = err
		return nil, ce
	}
	if u.Scheme != "snowflake" {
		return nil, newConfigErrorWrap(errBadScheme, "got scheme %q", u.Scheme)
	}

	cfg := &Config{}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	cfg.Account = u.Hostname()

	if cfg.User == "" {
		return nil, newConfigErrorWrap(errEmptyUser, "")
	}
	if cfg.Password == "" {
		return nil, newConfigErrorWrap(errEmptyPassword, "")
	}
	if cfg.Account == "" {
		return nil, newConfigErrorWrap(errEmptyAccount, "")
	}

	q := u.Query()
	cfg.Role = q.Get("role")
	cfg.Database = q.Get("database")
	cfg.Schema = q.Get("schema")
	cfg.Warehouse = q.Get("warehouse")
	cfg.ProxyURL = q.Get("proxy")

	return cfg, nil
}

func newConfigErrorWrap(sentinel error, format string, args ...any) *Error {
	msg := sentinel.Error()
	if format != "" {
		msg += ": " + fmt.Sprintf(format, args...)
	}
	e := newConfigErrorPlain(msg)
	e.Err = sentinel
	return e
}
