// Package config holds the settings shared by every subcommand.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"token-metadata-cli/internal/keys"
	"token-metadata-cli/internal/log"
	"token-metadata-cli/internal/solana"
)

// Defaults.
const (
	DefaultURL        = "https://api.devnet.solana.com"
	DefaultCommitment = solana.CommitmentConfirmed
	DefaultTimeout    = 2 * time.Minute
	DefaultLogLevel   = "warn"
	DefaultMetricsJob = "token_metadata_cli"

	// MaxSellerFeeBasisPoints is 100%.
	MaxSellerFeeBasisPoints = 10000
)

var (
	// ErrSellerFeeOutOfRange is returned for royalties above 100%.
	ErrSellerFeeOutOfRange = errors.New("seller fee basis points must be between 0 and 10000")

	errInvalidTimeout = errors.New("timeout must be positive")
)

// Config is the resolved global configuration.
type Config struct {
	KeypairPath string
	Home        *string // value of HOME, nil if unset

	RPCURL     string
	WSURL      string // derived from RPCURL when empty
	Commitment solana.Commitment
	Timeout    time.Duration

	LogLevel string
	LogJSON  bool

	PushgatewayURL string
	MetricsJob     string
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		KeypairPath: keys.DefaultPath,
		RPCURL:      DefaultURL,
		Commitment:  DefaultCommitment,
		Timeout:     DefaultTimeout,
		LogLevel:    DefaultLogLevel,
		MetricsJob:  DefaultMetricsJob,
	}
}

// Validate checks the configuration before any network call is made.
func (c *Config) Validate() error {
	if err := checkURL("url", c.RPCURL, "http", "https"); err != nil {
		return err
	}
	if c.WSURL != "" {
		if err := checkURL("ws-url", c.WSURL, "ws", "wss"); err != nil {
			return err
		}
	}
	if c.PushgatewayURL != "" {
		if err := checkURL("pushgateway", c.PushgatewayURL, "http", "https"); err != nil {
			return err
		}
	}
	if !c.Commitment.Valid() {
		return fmt.Errorf("invalid commitment %q: want processed, confirmed or finalized", c.Commitment)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: %w", c.Timeout, errInvalidTimeout)
	}
	if !log.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.KeypairPath == "" {
		return errors.New("keypair path is empty")
	}
	return nil
}

// ResolveWSURL returns WSURL, or the PubSub endpoint derived from RPCURL.
func (c *Config) ResolveWSURL() (string, error) {
	if c.WSURL != "" {
		return c.WSURL, nil
	}
	return solana.WSEndpointFromHTTP(c.RPCURL)
}

// ValidateSellerFee rejects royalties above 100%.
func ValidateSellerFee(bps uint16) error {
	if bps > MaxSellerFeeBasisPoints {
		return fmt.Errorf("%w: got %d", ErrSellerFeeOutOfRange, bps)
	}
	return nil
}

func checkURL(flag, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid --%s %q: %w", flag, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid --%s %q: want a %v URL", flag, raw, schemes)
}
