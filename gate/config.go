// Package gate wires the mac, wallet, pricing, trust, and admission
// packages into a runnable admission control process: configuration,
// logging, metrics, and top-level startup.
package gate

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/build"
)

var (
	tollgateDataDir       = btcutil.AppDataDir("tollgate", false)
	defaultConfigFilename = "tollgate.yaml"
	defaultLogFilename    = "tollgate.log"
	defaultLogLevel       = "info"
)

const (
	defaultListenAddr     = ":8080"
	defaultInvoiceTTLSecs = 600
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second

	// defaultSweepInterval is how often the background sweep fires to age
	// out pricing activity and evict stale trust cache entries.
	defaultSweepInterval = 10 * time.Minute

	// defaultPricingCleanupHorizon is the maximum age of a pricing
	// activity entry before the sweep drops it.
	defaultPricingCleanupHorizon = 24 * time.Hour
)

// WalletConfig selects and configures the wallet backend.
type WalletConfig struct {
	// Backend is "stub" or "lnd".
	Backend string `long:"backend" description:"Wallet backend to use: stub or lnd" choice:"stub" choice:"lnd"`

	LndHost    string `long:"lndhost" description:"Hostname of the LND instance to connect to"`
	TLSPath    string `long:"tlspath" description:"Path to LND instance's tls certificate"`
	MacDir     string `long:"macdir" description:"Directory containing LND instance's macaroons"`
	Network    string `long:"network" description:"The network LND is connected to" choice:"regtest" choice:"simnet" choice:"testnet" choice:"mainnet" choice:"signet"`
}

// TrustConfig selects and configures the trust resolver.
type TrustConfig struct {
	// Backend is "static", "rest", or "attestation".
	Backend string `long:"backend" description:"Trust resolver to use: static, rest, or attestation" choice:"static" choice:"rest" choice:"attestation"`

	RESTBaseURL string   `long:"restbaseurl" description:"Base URL for the REST trust resolver"`
	Relays      []string `long:"relay" description:"Nostr relay URL for the attestation resolver (repeatable)"`
	DomainLabel string   `long:"domainlabel" description:"Domain label tag the attestation resolver filters on"`

	CacheSize int           `long:"cachesize" description:"Maximum distinct agents cached"`
	CacheTTL  time.Duration `long:"cachettl" description:"Trust score cache freshness window"`
}

// PricingConfig exposes the pricing engine's tunables on the command line.
type PricingConfig struct {
	BaseSats              int64   `long:"basesats" description:"Floor price for a first action"`
	ProgressiveMultiplier float64 `long:"progressivemultiplier" description:"Geometric factor per prior action"`
	ProgressiveCap        int64   `long:"progressivecap" description:"Hard ceiling on the progressive component"`

	TrustDiscountEnabled   bool `long:"trustdiscountenabled" description:"Enable the trust-score discount"`
	TrustFreeAbove         int  `long:"trustfreeabove" description:"Trust score at or above which price is 0"`
	TrustDiscountAbove     int  `long:"trustdiscountabove" description:"Trust score at or above which a discount applies"`
	TrustDiscountPercent   int  `long:"trustdiscountpercent" description:"Percentage shaved off price by the trust discount"`

	CooldownEnabled      bool          `long:"cooldownenabled" description:"Enable the cooldown bonus"`
	CooldownWindow       time.Duration `long:"cooldownwindow" description:"Window within which no cooldown bonus applies"`
	CooldownBonusPercent int           `long:"cooldownbonuspercent" description:"Percentage knocked off price by the cooldown bonus"`
}

// Config is the top-level tollgated configuration, loaded from a YAML file
// by getConfig over NewConfig's defaults. The long/group struct tags lay out
// a go-flags command-line surface, but no command-line flags are parsed.
type Config struct {
	// Secret is the HMAC root key: hex 32-byte, or UTF-8 otherwise.
	Secret string `long:"secret" description:"HMAC root key for macaroon signing (hex 32-byte, or UTF-8 otherwise)"`

	ListenAddr string `long:"listenaddr" description:"The interface we should listen on for client connections"`

	InvoiceTTLSecs int `long:"invoicettlsecs" description:"Macaroon expires_at offset from now, in seconds"`

	Wallet  *WalletConfig  `group:"wallet" namespace:"wallet"`
	Trust   *TrustConfig   `group:"trust" namespace:"trust"`
	Pricing *PricingConfig `group:"pricing" namespace:"pricing"`

	DebugLevel string `long:"debuglevel" description:"Debug level for tollgated and its subsystems"`
	ConfigFile string `long:"configfile" description:"Custom path to a config file"`
	BaseDir    string `long:"basedir" description:"Directory to place all of tollgated's files in"`

	ReadTimeout  time.Duration `long:"readtimeout" description:"Maximum time to wait for a request to be fully read"`
	WriteTimeout time.Duration `long:"writetimeout" description:"Maximum time to wait for a response to be fully written"`

	Prometheus *PrometheusConfig `group:"prometheus" namespace:"prometheus"`

	Logging *build.LogConfig `group:"logging" namespace:"logging"`
}

// NewConfig initializes a Config with the system's defaults.
func NewConfig() *Config {
	return &Config{
		ListenAddr:     defaultListenAddr,
		InvoiceTTLSecs: defaultInvoiceTTLSecs,
		Wallet:         &WalletConfig{Backend: "stub"},
		Trust:          &TrustConfig{Backend: "attestation", CacheSize: 4096, CacheTTL: 5 * time.Minute},
		Pricing: &PricingConfig{
			BaseSats:              1,
			ProgressiveMultiplier: 1.5,
			ProgressiveCap:        50,
			TrustDiscountEnabled:  true,
			TrustFreeAbove:        80,
			TrustDiscountAbove:    30,
			TrustDiscountPercent:  50,
			CooldownEnabled:       true,
			CooldownWindow:        60 * time.Second,
			CooldownBonusPercent:  25,
		},
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Prometheus:   &PrometheusConfig{},
		Logging:      build.DefaultLogConfig(),
		DebugLevel:   defaultLogLevel,
	}
}

// validate checks the configuration for startup-fatal errors, per the
// config-error error-handling policy: missing secret or wallet backend is
// fatal, raised at startup.
func (c *Config) validate() error {
	if c.Secret == "" {
		return fmt.Errorf("missing required secret")
	}
	if c.Wallet == nil || c.Wallet.Backend == "" {
		return fmt.Errorf("missing required wallet backend")
	}
	if c.Wallet.Backend == "lnd" && c.Wallet.LndHost == "" {
		return fmt.Errorf("wallet backend lnd requires lndhost")
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("missing listen address for server")
	}
	return nil
}
