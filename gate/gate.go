package gate

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btclog/v2"
	"github.com/l402gate/tollgate/admission"
	"github.com/l402gate/tollgate/pricing"
	"github.com/l402gate/tollgate/trust"
	"github.com/l402gate/tollgate/wallet"
	"gopkg.in/yaml.v2"
)

// Main is the tollgated entrypoint: parse config, wire every component, and
// serve until a fatal error occurs.
func Main() {
	if err := start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func start() error {
	configFile := filepath.Join(tollgateDataDir, defaultConfigFilename)
	cfg, err := getConfig(configFile)
	if err != nil {
		return fmt.Errorf("unable to parse config file: %v", err)
	}
	if err := setupLogging(cfg); err != nil {
		return fmt.Errorf("unable to set up logging: %v", err)
	}

	middleware, pricer, resolver, err := buildMiddleware(cfg)
	if err != nil {
		return fmt.Errorf("unable to build middleware: %v", err)
	}

	if err := StartPrometheusExporter(cfg.Prometheus); err != nil {
		return fmt.Errorf("unable to start prometheus exporter: %v", err)
	}

	stopSweep := make(chan struct{})
	go runSweep(pricer, resolver, stopSweep)
	defer close(stopSweep)

	handler := middleware.Wrap(admission.RouteConfig{
		ConfigDesc: "tollgate",
		InvoiceTTL: time.Duration(cfg.InvoiceTTLSecs) * time.Second,
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	log.Infof("Starting the server, listening on %s.", cfg.ListenAddr)
	return server.ListenAndServe()
}

// evictor is implemented by trust.Cached; not every trust.Resolver caches,
// so the sweep type-asserts for it rather than requiring it of Resolver.
type evictor interface {
	Evict()
}

// runSweep periodically ages out stale pricing activity and trust cache
// entries until stop is closed.
func runSweep(pricer *pricing.Engine, resolver trust.Resolver, stop <-chan struct{}) {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()

	evict, canEvict := resolver.(evictor)

	for {
		select {
		case <-ticker.C:
			pricer.Cleanup(defaultPricingCleanupHorizon)
			if canEvict {
				evict.Evict()
			}
		case <-stop:
			return
		}
	}
}

// buildMiddleware constructs the wallet backend, trust resolver, pricing
// engine, and admission middleware a Config describes.
func buildMiddleware(cfg *Config) (*admission.Middleware, *pricing.Engine,
	trust.Resolver, error) {

	if err := cfg.validate(); err != nil {
		return nil, nil, nil, err
	}

	walletBackend, err := buildWallet(cfg.Wallet)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to build wallet backend: %v", err)
	}

	resolver, err := buildTrust(cfg.Trust)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("unable to build trust resolver: %v", err)
	}

	pricer := pricing.New(pricing.Config{
		BaseSats:              cfg.Pricing.BaseSats,
		ProgressiveMultiplier: cfg.Pricing.ProgressiveMultiplier,
		ProgressiveCap:        cfg.Pricing.ProgressiveCap,
		TrustDiscount: pricing.TrustDiscountConfig{
			Enabled:         cfg.Pricing.TrustDiscountEnabled,
			FreeAbove:       cfg.Pricing.TrustFreeAbove,
			DiscountAbove:   cfg.Pricing.TrustDiscountAbove,
			DiscountPercent: cfg.Pricing.TrustDiscountPercent,
		},
		Cooldown: pricing.CooldownConfig{
			Enabled:      cfg.Pricing.CooldownEnabled,
			Window:       cfg.Pricing.CooldownWindow,
			BonusPercent: cfg.Pricing.CooldownBonusPercent,
		},
	})

	middleware, err := admission.NewMiddleware(cfg.Secret, walletBackend, pricer, resolver)
	if err != nil {
		return nil, nil, nil, err
	}
	return middleware, pricer, resolver, nil
}

// buildWallet constructs the wallet.Backend a WalletConfig names.
func buildWallet(cfg *WalletConfig) (wallet.Backend, error) {
	switch cfg.Backend {
	case "", "stub":
		return wallet.NewStubBackend(), nil
	case "lnd":
		return wallet.NewLndBackend(wallet.LndConfig{
			Host:    cfg.LndHost,
			TLSPath: cfg.TLSPath,
			MacDir:  cfg.MacDir,
			Network: cfg.Network,
		})
	default:
		return nil, fmt.Errorf("unknown wallet backend %q", cfg.Backend)
	}
}

// buildTrust constructs the trust.Resolver a TrustConfig names, wrapped in
// the shared LRU+TTL cache unless the backend is static (already O(1) and
// immutable, so caching it buys nothing).
func buildTrust(cfg *TrustConfig) (trust.Resolver, error) {
	var inner trust.Resolver
	switch cfg.Backend {
	case "", "static":
		return trust.NewStatic(nil), nil
	case "rest":
		inner = trust.NewREST(cfg.RESTBaseURL)
	case "attestation":
		inner = trust.NewAttestation(cfg.Relays, cfg.DomainLabel)
	default:
		return nil, fmt.Errorf("unknown trust backend %q", cfg.Backend)
	}

	size := cfg.CacheSize
	if size == 0 {
		size = trust.DefaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = trust.DefaultCacheTTL
	}
	return trust.NewCached(inner, size, ttl)
}

// getConfig loads and parses the configuration file, applying NewConfig's
// defaults to anything the file leaves unset.
func getConfig(configFile string) (*Config, error) {
	cfg := NewConfig()
	b, err := ioutil.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging parses the configured debug level and applies it to the
// shared handler every package's subsystem logger was derived from.
func setupLogging(cfg *Config) error {
	if cfg.DebugLevel == "" {
		cfg.DebugLevel = defaultLogLevel
	}
	level, ok := btclog.LevelFromString(cfg.DebugLevel)
	if !ok {
		return fmt.Errorf("unknown debug level %q", cfg.DebugLevel)
	}
	backendLog.SetLevel(level)
	return nil
}
