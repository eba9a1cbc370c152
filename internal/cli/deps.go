package cli

import (
	"fmt"

	"github.com/rshade/freightdash/internal/cache"
	"github.com/rshade/freightdash/internal/config"
	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/gateway"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/view"
)

// deps is everything a command needs to drive the drill controllers.
type deps struct {
	cfg       *config.Config
	registry  *drill.Registry
	catalog   *kpi.Catalog
	gateway   drill.Gateway
	formatter *kpi.Formatter
	backCache *cache.MemoryStore
}

// newDeps builds the registry, catalog and gateway from cfg.
func newDeps(cfg *config.Config) (*deps, error) {
	reg := kpi.NewRegistry()
	cat := kpi.NewCatalog(reg)

	gw, err := newGateway(cfg.Gateway, reg, cat)
	if err != nil {
		return nil, err
	}

	ttl, err := cfg.Dashboard.BackCacheDuration()
	if err != nil {
		return nil, fmt.Errorf("dashboard.back_cache_ttl: %w", err)
	}

	return &deps{
		cfg:       cfg,
		registry:  reg,
		catalog:   cat,
		gateway:   gw,
		formatter: kpi.NewFormatter(cfg.Dashboard.Locale, cfg.Dashboard.Currency),
		backCache: cache.NewMemoryStore(ttl, cfg.Dashboard.BackCacheEntries),
	}, nil
}

// newGateway picks the HTTP gateway when a URL is configured, otherwise the
// demo dataset or a fixture file.
func newGateway(gc config.GatewayConfig, reg *drill.Registry, cat *kpi.Catalog) (drill.Gateway, error) {
	if !gc.UsesFixtures() {
		timeout, err := gc.TimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("gateway.timeout: %w", err)
		}
		return gateway.NewHTTPGateway(gateway.HTTPConfig{
			BaseURL: gc.URL,
			Token:   gc.Token,
			Timeout: timeout,
		}, reg, cat)
	}

	latency, err := gc.LatencyDuration()
	if err != nil {
		return nil, fmt.Errorf("gateway.latency: %w", err)
	}
	opts := []gateway.FixtureOption{gateway.WithLatency(latency)}
	if gc.Fixtures == "" || gc.Fixtures == config.FixturesDemo {
		return gateway.NewDemoGateway(reg, cat, opts...)
	}
	return gateway.LoadFixtureGateway(gc.Fixtures, reg, cat, opts...)
}

// views builds one synchronizer per module sharing the back-cache.
func (r *deps) views(pageSize int) *view.Set {
	return view.NewSet(r.registry, r.gateway, pageSize, drill.WithBackCache(r.backCache, r.catalog))
}
