package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/chatport/wagateway-extras/internal/instance"
	"github.com/chatport/wagateway-extras/internal/models"
)

// defaultProbeTimeout bounds each probe so one slow dependency cannot
// hang the whole response.
const defaultProbeTimeout = 2 * time.Second

// cacheProbeTTL keeps throwaway probe keys from accumulating if the
// delete step is lost.
const cacheProbeTTL = 10 * time.Second

// Prober issues dependency probes. Any collaborator may be nil; its
// probe then reports disabled instead of failing.
type Prober struct {
	db       *gorm.DB
	cache    *redis.Client
	registry *instance.Registry
	timeout  time.Duration

	databaseFn  func(context.Context) Check
	cacheFn     func(context.Context) Check
	instancesFn func() Check
}

// NewProber constructs a Prober over the given collaborators.
func NewProber(db *gorm.DB, cache *redis.Client, registry *instance.Registry) *Prober {
	p := &Prober{
		db:       db,
		cache:    cache,
		registry: registry,
		timeout:  defaultProbeTimeout,
	}
	p.databaseFn = p.probeDatabase
	p.cacheFn = p.probeCache
	p.instancesFn = p.probeInstances
	return p
}

// RunAll probes every dependency concurrently and waits for all of
// them to settle. A failing probe never cancels the others.
func (p *Prober) RunAll(ctx context.Context) map[string]Check {
	checks := make(map[string]Check, 3)
	var mu sync.Mutex
	var wg sync.WaitGroup

	run := func(name string, probe func() Check) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := probe()
			mu.Lock()
			checks[name] = result
			mu.Unlock()
		}()
	}

	run(CheckDatabase, func() Check { return p.databaseFn(ctx) })
	run(CheckCache, func() Check { return p.cacheFn(ctx) })
	run(CheckInstances, p.instancesFn)

	wg.Wait()
	return checks
}

// Mandatory probes only the dependencies readiness depends on.
func (p *Prober) Mandatory(ctx context.Context) map[string]Check {
	checks := make(map[string]Check, 2)
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		result := p.databaseFn(ctx)
		mu.Lock()
		checks[CheckDatabase] = result
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		result := p.cacheFn(ctx)
		mu.Lock()
		checks[CheckCache] = result
		mu.Unlock()
	}()

	wg.Wait()
	return checks
}

// probeDatabase issues a bounded single-row read and measures latency.
func (p *Prober) probeDatabase(ctx context.Context) Check {
	if p == nil || p.db == nil {
		return Check{Status: StatusDisabled}
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	var rows []models.Instance
	if errFind := p.db.WithContext(ctx).Limit(1).Find(&rows).Error; errFind != nil {
		return Check{Status: StatusError, Error: errFind.Error()}
	}
	return Check{Status: StatusOK, LatencyMS: latencyMS(start)}
}

// probeCache writes a throwaway key, reads it back, and deletes it.
func (p *Prober) probeCache(ctx context.Context) Check {
	if p == nil || p.cache == nil {
		return Check{Status: StatusDisabled}
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	key := fmt.Sprintf("health:check:%d", time.Now().UnixNano())
	start := time.Now()
	if errSet := p.cache.Set(ctx, key, "ok", cacheProbeTTL).Err(); errSet != nil {
		return Check{Status: StatusError, Error: errSet.Error()}
	}
	value, errGet := p.cache.Get(ctx, key).Result()
	if errGet != nil {
		return Check{Status: StatusError, Error: errGet.Error()}
	}
	if value != "ok" {
		return Check{Status: StatusError, Error: fmt.Sprintf("unexpected probe value %q", value)}
	}
	if errDel := p.cache.Del(ctx, key).Err(); errDel != nil {
		return Check{Status: StatusError, Error: errDel.Error()}
	}
	return Check{Status: StatusOK, LatencyMS: latencyMS(start)}
}

// probeInstances counts open connections in the registry snapshot.
func (p *Prober) probeInstances() Check {
	if p == nil || p.registry == nil {
		return Check{Status: StatusDisabled}
	}
	snapshot := p.registry.Snapshot()
	connected := 0
	for _, conn := range snapshot {
		if conn != nil && conn.IsConnected() {
			connected++
		}
	}
	total := len(snapshot)
	return Check{Status: StatusOK, Connected: &connected, Total: &total}
}

// latencyMS returns the elapsed time since start in milliseconds.
func latencyMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
