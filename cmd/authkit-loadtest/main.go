package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/cartsmith/authkit/credstore"
	"github.com/cartsmith/authkit/session"
)

// Each shopper gets an isolated key prefix, modelling one storefront device
// holding one session. Rotation is serialized per shopper the way the
// refresh gate serializes it in the client.
type shopperState struct {
	store *session.Store
	seq   int64
	mu    sync.Mutex
}

func main() {
	var (
		shoppers    = flag.Int("shoppers", 100000, "number of shopper sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (load + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "sf-auth", "base session key prefix")
	)
	flag.Parse()

	if *shoppers <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "shoppers, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	kv := credstore.NewRedis(client, *prefix)

	var degraded int64
	onDegraded := func() { atomic.AddInt64(&degraded, 1) }

	states := make([]shopperState, *shoppers)
	fmt.Printf("seeding %d shopper sessions...\n", *shoppers)
	startSeed := time.Now()
	for i := 0; i < *shoppers; i++ {
		states[i].store = session.NewStore(kv, session.Config{
			KeyPrefix:  fmt.Sprintf("shopper-%d", i),
			OnDegraded: onDegraded,
		})
		states[i].store.Save(ctx, buildSession(i, 0))
	}
	fmt.Printf("seeded in %s (degraded writes: %d)\n",
		time.Since(startSeed).Round(time.Millisecond), atomic.LoadInt64(&degraded))

	loadStats := runLoadPhase(ctx, states, *ops, *concurrency)
	rotateStats := runRotatePhase(ctx, states, *ops, *concurrency, &degraded)

	fmt.Println("---- results ----")
	printStats("load", loadStats)
	printStats("rotate", rotateStats)
}

func runLoadPhase(ctx context.Context, states []shopperState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				t0 := time.Now()
				_, ok := states[idx].store.Load(ctx)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runRotatePhase(ctx context.Context, states []shopperState, ops, concurrency int, degraded *int64) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	before := atomic.LoadInt64(degraded)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				state.seq++
				t0 := time.Now()
				state.store.Save(ctx, buildSession(idx, state.seq))
				d := time.Since(t0)
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	failures := atomic.LoadInt64(degraded) - before
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildSession(shopper int, seq int64) session.Session {
	return session.Session{
		AccessToken:  fmt.Sprintf("at-%d-%d", shopper, seq),
		RefreshToken: fmt.Sprintf("rt-%d-%d", shopper, seq),
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}
}
