// Command gosession-probe drives concurrent requests through a goSession client while
// access tokens expire underneath it, then reports latency and refresh counts.
//
// Without -target it starts an in-process session API. Configuration for an external
// target is read from GOSESSION_* variables, optionally loaded from -env-file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/testserver"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
)

func main() {
	var (
		target       = flag.String("target", "", "API origin; if empty an in-process server is started")
		envFile      = flag.String("env-file", ".env", "optional dotenv file with GOSESSION_* settings")
		concurrency  = flag.Int("concurrency", 32, "number of concurrent workers")
		ops          = flag.Int("ops", 5000, "requests to send")
		expireEvery  = flag.Int("expire-every", 500, "expire access tokens every N requests (in-process only)")
		path         = flag.String("path", testserver.PathProtected, "protected path to request")
		loginPath    = flag.String("login-path", testserver.PathLogin, "login path; empty skips login")
		userID       = flag.String("user", "probe-user", "user id sent to the login path")
		redisAddr    = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		printMetrics = flag.Bool("metrics", false, "print client metrics in Prometheus format")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(goSession.NewContextHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var srv *testserver.Server
	cfg, err := goSession.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *target == "" {
		srv = testserver.New(testserver.Options{})
		defer srv.Close()
		cfg.APIDomain = srv.URL
		cfg.RefreshEndpoint = srv.URL + testserver.PathRefresh
		fmt.Printf("using in-process server at %s\n", srv.URL)
	} else if cfg.APIDomain == "" {
		cfg.APIDomain = *target
	}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	rdb, cleanup, err := openRedis(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	client, err := goSession.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(logger).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build client: %v\n", err)
		os.Exit(2)
	}
	defer client.Close()

	ctx := context.Background()
	if *loginPath != "" {
		if err := login(ctx, client, *loginPath, *userID); err != nil {
			fmt.Fprintf(os.Stderr, "login: %v\n", err)
			os.Exit(1)
		}
	}

	var expire func()
	if srv != nil && *expireEvery > 0 {
		expire = srv.ExpireAccessTokens
	}
	stats := run(ctx, client, *path, *ops, *concurrency, *expireEvery, expire)

	fmt.Println("---- results ----")
	printStats("requests", stats)
	snap := client.MetricsSnapshot()
	fmt.Printf("refresh calls=%d retries=%d session_expired=%d deduplicated=%d\n",
		snap.Counters[goSession.MetricRefreshCall],
		snap.Counters[goSession.MetricRetry],
		snap.Counters[goSession.MetricSessionExpired],
		snap.Counters[goSession.MetricRefreshDeduplicated],
	)
	if srv != nil {
		fmt.Printf("server refreshes=%d\n", srv.RefreshCount())
	}
	if *printMetrics {
		fmt.Print(promexport.NewPrometheusExporter(client).Render())
	}
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

func login(ctx context.Context, client *goSession.Client, path, userID string) error {
	resp, err := client.Post(ctx, path, map[string]string{"userId": userID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func run(ctx context.Context, client *goSession.Client, path string, ops, concurrency, expireEvery int, expire func()) phaseStats {
	var (
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return nil
				}
				if expire != nil && i > 0 && i%expireEvery == 0 {
					expire()
				}
				t0 := time.Now()
				resp, err := client.Get(gctx, path)
				d := time.Since(t0)
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					_ = resp.Body.Close()
					if resp.StatusCode >= 400 {
						err = fmt.Errorf("status %d", resp.StatusCode)
					}
				}
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		})
	}
	_ = g.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
		return phaseStats{total: total, failures: failures}
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
	return samples[(len(samples)-1)*p/100]
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
