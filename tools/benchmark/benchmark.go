// Package main load-tests the detector with a mix of trusted and untrusted referers
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var untrustedReferers = []string{
	"https://login.microsoftonline.com.aitm-proxy.example/common/oauth2/v2.0/authorize",
	"https://evil.example/login",
	"", // no Referer header
}

const trustedReferer = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"

func main() {
	url := flag.String("url", "http://localhost:8080/aitmdetector", "Target URL")
	duration := flag.Duration("duration", 10*time.Second, "Test duration")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	trustedRatio := flag.Float64("trusted", 0.9, "Share of requests sent with a trusted referer")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification")
	flag.Parse()

	fmt.Printf("Benchmarking %s\n", *url)
	fmt.Printf("Duration: %v, Concurrency: %d, Trusted: %.0f%%\n\n", *duration, *concurrency, *trustedRatio*100)

	tr := &http.Transport{
		MaxIdleConns:        *concurrency * 2,
		MaxIdleConnsPerHost: *concurrency * 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if *insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	client := &http.Client{
		Transport: tr,
		Timeout:   5 * time.Second,
	}

	var (
		totalRequests int64
		totalErrors   int64
		mismatches    int64 // image for a trusted referer or empty body for an untrusted one
		images        int64
		totalLatency  int64 // in microseconds
		minLatency    int64 = 1<<63 - 1
		maxLatency    int64
		wg            sync.WaitGroup
		stop          = make(chan struct{})
	)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}

				trusted := rand.Float64() < *trustedRatio
				referer := trustedReferer
				if !trusted {
					referer = untrustedReferers[rand.IntN(len(untrustedReferers))]
				}

				req, err := http.NewRequest(http.MethodGet, *url, nil)
				if err != nil {
					fmt.Fprintf(os.Stderr, "bad url: %v\n", err)
					os.Exit(2)
				}
				if referer != "" {
					req.Header.Set("Referer", referer)
				}

				start := time.Now()
				resp, err := client.Do(req)
				latency := time.Since(start).Microseconds()
				if err != nil {
					atomic.AddInt64(&totalErrors, 1)
					continue
				}

				n, _ := io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()

				if resp.StatusCode != http.StatusOK {
					atomic.AddInt64(&totalErrors, 1)
					continue
				}

				atomic.AddInt64(&totalRequests, 1)
				atomic.AddInt64(&totalLatency, latency)
				if n > 0 {
					atomic.AddInt64(&images, 1)
				}
				if trusted == (n > 0) {
					atomic.AddInt64(&mismatches, 1)
				}

				// Update min/max (approximate, not perfectly thread-safe)
				for {
					old := atomic.LoadInt64(&minLatency)
					if latency >= old || atomic.CompareAndSwapInt64(&minLatency, old, latency) {
						break
					}
				}
				for {
					old := atomic.LoadInt64(&maxLatency)
					if latency <= old || atomic.CompareAndSwapInt64(&maxLatency, old, latency) {
						break
					}
				}
			}
		}()
	}

	ticker := time.NewTicker(time.Second)
	go func() {
		elapsed := 0
		for range ticker.C {
			elapsed++
			reqs := atomic.LoadInt64(&totalRequests)
			errs := atomic.LoadInt64(&totalErrors)
			fmt.Printf("[%ds] Requests: %d, Errors: %d, RPS: %.0f\n",
				elapsed, reqs, errs, float64(reqs)/float64(elapsed))
		}
	}()

	time.Sleep(*duration)
	close(stop)
	ticker.Stop()
	wg.Wait()

	reqs := atomic.LoadInt64(&totalRequests)
	errs := atomic.LoadInt64(&totalErrors)
	miss := atomic.LoadInt64(&mismatches)
	imgs := atomic.LoadInt64(&images)
	latencyTotal := atomic.LoadInt64(&totalLatency)
	minLat := atomic.LoadInt64(&minLatency)
	maxLat := atomic.LoadInt64(&maxLatency)

	avgLatency := float64(0)
	if reqs > 0 {
		avgLatency = float64(latencyTotal) / float64(reqs)
	}

	rps := float64(reqs) / duration.Seconds()

	fmt.Println("\n========== RESULTS ==========")
	fmt.Printf("Total requests:  %d\n", reqs)
	fmt.Printf("Warning images:  %d\n", imgs)
	fmt.Printf("Mismatches:      %d\n", miss)
	fmt.Printf("Total errors:    %d\n", errs)
	fmt.Printf("Duration:        %v\n", *duration)
	fmt.Printf("Concurrency:     %d\n", *concurrency)
	fmt.Println()
	fmt.Printf("RPS:             %.2f\n", rps)
	fmt.Printf("RPM:             %.0f\n", rps*60)
	fmt.Println()
	fmt.Printf("Latency avg:     %.2f µs (%.3f ms)\n", avgLatency, avgLatency/1000)
	fmt.Printf("Latency min:     %d µs (%.3f ms)\n", minLat, float64(minLat)/1000)
	fmt.Printf("Latency max:     %d µs (%.3f ms)\n", maxLat, float64(maxLat)/1000)

	// mismatches are expected while the asset is missing (fail-open)
	if errs > 0 || miss > 0 {
		os.Exit(1)
	}
}
