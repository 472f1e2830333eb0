package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// simulate hammers the booking endpoint with concurrent writers aiming at a
// small set of slots, to observe how many attempts the conflict guard and the
// admission controller turn away.

type SimConfig struct {
	APIBaseURL string
	Workers    int
	Attempts   int
	Date       string
	Timezone   string
	PatientIDs []uuid.UUID
}

type OperationMetrics struct {
	Total       int64
	Success     int64
	Conflict    int64
	RateLimited int64
	Error       int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	case status == http.StatusTooManyRequests:
		atomic.AddInt64(&om.RateLimited, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95idx := len(latencies) * 95 / 100
	if p95idx >= len(latencies) {
		p95idx = len(latencies) - 1
	}
	p95 = latencies[p95idx]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags)

	cfg := loadSimConfig()
	log.Printf("simulate: %d workers, %d attempts each, date=%s tz=%s target=%s",
		cfg.Workers, cfg.Attempts, cfg.Date, cfg.Timezone, cfg.APIBaseURL)

	// A deliberately tiny slot pool so workers collide.
	slots := buildContestedSlots(cfg)
	metrics := &OperationMetrics{}
	client := &http.Client{Timeout: 10 * time.Second}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for i := 0; i < cfg.Attempts; i++ {
				slot := slots[rng.Intn(len(slots))]
				patient := cfg.PatientIDs[rng.Intn(len(cfg.PatientIDs))]
				attemptBooking(client, cfg, metrics, slot, patient)
			}
		}(w)
	}
	wg.Wait()

	elapsed := time.Since(start)
	avg, p50, p95 := metrics.Stats()

	log.Printf("done in %s", elapsed)
	log.Printf("total=%d success=%d conflict=%d rate_limited=%d error=%d",
		metrics.Total, metrics.Success, metrics.Conflict, metrics.RateLimited, metrics.Error)
	log.Printf("latency avg=%s p50=%s p95=%s", avg, p50, p95)

	if metrics.Success > int64(len(slots)) {
		log.Fatalf("OVERBOOKED: %d successes for %d slots", metrics.Success, len(slots))
	}
	log.Printf("no overbooking: %d successes across %d contested slots", metrics.Success, len(slots))
}

type slotInterval struct {
	Start time.Time
	End   time.Time
}

func buildContestedSlots(cfg SimConfig) []slotInterval {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}
	date, err := time.ParseInLocation("2006-01-02", cfg.Date, loc)
	if err != nil {
		log.Fatalf("parse date: %v", err)
	}

	var slots []slotInterval
	for hour := 9; hour < 11; hour++ {
		for _, minute := range []int{0, 30} {
			start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
			slots = append(slots, slotInterval{Start: start, End: start.Add(30 * time.Minute)})
		}
	}
	return slots
}

func attemptBooking(client *http.Client, cfg SimConfig, metrics *OperationMetrics, slot slotInterval, patient uuid.UUID) {
	body, _ := json.Marshal(map[string]string{
		"patient_id": patient.String(),
		"start_time": slot.Start.Format(time.RFC3339),
		"end_time":   slot.End.Format(time.RFC3339),
		"timezone":   cfg.Timezone,
		"reason":     "simulated booking",
	})

	start := time.Now()
	resp, err := client.Post(cfg.APIBaseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(start)

	if err != nil {
		metrics.Record(latency, 0)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	metrics.Record(latency, resp.StatusCode)
}

func loadSimConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL: envOr("SIM_API_URL", "http://localhost:8080"),
		Workers:    envIntOr("SIM_WORKERS", 20),
		Attempts:   envIntOr("SIM_ATTEMPTS", 25),
		Date:       envOr("SIM_DATE", time.Now().AddDate(0, 0, 7).Format("2006-01-02")),
		Timezone:   envOr("SIM_TIMEZONE", "America/New_York"),
	}

	raw := os.Getenv("SIM_PATIENT_IDS")
	if raw == "" {
		log.Fatal("SIM_PATIENT_IDS is required (comma-separated UUIDs of seeded patients)")
	}
	for _, part := range splitAndTrim(raw) {
		id, err := uuid.Parse(part)
		if err != nil {
			log.Fatalf("invalid patient id %q: %v", part, err)
		}
		cfg.PatientIDs = append(cfg.PatientIDs, id)
	}

	return cfg
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}
