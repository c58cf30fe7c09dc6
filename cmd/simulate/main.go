package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carevoice/booking-service/internal/config"
	"github.com/carevoice/booking-service/internal/db"
)

// The simulator hammers a deliberately small slot grid so many workers race
// for the same (doctor, date, time) triples, then verifies in Postgres that no
// slot ended up with more than one booking.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	CheckRatio  float64 // fraction of operations that are availability checks
	DoctorLimit int
	Days        int
	PostgresDSN string
}

type slotTriple struct {
	DoctorID string
	Date     string
	Time     string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Simulator struct {
	config  SimConfig
	slots   []slotTriple
	client  *http.Client
	booking OperationMetrics
	checks  OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()
	if err := validateSimConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d check_ratio=%.2f doctors=%d days=%d",
		cfg.Duration, cfg.Workers, cfg.CheckRatio, cfg.DoctorLimit, cfg.Days)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	slots, err := buildSlotGrid(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("build slot grid: %v", err)
	}
	log.Printf("slot grid: %d triples", len(slots))

	sim := &Simulator{
		config: cfg,
		slots:  slots,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	if err := verifyUniqueness(context.Background(), pgPool); err != nil {
		log.Fatalf("UNIQUENESS VIOLATED: %v", err)
	}
	log.Println("uniqueness invariant holds: no slot has more than one booking")
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 20),
		CheckRatio:  getFloat("SIM_CHECK_RATIO", 0.3),
		DoctorLimit: getInt("SIM_DOCTOR_LIMIT", 5),
		Days:        getInt("SIM_DAYS", 3),
		PostgresDSN: baseCfg.PostgresDSN,
	}
}

func validateSimConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// buildSlotGrid crosses a handful of doctors with a few days of half-hour
// slots. Small on purpose: contention is the point.
func buildSlotGrid(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) ([]slotTriple, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM doctors LIMIT $1`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	var doctors []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		doctors = append(doctors, id)
	}
	if len(doctors) == 0 {
		return nil, fmt.Errorf("no doctors loaded, run cmd/seed first")
	}

	times := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "14:00", "14:30", "15:00"}

	var slots []slotTriple
	start := time.Now().AddDate(0, 0, 1)
	for _, doc := range doctors {
		for d := 0; d < cfg.Days; d++ {
			date := start.AddDate(0, 0, d).Format("2006-01-02")
			for _, t := range times {
				slots = append(slots, slotTriple{DoctorID: doc, Date: date, Time: t})
			}
		}
	}

	return slots, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if rng.Float64() < s.config.CheckRatio {
				s.doCheck(ctx, rng)
			} else {
				s.doBooking(ctx, rng, workerID)
			}
		}
	}
}

func (s *Simulator) doCheck(ctx context.Context, rng *rand.Rand) {
	slot := s.slots[rng.Intn(len(s.slots))]

	start := time.Now()

	body, _ := json.Marshal(map[string]string{
		"doctor_id": slot.DoctorID,
		"date":      slot.Date,
		"time":      slot.Time,
	})

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/check-availability", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.checks.Record(latency, success, false)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, workerID int) {
	slot := s.slots[rng.Intn(len(s.slots))]

	start := time.Now()

	body, _ := json.Marshal(map[string]string{
		"session_id":    fmt.Sprintf("sim-%d-%d", workerID, rng.Int63()),
		"doctor_id":     slot.DoctorID,
		"doctor_name":   "Dr. Simulated",
		"specialty":     "General Practice",
		"date":          slot.Date,
		"time":          slot.Time,
		"patient_name":  fmt.Sprintf("Load Tester %d", workerID),
		"patient_phone": "+15550100",
	})

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/book-appointment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.booking.Record(latency, success, conflict)
}

func verifyUniqueness(ctx context.Context, pool *pgxpool.Pool) error {
	var violations int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT doctor_id, slot_date, slot_time
			FROM bookings
			GROUP BY doctor_id, slot_date, slot_time
			HAVING count(*) > 1
		) dup
	`).Scan(&violations)
	if err != nil {
		return fmt.Errorf("query duplicates: %w", err)
	}
	if violations > 0 {
		return fmt.Errorf("%d slots have more than one booking", violations)
	}
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.booking)
	printOperationReport("Availability Check", &s.checks)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
