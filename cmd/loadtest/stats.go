package main

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jpillora/sizestr"
)

// Metrics хранит метрики одной сессии
type Metrics struct {
	Handshake    time.Duration
	FirstEcho    time.Duration
	RoundTrips   []time.Duration
	TotalLatency time.Duration
	Success      bool
	Error        string
	CloseStatus  string
	BytesRead    int64
}

// Result представляет результат одной сессии
type Result struct {
	Metrics Metrics
	URL     string
}

// Stats собирает статистику всех сессий
type Stats struct {
	mu           sync.Mutex
	Total        int
	Success      int
	Errors       map[string]int
	CloseCodes   map[string]int
	Handshake    []time.Duration
	FirstEcho    []time.Duration
	RoundTrip    []time.Duration
	TotalLatency []time.Duration
	TotalBytes   int64
}

// NewStats создает новую структуру статистики
func NewStats() *Stats {
	return &Stats{
		Errors:     make(map[string]int),
		CloseCodes: make(map[string]int),
	}
}

// Add добавляет результат сессии в статистику
func (s *Stats) Add(result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Total++
	if result.Metrics.Success {
		s.Success++
	} else {
		s.Errors[result.Metrics.Error]++
	}
	if result.Metrics.CloseStatus != "" {
		s.CloseCodes[result.Metrics.CloseStatus]++
	}

	if result.Metrics.Handshake > 0 {
		s.Handshake = append(s.Handshake, result.Metrics.Handshake)
	}
	if result.Metrics.FirstEcho > 0 {
		s.FirstEcho = append(s.FirstEcho, result.Metrics.FirstEcho)
	}
	s.RoundTrip = append(s.RoundTrip, result.Metrics.RoundTrips...)
	if result.Metrics.TotalLatency > 0 {
		s.TotalLatency = append(s.TotalLatency, result.Metrics.TotalLatency)
	}
	s.TotalBytes += result.Metrics.BytesRead
}

// Percentile вычисляет перцентиль для слайса длительностей
func (s *Stats) Percentile(durations []time.Duration, p float64) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	index := int(float64(len(sorted)) * p / 100.0)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

// printReport выводит отчет в терминал
func printReport(stats *Stats, duration time.Duration) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	fmt.Println("==================================================================================")
	fmt.Println("LOAD TEST REPORT")
	fmt.Println("==================================================================================")
	fmt.Println()

	if stats.Total == 0 {
		fmt.Println("No sessions were run")
		return
	}

	// Success Rate
	successRate := float64(stats.Success) / float64(stats.Total) * 100
	fmt.Printf("Success Rate\n")
	fmt.Println("+-------+-------+---------+")
	fmt.Printf("| VALUE | COUNT | PERCENT |\n")
	fmt.Println("+-------+-------+---------+")
	fmt.Printf("| ok    | %5d | %6.2f  |\n", stats.Success, successRate)
	if stats.Total-stats.Success > 0 {
		fmt.Printf("| error | %5d | %6.2f  |\n", stats.Total-stats.Success, 100-successRate)
	}
	fmt.Println("+-------+-------+---------+")
	fmt.Println()

	// Errors breakdown
	if len(stats.Errors) > 0 {
		fmt.Printf("Errors\n")
		fmt.Println("+---------------------------------+-------+---------+")
		fmt.Printf("| VALUE                           | COUNT | PERCENT |\n")
		fmt.Println("+---------------------------------+-------+---------+")
		for err, count := range stats.Errors {
			percent := float64(count) / float64(stats.Total) * 100
			errStr := err
			if len(errStr) > 31 {
				errStr = errStr[:28] + "..."
			}
			fmt.Printf("| %-31s | %5d | %6.2f  |\n", errStr, count, percent)
		}
		fmt.Println("+---------------------------------+-------+---------+")
		fmt.Println()
	}

	// WebSocket close codes
	if len(stats.CloseCodes) > 0 {
		fmt.Printf("Close status received from relay\n")
		fmt.Println("+---------------------------------+-------+---------+")
		fmt.Printf("| VALUE                           | COUNT | PERCENT |\n")
		fmt.Println("+---------------------------------+-------+---------+")
		for code, count := range stats.CloseCodes {
			percent := float64(count) / float64(stats.Total) * 100
			fmt.Printf("| %-31s | %5d | %6.2f  |\n", code, count, percent)
		}
		fmt.Println("+---------------------------------+-------+---------+")
		fmt.Println()
	}

	// Latency metrics
	fmt.Printf("Latency\n")
	fmt.Println("+--------------+-------+-------+-------+-------+-------+-------+-------+")
	fmt.Printf("| NAME         |   50  |   75  |   85  |   90  |   95  |   99  |  100  |\n")
	fmt.Println("+--------------+-------+-------+-------+-------+-------+-------+-------+")

	printLatencyRow("Handshake", stats.Handshake, stats)
	printLatencyRow("First echo", stats.FirstEcho, stats)
	printLatencyRow("Round trip", stats.RoundTrip, stats)
	printLatencyRow("Session", stats.TotalLatency, stats)
	fmt.Println("+--------------+-------+-------+-------+-------+-------+-------+-------+")
	fmt.Println()

	// Summary
	fmt.Printf("Summary\n")
	fmt.Printf("Total duration: %v\n", duration)
	fmt.Printf("Sessions/sec: %.2f\n", float64(stats.Total)/duration.Seconds())
	if stats.TotalBytes > 0 {
		fmt.Printf("Echoed: %s (%s/s)\n", sizestr.ToString(stats.TotalBytes),
			sizestr.ToString(int64(float64(stats.TotalBytes)/duration.Seconds())))
	}
}

// printLatencyRow выводит строку с перцентилями для метрики
func printLatencyRow(name string, durations []time.Duration, stats *Stats) {
	if len(durations) == 0 {
		fmt.Printf("| %-12s | %5s | %5s | %5s | %5s | %5s | %5s | %5s |\n", name, "-", "-", "-", "-", "-", "-", "-")
		return
	}

	p50 := stats.Percentile(durations, 50)
	p75 := stats.Percentile(durations, 75)
	p85 := stats.Percentile(durations, 85)
	p90 := stats.Percentile(durations, 90)
	p95 := stats.Percentile(durations, 95)
	p99 := stats.Percentile(durations, 99)
	p100 := stats.Percentile(durations, 100)

	fmt.Printf("| %-12s | %5d | %5d | %5d | %5d | %5d | %5d | %5d |\n",
		name,
		int(p50.Milliseconds()),
		int(p75.Milliseconds()),
		int(p85.Milliseconds()),
		int(p90.Milliseconds()),
		int(p95.Milliseconds()),
		int(p99.Milliseconds()),
		int(p100.Milliseconds()))
}
