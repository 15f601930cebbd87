// Package test holds smoke scenarios that run against a live server
// through the telnet port. cmd/testrunner runs them.
package test

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lawnchairsociety/delvekeep/server/internal/testclient"
)

// uniqueCounter provides unique IDs for test players within a single run
var uniqueCounter uint64

// uniqueName returns base with a suffix unique to this run. Scenarios
// register fresh accounts, so names must not repeat between runs either.
func uniqueName(base string) string {
	n := atomic.AddUint64(&uniqueCounter, 1)
	return fmt.Sprintf("%s%d_%d", base, time.Now().Unix()%100000, n)
}

// Verbose controls whether detailed logging is shown during tests
var Verbose = false

// TestResult represents the result of a test
type TestResult struct {
	Name    string
	Passed  bool
	Message string
}

// Scenario is one smoke test.
type Scenario struct {
	Name string
	Run  func(serverAddr string) error
}

// Scenarios lists every smoke test in the order they run.
var Scenarios = []Scenario{
	{"Connect and register", testRegister},
	{"Bad login", testBadLogin},
	{"Returning player", testReturningPlayer},
	{"Look and map", testLookAndMap},
	{"Guide", testGuide},
	{"Explore floor", testExplore},
	{"Who", testWho},
	{"Follow", testFollow},
	{"Reset scroll", testResetScroll},
}

// logAction logs a test action when verbose mode is enabled
func logAction(testName, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", testName, action)
	}
}

// register creates a fresh player, logging the step.
func register(testName, base, serverAddr string) (*testclient.TestClient, error) {
	name := uniqueName(base)
	logAction(testName, fmt.Sprintf("Registering '%s'", name))
	return testclient.Register(name, serverAddr)
}

// RunAllTests runs every scenario and collects the results.
func RunAllTests(serverAddr string) []TestResult {
	results := make([]TestResult, 0, len(Scenarios))
	for _, sc := range Scenarios {
		fmt.Printf("Running: %s...\n", sc.Name)
		start := time.Now()
		err := sc.Run(serverAddr)
		r := TestResult{Name: sc.Name, Passed: err == nil}
		if err != nil {
			r.Message = err.Error()
		} else {
			r.Message = fmt.Sprintf("ok in %s", time.Since(start).Round(time.Millisecond))
		}
		results = append(results, r)
	}
	return results
}

// PrintResults prints a summary of test results
func PrintResults(results []TestResult) {
	fmt.Println("\n========================================")
	fmt.Println("         SMOKE TEST RESULTS")
	fmt.Println("========================================")

	passed := 0
	for _, r := range results {
		status := "PASS"
		if r.Passed {
			passed++
		} else {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s\n       %s\n", status, r.Name, r.Message)
	}

	fmt.Println("========================================")
	fmt.Printf("Total: %d/%d tests passed\n", passed, len(results))
	fmt.Println("========================================")
}
