// Command testrunner runs the smoke scenarios against a running server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lawnchairsociety/delvekeep/server/test"
)

func main() {
	serverAddr := flag.String("addr", "localhost:4000", "Server telnet address")
	verbose := flag.Bool("v", false, "Verbose output - show detailed actions for each test")
	flag.Parse()

	test.Verbose = *verbose

	fmt.Printf("Running smoke tests against %s\n", *serverAddr)
	fmt.Println("Make sure the server is running with the default command throttle or looser!")
	fmt.Println()

	results := test.RunAllTests(*serverAddr)
	test.PrintResults(results)

	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
