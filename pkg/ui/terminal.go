package ui

import (
	"fmt"
	"time"

	"socialharvest/pkg/pipeline"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Red(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Println(Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	fmt.Printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Println(Yellow(msg + ": " + fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Println(Yellow(msg))
	}
}

// PrintSummary renders a finished run's counters.
func PrintSummary(s *pipeline.Summary) {
	fmt.Println()
	PrintInfo("Run", s.RunID)
	PrintInfo("Platform", s.Platform)
	fmt.Printf("  %-20s %d\n", "processed:", s.Processed)
	fmt.Printf("  %-20s %d\n", "fetched:", s.Fetched)
	fmt.Printf("  %-20s %d\n", "below threshold:", s.BelowThreshold)
	fmt.Printf("  %-20s %d\n", "not found:", s.NotFound)
	fmt.Printf("  %-20s %d\n", "invalid:", s.Invalid)
	fmt.Printf("  %-20s %d\n", "rate limited:", s.RateLimited)
	fmt.Printf("  %-20s %d\n", "transient failures:", s.TransientFailures)
	fmt.Printf("  %-20s %d\n", "posts dropped:", s.PostsDropped)
	fmt.Printf("  %-20s %d\n", "profiles upserted:", s.ProfilesUpserted)
	fmt.Printf("  %-20s %d\n", "posts upserted:", s.PostsUpserted)
	fmt.Println(Dim(fmt.Sprintf("  completed in %s", s.Duration.Round(10*time.Millisecond))))
}
