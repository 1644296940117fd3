package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// env* helpers return d when the variable is unset or does not parse.

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(k))); err == nil {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil {
		return dur
	}
	return d
}
