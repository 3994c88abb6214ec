package util

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		LogWarn("Error checking directory existence: %v", err)
		return false
	}
	return info.IsDir()
}

func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	switch {
	case hours > 0:
		return fmt.Sprintf("%d hour%s, %d minute%s, %d second%s",
			hours, plural(hours),
			minutes, plural(minutes),
			seconds, plural(seconds))
	case minutes > 0:
		return fmt.Sprintf("%d minute%s, %d second%s",
			minutes, plural(minutes),
			seconds, plural(seconds))
	default:
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// EpochDay returns the number of whole UTC calendar days since the Unix
// epoch for t. Two timestamps on the same UTC day map to the same value.
func EpochDay(t time.Time) int64 {
	return t.UTC().Unix() / 86400
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogWarn("Invalid duration for %s: %v, using default %v", key, err, fallback)
		return fallback
	}
	return d
}

func GetEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		LogWarn("Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}

func LogInfo(format string, v ...any) {
	log.Printf("[INFO] "+format, v...)
}

func LogWarn(format string, v ...any) {
	log.Printf("[WARN] "+format, v...)
}

func LogFatal(format string, v ...any) {
	log.Fatalf("[FATAL] "+format, v...)
}
