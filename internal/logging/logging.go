package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxLogFiles is the rotation limit used when none is configured
const DefaultMaxLogFiles = 1000

// Logger is the public logger instance accessible from all packages.
// It discards everything until Initialize enables debug output.
var Logger = slog.New(slog.DiscardHandler)

var enabled bool

// Enabled reports whether the last Initialize call turned debug logging on
func Enabled() bool {
	return enabled
}

// Initialize points Logger at a debug log file and returns its path.
// With neither debug nor debugFile set, logs are discarded and the path is "".
// debugFile pins the file and disables rotation; otherwise each run gets a
// fresh file in the user cache dir, keeping at most maxLogFiles (0 = all).
func Initialize(debug bool, debugFile string, maxLogFiles int) (string, error) {
	if !debug && debugFile == "" {
		Logger = slog.New(slog.DiscardHandler)
		enabled = false
		return "", nil
	}

	path := debugFile
	if path == "" {
		dir, err := logDir()
		if err != nil {
			return "", err
		}
		if maxLogFiles > 0 {
			pruneLogs(dir, maxLogFiles-1)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%s.log", time.Now().Format("20060102-150405"), uuid.NewString()[:8]))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	Logger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
	enabled = true
	Logger.Info("Debug logging initialized", "log_file", path)
	fmt.Fprintf(os.Stderr, "Debug mode enabled. Logs: %s\n", path)

	return path, nil
}

// pruneLogs deletes the oldest .log files in dir until at most keep remain
func pruneLogs(dir string, keep int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type logFile struct {
		modTime time.Time
		path    string
	}
	var files []logFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		if info, err := entry.Info(); err == nil {
			files = append(files, logFile{modTime: info.ModTime(), path: filepath.Join(dir, entry.Name())})
		}
	}
	if len(files) <= keep {
		return
	}

	slices.SortFunc(files, func(a, b logFile) int { return a.modTime.Compare(b.modTime) })
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f.path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to delete old log file %s: %v\n", f.path, err)
		}
	}
}

// logDir is <user cache dir>/mgit/logs
func logDir() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate log directory: %w", err)
	}
	return filepath.Join(cache, "mgit", "logs"), nil
}
