package logger

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/muliwe/aitm-detector/internal/detector"
	"github.com/muliwe/aitm-detector/internal/fingerprint"
)

// LogEntry represents a single detection log entry
type LogEntry struct {
	Timestamp      time.Time             `json:"timestamp"`
	RequestID      string                `json:"request_id"`
	Verdict        detector.Verdict      `json:"verdict"`
	Outcome        string                `json:"outcome"`
	Referer        string                `json:"referer"`
	RefererPresent bool                  `json:"referer_present"`
	MatchedEntry   string                `json:"matched_entry,omitempty"`
	Error          string                `json:"error,omitempty"`
	Requester      fingerprint.Requester `json:"requester"`
	ResponseTimeMs int64                 `json:"response_time_ms"`
}

// Logger writes detections as JSON lines
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	limiter *rate.Limiter
	dropped uint64
}

// Config holds logger configuration
type Config struct {
	LogDir              string // Directory for log files
	FileName            string // Log file name (default: detections.jsonl)
	Stdout              bool   // Also write to stdout
	MaxEntriesPerSecond int    // Flood guard, 0 disables it
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{
		LogDir:              "logs",
		FileName:            "detections.jsonl",
		Stdout:              false,
		MaxEntriesPerSecond: 100,
	}
}

// New creates a new logger instance
func New(cfg Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, err
	}

	logPath := filepath.Join(cfg.LogDir, cfg.FileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	var writer io.Writer = file
	if cfg.Stdout {
		writer = io.MultiWriter(file, os.Stdout)
	}

	l := &Logger{
		file:    file,
		encoder: json.NewEncoder(writer),
	}
	if cfg.MaxEntriesPerSecond > 0 {
		// one second worth of burst
		l.limiter = rate.NewLimiter(rate.Limit(cfg.MaxEntriesPerSecond), cfg.MaxEntriesPerSecond)
	}
	return l, nil
}

// Log writes an entry. It returns false without error when the entry was
// dropped by the flood guard.
func (l *Logger) Log(entry LogEntry) (bool, error) {
	if l.limiter != nil && !l.limiter.Allow() {
		l.mu.Lock()
		l.dropped++
		l.mu.Unlock()
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return true, l.encoder.Encode(entry)
}

// LogDetection logs a detection result with requester metadata
func (l *Logger) LogDetection(result detector.Result, outcome string, faultErr error, req fingerprint.Requester, responseTimeMs int64) (bool, error) {
	entry := LogEntry{
		Timestamp:      result.Timestamp,
		RequestID:      result.RequestID,
		Verdict:        result.Verdict,
		Outcome:        outcome,
		Referer:        result.Referer,
		RefererPresent: result.RefererPresent,
		MatchedEntry:   result.MatchedEntry,
		Requester:      req,
		ResponseTimeMs: responseTimeMs,
	}
	if faultErr != nil {
		entry.Error = faultErr.Error()
	}
	return l.Log(entry)
}

// Dropped returns how many entries the flood guard suppressed
func (l *Logger) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close closes the logger
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LogPath returns the path to the log file
func (l *Logger) LogPath() string {
	if l.file != nil {
		return l.file.Name()
	}
	return ""
}
