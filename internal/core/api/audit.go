package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/accumate/docfilter/internal/types"
)

// AuditRecord is one line of the audit log.
type AuditRecord struct {
	Timestamp   time.Time       `json:"timestamp"`
	RequestID   types.RequestID `json:"request_id,omitempty"`
	ClientID    string          `json:"client_id,omitempty"`
	Collections []string        `json:"collections,omitempty"`
	GroupBy     string          `json:"group_by,omitempty"`
	Documents   int             `json:"documents"`
	Survivors   int             `json:"survivors"`
	Groups      int             `json:"groups,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

// AuditLog appends one JSON line per Filter call to a daily file,
// <DataDir>/audit/YYYY-MM-DD.jsonl. Writes are best-effort: failures are
// logged and never fail the request. A nil *AuditLog discards records.
type AuditLog struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	files map[string]*sync.Mutex
}

// NewAuditLog creates the audit directory under dataDir.
func NewAuditLog(dataDir string, logger *zap.Logger) (*AuditLog, error) {
	dir := filepath.Join(dataDir, "audit")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLog{
		dir:    dir,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		files:  make(map[string]*sync.Mutex),
	}, nil
}

// Path returns the file a record written at t goes to.
func (a *AuditLog) Path(t time.Time) string {
	return filepath.Join(a.dir, t.UTC().Format("2006-01-02")+".jsonl")
}

// Write appends rec, stamping Timestamp when it is zero.
func (a *AuditLog) Write(rec AuditRecord) {
	if a == nil {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = a.now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		a.logger.Warn("Failed to encode audit record", zap.Error(err))
		return
	}
	line = append(line, '\n')

	path := a.Path(rec.Timestamp)
	lock := a.fileMutex(path)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		a.logger.Warn("Failed to open audit log", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		a.logger.Warn("Failed to write audit log", zap.String("path", path), zap.Error(err))
	}
}

// fileMutex returns the mutex for path, creating it on first use.
// The map grows by one entry per day.
func (a *AuditLog) fileMutex(path string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.files[path]
	if !ok {
		m = &sync.Mutex{}
		a.files[path] = m
	}
	return m
}
