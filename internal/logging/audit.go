package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditEventType names a library-level event in the audit trail.
type AuditEventType string

const (
	AuditSessionStart  AuditEventType = "session_start"
	AuditSessionEnd    AuditEventType = "session_end"
	AuditLibraryLoad   AuditEventType = "library_load"
	AuditLibrarySave   AuditEventType = "library_save"
	AuditBookAdd       AuditEventType = "book_add"
	AuditBookRemove    AuditEventType = "book_remove"
	AuditBookNotFound  AuditEventType = "book_not_found"
	AuditDocumentReset AuditEventType = "document_reset" // malformed document replaced by empty library
)

// AuditEvent is one structured line of the audit trail.
type AuditEvent struct {
	Type    AuditEventType
	Target  string // book title or document path
	Success bool
	Count   int // library size after the event
	Error   string
}

var (
	auditMu     sync.Mutex
	auditFile   *os.File
	auditLogger *zap.Logger
)

func openAudit() (*zap.Logger, error) {
	if auditLogger != nil {
		return auditLogger, nil
	}

	configMu.RLock()
	dir := cfg.Dir
	configMu.RUnlock()

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("%s_audit.log", date))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.EpochMillisTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(ec), zapcore.AddSync(file), zapcore.InfoLevel)

	auditFile = file
	auditLogger = zap.New(core)
	return auditLogger, nil
}

func closeAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditLogger != nil {
		_ = auditLogger.Sync()
		auditLogger = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit appends an event to the audit trail. It is a no-op unless debug
// mode is on.
func Audit(e AuditEvent) {
	if !IsDebugMode() {
		return
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	l, err := openAudit()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: %v\n", err)
		return
	}

	fields := []zap.Field{
		zap.String("event", string(e.Type)),
		zap.String("session", SessionID()),
		zap.Bool("success", e.Success),
		zap.Int("count", e.Count),
	}
	if e.Target != "" {
		fields = append(fields, zap.String("target", e.Target))
	}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	l.Info("audit", fields...)
}
