package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shelf/internal/config"
)

func readLogs(t *testing.T, dir, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*_"+suffix+".log"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s log file in %s", suffix, dir)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(data)
}

func TestProductionModeWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(config.LoggingConfig{Dir: dir, Level: "debug"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer CloseAll()

	Store("should not be written")
	Audit(AuditEvent{Type: AuditBookAdd, Target: "Dune", Success: true})

	if IsDebugMode() {
		t.Error("expected debug mode off")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected no log directory, stat err = %v", err)
	}
}

func TestDebugModeWritesCategoryFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	lc := config.LoggingConfig{
		Dir:        dir,
		Level:      "debug",
		DebugMode:  true,
		Categories: map[string]bool{"catalog": false},
	}
	if err := Initialize(lc); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Store("Loaded %d books", 3)
	StoreDebug("debug detail")
	CatalogDebug("disabled category")
	Session("menu shown")
	BootError("config rejected: %s", "bad theme")
	CloseAll()

	storeLog := readLogs(t, dir, "store")
	if !strings.Contains(storeLog, "Loaded 3 books") {
		t.Errorf("store log missing entry: %s", storeLog)
	}
	if !strings.Contains(storeLog, "debug detail") {
		t.Errorf("store log missing debug entry: %s", storeLog)
	}
	if !strings.Contains(storeLog, SessionID()) {
		t.Errorf("store log missing session id: %s", storeLog)
	}

	bootLog := readLogs(t, dir, "boot")
	for _, want := range []string{"shelf logging initialized", "config rejected: bad theme", "shelf logging closed"} {
		if !strings.Contains(bootLog, want) {
			t.Errorf("boot log missing %q: %s", want, bootLog)
		}
	}

	if m, _ := filepath.Glob(filepath.Join(dir, "*_catalog.log")); len(m) != 0 {
		t.Errorf("disabled category produced a file: %v", m)
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(config.LoggingConfig{Dir: dir, Level: "warn", DebugMode: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Store("info is filtered")
	StoreWarn("warn survives")
	CloseAll()

	storeLog := readLogs(t, dir, "store")
	if strings.Contains(storeLog, "info is filtered") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(storeLog, "warn survives") {
		t.Error("warn entry missing")
	}
}

func TestAuditTrail(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Initialize(config.LoggingConfig{Dir: dir, Level: "info", DebugMode: true}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Audit(AuditEvent{Type: AuditBookAdd, Target: "Dune", Success: true, Count: 1})
	Audit(AuditEvent{Type: AuditBookNotFound, Target: "Emma", Error: "book not found"})
	CloseAll()

	audit := readLogs(t, dir, "audit")
	for _, want := range []string{`"event":"book_add"`, `"target":"Dune"`, `"event":"book_not_found"`, `"error":"book not found"`} {
		if !strings.Contains(audit, want) {
			t.Errorf("audit log missing %s: %s", want, audit)
		}
	}
}

func TestInitializeRequiresDirInDebugMode(t *testing.T) {
	defer CloseAll()
	if err := Initialize(config.LoggingConfig{DebugMode: true}); err == nil {
		t.Fatal("expected error for empty log dir")
	}
}

func TestSessionIDChangesPerInitialize(t *testing.T) {
	defer CloseAll()
	_ = Initialize(config.LoggingConfig{})
	first := SessionID()
	_ = Initialize(config.LoggingConfig{})
	if first == "" || first == SessionID() {
		t.Errorf("expected fresh session ids, got %q then %q", first, SessionID())
	}
}

func TestTimer(t *testing.T) {
	_ = Initialize(config.LoggingConfig{})
	defer CloseAll()

	timer := StartTimer(CategoryStore, "save")
	if d := timer.Stop(); d < 0 {
		t.Errorf("negative duration %v", d)
	}
	if d := StartTimer(CategoryStore, "load").StopWithThreshold(time.Hour); d >= time.Hour {
		t.Errorf("unexpected duration %v", d)
	}
}
