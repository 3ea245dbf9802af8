package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGeneratePackageWritesExpectedFiles(t *testing.T) {
	d, err := loadDialectDir("../../definitions")
	if err != nil {
		t.Fatalf("loadDialectDir: %v", err)
	}
	destDir := t.TempDir()
	opt := genOptions{
		DestDir:    destDir,
		PkgName:    "testdialect",
		SourceXML:  "definitions/common.xml",
		FormatCode: true,
	}
	if err := generatePackage(d, opt); err != nil {
		t.Fatalf("generatePackage: %v", err)
	}

	for _, name := range []string{"doc.go", "common.go", "register.go", "heartbeat.go"} {
		path := filepath.Join(destDir, name)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}

	hbSrc, err := os.ReadFile(filepath.Join(destDir, "heartbeat.go"))
	if err != nil {
		t.Fatalf("reading heartbeat.go: %v", err)
	}
	body := string(hbSrc)
	for _, want := range []string{"package testdialect", "HeartbeatID uint32 = 0", "type Heartbeat struct", "func decodeHeartbeat", "func encodeHeartbeat"} {
		if !strings.Contains(body, want) {
			t.Errorf("heartbeat.go missing %q", want)
		}
	}
}

func TestCacheHitsUntilDefinitionsChange(t *testing.T) {
	dir := t.TempDir()
	defsDir := filepath.Join(dir, "definitions")
	if err := os.MkdirAll(defsDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `<?xml version="1.0"?><mavlink><messages><message id="0" name="HEARTBEAT"><description>d</description><field type="uint8_t" name="type">t</field></message></messages></mavlink>`
	if err := os.WriteFile(filepath.Join(defsDir, "common.xml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	hash1, err := definitionsHash(defsDir)
	if err != nil {
		t.Fatalf("definitionsHash: %v", err)
	}
	destDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := saveCache(destDir, hash1); err != nil {
		t.Fatalf("saveCache: %v", err)
	}

	rec, err := loadCache(destDir)
	if err != nil {
		t.Fatalf("loadCache: %v", err)
	}
	if rec == nil || rec.Hash != hash1 {
		t.Fatalf("expected cache hit, got %+v", rec)
	}

	if err := os.WriteFile(filepath.Join(defsDir, "common.xml"), []byte(content+"\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	hash2, err := definitionsHash(defsDir)
	if err != nil {
		t.Fatalf("definitionsHash: %v", err)
	}
	if hash2 == hash1 {
		t.Fatalf("expected hash to change after edit")
	}
}
