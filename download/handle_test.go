package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandle_Basic(t *testing.T) {
	content := []byte("pdf bytes here")
	destPath := filepath.Join(t.TempDir(), "out.pdf")

	err := Handle(t.Context(), bytes.NewReader(content), int64(len(content)), destPath, discardLogger())
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading dest file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content = %q, want %q", got, content)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(destPath), ".generatepdfs-dl-*"))
	if len(matches) > 0 {
		t.Errorf("expected no temp files, found: %v", matches)
	}
}

func TestHandle_UnknownContentLength(t *testing.T) {
	content := []byte("length not reported")
	destPath := filepath.Join(t.TempDir(), "out.pdf")

	if err := Handle(t.Context(), bytes.NewReader(content), -1, destPath, discardLogger()); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading dest file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content = %q, want %q", got, content)
	}
}

func TestHandle_ContentLengthMismatch(t *testing.T) {
	content := []byte("short")
	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "out.pdf")

	err := Handle(t.Context(), bytes.NewReader(content), int64(len(content))+10, destPath, discardLogger())
	if !errors.Is(err, ErrContentLengthMismatch) {
		t.Fatalf("expected ErrContentLengthMismatch, got: %v", err)
	}

	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Error("dest file should not exist after a failed download")
	}
	matches, _ := filepath.Glob(filepath.Join(tmpDir, ".generatepdfs-dl-*"))
	if len(matches) > 0 {
		t.Errorf("expected no temp files, found: %v", matches)
	}
}

func TestHandle_ChecksumPass(t *testing.T) {
	content := []byte("verify me")
	sum := sha256.Sum256(content)
	destPath := filepath.Join(t.TempDir(), "out.pdf")

	err := Handle(t.Context(), bytes.NewReader(content), int64(len(content)), destPath, discardLogger(),
		WithChecksum(sha256.New(), hex.EncodeToString(sum[:])),
	)
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if _, err := os.Stat(destPath); err != nil {
		t.Errorf("dest file missing: %v", err)
	}
}

func TestHandle_ChecksumFail(t *testing.T) {
	content := []byte("corrupted in flight")
	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "out.pdf")

	wrong := sha256.Sum256([]byte("other bytes"))

	err := Handle(t.Context(), bytes.NewReader(content), int64(len(content)), destPath, discardLogger(),
		WithChecksum(sha256.New(), hex.EncodeToString(wrong[:])),
	)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got: %v", err)
	}

	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Error("dest file should not exist after checksum failure")
	}
	matches, _ := filepath.Glob(filepath.Join(tmpDir, ".generatepdfs-dl-*"))
	if len(matches) > 0 {
		t.Errorf("expected no temp files, found: %v", matches)
	}
}

func TestHandle_SkipExisting(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "out.pdf")
	original := []byte("already here")
	if err := os.WriteFile(destPath, original, 0o644); err != nil {
		t.Fatalf("writing pre-existing file: %v", err)
	}

	newContent := []byte("would overwrite")
	err := Handle(t.Context(), bytes.NewReader(newContent), int64(len(newContent)), destPath, discardLogger(),
		WithSkipExisting(),
	)
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("file was overwritten; got %q, want %q", got, original)
	}
}

func TestHandle_Progress(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	first := bytes.Repeat([]byte("a"), 600)
	second := bytes.Repeat([]byte("b"), 400)
	total := int64(len(first) + len(second))
	destPath := filepath.Join(t.TempDir(), "out.pdf")

	// MultiReader delivers the body in two writes: the first triggers
	// the periodic line, the second the completion line.
	body := io.MultiReader(bytes.NewReader(first), bytes.NewReader(second))

	if err := Handle(t.Context(), body, total, destPath, logger, WithProgress()); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading dest file: %v", err)
	}
	if int64(len(got)) != total {
		t.Errorf("wrote %d bytes, want %d", len(got), total)
	}

	logs := logBuf.String()
	if !strings.Contains(logs, "msg=downloading") || !strings.Contains(logs, "progress=60.0%") {
		t.Errorf("expected a downloading line at 60.0%%, got logs:\n%s", logs)
	}
	if !strings.Contains(logs, `msg="download complete"`) || !strings.Contains(logs, "progress=100.0%") {
		t.Errorf("expected a completion line at 100.0%%, got logs:\n%s", logs)
	}
}

func TestHandle_ProgressUnknownLength(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	content := []byte("served chunked, no length header")
	destPath := filepath.Join(t.TempDir(), "out.pdf")

	if err := Handle(t.Context(), bytes.NewReader(content), -1, destPath, logger, WithProgress()); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	got, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading dest file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content = %q, want %q", got, content)
	}

	logs := logBuf.String()
	if !strings.Contains(logs, "progress=unknown") {
		t.Errorf("expected unknown progress without a total, got logs:\n%s", logs)
	}
	if strings.Contains(logs, "download complete") {
		t.Errorf("completion line should not fire without a total, got logs:\n%s", logs)
	}
}

func TestHandle_Cancelled(t *testing.T) {
	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "out.pdf")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := Handle(ctx, bytes.NewReader([]byte("never fully read")), 16, destPath, discardLogger())
	if !errors.Is(err, ErrDownloadCancelled) {
		t.Fatalf("expected ErrDownloadCancelled, got: %v", err)
	}

	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Error("dest file should not exist after cancellation")
	}
	matches, _ := filepath.Glob(filepath.Join(tmpDir, ".generatepdfs-dl-*"))
	if len(matches) > 0 {
		t.Errorf("expected no temp files, found: %v", matches)
	}
}

func TestHandle_OptionValidation(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "out.pdf")

	err := Handle(t.Context(), bytes.NewReader(nil), 0, destPath, discardLogger(),
		WithChecksum(nil, "abc"),
	)
	if err == nil {
		t.Fatal("expected error for nil hash")
	}

	err = Handle(t.Context(), bytes.NewReader(nil), 0, destPath, discardLogger(),
		WithChecksum(sha256.New(), ""),
	)
	if err == nil {
		t.Fatal("expected error for empty expected checksum")
	}
}
