package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"ecobank/internal/core"
)

// FileRepository stores the document as one indented JSON file.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Path() string { return r.path }

// Load implements Repository. A missing file yields the bootstrap document;
// any other failure is returned as *Error.
func (r *FileRepository) Load(ctx context.Context) (*core.Document, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.InfoContext(ctx, "Data file not found, starting from bootstrap document", "path", r.path)
		return core.NewDocument(), nil
	}
	if err != nil {
		return nil, &Error{Op: "load", Location: r.path, Err: err}
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, &Error{Op: "load", Location: r.path, Err: err}
	}
	return doc, nil
}

// Save implements Repository. The document is written to a temp file in
// the same directory and renamed over the target.
func (r *FileRepository) Save(ctx context.Context, doc *core.Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return &Error{Op: "save", Location: r.path, Err: err}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Op: "save", Location: r.path, Err: fmt.Errorf("create data directory: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return &Error{Op: "save", Location: r.path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return &Error{Op: "save", Location: r.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return &Error{Op: "save", Location: r.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &Error{Op: "save", Location: r.path, Err: err}
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return &Error{Op: "save", Location: r.path, Err: err}
	}

	slog.DebugContext(ctx, "Document saved", "path", r.path, "users", len(doc.Users), "bytes", len(data))
	return nil
}

func (r *FileRepository) Close() error { return nil }

// EncodeDocument renders doc in the persisted layout (four-space indent).
func EncodeDocument(doc *core.Document) ([]byte, error) {
	cp := doc.Clone()
	cp.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cp); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDocument parses and checks a persisted document.
func DecodeDocument(data []byte) (*core.Document, error) {
	var doc core.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Users == nil {
		return nil, errors.New("decode document: missing \"users\" object")
	}
	if err := validate(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.Normalize()
	return &doc, nil
}
