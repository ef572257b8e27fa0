package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

var ErrMalformed = errors.New("manifest: malformed document")

// wireRecord is the per-file object in both the published file list and the
// local snapshot: {"hash": "...", "path": "..."}.
type wireRecord struct {
	Hash string `json:"hash"`
	Path string `json:"path"`
}

// Parse decodes a manifest document, keeping the document's key order.
// Entries without a "path" use their object key. Any invalid entry fails the
// whole document.
func Parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrMalformed, tok)
	}

	m := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected key %v", ErrMalformed, keyTok)
		}

		var wr wireRecord
		if err := dec.Decode(&wr); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %w", ErrMalformed, key, err)
		}
		path := wr.Path
		if path == "" {
			path = key
		}

		rec, err := NewFileRecord(path, wr.Hash)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %w", ErrMalformed, key, err)
		}
		m.Set(rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document (%v, %v)", ErrMalformed, tok, err)
	}

	return m, nil
}

// Marshal encodes m in insertion order using the same shape Parse reads.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rec := range m.Records() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(rec.Path)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(wireRecord{Hash: rec.Digest, Path: rec.Path})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
