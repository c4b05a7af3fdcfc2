// Package bundle reads and writes .cira files: a magic header, a version byte
// and a gzip compressed JSON payload of stored requirements.
package bundle

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/JulianFrattini/cira/internal/store"
)

// MagicBytes opens every bundle: CIRA
var MagicBytes = []byte{0x43, 0x49, 0x52, 0x41}

// Version of the bundle layout.
const Version = 1

// ErrFormat is returned for files that are not bundles of a supported version.
var ErrFormat = errors.New("invalid bundle")

// Manifest describes a bundle.
type Manifest struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	Author           string    `json:"author,omitempty" yaml:"author,omitempty"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
	RequirementCount int       `json:"requirement_count" yaml:"requirement_count"`
}

// Payload is the JSON content inside the gzip stream.
type Payload struct {
	Manifest     Manifest       `json:"manifest"`
	Requirements []store.Record `json:"requirements"`
}

// NewManifest creates a manifest with a fresh id for the given records.
func NewManifest(name string, records []store.Record) (Manifest, error) {
	id, err := gonanoid.New()
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to generate id: %w", err)
	}
	return Manifest{
		ID:               id,
		Name:             name,
		CreatedAt:        time.Now(),
		RequirementCount: len(records),
	}, nil
}

// Package writes records into a bundle file.
func Package(manifest Manifest, records []store.Record, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := Write(f, manifest, records); err != nil {
		return err
	}
	return f.Close()
}

// Write encodes a bundle to w.
func Write(w io.Writer, manifest Manifest, records []store.Record) error {
	if records == nil {
		records = []store.Record{}
	}
	manifest.RequirementCount = len(records)

	if _, err := w.Write(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(Version)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}

	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(Payload{Manifest: manifest, Requirements: records}); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush payload: %w", err)
	}
	return nil
}

// Unpack reads a bundle file.
func Unpack(inputPath string) (*Payload, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a bundle from r.
func Read(r io.Reader) (*Payload, error) {
	magic := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: failed to read magic bytes: %v", ErrFormat, err)
	}
	if !bytes.Equal(magic, MagicBytes) {
		return nil, fmt.Errorf("%w: not a .cira file", ErrFormat)
	}

	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: failed to read version: %v", ErrFormat, err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d (expected %d)", ErrFormat, version, Version)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var payload Payload
	if err := json.NewDecoder(gz).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return &payload, nil
}

// Inspect returns the manifest of a bundle file.
func Inspect(inputPath string) (*Manifest, error) {
	payload, err := Unpack(inputPath)
	if err != nil {
		return nil, err
	}
	return &payload.Manifest, nil
}
