package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nvandessel/chunkgraph/internal/store"
)

// FormatVersion is the current backup file version.
const FormatVersion = 1

// ErrChecksumMismatch means the payload does not match its header.
var ErrChecksumMismatch = errors.New("backup checksum mismatch")

// Snapshot is the full graph state captured by a backup.
type Snapshot struct {
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Nodes     []string     `json:"nodes"`
	Edges     []store.Edge `json:"edges"`
}

// Header is the first line of a backup file. The gzip-compressed snapshot
// follows it.
type Header struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
	Checksum  string    `json:"checksum"` // sha256 of the compressed payload, hex
}

// Write saves snap to path as a header line plus a gzip payload.
func Write(path string, snap *Snapshot) error {
	var payload bytes.Buffer
	zw := gzip.NewWriter(&payload)
	if err := json.NewEncoder(zw).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}

	sum := sha256.Sum256(payload.Bytes())
	header, err := json.Marshal(Header{
		Version:   snap.Version,
		CreatedAt: snap.CreatedAt,
		NodeCount: len(snap.Nodes),
		EdgeCount: len(snap.Edges),
		Checksum:  hex.EncodeToString(sum[:]),
	})
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	data := append(append(header, '\n'), payload.Bytes()...)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

func split(path string) (Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, err := r.ReadBytes('\n')
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to read backup header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return Header{}, nil, fmt.Errorf("invalid backup header: %w", err)
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to read backup payload: %w", err)
	}
	return h, payload, nil
}

// ReadHeader returns only the header of a backup file.
func ReadHeader(path string) (Header, error) {
	h, _, err := split(path)
	return h, err
}

// Read loads and verifies a backup file.
func Read(path string) (*Snapshot, error) {
	h, payload, err := split(path)
	if err != nil {
		return nil, err
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported backup version %d", h.Version)
	}
	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != h.Checksum {
		return nil, ErrChecksumMismatch
	}

	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress backup: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
