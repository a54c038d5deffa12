package gtfs

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SerializeIndex encodes a GTFSIndex to bytes using gob encoding.
// This avoids re-parsing the static zip on every start.
func SerializeIndex(index *GTFSIndex) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeIndexToWriter(index, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeIndex decodes a GTFSIndex from bytes using gob encoding.
func DeserializeIndex(data []byte) (*GTFSIndex, error) {
	return DeserializeIndexFromReader(bytes.NewReader(data))
}

// SerializeIndexToFile writes a GTFSIndex to a file. The file is written to a
// temporary sibling first and renamed, so readers never see a partial cache.
func SerializeIndexToFile(index *GTFSIndex, path string) error {
	data, err := SerializeIndex(index)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DeserializeIndexFromFile reads a GTFSIndex from a file using gob encoding.
func DeserializeIndexFromFile(path string) (*GTFSIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return DeserializeIndex(data)
}

// SerializeIndexToWriter writes a GTFSIndex to an io.Writer using gob encoding.
func SerializeIndexToWriter(index *GTFSIndex, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(index); err != nil {
		return fmt.Errorf("failed to encode GTFSIndex: %w", err)
	}
	return nil
}

// DeserializeIndexFromReader reads a GTFSIndex from an io.Reader using gob encoding.
func DeserializeIndexFromReader(r io.Reader) (*GTFSIndex, error) {
	var index GTFSIndex
	if err := gob.NewDecoder(r).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode GTFSIndex: %w", err)
	}
	return &index, nil
}
