package jsonlstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// readLines reads a JSONL sheet file. Each non-empty line that decodes as a
// string array is returned; malformed lines are skipped.
func readLines(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines [][]string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var cells []string
		if err := json.Unmarshal(line, &cells); err != nil {
			continue
		}
		lines = append(lines, cells)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return lines, nil
}

// readHeader returns the first well-formed line of a sheet file, or nil when
// the file holds none.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var cells []string
		if json.Unmarshal(scanner.Bytes(), &cells) == nil {
			return cells, nil
		}
	}
	return nil, scanner.Err()
}

// writeLines atomically replaces path using the temp-file, fsync, rename
// pattern so readers never observe a partial sheet.
func writeLines(path string, lines [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, cells := range lines {
		data, err := json.Marshal(cells)
		if err != nil {
			return fail("encoding row", err)
		}
		if _, err := w.Write(data); err != nil {
			return fail("writing row", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// appendLines adds lines to the end of path with a single O_APPEND write.
func appendLines(path string, lines ...[]string) error {
	var buf []byte
	for _, cells := range lines {
		data, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("appending to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return f.Close()
}
