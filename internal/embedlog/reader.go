package embedlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxLineBytes bounds a single log line (text plus a few thousand floats).
const maxLineBytes = 64 << 20

// Scan reads the log top to bottom and calls fn for every record with its
// 1-based line number. Any unparsable line stops the scan with ErrMalformedRecord.
func Scan(r io.Reader, fn func(line int, rec Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++

		var raw rawRecord
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}
		rec, err := raw.record()
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err)
		}

		if err := fn(line, rec); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read embedding log: %w", err)
	}
	return nil
}

// ReadAll returns every record of the log in order.
func ReadAll(r io.Reader) ([]Record, error) {
	var records []Record
	err := Scan(r, func(_ int, rec Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReadFile returns every record of the log file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ReadAll(f)
}
