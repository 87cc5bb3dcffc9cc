package meter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// ErrMalformedRow is returned when an existing CSV log cannot be merged
// because a row has no parseable episode.
var ErrMalformedRow = errors.New("malformed csv row")

// missingValue is written for header fields absent from a record.
const missingValue = "0"

// CSVSink appends records to a CSV file. The file is opened on the first
// Write and kept open until Close.
type CSVSink struct {
	path   string
	logger *zap.SugaredLogger

	file   *os.File
	writer *csv.Writer
	header []string
}

// NewCSVSink returns a sink for path. A nil logger discards diagnostics.
func NewCSVSink(path string, logger *zap.SugaredLogger) *CSVSink {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CSVSink{path: path, logger: logger}
}

// Path returns the file the sink writes to.
func (s *CSVSink) Path() string {
	return s.path
}

// Header returns the column names fixed by the first write, or nil before it.
func (s *CSVSink) Header() []string {
	return s.header
}

// Write appends record as a row and flushes. Header fields missing from the
// record are written as 0; record fields outside the header are dropped.
func (s *CSVSink) Write(record Record) error {
	if s.writer == nil {
		if err := s.open(record); err != nil {
			return err
		}
	}

	row := s.project(record)
	var dropped []string
	for _, name := range record.Fields() {
		if !s.hasColumn(name) {
			dropped = append(dropped, name)
		}
	}
	if len(dropped) > 0 {
		s.logger.Debugw("dropping fields outside csv header", "path", s.path, "fields", dropped)
	}

	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row to %s: %w", s.path, err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", s.path, err)
	}
	return nil
}

// Close flushes and closes the underlying file. Closing an unopened sink is a no-op.
func (s *CSVSink) Close() error {
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := s.writer.Error()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	s.writer = nil
	return err
}

// open fixes the header from record, merges an existing file and opens it
// for append.
func (s *CSVSink) open(record Record) error {
	header := record.Fields()

	writeHeader := false
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		if err := s.removeOldEntries(record, header); err != nil {
			return err
		}
	case errors.Is(err, fs.ErrNotExist):
		writeHeader = true
	default:
		return fmt.Errorf("failed to stat %s: %w", s.path, err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}

	s.file = file
	s.writer = csv.NewWriter(file)
	s.header = header

	if writeHeader {
		if err := s.writer.Write(header); err != nil {
			return fmt.Errorf("failed to write csv header to %s: %w", s.path, err)
		}
	}
	return nil
}

// removeOldEntries rewrites the file with the new header followed by the
// leading rows whose episode is strictly lower than the record's. Reading
// stops at the first row that is not lower.
func (s *CSVSink) removeOldEntries(record Record, header []string) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	kept, err := readLeadingRows(f, record)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to merge %s: %w", s.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range kept {
		out := make([]string, len(header))
		for i, name := range header {
			v, ok := row[name]
			if !ok {
				v = missingValue
			}
			out[i] = v
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", s.path, err)
	}

	episode, _ := record.Episode()
	s.logger.Infow("merged existing csv log", "path", s.path, "kept", len(kept), "episode", episode)
	return nil
}

// readLeadingRows returns the rows of r that precede the record's episode.
// A record without an episode keeps every row.
func readLeadingRows(r io.Reader, record Record) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	columns, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	limit, bounded := record.Episode()
	episodeCol := -1
	for i, name := range columns {
		if name == EpisodeField {
			episodeCol = i
			break
		}
	}

	var kept []map[string]string
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if bounded {
			if episodeCol < 0 || episodeCol >= len(fields) {
				return nil, fmt.Errorf("line %d: %w: no episode column", line, ErrMalformedRow)
			}
			episode, err := strconv.ParseFloat(fields[episodeCol], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: episode %q: %v", line, ErrMalformedRow, fields[episodeCol], err)
			}
			if episode >= limit {
				break
			}
		}

		row := make(map[string]string, len(columns))
		for i, name := range columns {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		kept = append(kept, row)
	}
	return kept, nil
}

func (s *CSVSink) project(record Record) []string {
	row := make([]string, len(s.header))
	for i, name := range s.header {
		if v, ok := record[name]; ok {
			row[i] = formatValue(v)
		} else {
			row[i] = missingValue
		}
	}
	return row
}

func (s *CSVSink) hasColumn(name string) bool {
	for _, col := range s.header {
		if col == name {
			return true
		}
	}
	return false
}

// ReadRecords parses a CSV log written by a CSVSink. It returns the header
// and one record per row; empty cells are skipped.
func ReadRecords(r io.Reader) ([]string, []Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var records []Record
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		record := make(Record, len(header))
		for i, name := range header {
			if i >= len(fields) || fields[i] == "" {
				continue
			}
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w: %s %q: %v", line, ErrMalformedRow, name, fields[i], err)
			}
			record[name] = v
		}
		records = append(records, record)
	}
	return header, records, nil
}
