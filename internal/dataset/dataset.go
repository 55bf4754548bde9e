// Package dataset reads and writes attempt logs.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/verte-zerg/tunecurve/internal/model"
)

// FieldCount is the number of fields on each line:
// id, five params, user skill, attempts, level.
const FieldCount = 3 + model.ParamCount + 1

// ErrMalformedRecord marks a line that does not parse into a record.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError describes a rejected input line.
type MalformedRecordError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, ErrMalformedRecord, e.Reason)
}

// Is matches ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Load reads records from the provided file path.
func Load(path string) ([]model.AttemptRecord, []*MalformedRecordError, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only dataset.
			_ = cerr
		}
	}()
	return Read(file)
}

// MaxLineBytes is the longest line Read will parse. Longer lines are
// rejected as malformed and the scan continues.
const MaxLineBytes = 64 * 1024

// Read parses one record per line. Fields may be separated by whitespace or
// commas. Blank lines and lines starting with '#' are skipped. Malformed
// lines are returned separately and do not stop the scan.
func Read(r io.Reader) ([]model.AttemptRecord, []*MalformedRecordError, error) {
	var (
		records  []model.AttemptRecord
		rejected []*MalformedRecordError
		buf      []byte
		tooLong  bool
	)
	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		if !tooLong {
			if len(buf)+len(chunk) > MaxLineBytes {
				tooLong = true
			} else {
				buf = append(buf, chunk...)
			}
		}
		if isPrefix {
			continue
		}
		lineNo++
		if tooLong {
			rejected = append(rejected, &MalformedRecordError{
				Line:   lineNo,
				Text:   previewText(buf),
				Reason: fmt.Sprintf("line longer than %d bytes", MaxLineBytes),
			})
			buf, tooLong = buf[:0], false
			continue
		}
		line := strings.TrimSpace(string(buf))
		buf = buf[:0]
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, reason := ParseLine(line)
		if reason != "" {
			rejected = append(rejected, &MalformedRecordError{Line: lineNo, Text: line, Reason: reason})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected, nil
}

func previewText(b []byte) string {
	const previewLen = 64
	if len(b) > previewLen {
		return string(b[:previewLen]) + "..."
	}
	return string(b)
}

// ParseLine parses a single line. A non-empty reason means the line is malformed.
func ParseLine(line string) (model.AttemptRecord, string) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
	if len(fields) != FieldCount {
		return model.AttemptRecord{}, fmt.Sprintf("expected %d fields, got %d", FieldCount, len(fields))
	}
	values := make([]int, FieldCount)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return model.AttemptRecord{}, fmt.Sprintf("field %d (%q) is not an integer", i+1, f)
		}
		values[i] = v
	}
	rec := model.AttemptRecord{
		ID:        values[0],
		UserSkill: values[1+model.ParamCount],
		Attempts:  values[2+model.ParamCount],
		Level:     values[3+model.ParamCount],
	}
	copy(rec.Params[:], values[1:1+model.ParamCount])
	if rec.Attempts < 0 {
		return model.AttemptRecord{}, fmt.Sprintf("attempts must be >= 0, got %d", rec.Attempts)
	}
	if rec.Level <= 0 {
		return model.AttemptRecord{}, fmt.Sprintf("level must be > 0, got %d", rec.Level)
	}
	return rec, ""
}

// Write emits records in the whitespace-separated input format.
func Write(w io.Writer, records []model.AttemptRecord) error {
	writer := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := fmt.Fprintln(writer, FormatLine(rec)); err != nil {
			return fmt.Errorf("failed to write dataset: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	return nil
}

// FormatLine renders a record as one input line.
func FormatLine(rec model.AttemptRecord) string {
	parts := make([]string, 0, FieldCount)
	parts = append(parts, strconv.Itoa(rec.ID))
	for _, p := range rec.Params {
		parts = append(parts, strconv.Itoa(p))
	}
	parts = append(parts, strconv.Itoa(rec.UserSkill), strconv.Itoa(rec.Attempts), strconv.Itoa(rec.Level))
	return strings.Join(parts, " ")
}
