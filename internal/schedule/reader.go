package schedule

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// fieldCount is the header contract: every logical row resolves to 12 fields.
const fieldCount = 12

// ErrMalformedRow marks a row that could not be resolved to 12 fields.
// Rows failing this way are skipped and counted, never fatal to the batch.
var ErrMalformedRow = errors.New("malformed schedule row")

// ErrNoValidRows is returned when a batch yields zero parseable rows.
// That indicates a wholesale format mismatch, not sparse bad data.
var ErrNoValidRows = errors.New("no valid rows in schedule batch")

// Reader lazily parses schedule rows from an input stream. The first line is
// treated as the header and skipped. Parsing holds no state beyond the scan
// position, so re-reading the same input always yields the same stops.
type Reader struct {
	scanner    *bufio.Scanner
	line       int
	headerSeen bool
}

// NewReader returns a Reader over r. The underlying input is consumed as
// Next is called; construct a new Reader to restart.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: sc}
}

// Next returns the next stop record. It returns io.EOF at end of input and
// an error wrapping ErrMalformedRow for rows with too few fields; callers
// should count those and continue.
func (r *Reader) Next() (Stop, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		if !r.headerSeen {
			r.headerSeen = true
			continue
		}
		if line == "" {
			continue
		}

		fields := splitRow(line)
		if len(fields) < fieldCount {
			return Stop{}, fmt.Errorf("line %d: %w: resolved %d of %d fields",
				r.line, ErrMalformedRow, len(fields), fieldCount)
		}

		return buildStop(fields), nil
	}
	if err := r.scanner.Err(); err != nil {
		return Stop{}, fmt.Errorf("line %d: read schedule input: %w", r.line, err)
	}
	return Stop{}, io.EOF
}

// ReadAll drains the reader, collecting stops and per-batch stats. Malformed
// rows are counted and skipped. A batch with zero valid rows fails with
// ErrNoValidRows since it means the input is not in the expected format.
func (r *Reader) ReadAll() ([]Stop, Stats, error) {
	var stops []Stop
	var stats Stats

	for {
		stop, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrMalformedRow) {
			stats.Rows++
			stats.Malformed++
			continue
		}
		if err != nil {
			return nil, stats, err
		}
		stats.Rows++
		stats.Parsed++
		stops = append(stops, stop)
	}

	if stats.Parsed == 0 {
		return nil, stats, ErrNoValidRows
	}
	return stops, stats, nil
}

// splitRow splits one raw line into fields. A double quote toggles quote
// state; a comma outside quotes is a field boundary, inside quotes it is
// literal. Quote characters themselves are dropped.
//
// When more than 12 fields come out (an unescaped comma inside an unquoted
// station name) the surplus fields are merged back into the station-name
// slot rather than rejecting the row. The last 7 fields of the row are
// positional (times, distance, source and destination columns), so everything
// between index 4 and the 7th-from-last belongs to the name.
func splitRow(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	if len(fields) > fieldCount {
		extra := fields[4 : len(fields)-7]
		merged := strings.TrimRight(strings.Join(extra, ","), ",")
		rest := append([]string{merged}, fields[len(fields)-7:]...)
		fields = append(fields[:4:4], rest...)
	}

	return fields
}

func buildStop(f []string) Stop {
	// Numeric fields fall back to 0 on parse failure rather than failing the
	// row. This is lossy but keeps otherwise-usable rows in the batch.
	seq, _ := strconv.Atoi(f[2])
	dist, _ := strconv.ParseFloat(f[7], 64)

	return Stop{
		TrainID:            f[0],
		TrainName:          f[1],
		Sequence:           seq,
		StationCode:        strings.ToUpper(f[3]),
		StationName:        strings.TrimRight(f[4], ","),
		ArrivalTime:        cleanTime(f[5]),
		DepartureTime:      cleanTime(f[6]),
		DistanceFromOrigin: dist,
		OriginCode:         strings.ToUpper(f[8]),
		OriginName:         f[9],
		DestCode:           strings.ToUpper(f[10]),
		DestName:           f[11],
	}
}

// cleanTime normalizes the placeholder values the export uses for
// "no scheduled time" to the empty string.
func cleanTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" || s == "00:00:00" {
		return ""
	}
	return s
}
