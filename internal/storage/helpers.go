package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && *err == nil && cErr != sql.ErrTxDone {
		*err = cErr
	}
}

// toJSONString encodes v for a nullable TEXT column. Strings and byte
// slices are stored as they are.
func toJSONString(v any) (s sql.NullString, err error) {
	switch v := v.(type) {
	case nil:
		return
	case string:
		return sql.NullString{String: v, Valid: true}, nil
	case []byte:
		return sql.NullString{String: string(v), Valid: true}, nil
	}

	p, err := json.Marshal(v)
	if err != nil {
		return s, fmt.Errorf("marshaling %T: %w", v, err)
	}
	return sql.NullString{String: string(p), Valid: true}, nil
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func toSweepData(sessionID int64, data *vna.Data, settings sql.NullString) (*sweepData, error) {
	names := make([]string, len(data.Traces))
	for i, t := range data.Traces {
		names[i] = t.Parameter.Name()
	}
	p, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("marshaling parameters: %w", err)
	}

	return &sweepData{
		SessionID:  sessionID,
		Timestamp:  data.Timestamp.UTC(),
		Format:     data.Format.String(),
		Points:     len(data.Frequency),
		Parameters: string(p),
		Settings:   settings,
	}, nil
}

func toSampleData(sweepID int64, data *vna.Data) []sampleData {
	samples := make([]sampleData, 0, len(data.Traces)*len(data.Frequency))
	for _, t := range data.Traces {
		name := t.Parameter.Name()
		for i, z := range t.Samples {
			samples = append(samples, sampleData{
				SweepID:   sweepID,
				Parameter: name,
				Point:     i,
				Frequency: data.Frequency[i],
				Re:        real(z),
				Im:        imag(z),
			})
		}
	}
	return samples
}

// batchInsert builds a multi-row INSERT for rows of n placeholders each
func batchInsert(prefix string, rows, n int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"

	var sb strings.Builder
	sb.WriteString(prefix)
	for i := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(row)
	}
	return sb.String()
}
