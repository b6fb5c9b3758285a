package pipes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-json"

	"github.com/kbukum/flowkit/database"
	"github.com/kbukum/flowkit/schema"
	"github.com/kbukum/flowkit/table"
)

// JSONExtractor reads a JSON array of objects, or one object per line.
type JSONExtractor struct {
	Reader io.Reader
	// Columns fixes the column order. Defaults to the sorted union of keys.
	Columns []string
}

func (j JSONExtractor) Extract(context.Context) (any, error) {
	return io.ReadAll(j.Reader)
}

func (j JSONExtractor) Parse(_ context.Context, raw any) (*table.Table, error) {
	data, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("pipes: json extractor expects bytes, got %T", raw)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return nil, err
	}
	cols := j.Columns
	if len(cols) == 0 {
		seen := map[string]bool{}
		for _, r := range records {
			for k := range r {
				if !seen[k] {
					seen[k] = true
					cols = append(cols, k)
				}
			}
		}
		sort.Strings(cols)
	}
	return table.FromRecords(cols, records), nil
}

func decodeRecords(data []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("pipes: decoding json array: %w", err)
		}
		return records, nil
	}
	var records []map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for {
		var r map[string]any
		if err := dec.Decode(&r); err == io.EOF {
			return records, nil
		} else if err != nil {
			return nil, fmt.Errorf("pipes: decoding json line %d: %w", len(records)+1, err)
		}
		records = append(records, r)
	}
}

// JSONLoader writes one JSON object per row.
type JSONLoader struct {
	Writer io.Writer
}

type jsonBatch struct {
	data    []byte
	records int
}

func (j JSONLoader) Encode(_ context.Context, t *table.Table) (any, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range t.Rows() {
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("pipes: encoding row: %w", err)
		}
	}
	return jsonBatch{data: buf.Bytes(), records: t.Len()}, nil
}

func (j JSONLoader) Load(_ context.Context, encoded any) (*table.Table, error) {
	batch, ok := encoded.(jsonBatch)
	if !ok {
		return nil, fmt.Errorf("pipes: json loader cannot load %T", encoded)
	}
	n, err := j.Writer.Write(batch.data)
	if err != nil {
		return nil, err
	}
	return table.MustFromRows([]string{"records", "bytes"}, [][]any{{int64(batch.records), int64(n)}}), nil
}

// SQLExtractor reads a table written by a SQL subject or loader.
type SQLExtractor struct {
	Engine *database.Engine
	Table  string
	Schema *schema.Schema
}

func (s SQLExtractor) Extract(ctx context.Context) (any, error) {
	return s.Engine.ReadTable(ctx, s.Table, s.Schema)
}

func (s SQLExtractor) Parse(_ context.Context, raw any) (*table.Table, error) {
	return raw.(*table.Table), nil
}

// SQLLoader replaces a database table with the loaded rows.
type SQLLoader struct {
	Engine *database.Engine
	Table  string
	Schema *schema.Schema
}

func (s SQLLoader) Encode(_ context.Context, t *table.Table) (any, error) { return t, nil }

func (s SQLLoader) Load(ctx context.Context, encoded any) (*table.Table, error) {
	t := encoded.(*table.Table)
	if err := s.Engine.WriteTable(ctx, s.Table, t, s.Schema); err != nil {
		return nil, err
	}
	return table.MustFromRows([]string{"table", "records"}, [][]any{{s.Table, int64(t.Len())}}), nil
}
