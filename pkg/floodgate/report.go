package floodgate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// ReportRow is one validated record in the parquet report.
type ReportRow struct {
	RunID       string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Path        string `parquet:"name=path, type=BYTE_ARRAY, convertedtype=UTF8"`
	Status      string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
	Actions     int32  `parquet:"name=actions, type=INT32"`
	Applied     int32  `parquet:"name=applied, type=INT32"`
	Repetition  bool   `parquet:"name=repetition, type=BOOLEAN"`
	StoppedAt   int32  `parquet:"name=stopped_at, type=INT32"`
	FinalKey    string `parquet:"name=final_key, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinalSFEN   string `parquet:"name=final_sfen, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinalPacked string `parquet:"name=final_packed, type=BYTE_ARRAY, convertedtype=UTF8"`
	Facets      string `parquet:"name=facets, type=BYTE_ARRAY, convertedtype=UTF8"`
	Error       string `parquet:"name=error, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// NewRunID returns an identifier shared by every row of one run.
func NewRunID() string {
	return uuid.NewString()
}

// NewReportRow flattens a result. Only the first line of the error is
// kept; mismatch errors carry the whole record after it.
func NewReportRow(runID string, r Result) ReportRow {
	row := ReportRow{
		RunID:       runID,
		Path:        r.Path,
		Status:      string(r.Status),
		Actions:     int32(r.Actions),
		Applied:     int32(r.Applied),
		Repetition:  r.Repetition,
		StoppedAt:   int32(r.StoppedAt),
		FinalSFEN:   r.FinalSFEN,
		FinalPacked: r.FinalPacked,
	}
	if r.FinalKey != 0 {
		row.FinalKey = fmt.Sprintf("%016x", r.FinalKey)
	}
	facets := make([]string, len(r.Facets))
	for i, f := range r.Facets {
		facets[i] = string(f)
	}
	row.Facets = strings.Join(facets, ",")
	if r.Err != nil {
		row.Error, _, _ = strings.Cut(r.Err.Error(), "\n")
	}
	return row
}

//go:embed schema/report_schema.json
var reportSchema []byte

type schemaColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// physical types of the parquet tags, keyed by schema type
var schemaTypes = map[string]string{
	"string":  "BYTE_ARRAY",
	"int32":   "INT32",
	"boolean": "BOOLEAN",
}

// checkReportSchema verifies that ReportRow declares the embedded schema's
// columns in order and with matching types.
func checkReportSchema() error {
	var schema struct {
		Fields []schemaColumn `json:"fields"`
	}
	if err := json.Unmarshal(reportSchema, &schema); err != nil {
		return fmt.Errorf("report schema: %w", err)
	}
	tags := rowColumns(reflect.TypeOf(ReportRow{}))
	if len(tags) != len(schema.Fields) {
		return fmt.Errorf("report schema has %d columns, row has %d", len(schema.Fields), len(tags))
	}
	for i, col := range schema.Fields {
		if tags[i].Name != col.Name {
			return fmt.Errorf("report column %d: schema %s, row %s", i, col.Name, tags[i].Name)
		}
		if want := schemaTypes[col.Type]; want != tags[i].Type {
			return fmt.Errorf("report column %s: schema type %s, row type %s", col.Name, col.Type, tags[i].Type)
		}
	}
	return nil
}

func rowColumns(t reflect.Type) []schemaColumn {
	cols := make([]schemaColumn, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("parquet")
		if tag == "" {
			continue
		}
		var col schemaColumn
		for _, kv := range strings.Split(tag, ",") {
			switch k, v, _ := strings.Cut(strings.TrimSpace(kv), "="); k {
			case "name":
				col.Name = v
			case "type":
				col.Type = v
			}
		}
		cols = append(cols, col)
	}
	return cols
}

// WriteReport writes rows to a snappy-compressed parquet file until the
// channel is closed. rows is drained even when writing fails.
func WriteReport(path string, rows <-chan ReportRow, parallel int64) (err error) {
	defer func() {
		for range rows {
		}
	}()

	if err := checkReportSchema(); err != nil {
		return err
	}

	dst, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	pw, err := writer.NewParquetWriter(dst, new(ReportRow), parallel)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for row := range rows {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("write report row %s: %w", row.Path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return err
	}
	return dst.Close()
}

// ReadReport loads every row of a report file.
func ReadReport(path string, parallel int64) ([]ReportRow, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	src, err := local.NewLocalFileReader(abs)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	pr, err := reader.NewParquetReader(src, new(ReportRow), parallel)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", path, err)
	}
	defer pr.ReadStop()

	const chunk = 1024
	total := int(pr.GetNumRows())
	rows := make([]ReportRow, 0, total)
	for len(rows) < total {
		batch := make([]ReportRow, min(chunk, total-len(rows)))
		if err := pr.Read(&batch); err != nil {
			return nil, fmt.Errorf("read report %s: %w", path, err)
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}
