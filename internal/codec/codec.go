// Package codec moves record batches between the CLI and files or pipes.
// Nil status and weight encode as JSON null and as an empty CSV cell.
package codec

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"cargopipe/internal/cargo"
)

// Header is the CSV column order for both raw and clean rows.
var Header = []string{"id", "name", "category", "price", "status", "kg", "createdAt"}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ReadRawJSON decodes a JSON array of raw rows. Unknown fields are rejected.
func ReadRawJSON(r io.Reader) ([]cargo.RawCargo, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var rows []cargo.RawCargo
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode raw rows: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode raw rows: trailing data after array")
	}
	if rows == nil {
		rows = []cargo.RawCargo{}
	}
	return rows, nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WriteRawCSV writes a header line and one record per row.
func WriteRawCSV(w io.Writer, rows []cargo.RawCargo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(Header))
	for i, r := range rows {
		rec[0] = r.ID
		rec[1] = r.Name
		rec[2] = string(r.Category)
		rec[3] = formatFloat(r.Price)
		rec[4] = ""
		if r.Status != nil {
			rec[4] = string(*r.Status)
		}
		rec[5] = ""
		if r.Kg != nil {
			rec[5] = formatFloat(*r.Kg)
		}
		rec[6] = strconv.FormatInt(r.CreatedAt, 10)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCleanCSV writes a header line and one record per row.
func WriteCleanCSV(w io.Writer, rows []cargo.CleanCargo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(Header))
	for i, r := range rows {
		rec[0] = r.ID
		rec[1] = r.Name
		rec[2] = string(r.Category)
		rec[3] = formatFloat(r.Price)
		rec[4] = string(r.Status)
		rec[5] = formatFloat(r.Kg)
		rec[6] = strconv.FormatInt(r.CreatedAt, 10)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
