package db

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
)

// ExportProfile writes one profile in the given format
func (db *DB) ExportProfile(w io.Writer, name string, format ExportFormat) error {
	p, err := db.GetProfile(name)
	if err != nil {
		return err
	}

	switch format {
	case ExportFormatJSON:
		return exportJSON(w, p)
	case ExportFormatCSV:
		return exportCSV(w, []*Profile{p})
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportAll writes every profile in the given format
func (db *DB) ExportAll(w io.Writer, format ExportFormat) error {
	profiles, err := db.ListProfiles()
	if err != nil {
		return err
	}

	switch format {
	case ExportFormatJSON:
		if profiles == nil {
			profiles = []*Profile{}
		}
		return exportJSON(w, profiles)
	case ExportFormatCSV:
		return exportCSV(w, profiles)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// exportCSV writes one row per profile field
func exportCSV(w io.Writer, profiles []*Profile) error {
	csvWriter := csv.NewWriter(w)

	headers := []string{"Profile", "Updated", "Field", "Value"}
	if err := csvWriter.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for _, p := range profiles {
		values := p.Form.Values()
		for _, f := range values.Keys() {
			row := []string{
				p.Name,
				p.UpdatedAt.Format("2006-01-02 15:04:05"),
				string(f),
				values[f],
			}
			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
