package listings

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"cardash/pkg/models"
)

// ErrMalformedInput is returned when the CSV text has no header or no data lines.
var ErrMalformedInput = errors.New("malformed listings input")

const delimiter = ","

// Table is an immutable snapshot of the listings dataset plus the selection
// indices derived from it. Build a new Table instead of changing one.
type Table struct {
	rows          []models.Listing
	manufacturers []string
	models        map[string][]string
}

// Load parses CSV text into a Table.
//
// The first non-blank line is the header. Data lines whose field count does
// not match the header, or whose manufacturer is empty, are dropped. Fields
// are split on a bare comma; quoting is not supported.
func Load(csvText string) (*Table, error) {
	var lines []string
	for _, line := range strings.Split(csvText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedInput)
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: no data lines", ErrMalformedInput)
	}

	header := splitFields(lines[0])
	cols := make(map[string]int, len(header))
	for idx, name := range header {
		cols[strings.ToLower(name)] = idx
	}

	rows := make([]models.Listing, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line)
		if len(fields) != len(header) {
			continue
		}
		row := models.Listing{
			Model:        valueAt(cols, fields, "model"),
			Year:         parseYear(valueAt(cols, fields, "year")),
			Price:        parsePrice(valueAt(cols, fields, "price")),
			Transmission: valueAt(cols, fields, "transmission"),
			Mileage:      valueAt(cols, fields, "mileage"),
			FuelType:     valueAt(cols, fields, "fueltype"),
			Tax:          valueAt(cols, fields, "tax"),
			MPG:          valueAt(cols, fields, "mpg"),
			EngineSize:   valueAt(cols, fields, "enginesize"),
			Manufacturer: NormalizeManufacturer(valueAt(cols, fields, "manufacturer")),
		}
		if row.Manufacturer == "" {
			continue
		}
		rows = append(rows, row)
	}

	return NewTable(rows), nil
}

// NewTable builds a Table from rows, normalizing manufacturers and dropping
// rows without one. The slice is copied.
func NewTable(rows []models.Listing) *Table {
	t := &Table{
		rows:   make([]models.Listing, 0, len(rows)),
		models: make(map[string][]string),
	}

	seen := make(map[string]map[string]struct{})
	for _, r := range rows {
		r.Manufacturer = NormalizeManufacturer(r.Manufacturer)
		if r.Manufacturer == "" {
			continue
		}
		t.rows = append(t.rows, r)

		names, ok := seen[r.Manufacturer]
		if !ok {
			names = make(map[string]struct{})
			seen[r.Manufacturer] = names
			t.manufacturers = append(t.manufacturers, r.Manufacturer)
		}
		if _, dup := names[r.Model]; !dup {
			names[r.Model] = struct{}{}
			t.models[r.Manufacturer] = append(t.models[r.Manufacturer], r.Model)
		}
	}

	sort.Strings(t.manufacturers)
	for _, list := range t.models {
		sort.Strings(list)
	}
	return t
}

// NormalizeManufacturer returns the index key for a manufacturer name.
func NormalizeManufacturer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of the row sequence in load order.
func (t *Table) Rows() []models.Listing {
	if t == nil {
		return nil
	}
	return append([]models.Listing(nil), t.rows...)
}

// Manufacturers returns the sorted distinct manufacturer keys.
func (t *Table) Manufacturers() []string {
	if t == nil {
		return []string{}
	}
	return append([]string{}, t.manufacturers...)
}

// Models returns the sorted distinct models listed under a manufacturer.
// The manufacturer is normalized first. ok is false for unknown manufacturers.
func (t *Table) Models(manufacturer string) (list []string, ok bool) {
	if t == nil {
		return []string{}, false
	}
	names, ok := t.models[NormalizeManufacturer(manufacturer)]
	if !ok {
		return []string{}, false
	}
	return append([]string{}, names...), true
}

// ModelsByManufacturer returns a copy of the full model index.
func (t *Table) ModelsByManufacturer() map[string][]string {
	out := make(map[string][]string)
	if t == nil {
		return out
	}
	for m, names := range t.models {
		out[m] = append([]string{}, names...)
	}
	return out
}

func splitFields(line string) []string {
	fields := strings.Split(line, delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func valueAt(cols map[string]int, fields []string, key string) string {
	idx, ok := cols[key]
	if !ok || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

func parseYear(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func parsePrice(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
