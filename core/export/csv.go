package export

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// OrderedMap is an insertion-ordered mapping of column name to value.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]string)}
}

// Set records the value under key, remembering first-insertion order.
func (m *OrderedMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }

// Exportable is any record that can flatten itself into an ordered
// column/value mapping for operational reports.
type Exportable interface {
	ExportData() *OrderedMap
}

// WriteCSV flattens records into a single CSV document. The header is the
// union of all keys in first-seen order; a record missing a key leaves
// that cell blank; row order matches the input. An empty input yields a
// document with an empty header row and no data rows.
func WriteCSV(w io.Writer, records []Exportable) error {
	fieldnames := make([]string, 0)
	seen := make(map[string]bool)
	datas := make([]*OrderedMap, 0, len(records))

	for _, rec := range records {
		data := rec.ExportData()
		datas = append(datas, data)
		for _, key := range data.Keys() {
			if !seen[key] {
				fieldnames = append(fieldnames, key)
				seen[key] = true
			}
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(fieldnames); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, data := range datas {
		row := make([]string, len(fieldnames))
		for i, key := range fieldnames {
			row[i], _ = data.Get(key)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}
