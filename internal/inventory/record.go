package inventory

// Record is the original input row: its headers in source order and the raw
// cell values. Records are kept beside working rows so exports can reproduce
// the uploaded columns.
type Record struct {
	Headers []string `json:"headers"`
	Values  []string `json:"values"`
}

// Get returns the value under header, or "" when absent.
func (r Record) Get(header string) string {
	for i, h := range r.Headers {
		if h == header && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return ""
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	return Record{
		Headers: append([]string(nil), r.Headers...),
		Values:  append([]string(nil), r.Values...),
	}
}

// Row pairs a parsed Item with the Record it came from.
type Row struct {
	Item   Item
	Record Record
}

// Items extracts the items of rows in order.
func Items(rows []Row) []Item {
	out := make([]Item, len(rows))
	for i, r := range rows {
		out[i] = r.Item
	}
	return out
}
