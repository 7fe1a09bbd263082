package domain

// SheetSelector picks a block of a workbook. Table and Range are alternatives.
type SheetSelector struct {
	Worksheet string
	Table     string
	Range     string
}

type Table struct {
	Sheet  string     `json:"sheet"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Column returns the values of the named header column.
func (t Table) Column(name string) ([]string, bool) {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, row[idx])
	}
	return out, true
}
