package excelize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// Reader exposes worksheets, named tables and ranges as domain tables. The
// first row of every block is its header.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Read(_ context.Context, path string, sel domain.SheetSelector) (domain.Table, error) {
	if sel.Table != "" && sel.Range != "" {
		return domain.Table{}, domain.WrapError(domain.ErrInvalidArgument, "read workbook", errors.New("specify either a table or a range, not both"))
	}
	f, err := open(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	var sheet, ref string
	switch {
	case sel.Table != "":
		sheet, ref, err = findTable(f, sel.Worksheet, sel.Table)
	case sel.Range != "":
		sheet, ref, err = resolveRange(f, sel.Worksheet, sel.Range)
	default:
		sheet, err = sheetOrFirst(f, sel.Worksheet)
	}
	if err != nil {
		return domain.Table{}, err
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read rows of %s: %w", sheet, err)
	}
	if ref == "" {
		return tableFromRows(sheet, trimLeadingEmpty(rows)), nil
	}
	block, err := sliceBlock(rows, ref)
	if err != nil {
		return domain.Table{}, err
	}
	return tableFromRows(sheet, block), nil
}

func (r *Reader) TableNames(_ context.Context, path string) ([]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	for _, sheet := range f.GetSheetList() {
		tables, err := f.GetTables(sheet)
		if err != nil {
			return nil, fmt.Errorf("list tables of %s: %w", sheet, err)
		}
		for _, t := range tables {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

func open(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open workbook", err)
		}
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", fmt.Errorf("%s: %w", path, err))
	}
	return f, nil
}

func sheetOrFirst(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "select worksheet", errors.New("workbook has no worksheets"))
	}
	if name == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if strings.EqualFold(s, name) {
			return s, nil
		}
	}
	return "", domain.WrapError(domain.ErrNotFound, "select worksheet", fmt.Errorf("worksheet %q", name))
}

func findTable(f *excelize.File, worksheet, name string) (string, string, error) {
	sheets := f.GetSheetList()
	if worksheet != "" {
		s, err := sheetOrFirst(f, worksheet)
		if err != nil {
			return "", "", err
		}
		sheets = []string{s}
	}
	for _, sheet := range sheets {
		tables, err := f.GetTables(sheet)
		if err != nil {
			return "", "", fmt.Errorf("list tables of %s: %w", sheet, err)
		}
		for _, t := range tables {
			if strings.EqualFold(t.Name, name) {
				return sheet, t.Range, nil
			}
		}
	}
	return "", "", domain.WrapError(domain.ErrNotFound, "select table", fmt.Errorf("table %q", name))
}

// resolveRange accepts a cell reference such as A1:C3 or a defined name.
func resolveRange(f *excelize.File, worksheet, rng string) (string, string, error) {
	if _, _, _, _, err := parseRef(rng); err == nil {
		sheet, err := sheetOrFirst(f, worksheet)
		return sheet, rng, err
	}
	for _, dn := range f.GetDefinedName() {
		if !strings.EqualFold(dn.Name, rng) {
			continue
		}
		if worksheet != "" && dn.Scope != "Workbook" && !strings.EqualFold(dn.Scope, worksheet) {
			continue
		}
		idx := strings.LastIndex(dn.RefersTo, "!")
		if idx < 0 {
			return "", "", domain.WrapError(domain.ErrInvalidInput, "select range", fmt.Errorf("name %q refers to %q", dn.Name, dn.RefersTo))
		}
		sheet := strings.Trim(strings.TrimPrefix(dn.RefersTo[:idx], "="), "'")
		return sheet, dn.RefersTo[idx+1:], nil
	}
	return "", "", domain.WrapError(domain.ErrNotFound, "select range", fmt.Errorf("range %q", rng))
}

func parseRef(ref string) (col1, row1, col2, row2 int, err error) {
	ref = strings.ReplaceAll(ref, "$", "")
	first, last, found := strings.Cut(ref, ":")
	if !found {
		last = first
	}
	if col1, row1, err = excelize.CellNameToCoordinates(first); err != nil {
		return 0, 0, 0, 0, err
	}
	if col2, row2, err = excelize.CellNameToCoordinates(last); err != nil {
		return 0, 0, 0, 0, err
	}
	if col2 < col1 {
		col1, col2 = col2, col1
	}
	if row2 < row1 {
		row1, row2 = row2, row1
	}
	return col1, row1, col2, row2, nil
}

func sliceBlock(rows [][]string, ref string) ([][]string, error) {
	col1, row1, col2, row2, err := parseRef(ref)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "select range", fmt.Errorf("%q: %w", ref, err))
	}
	block := make([][]string, 0, row2-row1+1)
	for r := row1; r <= row2; r++ {
		var src []string
		if r-1 < len(rows) {
			src = rows[r-1]
		}
		out := make([]string, 0, col2-col1+1)
		for c := col1; c <= col2; c++ {
			v := ""
			if c-1 < len(src) {
				v = src[c-1]
			}
			out = append(out, v)
		}
		block = append(block, out)
	}
	return block, nil
}

func trimLeadingEmpty(rows [][]string) [][]string {
	for len(rows) > 0 && isEmptyRow(rows[0]) {
		rows = rows[1:]
	}
	return rows
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func tableFromRows(sheet string, rows [][]string) domain.Table {
	t := domain.Table{Sheet: sheet}
	if len(rows) == 0 {
		return t
	}
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	t.Header = pad(rows[0], width)
	for _, row := range rows[1:] {
		t.Rows = append(t.Rows, pad(row, width))
	}
	return t
}

func pad(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
