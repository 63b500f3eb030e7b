package report

import (
	"bytes"
	"fmt"
	"strings"

	"surveyadmin/internal/survey"

	"github.com/xuri/excelize/v2"
)

const maxSheetNameLen = 31

// XLSXRenderer writes one worksheet per survey using the same header and
// rows as the CSV export. Cells are stored verbatim.
type XLSXRenderer struct {
	rows *CSVRenderer
}

func NewXLSXRenderer(cfg CSVConfig) *XLSXRenderer {
	return &XLSXRenderer{rows: NewCSVRenderer(cfg)}
}

func (r *XLSXRenderer) Extension() string { return "xlsx" }
func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XLSXRenderer) Render(surveys []survey.Survey) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	used := make(map[string]struct{}, len(surveys))
	for i, s := range surveys {
		if err := r.rows.checkMissingAnswer(s); err != nil {
			return nil, err
		}

		sheet := uniqueSheetName(s.Name, i, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("new sheet %q: %w", sheet, err)
		}

		header, order := r.rows.HeaderAndOrder(s)
		if err := writeSheetRow(f, sheet, 1, header); err != nil {
			return nil, err
		}
		for j, resp := range s.Responses {
			row, err := r.rows.UserRow(order, resp)
			if err != nil {
				return nil, fmt.Errorf("survey %q response %d: %w", s.Name, resp.ID, err)
			}
			if err := writeSheetRow(f, sheet, j+2, row); err != nil {
				return nil, err
			}
		}

		lastCol, err := excelize.ColumnNumberToName(len(order))
		if err != nil {
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
			return nil, fmt.Errorf("column width %q: %w", sheet, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, cells []string) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// uniqueSheetName strips characters Excel rejects, truncates to 31 runes and
// adds a numeric suffix when the name is already taken. The result never
// starts or ends with a single quote.
func uniqueSheetName(name string, index int, used map[string]struct{}) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	base = sheetNamePrefix(base, maxSheetNameLen)
	if base == "" {
		base = fmt.Sprintf("Survey %d", index+1)
	}

	candidate := base
	for n := 2; ; n++ {
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			break
		}
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = sheetNamePrefix(base, maxSheetNameLen-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

// sheetNamePrefix cuts s to n runes and trims the quotes Excel refuses at
// either end of a sheet name.
func sheetNamePrefix(s string, n int) string {
	return strings.Trim(truncateRunes(strings.Trim(s, "'"), n), "'")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
