package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"surveyadmin/internal/survey"
)

// ErrImproperlyConfigured is returned when an answer holds a missing value
// and no placeholder was configured for it.
var ErrImproperlyConfigured = errors.New("missing-answer placeholder (USER_DID_NOT_ANSWER) is not configured")

const (
	userKey        = "user"
	valueSeparator = "|"
	excelSepLine   = `"sep=,"`
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type CSVConfig struct {
	// MissingAnswer replaces a whole cell when one of its values is missing.
	// nil means unset.
	MissingAnswer   *string
	ExcelCompatible bool
	UserHeader      string
	AnonymousLabel  string
}

type CSVRenderer struct {
	cfg CSVConfig
}

func NewCSVRenderer(cfg CSVConfig) *CSVRenderer {
	if strings.TrimSpace(cfg.UserHeader) == "" {
		cfg.UserHeader = "user"
	}
	if strings.TrimSpace(cfg.AnonymousLabel) == "" {
		cfg.AnonymousLabel = "Anonymous"
	}
	return &CSVRenderer{cfg: cfg}
}

func (r *CSVRenderer) Extension() string   { return "csv" }
func (r *CSVRenderer) ContentType() string { return "text/csv" }

// QuestionKey is the column key of a question in the order returned by
// HeaderAndOrder.
func QuestionKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// HeaderAndOrder returns the header row and the column keys used to place
// answers. Both always have the same length and start with the user column.
func (r *CSVRenderer) HeaderAndOrder(s survey.Survey) ([]string, []string) {
	header := make([]string, 0, len(s.Questions)+1)
	order := make([]string, 0, len(s.Questions)+1)
	header = append(header, r.cfg.UserHeader)
	order = append(order, userKey)
	for _, q := range s.Questions {
		header = append(header, q.Text)
		order = append(order, QuestionKey(q.ID))
	}
	return header, order
}

// UserRow builds one row with a cell per key in order. Questions the
// response did not answer get an empty cell.
func (r *CSVRenderer) UserRow(order []string, resp survey.Response) ([]string, error) {
	cells := make(map[string]string, len(resp.Answers)+1)
	cells[userKey] = r.displayUser(resp.User)
	for _, a := range resp.Answers {
		cell, err := r.answerCell(a.Values)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", a.QuestionID, err)
		}
		cells[QuestionKey(a.QuestionID)] = cell
	}

	row := make([]string, len(order))
	for i, key := range order {
		row[i] = cells[key]
	}
	return row, nil
}

func (r *CSVRenderer) displayUser(u *survey.User) string {
	if u == nil || strings.TrimSpace(u.Username) == "" {
		return r.cfg.AnonymousLabel
	}
	return u.Username
}

// answerCell joins values with "|". Any missing value turns the whole cell
// into the placeholder, dropping the values already seen.
func (r *CSVRenderer) answerCell(values []*string) (string, error) {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			if r.cfg.MissingAnswer == nil {
				return "", ErrImproperlyConfigured
			}
			return *r.cfg.MissingAnswer, nil
		}
		parts = append(parts, *v)
	}
	return strings.Join(parts, valueSeparator), nil
}

// SerializeRow writes cells as one CSV line. Whitespace runs collapse to a
// single space and commas become semicolons; nothing is quoted.
func SerializeRow(cells []string) string {
	var sb strings.Builder
	for i, cell := range cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		cell = strings.Join(strings.Fields(cell), " ")
		sb.WriteString(strings.ReplaceAll(cell, ",", ";"))
	}
	return sb.String()
}

func (r *CSVRenderer) checkMissingAnswer(s survey.Survey) error {
	if r.cfg.MissingAnswer == nil && s.HasMissingValues() {
		return fmt.Errorf("survey %q: %w", s.Name, ErrImproperlyConfigured)
	}
	return nil
}

// RenderSurvey returns the CSV text of one survey, lines joined by "\n"
// without a trailing newline.
func (r *CSVRenderer) RenderSurvey(s survey.Survey) (string, error) {
	if err := r.checkMissingAnswer(s); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(s.Responses)+2)
	if r.cfg.ExcelCompatible {
		lines = append(lines, excelSepLine)
	}
	header, order := r.HeaderAndOrder(s)
	lines = append(lines, SerializeRow(header))
	for _, resp := range s.Responses {
		row, err := r.UserRow(order, resp)
		if err != nil {
			return "", fmt.Errorf("survey %q response %d: %w", s.Name, resp.ID, err)
		}
		lines = append(lines, SerializeRow(row))
	}
	return strings.Join(lines, "\n"), nil
}

// Render builds the download payload: a UTF-8 BOM, then either the lone
// survey's CSV or, for several surveys, each one preceded by its name and
// followed by "\n\n".
func (r *CSVRenderer) Render(surveys []survey.Survey) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	for _, s := range surveys {
		text, err := r.RenderSurvey(s)
		if err != nil {
			return nil, err
		}
		if len(surveys) == 1 {
			buf.WriteString(text)
			continue
		}
		buf.WriteString(s.Name)
		buf.WriteString("\n")
		buf.WriteString(text)
		buf.WriteString("\n\n")
	}
	return buf.Bytes(), nil
}

// ExportMany writes the rendered payload to w. Nothing is written when
// rendering fails.
func (r *CSVRenderer) ExportMany(w io.Writer, surveys []survey.Survey) error {
	body, err := r.Render(surveys)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// AttachmentName concatenates the URL-escaped survey names and appends ext.
func AttachmentName(surveys []survey.Survey, ext string) string {
	var sb strings.Builder
	for _, s := range surveys {
		sb.WriteString(escapeURIPath(s.Name))
	}
	sb.WriteString(".")
	sb.WriteString(ext)
	return sb.String()
}

// uriPathSafe are the bytes besides ASCII letters and digits that
// escapeURIPath leaves as is.
const uriPathSafe = "/:@&+$,-_.!~*'()"

// escapeURIPath percent-encodes the UTF-8 bytes of s outside uriPathSafe.
// It keeps more characters than url.PathEscape, which also encodes
// "/", "(", ")" and "!".
func escapeURIPath(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			sb.WriteByte(c)
		case strings.IndexByte(uriPathSafe, c) >= 0:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}
