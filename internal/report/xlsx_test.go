package report

import (
	"bytes"
	"strings"
	"testing"

	"surveyadmin/internal/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXRenderSheets(t *testing.T) {
	r := NewXLSXRenderer(CSVConfig{MissingAnswer: placeholder("Left blank")})
	a := colorSizeSurvey()
	a.Responses = []survey.Response{
		{ID: 1, User: &survey.User{Username: "alice"}, Answers: []survey.Answer{
			{QuestionID: 11, Values: values("red, dark")},
			{QuestionID: 12, Values: []*string{nil}},
		}},
	}
	b := survey.Survey{ID: 2, Name: "A", Questions: []survey.Question{{ID: 21, Text: "Age?"}}}

	body, err := r.Render([]survey.Survey{a, b})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"A", "A (2)"}, f.GetSheetList())

	rows, err := f.GetRows("A")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"user", "Color?", "Size?"}, rows[0])
	assert.Equal(t, []string{"alice", "red, dark", "Left blank"}, rows[1])

	rows, err = f.GetRows("A (2)")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"user", "Age?"}}, rows)
}

func TestXLSXRenderRequiresPlaceholder(t *testing.T) {
	r := NewXLSXRenderer(CSVConfig{})
	s := colorSizeSurvey()
	s.Responses = []survey.Response{{ID: 1, Answers: []survey.Answer{{QuestionID: 11, Values: []*string{nil}}}}}

	_, err := r.Render([]survey.Survey{s})
	require.ErrorIs(t, err, ErrImproperlyConfigured)
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]struct{}{}
	assert.Equal(t, "Q_A", uniqueSheetName("Q/A", 0, used))
	assert.Equal(t, "Survey 2", uniqueSheetName("  ", 1, used))
	assert.Equal(t, "q_a (2)", uniqueSheetName("q/a", 2, used))

	long := strings.Repeat("x", 40)
	first := uniqueSheetName(long, 3, used)
	second := uniqueSheetName(long, 4, used)
	assert.Len(t, first, 31)
	assert.Len(t, second, 31)
	assert.True(t, strings.HasSuffix(second, " (2)"))
}

func TestUniqueSheetNameTrimsQuotesAfterTruncation(t *testing.T) {
	used := map[string]struct{}{}
	name := strings.Repeat("a", 30) + "'b"

	first := uniqueSheetName(name, 0, used)
	assert.Equal(t, strings.Repeat("a", 30), first)

	second := uniqueSheetName(strings.Repeat("a", 26)+"'xyz", 1, used)
	assert.Equal(t, strings.Repeat("a", 26)+"'xyz", second)

	third := uniqueSheetName(name, 2, used)
	assert.Equal(t, strings.Repeat("a", 27)+" (2)", third)

	assert.Equal(t, "Survey 4", uniqueSheetName("'''", 3, used))
	assert.Equal(t, "quoted", uniqueSheetName("'quoted'", 4, used))
}

func TestXLSXRenderQuoteAtSheetNameLimit(t *testing.T) {
	r := NewXLSXRenderer(CSVConfig{MissingAnswer: placeholder("Left blank")})
	a := survey.Survey{ID: 1, Name: strings.Repeat("a", 30) + "'b", Questions: []survey.Question{{ID: 1, Text: "Q?"}}}
	b := survey.Survey{ID: 2, Name: strings.Repeat("a", 27) + "'' (2)", Questions: []survey.Question{{ID: 2, Text: "R?"}}}

	body, err := r.Render([]survey.Survey{a, b})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	for _, name := range sheets {
		assert.False(t, strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'"), "sheet %q", name)
	}

	width, err := f.GetColWidth(sheets[0], "B")
	require.NoError(t, err)
	assert.Equal(t, 22.0, width)
}
