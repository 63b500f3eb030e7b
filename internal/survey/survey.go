package survey

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrSurveyNotFound = errors.New("survey not found")
)

type Survey struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	IsPublished bool       `json:"is_published"`
	CreatedAt   time.Time  `json:"created_at"`
	Questions   []Question `json:"questions"`
	Responses   []Response `json:"responses"`
}

type Question struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	Required  bool      `json:"required"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is one respondent's submission. User is nil for anonymous
// submissions.
type Response struct {
	ID        int64     `json:"id"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Answers   []Answer  `json:"answers"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Answer holds the values given for one question. A nil element means the
// respondent left that slot unanswered.
type Answer struct {
	QuestionID int64     `json:"question_id"`
	Values     []*string `json:"values"`
}

type Summary struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	IsPublished   bool      `json:"is_published"`
	QuestionCount int       `json:"question_count"`
	ResponseCount int       `json:"response_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasMissingValues reports whether any answer of any response holds a nil value.
func (s Survey) HasMissingValues() bool {
	for _, resp := range s.Responses {
		for _, a := range resp.Answers {
			for _, v := range a.Values {
				if v == nil {
					return true
				}
			}
		}
	}
	return false
}

// Value returns a pointer to v, handy when building answers by hand.
func Value(v string) *string {
	return &v
}
