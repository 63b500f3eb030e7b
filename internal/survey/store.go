package survey

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListSurveys(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			sv.id,
			sv.name,
			sv.is_published,
			(SELECT COUNT(*) FROM questions q WHERE q.survey_id = sv.id) AS question_count,
			(SELECT COUNT(*) FROM responses r WHERE r.survey_id = sv.id) AS response_count,
			sv.created_at
		FROM surveys sv
		ORDER BY sv.created_at DESC, sv.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	items := make([]Summary, 0)
	for rows.Next() {
		var it Summary
		if err := rows.Scan(&it.ID, &it.Name, &it.IsPublished, &it.QuestionCount, &it.ResponseCount, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan survey summary: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surveys: %w", err)
	}
	return items, nil
}

// LoadSurveys returns fully materialized surveys in the order of ids.
func (s *Store) LoadSurveys(ctx context.Context, ids []int64) ([]Survey, error) {
	if len(ids) == 0 {
		return nil, ErrInvalidInput
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, ErrInvalidInput
		}
	}
	out := make([]Survey, 0, len(ids))
	for _, id := range ids {
		sv, err := s.loadSurvey(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *sv)
	}
	return out, nil
}

func (s *Store) loadSurvey(ctx context.Context, id int64) (*Survey, error) {
	var sv Survey
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_published, created_at
		FROM surveys
		WHERE id = $1
	`, id).Scan(&sv.ID, &sv.Name, &sv.Description, &sv.IsPublished, &sv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%d", ErrSurveyNotFound, id)
		}
		return nil, fmt.Errorf("load survey %d: %w", id, err)
	}

	if sv.Questions, err = s.loadQuestions(ctx, id); err != nil {
		return nil, err
	}
	if sv.Responses, err = s.loadResponses(ctx, id); err != nil {
		return nil, err
	}
	return &sv, nil
}

func (s *Store) loadQuestions(ctx context.Context, surveyID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, question_type, required, position, created_at
		FROM questions
		WHERE survey_id = $1
		ORDER BY created_at ASC, id ASC
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	items := make([]Question, 0)
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.Required, &q.Position, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return items, nil
}

func (s *Store) loadResponses(ctx context.Context, surveyID int64) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, u.id, u.username
		FROM responses r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.survey_id = $1
		ORDER BY r.id ASC
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	items := make([]Response, 0)
	index := make(map[int64]int)
	for rows.Next() {
		var resp Response
		var userID sql.NullInt64
		var username sql.NullString
		if err := rows.Scan(&resp.ID, &resp.CreatedAt, &userID, &username); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if userID.Valid {
			resp.User = &User{ID: userID.Int64, Username: username.String}
		}
		index[resp.ID] = len(items)
		items = append(items, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	answerRows, err := s.db.QueryContext(ctx, `
		SELECT a.response_id, a.question_id, a.answer_values
		FROM answers a
		JOIN responses r ON r.id = a.response_id
		WHERE r.survey_id = $1
		ORDER BY a.response_id ASC, a.id ASC
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var responseID int64
		var a Answer
		var raw []byte
		if err := answerRows.Scan(&responseID, &a.QuestionID, &raw); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if a.Values, err = decodeValues(raw); err != nil {
			return nil, fmt.Errorf("decode answer response=%d question=%d: %w", responseID, a.QuestionID, err)
		}
		i, ok := index[responseID]
		if !ok {
			continue
		}
		items[i].Answers = append(items[i].Answers, a)
	}
	if err := answerRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return items, nil
}

// decodeValues parses a jsonb array such as ["red", null] into values where
// JSON null becomes a nil element.
func decodeValues(raw []byte) ([]*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var values []*string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// CreateSurvey, AddQuestion, AddResponse are used by seed tooling and tests.

func (s *Store) CreateSurvey(ctx context.Context, name, description string) (int64, error) {
	if name == "" {
		return 0, ErrInvalidInput
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO surveys (name, description, created_at)
		VALUES ($1, $2, now())
		RETURNING id
	`, name, description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert survey: %w", err)
	}
	return id, nil
}

func (s *Store) AddQuestion(ctx context.Context, surveyID int64, text, questionType string) (int64, error) {
	if surveyID <= 0 || text == "" {
		return 0, ErrInvalidInput
	}
	if questionType == "" {
		questionType = "text"
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (survey_id, text, question_type, position, created_at)
		VALUES ($1, $2, $3, (SELECT COUNT(*) FROM questions WHERE survey_id = $1), clock_timestamp())
		RETURNING id
	`, surveyID, text, questionType).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return id, nil
}

func (s *Store) AddResponse(ctx context.Context, surveyID int64, userID *int64, answers []Answer) (int64, error) {
	if surveyID <= 0 {
		return 0, ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var responseID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO responses (survey_id, user_id, created_at)
		VALUES ($1, $2, now())
		RETURNING id
	`, surveyID, userID).Scan(&responseID); err != nil {
		return 0, fmt.Errorf("insert response: %w", err)
	}

	for _, a := range answers {
		values := a.Values
		if values == nil {
			values = []*string{}
		}
		raw, err := json.Marshal(values)
		if err != nil {
			return 0, fmt.Errorf("encode answer: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO answers (response_id, question_id, answer_values, created_at)
			VALUES ($1, $2, $3::jsonb, now())
		`, responseID, a.QuestionID, string(raw)); err != nil {
			return 0, fmt.Errorf("insert answer question=%d: %w", a.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit response: %w", err)
	}
	return responseID, nil
}
