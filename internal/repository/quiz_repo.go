package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"quizclient/internal/models"
)

const pgUniqueViolation = "23505"

// QuizRepo persists attempts and their questions in PostgreSQL.
type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO quiz_attempts
		(id, user_id, course_id, question_count, status, current_question_index, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.CourseID, a.QuestionCount, string(a.Status), a.CurrentQuestionIndex, a.Score, a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateAttempt
		}
		return err
	}

	for i := range a.Questions {
		q := &a.Questions[i]
		details := q.Details
		if len(details) == 0 {
			details = json.RawMessage("{}")
		}
		_, err := tx.Exec(ctx, `INSERT INTO quiz_questions
			(id, attempt_id, position, text, question_type, details_json, is_submitted, selected_option_index, user_text_answer)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			q.ID, a.ID, q.Position, q.Text, string(q.Type), []byte(details), q.IsSubmitted, q.SelectedOptionIndex, q.UserTextAnswer,
		)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", q.Position, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *QuizRepo) GetAttempt(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, course_id, question_count, status, current_question_index, score, created_at
		FROM quiz_attempts WHERE id = $1`, id)

	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if a.Questions, err = r.listQuestions(ctx, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

// ListAttempts returns matching attempts, most recent first, with questions loaded.
func (r *QuizRepo) ListAttempts(ctx context.Context, f models.AttemptFilter) ([]*models.QuizAttempt, error) {
	query := `SELECT id, user_id, course_id, question_count, status, current_question_index, score, created_at
		FROM quiz_attempts
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2 = '' OR course_id = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC`
	args := []interface{}{nullableUUID(f.UserID), f.CourseID, string(f.Status)}
	if f.Limit > 0 {
		query += " LIMIT $4"
		args = append(args, f.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.QuizAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range attempts {
		if a.Questions, err = r.listQuestions(ctx, a.ID); err != nil {
			return nil, err
		}
	}
	return attempts, nil
}

// UpdateProgress writes the index, score and status of an in-progress attempt.
func (r *QuizRepo) UpdateProgress(ctx context.Context, id uuid.UUID, index, score int, status models.AttemptStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE quiz_attempts
		SET current_question_index = $1, score = $2, status = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'in_progress'`,
		index, score, string(status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrFinished(ctx, id)
	}
	return nil
}

// SubmitQuestion freezes the answer of q and records the attempt's new score
// in one transaction. A question that is already submitted is never rewritten.
func (r *QuizRepo) SubmitQuestion(ctx context.Context, attemptID uuid.UUID, q *models.StoredQuestion, score int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE quiz_questions
		SET is_submitted = TRUE, selected_option_index = $1, user_text_answer = $2
		WHERE id = $3 AND attempt_id = $4 AND is_submitted = FALSE`,
		q.SelectedOptionIndex, q.UserTextAnswer, q.ID, attemptID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var submitted bool
		err := tx.QueryRow(ctx, "SELECT is_submitted FROM quiz_questions WHERE id = $1 AND attempt_id = $2", q.ID, attemptID).Scan(&submitted)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrQuestionNotFound
		}
		if err != nil {
			return err
		}
		return ErrQuestionSubmitted
	}

	tag, err = tx.Exec(ctx, `UPDATE quiz_attempts
		SET score = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'in_progress'`,
		score, attemptID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptFinished
	}

	return tx.Commit(ctx)
}

// DeleteAttempt removes the attempt; its questions go with it.
func (r *QuizRepo) DeleteAttempt(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM quiz_attempts WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (r *QuizRepo) listQuestions(ctx context.Context, attemptID uuid.UUID) ([]models.StoredQuestion, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, position, text, question_type, details_json, is_submitted, selected_option_index, user_text_answer
		FROM quiz_questions WHERE attempt_id = $1 ORDER BY position`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.StoredQuestion{}
	for rows.Next() {
		var q models.StoredQuestion
		var qType string
		var details []byte
		if err := rows.Scan(&q.ID, &q.Position, &q.Text, &qType, &details, &q.IsSubmitted, &q.SelectedOptionIndex, &q.UserTextAnswer); err != nil {
			return nil, err
		}
		q.Type = models.QuestionType(qType)
		q.Details = json.RawMessage(details)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuizRepo) missingOrFinished(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM quiz_attempts WHERE id = $1)", id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrAttemptNotFound
	}
	return ErrAttemptFinished
}

func scanAttempt(row pgx.Row) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	var status string
	err := row.Scan(&a.ID, &a.UserID, &a.CourseID, &a.QuestionCount, &status, &a.CurrentQuestionIndex, &a.Score, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.AttemptStatus(status)
	return a, nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
