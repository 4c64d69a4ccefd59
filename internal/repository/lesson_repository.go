package repository

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

type lessonRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	VerseRef  string    `db:"verse_ref"`
	AgeRange  string    `db:"age_range"`
	CreatedAt time.Time `db:"created_at"`
}

func (r lessonRow) toModel() models.Lesson {
	return models.Lesson(r)
}

func (s *Store) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	const query = `
		SELECT id, title, content, verse_ref, age_range, created_at
		FROM lessons ORDER BY created_at ASC, id ASC
	`

	var rows []lessonRow
	if err := pgxscan.Select(ctx, s.q, &rows, query); err != nil {
		return nil, wrap("select lessons", err)
	}
	lessons := make([]models.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.toModel())
	}
	return lessons, nil
}

func (s *Store) LessonByID(ctx context.Context, id string) (models.Lesson, error) {
	const query = `
		SELECT id, title, content, verse_ref, age_range, created_at
		FROM lessons WHERE id = $1
	`

	var row lessonRow
	if err := pgxscan.Get(ctx, s.q, &row, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Lesson{}, apperr.NotFound("lesson not found")
		}
		return models.Lesson{}, wrap("select lesson", err)
	}
	return row.toModel(), nil
}

const completionColumns = `child_id, lesson_id, completed, started_at, completed_at`

type completionRow struct {
	ChildID     string     `db:"child_id"`
	LessonID    string     `db:"lesson_id"`
	Completed   bool       `db:"completed"`
	StartedAt   time.Time  `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

func (r completionRow) toModel() models.Completion {
	return models.Completion(r)
}

func (s *Store) StartLesson(ctx context.Context, childID, lessonID string, at time.Time) (models.Completion, error) {
	const insert = `
		INSERT INTO lesson_completions (child_id, lesson_id, completed, started_at)
		VALUES ($1, $2, false, $3)
		ON CONFLICT (child_id, lesson_id) DO NOTHING
	`
	if _, err := s.q.Exec(ctx, insert, childID, lessonID, at); err != nil {
		return models.Completion{}, wrap("insert lesson start", err)
	}

	const query = `SELECT ` + completionColumns + ` FROM lesson_completions WHERE child_id = $1 AND lesson_id = $2`
	var row completionRow
	if err := pgxscan.Get(ctx, s.q, &row, query, childID, lessonID); err != nil {
		return models.Completion{}, wrap("select completion", err)
	}
	return row.toModel(), nil
}

func (s *Store) CompleteLesson(ctx context.Context, childID, lessonID string, at time.Time) (models.Completion, bool, error) {
	// The WHERE clause makes the update a no-op for completed rows, so
	// RETURNING yields a row only for the call that did the transition.
	const transition = `
		INSERT INTO lesson_completions (child_id, lesson_id, completed, started_at, completed_at)
		VALUES ($1, $2, true, $3, $3)
		ON CONFLICT (child_id, lesson_id) DO UPDATE SET
			completed = true,
			completed_at = EXCLUDED.completed_at
		WHERE lesson_completions.completed = false
		RETURNING ` + completionColumns

	var row completionRow
	err := pgxscan.Get(ctx, s.q, &row, transition, childID, lessonID, at)
	if err == nil {
		return row.toModel(), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Completion{}, false, wrap("complete lesson", err)
	}

	const query = `SELECT ` + completionColumns + ` FROM lesson_completions WHERE child_id = $1 AND lesson_id = $2`
	if err := pgxscan.Get(ctx, s.q, &row, query, childID, lessonID); err != nil {
		return models.Completion{}, false, wrap("select completion", err)
	}
	return row.toModel(), false, nil
}

func (s *Store) ListCompletions(ctx context.Context, childID string) ([]models.Completion, error) {
	const query = `
		SELECT ` + completionColumns + `
		FROM lesson_completions WHERE child_id = $1
		ORDER BY started_at ASC, lesson_id ASC
	`

	var rows []completionRow
	if err := pgxscan.Select(ctx, s.q, &rows, query, childID); err != nil {
		return nil, wrap("select completions", err)
	}
	completions := make([]models.Completion, 0, len(rows))
	for _, row := range rows {
		completions = append(completions, row.toModel())
	}
	return completions, nil
}
