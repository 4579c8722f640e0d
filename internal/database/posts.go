package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

// GetGeneratedPostByArticle returns the generation record for one article,
// or nil when no generation was attempted yet.
func (d *Database) GetGeneratedPostByArticle(
	ctx context.Context,
	articleID int64,
) (*models.GeneratedPost, error) {
	query := `select id, article_id, content, status, model_used,
	tokens_input, tokens_output, attempt_count, error_reason,
	generated_at, updated_at
	from generated_posts
	where article_id = ?`

	var p models.GeneratedPost
	var generatedAt sql.NullTime

	err := d.db.QueryRowContext(ctx, query, articleID).Scan(
		&p.ID,
		&p.ArticleID,
		&p.Content,
		&p.Status,
		&p.ModelUsed,
		&p.TokensInput,
		&p.TokensOutput,
		&p.AttemptCount,
		&p.ErrorReason,
		&generatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	if generatedAt.Valid {
		t := generatedAt.Time.UTC()
		p.GeneratedAt = &t
	}
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}

// UpsertGeneratedPost creates or replaces the generation record keyed by
// article ID. The post's ID is filled in on insert.
func (d *Database) UpsertGeneratedPost(ctx context.Context, post *models.GeneratedPost) error {
	query := `insert into generated_posts
	(article_id, content, status, model_used, tokens_input, tokens_output,
	attempt_count, error_reason, generated_at, updated_at)
	values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	on conflict (article_id) do update set
	content = excluded.content,
	status = excluded.status,
	model_used = excluded.model_used,
	tokens_input = excluded.tokens_input,
	tokens_output = excluded.tokens_output,
	attempt_count = excluded.attempt_count,
	error_reason = excluded.error_reason,
	generated_at = excluded.generated_at,
	updated_at = excluded.updated_at`

	var generatedAt any
	if post.GeneratedAt != nil {
		generatedAt = post.GeneratedAt.UTC()
	}

	res, err := d.db.ExecContext(ctx, query,
		post.ArticleID,
		post.Content,
		post.Status,
		post.ModelUsed,
		post.TokensInput,
		post.TokensOutput,
		post.AttemptCount,
		post.ErrorReason,
		generatedAt,
		post.UpdatedAt.UTC())
	if err != nil {
		return err
	}

	if post.ID == 0 {
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return fmt.Errorf("failed to fetch last insert ID: %w", idErr)
		}
		post.ID = id
	}

	return nil
}

// ListGeneratedPosts returns the owner's generation records, newest update
// first, with the article title and link joined in for the list view.
func (d *Database) ListGeneratedPosts(
	ctx context.Context,
	ownerKey string,
	limit int64,
	offset int64,
) ([]models.GeneratedPost, error) {
	query := `select gp.id, gp.article_id, gp.content, gp.status,
	gp.model_used, gp.tokens_input, gp.tokens_output, gp.attempt_count,
	gp.error_reason, gp.generated_at, gp.updated_at
	from generated_posts as gp
	join articles as a on a.id = gp.article_id
	join feeds as f on f.id = a.feed_id
	where f.owner_key = ?
	order by gp.updated_at desc, gp.id desc
	limit ? offset ?`

	rows, err := d.db.QueryContext(ctx, query, ownerKey, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"ownerKey", ownerKey,
				"operation", "ListGeneratedPosts")
		}
	}()

	var posts []models.GeneratedPost
	for rows.Next() {
		var p models.GeneratedPost
		var generatedAt sql.NullTime

		if err = rows.Scan(
			&p.ID,
			&p.ArticleID,
			&p.Content,
			&p.Status,
			&p.ModelUsed,
			&p.TokensInput,
			&p.TokensOutput,
			&p.AttemptCount,
			&p.ErrorReason,
			&generatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if generatedAt.Valid {
			t := generatedAt.Time.UTC()
			p.GeneratedAt = &t
		}
		p.UpdatedAt = p.UpdatedAt.UTC()

		posts = append(posts, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return posts, nil
}
