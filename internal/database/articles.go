package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

// InsertArticle stores one ingested feed item. Returns false when an
// article with the same (feed_id, link) already exists.
func (d *Database) InsertArticle(ctx context.Context, article *models.Article) (bool, error) {
	link := strings.TrimSpace(article.Link)
	if link == "" {
		return false, errors.New("article link is empty")
	}

	query := `insert or ignore into articles
	(feed_id, title, link, content_snippet, raw_content_html, published_at)
	values (?, ?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query,
		article.FeedID,
		strings.TrimSpace(article.Title),
		link,
		article.ContentSnippet,
		article.RawContentHTML,
		article.PublishedAt.UTC())
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to fetch affected rows: %w", err)
	}

	if affected == 0 {
		return false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to fetch last insert ID: %w", err)
	}
	article.ID = id

	return true, nil
}

const eligibleArticlesSelect = `select a.id, a.feed_id, a.title, a.link,
	a.content_snippet, a.raw_content_html, a.published_at
	from articles as a
	join feeds as f on f.id = a.feed_id
	left join generated_posts as gp
	on gp.article_id = a.id and gp.status = 'SUCCESS'
	where f.owner_key = ?
	and a.published_at >= ?
	and gp.id is null`

// ListEligibleArticles returns the owner's articles within the window that
// have no successful generated post yet, oldest first. The order is the
// processing order of a generation run.
func (d *Database) ListEligibleArticles(
	ctx context.Context,
	ownerKey string,
	windowDays int64,
	now time.Time,
) ([]models.Article, error) {
	cutoff := now.UTC().AddDate(0, 0, -int(windowDays))

	query := eligibleArticlesSelect + `
	order by a.published_at, a.id`

	rows, err := d.db.QueryContext(ctx, query, ownerKey, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"ownerKey", ownerKey,
				"operation", "ListEligibleArticles")
		}
	}()

	var articles []models.Article
	for rows.Next() {
		var a models.Article
		if err = rows.Scan(
			&a.ID,
			&a.FeedID,
			&a.Title,
			&a.Link,
			&a.ContentSnippet,
			&a.RawContentHTML,
			&a.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.PublishedAt = a.PublishedAt.UTC()
		articles = append(articles, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return articles, nil
}

// GetEligibleArticle returns one eligible article by ID, or nil when the
// article does not exist, belongs to another owner, or is not eligible.
func (d *Database) GetEligibleArticle(
	ctx context.Context,
	ownerKey string,
	articleID int64,
	windowDays int64,
	now time.Time,
) (*models.Article, error) {
	cutoff := now.UTC().AddDate(0, 0, -int(windowDays))

	query := eligibleArticlesSelect + `
	and a.id = ?`

	var a models.Article
	err := d.db.QueryRowContext(ctx, query, ownerKey, cutoff, articleID).Scan(
		&a.ID,
		&a.FeedID,
		&a.Title,
		&a.Link,
		&a.ContentSnippet,
		&a.RawContentHTML,
		&a.PublishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	a.PublishedAt = a.PublishedAt.UTC()

	return &a, nil
}
