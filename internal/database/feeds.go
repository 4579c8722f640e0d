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

func (d *Database) AddFeed(
	ctx context.Context,
	ownerKey string,
	feedURL string,
	feedTitle string,
) error {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return errors.New("feed URL is empty")
	}

	feedTitle = strings.TrimSpace(feedTitle)
	if feedTitle == "" {
		feedTitle = feedURL
	}

	query := "insert or ignore into feeds (owner_key, url, title) values (?, ?, ?)"

	_, err := d.db.ExecContext(ctx, query, ownerKey, feedURL, feedTitle)

	return err
}

func (d *Database) UpdateFeedTitle(ctx context.Context, feedID int64, feedTitle string) error {
	feedTitle = strings.TrimSpace(feedTitle)
	if feedTitle == "" {
		return errors.New("feed title is empty")
	}

	query := "update feeds set title = ? where id = ?"

	_, err := d.db.ExecContext(ctx, query, feedTitle, feedID)

	return err
}

func (d *Database) RemoveFeed(ctx context.Context, ownerKey string, feedID int64) error {
	query := "delete from feeds where id = ? and owner_key = ?"

	_, err := d.db.ExecContext(ctx, query, feedID, ownerKey)

	return err
}

func (d *Database) TouchFeedFetched(ctx context.Context, feedID int64, fetchedAt time.Time) error {
	query := "update feeds set last_fetched_at = ? where id = ?"

	_, err := d.db.ExecContext(ctx, query, fetchedAt.UTC(), feedID)

	return err
}

func (d *Database) ListFeeds(ctx context.Context, ownerKey string) ([]models.Feed, error) {
	query := `select id, url, title, last_fetched_at
	from feeds
	where owner_key = ?
	order by id`

	rows, err := d.db.QueryContext(ctx, query, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"ownerKey", ownerKey,
				"operation", "ListFeeds")
		}
	}()

	var feeds []models.Feed
	for rows.Next() {
		var f models.Feed
		var lastFetched sql.NullTime
		if err = rows.Scan(&f.ID, &f.URL, &f.Title, &lastFetched); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		f.URL = strings.TrimSpace(f.URL)
		f.Title = strings.TrimSpace(f.Title)
		f.OwnerKey = ownerKey
		if lastFetched.Valid {
			t := lastFetched.Time.UTC()
			f.LastFetchedAt = &t
		}

		feeds = append(feeds, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return feeds, nil
}

func (d *Database) ListFeedsPage(
	ctx context.Context,
	ownerKey string,
	limit int64,
	offset int64,
) ([]models.Feed, int64, error) {
	var total int64

	countQuery := "select count(*) from feeds where owner_key = ?"
	if err := d.db.QueryRowContext(ctx, countQuery, ownerKey).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count feeds: %w", err)
	}

	query := `select id, url, title, last_fetched_at
	from feeds
	where owner_key = ?
	order by id
	limit ? offset ?`

	rows, err := d.db.QueryContext(ctx, query, ownerKey, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"ownerKey", ownerKey,
				"operation", "ListFeedsPage")
		}
	}()

	var feeds []models.Feed
	for rows.Next() {
		var f models.Feed
		var lastFetched sql.NullTime
		if err = rows.Scan(&f.ID, &f.URL, &f.Title, &lastFetched); err != nil {
			return nil, 0, fmt.Errorf("failed to scan row: %w", err)
		}

		f.URL = strings.TrimSpace(f.URL)
		f.Title = strings.TrimSpace(f.Title)
		f.OwnerKey = ownerKey
		if lastFetched.Valid {
			t := lastFetched.Time.UTC()
			f.LastFetchedAt = &t
		}

		feeds = append(feeds, f)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return feeds, total, nil
}

func (d *Database) ListOwnerKeys(ctx context.Context) ([]string, error) {
	query := "select distinct owner_key from feeds order by owner_key"

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "ListOwnerKeys")
		}
	}()

	var owners []string
	for rows.Next() {
		var owner string
		if err = rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		owners = append(owners, owner)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return owners, nil
}
