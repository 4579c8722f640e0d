package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

func (d *Database) AddPrompt(ctx context.Context, prompt *models.Prompt) error {
	content := strings.TrimSpace(prompt.Content)
	if content == "" {
		return errors.New("prompt content is empty")
	}

	query := `insert into prompts (owner_key, title, content, position, enabled)
	values (?, ?, ?,
		coalesce((select max(position) + 1 from prompts where owner_key = ?), 0),
		?)`

	res, err := d.db.ExecContext(ctx, query,
		prompt.OwnerKey,
		strings.TrimSpace(prompt.Title),
		content,
		prompt.OwnerKey,
		prompt.Enabled)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to fetch last insert ID: %w", err)
	}
	prompt.ID = id

	return nil
}

func (d *Database) UpdatePrompt(ctx context.Context, prompt *models.Prompt) error {
	content := strings.TrimSpace(prompt.Content)
	if content == "" {
		return errors.New("prompt content is empty")
	}

	query := `update prompts
	set title = ?, content = ?, enabled = ?
	where id = ? and owner_key = ?`

	_, err := d.db.ExecContext(ctx, query,
		strings.TrimSpace(prompt.Title),
		content,
		prompt.Enabled,
		prompt.ID,
		prompt.OwnerKey)

	return err
}

func (d *Database) RemovePrompt(ctx context.Context, ownerKey string, promptID int64) error {
	query := "delete from prompts where id = ? and owner_key = ?"

	_, err := d.db.ExecContext(ctx, query, promptID, ownerKey)

	return err
}

// ReorderPrompts rewrites the positions of the owner's prompts to match the
// given ID order. IDs not owned by the owner are ignored by the update.
func (d *Database) ReorderPrompts(ctx context.Context, ownerKey string, promptIDs []int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil &&
			!errors.Is(rollbackErr, sql.ErrTxDone) {
			d.log.ErrorContext(ctx, "Failed to rollback transaction",
				"error", rollbackErr,
				"ownerKey", ownerKey,
				"operation", "ReorderPrompts")
		}
	}()

	query := "update prompts set position = ? where id = ? and owner_key = ?"

	for position, promptID := range promptIDs {
		if _, err = tx.ExecContext(ctx, query, position, promptID, ownerKey); err != nil {
			return fmt.Errorf("failed to update position: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (d *Database) ListPrompts(ctx context.Context, ownerKey string) ([]models.Prompt, error) {
	query := `select id, title, content, position, enabled
	from prompts
	where owner_key = ?
	order by position, id`

	return d.listPrompts(ctx, ownerKey, query, "ListPrompts")
}

// ListEnabledPromptsOrdered returns the prompts that form the generation
// prompt base, in position order.
func (d *Database) ListEnabledPromptsOrdered(
	ctx context.Context,
	ownerKey string,
) ([]models.Prompt, error) {
	query := `select id, title, content, position, enabled
	from prompts
	where owner_key = ? and enabled = 1
	order by position, id`

	return d.listPrompts(ctx, ownerKey, query, "ListEnabledPromptsOrdered")
}

func (d *Database) listPrompts(
	ctx context.Context,
	ownerKey string,
	query string,
	operation string,
) ([]models.Prompt, error) {
	rows, err := d.db.QueryContext(ctx, query, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"ownerKey", ownerKey,
				"operation", operation)
		}
	}()

	var prompts []models.Prompt
	for rows.Next() {
		var p models.Prompt
		if err = rows.Scan(&p.ID, &p.Title, &p.Content, &p.Position, &p.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		p.OwnerKey = ownerKey
		prompts = append(prompts, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return prompts, nil
}
