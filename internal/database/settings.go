package database

import (
	"context"
	"fmt"

	"github.com/rafrcruz/lkdposts-sub001/internal/models"
)

// GetOwnerSettingsWithDefault returns the owner's generation parameters,
// falling back to the given defaults when the owner has no row yet.
func (d *Database) GetOwnerSettingsWithDefault(
	ctx context.Context,
	ownerKey string,
	defaults models.OwnerSettings,
) (*models.OwnerSettings, error) {
	query := `select owner_key, window_days, cooldown_seconds, model
	from owner_settings
	where owner_key = ?`

	rows, err := d.db.QueryContext(ctx, query, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"ownerKey", ownerKey,
				"operation", "GetOwnerSettingsWithDefault")
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate rows: %w", err)
		}

		settings := defaults
		settings.OwnerKey = ownerKey

		return &settings, nil
	}

	var s models.OwnerSettings
	if err = rows.Scan(&s.OwnerKey, &s.WindowDays, &s.CooldownSeconds, &s.Model); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return &s, nil
}

func (d *Database) UpsertOwnerSettings(ctx context.Context, settings *models.OwnerSettings) error {
	query := `insert into owner_settings (owner_key, window_days, cooldown_seconds, model)
	values (?, ?, ?, ?)
	on conflict (owner_key) do update
	set window_days = excluded.window_days,
	cooldown_seconds = excluded.cooldown_seconds,
	model = excluded.model`

	_, err := d.db.ExecContext(ctx, query,
		settings.OwnerKey,
		settings.WindowDays,
		settings.CooldownSeconds,
		settings.Model)

	return err
}
