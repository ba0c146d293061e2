package events

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/calendav/assistant-backend/internal/database"
	"github.com/calendav/assistant-backend/internal/model"
)

func (*Repository) DeleteEvent(ctx context.Context, q database.Queryable, id int64) error {
	qb := database.PSQL.
		Delete(database.EventsTable).
		Where(sq.Eq{"id": id})

	tag, err := q.Exec(ctx, qb)
	if err != nil {
		return fmt.Errorf("SQL request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNoRecord
	}

	return nil
}

func (*Repository) CalendarNames(ctx context.Context, q database.Queryable) ([]string, error) {
	qb := database.PSQL.
		Select("distinct calendar_name").
		From(database.EventsTable).
		Where(sq.NotEq{"calendar_name": ""}).
		OrderBy("calendar_name")

	var names []string
	if err := q.Select(ctx, &names, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return names, nil
}
