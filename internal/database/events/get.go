package events

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgx/v4"

	"github.com/calendav/assistant-backend/internal/database"
	"github.com/calendav/assistant-backend/internal/model"
)

func (*Repository) GetEventByID(ctx context.Context, q database.Queryable, id int64) (*model.Event, error) {
	qb := baseQuery.
		Where(sq.Eq{"id": id})

	var dto eventDTO
	if err := q.Get(ctx, &dto, qb); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
			return nil, model.ErrNoRecord
		}
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	return mapToEvent(&dto)
}

// GetEvents returns the stored rows touching the window. Recurring rows are
// matched on their series start only; occurrence expansion happens in the
// store on top of these rows.
func (*Repository) GetEvents(ctx context.Context, q database.Queryable, filter model.EventsFilter) ([]*model.Event, error) {
	qb := baseQuery.
		Where(sq.Lt{"start_time": filter.To}).
		Where(sq.Or{
			sq.NotEq{"recurrence_rule": ""},
			sq.Gt{"end_time": filter.From},
		})

	if filter.CalendarName != "" {
		qb = qb.Where(sq.Eq{"calendar_name": filter.CalendarName})
	}

	var dtos []*eventDTO
	if err := q.Select(ctx, &dtos, qb); err != nil {
		return nil, fmt.Errorf("SQL request: %w", err)
	}

	res := make([]*model.Event, len(dtos))
	for i, d := range dtos {
		event, err := mapToEvent(d)
		if err != nil {
			return nil, err
		}
		res[i] = event
	}

	return res, nil
}
