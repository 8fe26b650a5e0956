package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/lironamy/wedding-us-sub002/internal/errors"
	"github.com/lironamy/wedding-us-sub002/internal/model"
)

// EventRepositoryInterface is read-only: events are owned by the main
// application, this service only consumes them.
type EventRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Event, error)
}

type EventRepository struct {
	DB *sql.DB
}

func (r *EventRepository) GetByID(ctx context.Context, id int) (*model.Event, error) {
	query := `
        SELECT id, partner1_name, partner2_name, partner1_role, partner2_role,
               event_date, venue, timezone, owner_phone
        FROM events WHERE id=$1
    `
	var ev model.Event
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&ev.ID, &ev.Partner1Name, &ev.Partner2Name, &ev.Partner1Role, &ev.Partner2Role,
		&ev.EventDate, &ev.Venue, &ev.Timezone, &ev.OwnerPhone,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewEventNotFound(id)
		}
		return nil, err
	}
	return &ev, nil
}

var _ EventRepositoryInterface = (*EventRepository)(nil)
