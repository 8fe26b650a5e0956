package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lironamy/wedding-us-sub002/internal/model"
)

// GuestRepositoryInterface resolves recipient sets. Filters run at fire time
// against the live roster, never against a snapshot taken at batch creation.
type GuestRepositoryInterface interface {
	ListByFilter(ctx context.Context, eventID int, filter model.TargetFilter) ([]model.Guest, error)
	GetByID(ctx context.Context, id int) (*model.Guest, error)
}

type GuestRepository struct {
	DB *sql.DB
}

const guestColumns = `id, event_id, name, phone, rsvp_status, table_number`

func (r *GuestRepository) ListByFilter(ctx context.Context, eventID int, filter model.TargetFilter) ([]model.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE event_id=$1`
	args := []any{eventID}

	switch filter {
	case model.TargetAll, "":
	case model.TargetNotResponded:
		query += ` AND rsvp_status=$2`
		args = append(args, model.RSVPPending)
	case model.TargetAttending:
		query += ` AND rsvp_status=$2`
		args = append(args, model.RSVPAttending)
	case model.TargetDeclined:
		query += ` AND rsvp_status=$2`
		args = append(args, model.RSVPDeclined)
	default:
		return nil, fmt.Errorf("unknown target filter %q", filter)
	}
	query += ` ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	guests := []model.Guest{}
	for rows.Next() {
		var g model.Guest
		if err := rows.Scan(&g.ID, &g.EventID, &g.Name, &g.Phone, &g.RSVPStatus, &g.TableNumber); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (r *GuestRepository) GetByID(ctx context.Context, id int) (*model.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE id=$1`
	var g model.Guest
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.EventID, &g.Name, &g.Phone, &g.RSVPStatus, &g.TableNumber,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

var _ GuestRepositoryInterface = (*GuestRepository)(nil)
