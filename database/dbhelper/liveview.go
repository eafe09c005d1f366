package dbhelper

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ray-remotestate/kitchen/database"
	"github.com/ray-remotestate/kitchen/models"
	"github.com/ray-remotestate/kitchen/routing"
)

// LiveView builds the kitchen-display feed: active tickets with their lines
// and product names, in a strict total order so repeated polls of an
// unchanged data set always see the same sequence. It is read-only.
type LiveView struct {
	db     *database.DB
	queues *QueueStore
}

func NewLiveView(db *database.DB, queues *QueueStore) *LiveView {
	return &LiveView{db: db, queues: queues}
}

// ListActive returns tickets ordered by priority descending, then creation
// time ascending, with id as the final tiebreak. Without a status filter,
// terminal tickets are excluded. With a queue filter, lines are routed
// through the queue's assignments and tickets left with no lines are dropped.
func (v *LiveView) ListActive(ctx context.Context, filter models.TicketFilter) ([]models.TicketWithLines, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StoreID != nil {
		args = append(args, *filter.StoreID)
		conditions = append(conditions, fmt.Sprintf("store_id = $%d", len(args)))
	}
	if filter.Status != nil {
		if !filter.Status.IsValid() {
			return nil, &models.ValidationError{Msg: fmt.Sprintf("unknown ticket status %q", *filter.Status)}
		}
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	} else {
		conditions = append(conditions, "status NOT IN ('completed', 'cancelled')")
	}

	query := fmt.Sprintf(`
		SELECT id, order_id, store_id, status, priority, created_at, updated_at
		FROM tickets
		WHERE %s
		ORDER BY priority DESC, created_at ASC, id ASC`,
		strings.Join(conditions, " AND "))

	rows, err := v.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &models.PersistenceError{Op: "ListActive", Err: err}
	}
	defer rows.Close()

	var tickets []models.TicketWithLines
	var ids []uuid.UUID
	for rows.Next() {
		var t models.TicketWithLines
		if err := rows.Scan(&t.ID, &t.OrderID, &t.StoreID, &t.Status,
			&t.Priority, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, &models.PersistenceError{Op: "ListActive", Err: err}
		}
		tickets = append(tickets, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "ListActive", Err: err}
	}
	if len(tickets) == 0 {
		return nil, nil
	}

	linesByTicket, err := v.linesForTickets(ctx, ids)
	if err != nil {
		return nil, err
	}

	var assignments []models.QueueAssignment
	if filter.QueueID != nil {
		assignments, err = v.queues.ListAssignments(ctx, *filter.QueueID)
		if err != nil {
			return nil, err
		}
	}

	result := make([]models.TicketWithLines, 0, len(tickets))
	for _, t := range tickets {
		lines := linesByTicket[t.ID]
		if filter.QueueID != nil {
			lines = routing.FilterByQueue(lines, assignments, *filter.QueueID)
			if len(lines) == 0 {
				continue
			}
		}
		t.Lines = lines
		result = append(result, t)
	}
	return result, nil
}

// linesForTickets loads all lines for the given tickets in one query, joined
// against the catalog's products relation for display names. The catalog owns
// that relation; the join is read-only and tolerates missing products.
func (v *LiveView) linesForTickets(ctx context.Context, ticketIDs []uuid.UUID) (map[uuid.UUID][]models.TicketLine, error) {
	rows, err := v.db.Conn().QueryContext(ctx, `
		SELECT l.id, l.ticket_id, l.order_line_id, l.product_id, l.quantity, l.status,
			l.started_at, l.completed_at, l.updated_at, COALESCE(p.name, '')
		FROM ticket_lines l
		LEFT JOIN products p ON p.id = l.product_id
		WHERE l.ticket_id = ANY($1)
		ORDER BY l.ticket_id, l.id`,
		pq.Array(ticketIDs))
	if err != nil {
		return nil, &models.PersistenceError{Op: "ListActive", Err: err}
	}
	defer rows.Close()

	linesByTicket := make(map[uuid.UUID][]models.TicketLine)
	for rows.Next() {
		var line models.TicketLine
		if err := rows.Scan(&line.ID, &line.TicketID, &line.OrderLineID, &line.ProductID,
			&line.Quantity, &line.Status, &line.StartedAt, &line.CompletedAt,
			&line.UpdatedAt, &line.ProductName); err != nil {
			return nil, &models.PersistenceError{Op: "ListActive", Err: err}
		}
		linesByTicket[line.TicketID] = append(linesByTicket[line.TicketID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "ListActive", Err: err}
	}
	return linesByTicket, nil
}
