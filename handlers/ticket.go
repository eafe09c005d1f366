package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/ray-remotestate/kitchen/events"
	"github.com/ray-remotestate/kitchen/models"
	"github.com/ray-remotestate/kitchen/utils"
)

// TicketStore is the mutation surface the ticket handlers need.
type TicketStore interface {
	CreateTicket(ctx context.Context, input models.NewTicket) (*models.TicketWithLines, error)
	CancelTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
	UpdateLineStatus(ctx context.Context, lineID uuid.UUID, target models.LineStatus) (*models.TicketLine, *models.Ticket, error)
	GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.TicketWithLines, error)
}

// LiveViewer is the read surface for kitchen displays.
type LiveViewer interface {
	ListActive(ctx context.Context, filter models.TicketFilter) ([]models.TicketWithLines, error)
}

// Stats counts operations for the /stats endpoint kitchen displays use to
// detect a stalled feed.
type Stats struct {
	TicketsCreated   atomic.Int64
	TicketsCancelled atomic.Int64
	LineTransitions  atomic.Int64
	RollupPromotions atomic.Int64
}

type TicketHandler struct {
	store     TicketStore
	view      LiveViewer
	publisher events.Publisher
	stats     *Stats
}

func NewTicketHandler(store TicketStore, view LiveViewer, publisher events.Publisher, stats *Stats) *TicketHandler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &TicketHandler{store: store, view: view, publisher: publisher, stats: stats}
}

func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var input models.NewTicket
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := h.store.CreateTicket(r.Context(), input)
	if err != nil {
		logrus.WithError(err).Error("failed to create ticket")
		utils.RespondError(w, err)
		return
	}

	h.stats.TicketsCreated.Inc()
	h.publisher.Publish(events.SubjectTicketCreated, ticket)
	utils.RespondJSON(w, http.StatusCreated, ticket)
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return
	}

	ticket, err := h.store.GetTicket(r.Context(), ticketID)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, ticket)
}

func (h *TicketHandler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid ticket id", http.StatusBadRequest)
		return
	}

	ticket, err := h.store.CancelTicket(r.Context(), ticketID)
	if err != nil {
		logrus.WithError(err).Error("failed to cancel ticket")
		utils.RespondError(w, err)
		return
	}

	h.stats.TicketsCancelled.Inc()
	h.publisher.Publish(events.SubjectTicketUpdated, ticket)
	utils.RespondJSON(w, http.StatusOK, ticket)
}

func (h *TicketHandler) SetLineStatus(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid line id", http.StatusBadRequest)
		return
	}

	type request struct {
		Status models.LineStatus `json:"status"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	line, promoted, err := h.store.UpdateLineStatus(r.Context(), lineID, req.Status)
	if err != nil {
		logrus.WithError(err).Error("failed to update line status")
		utils.RespondError(w, err)
		return
	}

	h.stats.LineTransitions.Inc()
	h.publisher.Publish(events.SubjectLineUpdated, line)
	if promoted != nil {
		h.stats.RollupPromotions.Inc()
		h.publisher.Publish(events.SubjectTicketUpdated, promoted)
	}
	utils.RespondJSON(w, http.StatusOK, line)
}

func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tickets, err := h.view.ListActive(r.Context(), filter)
	if err != nil {
		logrus.WithError(err).Error("failed to list tickets")
		utils.RespondError(w, err)
		return
	}
	if tickets == nil {
		tickets = []models.TicketWithLines{}
	}
	utils.RespondJSON(w, http.StatusOK, tickets)
}

func (h *TicketHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]int64{
		"tickets_created":   h.stats.TicketsCreated.Load(),
		"tickets_cancelled": h.stats.TicketsCancelled.Load(),
		"line_transitions":  h.stats.LineTransitions.Load(),
		"rollup_promotions": h.stats.RollupPromotions.Load(),
	})
}

func filterFromQuery(r *http.Request) (models.TicketFilter, error) {
	var filter models.TicketFilter

	if raw := r.URL.Query().Get("store_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, &models.ValidationError{Msg: "invalid store_id"}
		}
		filter.StoreID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.TicketStatus(raw)
		if !status.IsValid() {
			return filter, &models.ValidationError{Msg: "invalid status"}
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("queue_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, &models.ValidationError{Msg: "invalid queue_id"}
		}
		filter.QueueID = &id
	}
	return filter, nil
}
