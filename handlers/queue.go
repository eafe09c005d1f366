package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/kitchen/models"
	"github.com/ray-remotestate/kitchen/utils"
)

// QueueStore is the configuration surface for preparation stations.
type QueueStore interface {
	CreateQueue(ctx context.Context, storeID uuid.UUID, name string) (*models.Queue, error)
	DeleteQueue(ctx context.Context, queueID uuid.UUID) error
	GetQueue(ctx context.Context, queueID uuid.UUID) (*models.Queue, error)
	ListQueues(ctx context.Context, storeID uuid.UUID) ([]models.Queue, error)
	AssignProduct(ctx context.Context, queueID, productID uuid.UUID) (*models.QueueAssignment, error)
	RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) error
}

type QueueHandler struct {
	queues QueueStore
	view   LiveViewer
}

func NewQueueHandler(queues QueueStore, view LiveViewer) *QueueHandler {
	return &QueueHandler{queues: queues, view: view}
}

func (h *QueueHandler) CreateQueue(w http.ResponseWriter, r *http.Request) {
	type request struct {
		StoreID uuid.UUID `json:"store_id"`
		Name    string    `json:"name"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	queue, err := h.queues.CreateQueue(r.Context(), req.StoreID, req.Name)
	if err != nil {
		logrus.WithError(err).Error("failed to create queue")
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, queue)
}

func (h *QueueHandler) DeleteQueue(w http.ResponseWriter, r *http.Request) {
	queueID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid queue id", http.StatusBadRequest)
		return
	}

	if err := h.queues.DeleteQueue(r.Context(), queueID); err != nil {
		logrus.WithError(err).Error("failed to delete queue")
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "queue deleted"})
}

func (h *QueueHandler) ListQueues(w http.ResponseWriter, r *http.Request) {
	storeID, err := uuid.Parse(r.URL.Query().Get("store_id"))
	if err != nil {
		http.Error(w, "store_id is required", http.StatusBadRequest)
		return
	}

	queues, err := h.queues.ListQueues(r.Context(), storeID)
	if err != nil {
		logrus.WithError(err).Error("failed to list queues")
		utils.RespondError(w, err)
		return
	}
	if queues == nil {
		queues = []models.Queue{}
	}
	utils.RespondJSON(w, http.StatusOK, queues)
}

func (h *QueueHandler) AssignProduct(w http.ResponseWriter, r *http.Request) {
	queueID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid queue id", http.StatusBadRequest)
		return
	}

	type request struct {
		ProductID uuid.UUID `json:"product_id"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	assignment, err := h.queues.AssignProduct(r.Context(), queueID, req.ProductID)
	if err != nil {
		logrus.WithError(err).Error("failed to assign product")
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, assignment)
}

func (h *QueueHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid assignment id", http.StatusBadRequest)
		return
	}

	if err := h.queues.RemoveAssignment(r.Context(), assignmentID); err != nil {
		logrus.WithError(err).Error("failed to remove assignment")
		utils.RespondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "assignment removed"})
}

// GetQueueView is the per-station display feed: the live listing restricted
// to lines routed to this queue.
func (h *QueueHandler) GetQueueView(w http.ResponseWriter, r *http.Request) {
	queueID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid queue id", http.StatusBadRequest)
		return
	}

	if _, err := h.queues.GetQueue(r.Context(), queueID); err != nil {
		utils.RespondError(w, err)
		return
	}

	tickets, err := h.view.ListActive(r.Context(), models.TicketFilter{QueueID: &queueID})
	if err != nil {
		logrus.WithError(err).Error("failed to build queue view")
		utils.RespondError(w, err)
		return
	}
	if tickets == nil {
		tickets = []models.TicketWithLines{}
	}
	utils.RespondJSON(w, http.StatusOK, tickets)
}
