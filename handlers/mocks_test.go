package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ray-remotestate/kitchen/models"
)

type MockTicketStore struct {
	CreateTicketFunc     func(ctx context.Context, input models.NewTicket) (*models.TicketWithLines, error)
	CancelTicketFunc     func(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error)
	UpdateLineStatusFunc func(ctx context.Context, lineID uuid.UUID, target models.LineStatus) (*models.TicketLine, *models.Ticket, error)
	GetTicketFunc        func(ctx context.Context, ticketID uuid.UUID) (*models.TicketWithLines, error)
}

func (m *MockTicketStore) CreateTicket(ctx context.Context, input models.NewTicket) (*models.TicketWithLines, error) {
	return m.CreateTicketFunc(ctx, input)
}

func (m *MockTicketStore) CancelTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	return m.CancelTicketFunc(ctx, ticketID)
}

func (m *MockTicketStore) UpdateLineStatus(ctx context.Context, lineID uuid.UUID, target models.LineStatus) (*models.TicketLine, *models.Ticket, error) {
	return m.UpdateLineStatusFunc(ctx, lineID, target)
}

func (m *MockTicketStore) GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.TicketWithLines, error) {
	return m.GetTicketFunc(ctx, ticketID)
}

type MockLiveViewer struct {
	ListActiveFunc func(ctx context.Context, filter models.TicketFilter) ([]models.TicketWithLines, error)
}

func (m *MockLiveViewer) ListActive(ctx context.Context, filter models.TicketFilter) ([]models.TicketWithLines, error) {
	return m.ListActiveFunc(ctx, filter)
}

type MockQueueStore struct {
	CreateQueueFunc      func(ctx context.Context, storeID uuid.UUID, name string) (*models.Queue, error)
	DeleteQueueFunc      func(ctx context.Context, queueID uuid.UUID) error
	GetQueueFunc         func(ctx context.Context, queueID uuid.UUID) (*models.Queue, error)
	ListQueuesFunc       func(ctx context.Context, storeID uuid.UUID) ([]models.Queue, error)
	AssignProductFunc    func(ctx context.Context, queueID, productID uuid.UUID) (*models.QueueAssignment, error)
	RemoveAssignmentFunc func(ctx context.Context, assignmentID uuid.UUID) error
}

func (m *MockQueueStore) CreateQueue(ctx context.Context, storeID uuid.UUID, name string) (*models.Queue, error) {
	return m.CreateQueueFunc(ctx, storeID, name)
}

func (m *MockQueueStore) DeleteQueue(ctx context.Context, queueID uuid.UUID) error {
	return m.DeleteQueueFunc(ctx, queueID)
}

func (m *MockQueueStore) GetQueue(ctx context.Context, queueID uuid.UUID) (*models.Queue, error) {
	return m.GetQueueFunc(ctx, queueID)
}

func (m *MockQueueStore) ListQueues(ctx context.Context, storeID uuid.UUID) ([]models.Queue, error) {
	return m.ListQueuesFunc(ctx, storeID)
}

func (m *MockQueueStore) AssignProduct(ctx context.Context, queueID, productID uuid.UUID) (*models.QueueAssignment, error) {
	return m.AssignProductFunc(ctx, queueID, productID)
}

func (m *MockQueueStore) RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	return m.RemoveAssignmentFunc(ctx, assignmentID)
}

type MockPublisher struct {
	mu       sync.Mutex
	Subjects []string
}

func (m *MockPublisher) Publish(subject string, payload interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subjects = append(m.Subjects, subject)
}

func (m *MockPublisher) Close() {}
