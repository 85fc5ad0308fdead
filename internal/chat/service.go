package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/syncdeck/syncdeck-backend/pkg/db/models"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
)

const maxMessageLength = 4000

type dealFinder interface {
	FindByID(ctx context.Context, dealID uuid.UUID) (*models.Deal, error)
}

// MessageDTO is the chat message shape returned to callers.
type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	DealID    uuid.UUID `json:"deal_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageList is one page of messages, newest first, plus the next cursor.
type MessageList struct {
	Messages   []MessageDTO `json:"messages"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// Service handles the per-deal chat thread between the two parties.
type Service interface {
	Send(ctx context.Context, senderID, dealID uuid.UUID, body string) (*MessageDTO, error)
	List(ctx context.Context, viewerID uuid.UUID, viewerRole enums.UserRole, dealID uuid.UUID, params pagination.Params) (*MessageList, error)
}

type service struct {
	repo  Repository
	deals dealFinder
}

// NewService builds a chat service with the required dependencies.
func NewService(repo Repository, deals dealFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chat repository required")
	}
	if deals == nil {
		return nil, fmt.Errorf("deal finder required")
	}
	return &service{repo: repo, deals: deals}, nil
}

// Send posts a message to the deal thread. Only the two parties may write,
// and the thread freezes once the deal reaches a terminal state.
func (s *service) Send(ctx context.Context, senderID, dealID uuid.UUID, body string) (*MessageDTO, error) {
	if senderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body required")
	}
	if len(body) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}

	deal, err := s.loadDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.ArtistID != senderID && deal.ExecID != senderID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this deal")
	}
	if deal.State.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "deal is closed, thread is read only")
	}

	message, err := s.repo.Create(ctx, &models.ChatMessage{
		ID:       uuid.New(),
		DealID:   deal.ID,
		SenderID: senderID,
		Body:     body,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat message")
	}
	return messageFromModel(message), nil
}

// List returns the deal thread for a party or an admin. Closed deals stay
// readable.
func (s *service) List(ctx context.Context, viewerID uuid.UUID, viewerRole enums.UserRole, dealID uuid.UUID, params pagination.Params) (*MessageList, error) {
	if viewerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	deal, err := s.loadDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.ArtistID != viewerID && deal.ExecID != viewerID && viewerRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this deal")
	}

	messages, next, err := s.repo.ListByDeal(ctx, deal.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chat messages")
	}

	list := &MessageList{Messages: make([]MessageDTO, 0, len(messages))}
	for i := range messages {
		list.Messages = append(list.Messages, *messageFromModel(&messages[i]))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) loadDeal(ctx context.Context, dealID uuid.UUID) (*models.Deal, error) {
	if dealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "deal id required")
	}
	deal, err := s.deals.FindByID(ctx, dealID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "deal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load deal")
	}
	return deal, nil
}

func messageFromModel(message *models.ChatMessage) *MessageDTO {
	return &MessageDTO{
		ID:        message.ID,
		DealID:    message.DealID,
		SenderID:  message.SenderID,
		Body:      message.Body,
		CreatedAt: message.CreatedAt,
	}
}
