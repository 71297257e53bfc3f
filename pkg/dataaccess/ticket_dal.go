package dataaccess

import (
	"context"

	"github.com/Jacobbrewer1/husky/pkg/entities"
)

// TicketDal is the data access layer for tickets.
type TicketDal interface {
	// NextTicketID allocates the next ticket ID. IDs are never handed out twice.
	NextTicketID(ctx context.Context) (int, error)

	// GetTicket gets a ticket by ID.
	GetTicket(ctx context.Context, id int) (*entities.Ticket, error)

	// GetTicketByChannel gets the ticket that owns a channel.
	GetTicketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error)

	// GetOpenTicketByCreator gets the open ticket of a user, if any.
	GetOpenTicketByCreator(ctx context.Context, creatorID string) (*entities.Ticket, error)

	// ListTickets lists every ticket ordered by ID.
	ListTickets(ctx context.Context) ([]*entities.Ticket, error)

	// SaveTicket inserts or replaces a ticket.
	SaveTicket(ctx context.Context, ticket *entities.Ticket) error

	// DeleteTicket removes a ticket.
	DeleteTicket(ctx context.Context, id int) error
}
