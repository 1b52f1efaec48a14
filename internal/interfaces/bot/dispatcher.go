package bot

import (
	"context"
	"errors"

	"warden/internal/application/modmail/usecases"
	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	"warden/internal/shared/logger"
)

// Dispatcher is the seam between the gateway event stream and the relay.
// It normalizes routing decisions: which DMs belong to a ticket, which
// thread messages are worth relaying at all. How events arrive (websocket
// gateway, webhook, replayed queue) is the caller's concern.
type Dispatcher struct {
	tickets modmail.TicketRepository
	index   usecases.ThreadIndex
	relay   usecases.RelayMessageExecutor
	guildID string
	logger  logger.Interface
}

func NewDispatcher(
	tickets modmail.TicketRepository,
	index usecases.ThreadIndex,
	relay usecases.RelayMessageExecutor,
	guildID string,
	log logger.Interface,
) *Dispatcher {
	return &Dispatcher{
		tickets: tickets,
		index:   index,
		relay:   relay,
		guildID: guildID,
		logger:  log,
	}
}

// HandleDirectMessage routes an applicant DM into its open ticket's staff
// thread. DMs from users without an open ticket are ignored.
func (d *Dispatcher) HandleDirectMessage(ctx context.Context, msg usecases.InboundMessage) {
	if msg.AuthorIsBot {
		return
	}

	ticket, err := d.tickets.GetOpenByUser(ctx, d.guildID, msg.AuthorID)
	if err != nil {
		if errors.Is(err, modmail.ErrNotFound) {
			d.logger.Debugw("direct message without open ticket ignored",
				"user_id", msg.AuthorID)
			return
		}
		d.logger.Warnw("failed to resolve ticket for direct message",
			"user_id", msg.AuthorID,
			"message_ref", msg.Ref,
			"error", err)
		return
	}

	result := d.relay.Execute(ctx, usecases.RelayMessageCommand{
		Message:   msg,
		Ticket:    ticket,
		Direction: vo.DirectionToStaff,
	})
	if !result.Forwarded {
		d.logger.Debugw("direct message not relayed",
			"ticket_id", ticket.ID(),
			"message_ref", msg.Ref,
			"skip_reason", result.SkipReason)
	}
}

// HandleThreadMessage routes a staff thread message back to the applicant.
// Messages in channels that are not live modmail threads are ignored
// without touching the store.
func (d *Dispatcher) HandleThreadMessage(ctx context.Context, msg usecases.InboundMessage) {
	if msg.AuthorIsBot {
		return
	}

	if !d.index.IsOpenThread(msg.ChannelRef) {
		return
	}

	ticket, err := d.tickets.GetByThreadRef(ctx, msg.ChannelRef)
	if err != nil {
		if errors.Is(err, modmail.ErrNotFound) {
			// Index said live but the store disagrees; the index entry is
			// stale, drop it so we stop querying for this thread.
			d.logger.Warnw("live thread has no ticket, removing stale index entry",
				"thread_ref", msg.ChannelRef)
			d.index.Remove(msg.ChannelRef)
			return
		}
		d.logger.Warnw("failed to resolve ticket for thread message",
			"thread_ref", msg.ChannelRef,
			"message_ref", msg.Ref,
			"error", err)
		return
	}

	result := d.relay.Execute(ctx, usecases.RelayMessageCommand{
		Message:   msg,
		Ticket:    ticket,
		Direction: vo.DirectionToUser,
	})
	if !result.Forwarded {
		d.logger.Debugw("thread message not relayed",
			"ticket_id", ticket.ID(),
			"message_ref", msg.Ref,
			"skip_reason", result.SkipReason)
	}
}
