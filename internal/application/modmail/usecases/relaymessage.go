package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	"warden/internal/shared/logger"
)

type InboundAttachment struct {
	URL         string
	Filename    string
	ContentType string
}

// InboundMessage is a platform message normalized by the event dispatcher.
type InboundMessage struct {
	Ref         string
	AuthorID    string
	AuthorName  string
	AuthorIcon  string
	AuthorIsBot bool
	ChannelRef  string
	Content     string
	// ReplyToRef is the referenced message when this one is a reply.
	ReplyToRef  string
	Attachments []InboundAttachment
}

type RelayMessageCommand struct {
	Message   InboundMessage
	Ticket    *modmail.Ticket
	Direction vo.Direction
}

type RelayMessageResult struct {
	Forwarded   bool
	MirroredRef string
	SkipReason  string
}

// RelayMessageUseCase mirrors one message across the DM/thread boundary.
// It never returns an error: relay failures are logged and surfaced as a
// best-effort notice at the source, so a flaky send can never take down
// the event handler driving it.
type RelayMessageUseCase struct {
	mappings   modmail.MessageMappingRepository
	transport  Transport
	dedup      DedupCache
	limiter    FloodLimiter
	transcript TranscriptRecorder
	audit      AuditSink
	settings   Settings
	logger     logger.Interface
	now        func() time.Time
}

func NewRelayMessageUseCase(
	mappings modmail.MessageMappingRepository,
	transport Transport,
	dedup DedupCache,
	limiter FloodLimiter,
	transcript TranscriptRecorder,
	audit AuditSink,
	settings Settings,
	logger logger.Interface,
) *RelayMessageUseCase {
	return &RelayMessageUseCase{
		mappings:   mappings,
		transport:  transport,
		dedup:      dedup,
		limiter:    limiter,
		transcript: transcript,
		audit:      audit,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
	}
}

func (uc *RelayMessageUseCase) Execute(ctx context.Context, cmd RelayMessageCommand) *RelayMessageResult {
	msg := cmd.Message

	if skip := uc.shortCircuit(cmd); skip != "" {
		return &RelayMessageResult{SkipReason: skip}
	}

	if reason := uc.checkTicketState(cmd); reason != "" {
		uc.logger.Warnw("dropping message for ticket not in relayable state",
			"message_ref", msg.Ref, "reason", reason)
		return &RelayMessageResult{SkipReason: reason}
	}

	if cmd.Direction == vo.DirectionToStaff && uc.limiter != nil {
		allowed, err := uc.limiter.Allow(msg.AuthorID)
		if err != nil {
			// Fail open: losing the limiter should not silence applicants.
			uc.logger.Warnw("flood limiter unavailable", "error", err)
		} else if !allowed {
			uc.logger.Warnw("dropping message over flood limit",
				"user_id", msg.AuthorID, "message_ref", msg.Ref)
			return &RelayMessageResult{SkipReason: "flood limit"}
		}
	}

	payload := uc.buildPayload(ctx, cmd)

	mirroredRef, err := uc.send(ctx, cmd, payload)
	if err != nil {
		uc.logger.Errorw("failed to relay message",
			"ticket_id", cmd.Ticket.ID(),
			"direction", cmd.Direction.String(),
			"message_ref", msg.Ref,
			"error", err)
		uc.notifySourceOfFailure(ctx, cmd)
		return &RelayMessageResult{SkipReason: "transport failure"}
	}

	// Register both sides before anything else so the echo of our own send
	// and any redelivery of the inbound event are suppressed.
	uc.dedup.Insert(mirroredRef)
	uc.dedup.Insert(msg.Ref)

	uc.persistMapping(ctx, cmd, payload, mirroredRef)

	uc.transcript.Append(cmd.Ticket.ID(), TranscriptEntry{
		AuthorName: uc.transcriptAuthor(cmd),
		Content:    uc.contentSnapshot(msg),
		Direction:  cmd.Direction.String(),
		Timestamp:  uc.now(),
	})

	uc.audit.Record(ctx, "modmail.message_relayed",
		"ticket_id", cmd.Ticket.ID(),
		"direction", cmd.Direction.String(),
		"source_ref", msg.Ref,
		"mirrored_ref", mirroredRef,
	)

	return &RelayMessageResult{Forwarded: true, MirroredRef: mirroredRef}
}

func (uc *RelayMessageUseCase) shortCircuit(cmd RelayMessageCommand) string {
	msg := cmd.Message
	if msg.AuthorIsBot || msg.AuthorID == uc.transport.BotUserID() {
		return "bot message"
	}
	if uc.dedup.Contains(msg.Ref) {
		return "duplicate"
	}
	if strings.TrimSpace(msg.Content) == "" && len(msg.Attachments) == 0 {
		return "empty message"
	}
	if cmd.Ticket == nil {
		return "no ticket"
	}
	if !cmd.Direction.IsValid() {
		return "invalid direction"
	}
	return ""
}

func (uc *RelayMessageUseCase) checkTicketState(cmd RelayMessageCommand) string {
	if !cmd.Ticket.Status().IsOpen() {
		return "ticket not open"
	}
	if !cmd.Ticket.ThreadRef().IsActive() {
		// Open ticket without a live thread: the open either is still in
		// flight or failed without cleanup.
		return "orphaned ticket"
	}
	return ""
}

func (uc *RelayMessageUseCase) buildPayload(ctx context.Context, cmd RelayMessageCommand) OutboundPayload {
	msg := cmd.Message
	payload := OutboundPayload{
		Content:    msg.Content,
		ReplyToRef: uc.resolveReplyRef(ctx, msg.ReplyToRef),
		ImageURL:   firstImageURL(msg.Attachments),
	}
	if cmd.Direction == vo.DirectionToUser {
		// Staff replies are anonymized behind the community identity.
		payload.AuthorName = uc.settings.CommunityName
		payload.AuthorIcon = uc.settings.CommunityIcon
	} else {
		payload.AuthorName = msg.AuthorName
		payload.AuthorIcon = msg.AuthorIcon
	}
	if len(msg.Attachments) > 1 || (len(msg.Attachments) == 1 && payload.ImageURL == "") {
		payload.Content = uc.contentSnapshot(msg)
	}
	return payload
}

// resolveReplyRef maps a reply target in the source channel to its
// counterpart in the destination channel. The referenced message may sit
// on either side of a stored mapping.
func (uc *RelayMessageUseCase) resolveReplyRef(ctx context.Context, replyToRef string) string {
	if replyToRef == "" {
		return ""
	}
	if m, err := uc.mappings.GetByMirroredRef(ctx, replyToRef); err == nil {
		return m.SourceMessageRef()
	} else if !errors.Is(err, modmail.ErrNotFound) {
		uc.logger.Warnw("reply lookup failed", "reply_ref", replyToRef, "error", err)
		return ""
	}
	if m, err := uc.mappings.GetBySourceRef(ctx, replyToRef); err == nil {
		return m.MirroredMessageRef()
	} else if !errors.Is(err, modmail.ErrNotFound) {
		uc.logger.Warnw("reply lookup failed", "reply_ref", replyToRef, "error", err)
	}
	return ""
}

func (uc *RelayMessageUseCase) send(ctx context.Context, cmd RelayMessageCommand, payload OutboundPayload) (string, error) {
	threadRef, _ := cmd.Ticket.ThreadRef().ID()
	if cmd.Direction == vo.DirectionToUser {
		return uc.transport.SendDirect(ctx, cmd.Ticket.UserID(), payload)
	}
	return uc.transport.SendToThread(ctx, threadRef, payload)
}

// notifySourceOfFailure tells the sender their message did not go through.
// The notice itself is best effort.
func (uc *RelayMessageUseCase) notifySourceOfFailure(ctx context.Context, cmd RelayMessageCommand) {
	notice := OutboundPayload{
		Content:    "Your message could not be delivered. Please try again.",
		AuthorName: uc.settings.CommunityName,
		AuthorIcon: uc.settings.CommunityIcon,
	}
	var err error
	if cmd.Direction == vo.DirectionToUser {
		// The failed send targeted the applicant, so warn the staff thread.
		if threadRef, ok := cmd.Ticket.ThreadRef().ID(); ok {
			_, err = uc.transport.SendToThread(ctx, threadRef, notice)
		}
	} else {
		_, err = uc.transport.SendDirect(ctx, cmd.Message.AuthorID, notice)
	}
	if err != nil {
		uc.logger.Warnw("failed to send delivery-failure notice",
			"ticket_id", cmd.Ticket.ID(), "error", err)
	}
}

func (uc *RelayMessageUseCase) persistMapping(ctx context.Context, cmd RelayMessageCommand, payload OutboundPayload, mirroredRef string) {
	msg := cmd.Message
	var sourceReply, mirroredReply *string
	if msg.ReplyToRef != "" {
		sourceReply = &msg.ReplyToRef
	}
	if payload.ReplyToRef != "" {
		ref := payload.ReplyToRef
		mirroredReply = &ref
	}

	mapping, err := modmail.NewMessageMapping(
		cmd.Ticket.ID(), cmd.Direction,
		msg.Ref, mirroredRef,
		sourceReply, mirroredReply,
		uc.contentSnapshot(msg),
	)
	if err != nil {
		uc.logger.Errorw("failed to build message mapping",
			"ticket_id", cmd.Ticket.ID(), "message_ref", msg.Ref, "error", err)
		return
	}
	if err := uc.mappings.Upsert(ctx, mapping); err != nil {
		// The message already went out; losing the mapping only degrades
		// reply threading for this one message.
		uc.logger.Errorw("failed to persist message mapping",
			"ticket_id", cmd.Ticket.ID(), "message_ref", msg.Ref, "error", err)
	}
}

// contentSnapshot is the text persisted to mappings and transcripts,
// including a line per attachment so context survives link expiry.
func (uc *RelayMessageUseCase) contentSnapshot(msg InboundMessage) string {
	if len(msg.Attachments) == 0 {
		return msg.Content
	}
	var b strings.Builder
	b.WriteString(msg.Content)
	for _, att := range msg.Attachments {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("[attachment: %s (%s)]", att.Filename, att.URL))
	}
	return b.String()
}

func (uc *RelayMessageUseCase) transcriptAuthor(cmd RelayMessageCommand) string {
	if cmd.Direction == vo.DirectionToUser {
		return fmt.Sprintf("%s (staff)", cmd.Message.AuthorName)
	}
	return cmd.Message.AuthorName
}

func firstImageURL(attachments []InboundAttachment) string {
	for _, att := range attachments {
		if strings.HasPrefix(att.ContentType, "image/") {
			return att.URL
		}
	}
	return ""
}
