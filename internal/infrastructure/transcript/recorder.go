package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"warden/internal/application/modmail/usecases"
	"warden/internal/domain/modmail"
	"warden/internal/shared/logger"
	"warden/internal/shared/services/markdown"
)

// Mailer delivers a rendered transcript out of band. Optional.
type Mailer interface {
	SendTranscript(ctx context.Context, ticket *modmail.Ticket, contentHTML string) error
}

// Recorder buffers relayed messages in memory per ticket and renders them
// into a persistent transcript when the ticket closes. Messages relayed
// after a flush start a new buffer; on the next close the new segment is
// appended to the stored transcript.
type Recorder struct {
	transcripts modmail.TranscriptRepository
	markdown    markdown.Service
	mailer      Mailer
	logger      logger.Interface

	mu      sync.Mutex
	buffers map[uint][]usecases.TranscriptEntry
}

var _ usecases.TranscriptRecorder = (*Recorder)(nil)

func NewRecorder(
	transcripts modmail.TranscriptRepository,
	markdownService markdown.Service,
	mailer Mailer,
	log logger.Interface,
) *Recorder {
	return &Recorder{
		transcripts: transcripts,
		markdown:    markdownService,
		mailer:      mailer,
		logger:      log,
		buffers:     make(map[uint][]usecases.TranscriptEntry),
	}
}

func (r *Recorder) Append(ticketID uint, entry usecases.TranscriptEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers[ticketID] = append(r.buffers[ticketID], entry)
}

// Flush renders the buffered entries and persists them. The buffer is
// dropped even when nothing was relayed, so closing an untouched ticket
// stays a no-op.
func (r *Recorder) Flush(ctx context.Context, ticket *modmail.Ticket) error {
	r.mu.Lock()
	entries := r.buffers[ticket.ID()]
	delete(r.buffers, ticket.ID())
	r.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	content := renderMarkdown(ticket, entries)

	// A previous segment exists when the ticket was reopened after an
	// earlier close. Keep it and append the new conversation below it.
	if existing, err := r.transcripts.GetByTicketID(ctx, ticket.ID()); err == nil {
		content = existing.Content() + "\n---\n\n" + content
	} else if !errors.Is(err, modmail.ErrNotFound) {
		r.logger.Warnw("failed to load prior transcript segment",
			"ticket_id", ticket.ID(), "error", err)
	}

	contentHTML, err := r.markdown.ToHTMLSanitized(content)
	if err != nil {
		r.logger.Warnw("failed to render transcript HTML, storing markdown only",
			"ticket_id", ticket.ID(), "error", err)
		contentHTML = ""
	}

	transcript, err := modmail.NewTranscript(ticket.ID(), content, contentHTML)
	if err != nil {
		return fmt.Errorf("failed to build transcript: %w", err)
	}

	if err := r.transcripts.Save(ctx, transcript); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	if r.mailer != nil && contentHTML != "" {
		if err := r.mailer.SendTranscript(ctx, ticket, contentHTML); err != nil {
			r.logger.Warnw("failed to mail transcript",
				"ticket_id", ticket.ID(), "error", err)
		}
	}

	return nil
}

// Discard drops a ticket's buffer without persisting it.
func (r *Recorder) Discard(ticketID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, ticketID)
}

func renderMarkdown(ticket *modmail.Ticket, entries []usecases.TranscriptEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Modmail transcript for ticket %d\n\n", ticket.ID())
	fmt.Fprintf(&b, "- Guild: %s\n", ticket.GuildID())
	fmt.Fprintf(&b, "- User: %s\n", ticket.UserID())
	if code := ticket.AppCode(); code != nil {
		fmt.Fprintf(&b, "- Application: %s\n", *code)
	}
	fmt.Fprintf(&b, "- Opened: %s\n\n", ticket.CreatedAt().UTC().Format("2006-01-02 15:04:05 UTC"))

	for _, entry := range entries {
		fmt.Fprintf(&b, "**%s** (%s):\n\n", entry.AuthorName, entry.Timestamp.UTC().Format("2006-01-02 15:04"))
		b.WriteString(entry.Content)
		b.WriteString("\n\n")
	}

	return b.String()
}
