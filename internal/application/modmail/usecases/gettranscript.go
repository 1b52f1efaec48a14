package usecases

import (
	"context"
	"errors"
	"time"

	"warden/internal/domain/modmail"
	apperrors "warden/internal/shared/errors"
	"warden/internal/shared/logger"
)

type GetTranscriptQuery struct {
	TicketID uint
}

type GetTranscriptResult struct {
	TicketID    uint   `json:"ticket_id"`
	Content     string `json:"content"`
	ContentHTML string `json:"content_html,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type GetTranscriptExecutor interface {
	Execute(ctx context.Context, query GetTranscriptQuery) (*GetTranscriptResult, error)
}

type GetTranscriptUseCase struct {
	transcripts modmail.TranscriptRepository
	logger      logger.Interface
}

func NewGetTranscriptUseCase(
	transcripts modmail.TranscriptRepository,
	logger logger.Interface,
) *GetTranscriptUseCase {
	return &GetTranscriptUseCase{
		transcripts: transcripts,
		logger:      logger,
	}
}

func (uc *GetTranscriptUseCase) Execute(
	ctx context.Context,
	query GetTranscriptQuery,
) (*GetTranscriptResult, error) {
	if query.TicketID == 0 {
		return nil, apperrors.NewValidationError("ticket ID is required")
	}

	transcript, err := uc.transcripts.GetByTicketID(ctx, query.TicketID)
	if err != nil {
		if errors.Is(err, modmail.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("transcript not found")
		}
		uc.logger.Errorw("failed to get transcript", "ticket_id", query.TicketID, "error", err)
		return nil, apperrors.NewInternalError("failed to get transcript")
	}

	return &GetTranscriptResult{
		TicketID:    transcript.TicketID(),
		Content:     transcript.Content(),
		ContentHTML: transcript.ContentHTML(),
		CreatedAt:   transcript.CreatedAt().UTC().Format(time.RFC3339),
	}, nil
}
