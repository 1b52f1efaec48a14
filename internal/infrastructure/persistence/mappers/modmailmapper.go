package mappers

import (
	"time"

	"warden/internal/domain/modmail"
	vo "warden/internal/domain/modmail/valueobjects"
	"warden/internal/infrastructure/persistence/models"
)

// ModmailMapper handles the conversion between modmail domain entities and
// persistence models.
type ModmailMapper interface {
	TicketToModel(t *modmail.Ticket) *models.ModmailTicketModel
	TicketToDomain(model *models.ModmailTicketModel) (*modmail.Ticket, error)

	MappingToModel(m *modmail.MessageMapping) *models.MessageMappingModel
	MappingToDomain(model *models.MessageMappingModel) (*modmail.MessageMapping, error)

	GuardToModel(g *modmail.OpenGuard) *models.OpenGuardModel
	GuardToDomain(model *models.OpenGuardModel) (*modmail.OpenGuard, error)

	TranscriptToModel(t *modmail.Transcript) *models.TranscriptModel
	TranscriptToDomain(model *models.TranscriptModel) (*modmail.Transcript, error)
}

type ModmailMapperImpl struct{}

func NewModmailMapper() ModmailMapper {
	return &ModmailMapperImpl{}
}

func (m *ModmailMapperImpl) TicketToModel(t *modmail.Ticket) *models.ModmailTicketModel {
	model := &models.ModmailTicketModel{
		ID:               t.ID(),
		GuildID:          t.GuildID(),
		UserID:           t.UserID(),
		AppCode:          t.AppCode(),
		ReviewMessageRef: t.ReviewMessageRef(),
		ThreadState:      string(t.ThreadRef().State()),
		Status:           t.Status().String(),
		CreatedAt:        t.CreatedAt().UnixMilli(),
		UpdatedAt:        t.UpdatedAt().UnixMilli(),
	}

	if id, ok := t.ThreadRef().ID(); ok {
		model.ThreadID = &id
	}

	if t.ClosedAt() != nil {
		closed := t.ClosedAt().UnixMilli()
		model.ClosedAt = &closed
	}

	return model
}

func (m *ModmailMapperImpl) TicketToDomain(model *models.ModmailTicketModel) (*modmail.Ticket, error) {
	threadID := ""
	if model.ThreadID != nil {
		threadID = *model.ThreadID
	}

	threadRef, err := vo.ReconstructThreadRef(model.ThreadState, threadID)
	if err != nil {
		return nil, err
	}

	status, err := vo.NewTicketStatus(model.Status)
	if err != nil {
		return nil, err
	}

	var closedAt *time.Time
	if model.ClosedAt != nil {
		t := time.UnixMilli(*model.ClosedAt)
		closedAt = &t
	}

	return modmail.ReconstructTicket(
		model.ID,
		model.GuildID,
		model.UserID,
		model.AppCode,
		model.ReviewMessageRef,
		threadRef,
		status,
		time.UnixMilli(model.CreatedAt),
		time.UnixMilli(model.UpdatedAt),
		closedAt,
	)
}

func (m *ModmailMapperImpl) MappingToModel(mm *modmail.MessageMapping) *models.MessageMappingModel {
	return &models.MessageMappingModel{
		ID:                 mm.ID(),
		TicketID:           mm.TicketID(),
		Direction:          mm.Direction().String(),
		SourceMessageRef:   mm.SourceMessageRef(),
		MirroredMessageRef: mm.MirroredMessageRef(),
		SourceReplyRef:     mm.SourceReplyRef(),
		MirroredReplyRef:   mm.MirroredReplyRef(),
		Content:            mm.Content(),
		CreatedAt:          mm.CreatedAt().UnixMilli(),
	}
}

func (m *ModmailMapperImpl) MappingToDomain(model *models.MessageMappingModel) (*modmail.MessageMapping, error) {
	direction, err := vo.NewDirection(model.Direction)
	if err != nil {
		return nil, err
	}

	return modmail.ReconstructMessageMapping(
		model.ID,
		model.TicketID,
		direction,
		model.SourceMessageRef,
		model.MirroredMessageRef,
		model.SourceReplyRef,
		model.MirroredReplyRef,
		model.Content,
		time.UnixMilli(model.CreatedAt),
	)
}

func (m *ModmailMapperImpl) GuardToModel(g *modmail.OpenGuard) *models.OpenGuardModel {
	model := &models.OpenGuardModel{
		GuildID:     g.GuildID(),
		UserID:      g.UserID(),
		ThreadState: string(g.ThreadRef().State()),
		CreatedAt:   g.CreatedAt().UnixMilli(),
	}

	if id, ok := g.ThreadRef().ID(); ok {
		model.ThreadID = &id
	}

	return model
}

func (m *ModmailMapperImpl) GuardToDomain(model *models.OpenGuardModel) (*modmail.OpenGuard, error) {
	threadID := ""
	if model.ThreadID != nil {
		threadID = *model.ThreadID
	}

	threadRef, err := vo.ReconstructThreadRef(model.ThreadState, threadID)
	if err != nil {
		return nil, err
	}

	return modmail.ReconstructOpenGuard(
		model.GuildID,
		model.UserID,
		threadRef,
		time.UnixMilli(model.CreatedAt),
	)
}

func (m *ModmailMapperImpl) TranscriptToModel(t *modmail.Transcript) *models.TranscriptModel {
	return &models.TranscriptModel{
		ID:          t.ID(),
		TicketID:    t.TicketID(),
		Content:     t.Content(),
		ContentHTML: t.ContentHTML(),
		CreatedAt:   t.CreatedAt().UnixMilli(),
	}
}

func (m *ModmailMapperImpl) TranscriptToDomain(model *models.TranscriptModel) (*modmail.Transcript, error) {
	return modmail.ReconstructTranscript(
		model.ID,
		model.TicketID,
		model.Content,
		model.ContentHTML,
		time.UnixMilli(model.CreatedAt),
	)
}
