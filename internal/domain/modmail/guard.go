package modmail

import (
	"fmt"
	"time"

	vo "warden/internal/domain/modmail/valueobjects"
)

// OpenGuard is the uniqueness-enforcing record preventing duplicate open
// tickets per (guild, user). It is written transactionally alongside ticket
// creation and reopen; the database unique constraint on (guild, user) is
// what resolves concurrent opens.
type OpenGuard struct {
	guildID   string
	userID    string
	threadRef vo.ThreadRef
	createdAt time.Time
}

func NewOpenGuard(guildID, userID string, threadRef vo.ThreadRef) (*OpenGuard, error) {
	if guildID == "" {
		return nil, fmt.Errorf("guild ID is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	return &OpenGuard{
		guildID:   guildID,
		userID:    userID,
		threadRef: threadRef,
		createdAt: time.Now(),
	}, nil
}

func ReconstructOpenGuard(guildID, userID string, threadRef vo.ThreadRef, createdAt time.Time) (*OpenGuard, error) {
	g, err := NewOpenGuard(guildID, userID, threadRef)
	if err != nil {
		return nil, err
	}
	g.createdAt = createdAt
	return g, nil
}

func (g *OpenGuard) GuildID() string {
	return g.guildID
}

func (g *OpenGuard) UserID() string {
	return g.userID
}

func (g *OpenGuard) ThreadRef() vo.ThreadRef {
	return g.threadRef
}

func (g *OpenGuard) CreatedAt() time.Time {
	return g.createdAt
}
