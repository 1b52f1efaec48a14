package usecases

import (
	"context"
	"time"

	"warden/internal/domain/modmail"
	"warden/internal/shared/logger"
)

// StalePendingJanitor sweeps tickets stuck in the pending thread state.
// A ticket goes stale when the process crashed between reserving the
// ticket and promoting (or rolling back) the thread; the row and its
// guard would otherwise block that applicant's opens forever.
type StalePendingJanitor struct {
	tickets   modmail.TicketRepository
	guards    modmail.OpenGuardRepository
	txManager TxManager
	audit     AuditSink
	timeout   time.Duration
	logger    logger.Interface
	now       func() time.Time
}

func NewStalePendingJanitor(
	tickets modmail.TicketRepository,
	guards modmail.OpenGuardRepository,
	txManager TxManager,
	audit AuditSink,
	timeout time.Duration,
	logger logger.Interface,
) *StalePendingJanitor {
	return &StalePendingJanitor{
		tickets:   tickets,
		guards:    guards,
		txManager: txManager,
		audit:     audit,
		timeout:   timeout,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute fails every ticket pending since before the timeout and releases
// its guard. Returns the number of tickets cleaned.
func (j *StalePendingJanitor) Execute(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.timeout)

	stale, err := j.tickets.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, ticket := range stale {
		err := j.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
			if err := ticket.MarkThreadFailed(); err != nil {
				return err
			}
			if err := j.tickets.Update(txCtx, ticket); err != nil {
				return err
			}
			return j.guards.Delete(txCtx, ticket.GuildID(), ticket.UserID())
		})
		if err != nil {
			// Keep going; the next sweep retries whatever failed here.
			j.logger.Errorw("failed to clean stale pending ticket",
				"ticket_id", ticket.ID(), "error", err)
			continue
		}

		j.audit.Record(ctx, "modmail.stale_pending_failed",
			"ticket_id", ticket.ID(),
			"guild_id", ticket.GuildID(),
			"user_id", ticket.UserID(),
		)
		cleaned++
	}

	return cleaned, nil
}
