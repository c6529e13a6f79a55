package threatstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/domain/threat"
)

// archiveStore mirrors attempt and list mutations into the durable archive
// so operators can query history. Archive writes are best-effort and run off
// the hot path; Redis stays authoritative.
type archiveStore struct {
	Store
	lists    threat.ListRepository
	attempts threat.AttemptRepository
	logger   *logrus.Logger
}

func NewArchiveStore(
	inner Store,
	lists threat.ListRepository,
	attempts threat.AttemptRepository,
	logger *logrus.Logger,
) Store {
	return &archiveStore{
		Store:    inner,
		lists:    lists,
		attempts: attempts,
		logger:   logger,
	}
}

func (a *archiveStore) RecordAttempt(ctx context.Context, ip, email, endpoint string) error {
	if err := a.Store.RecordAttempt(ctx, ip, email, endpoint); err != nil {
		return err
	}

	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		a.archive(bg, &threat.AttemptRecord{
			ID:         uuid.New(),
			Identifier: ip,
			Type:       threat.IdentifierIP,
			Endpoint:   endpoint,
			CreatedAt:  time.Now(),
		})
		if email != "" {
			a.archive(bg, &threat.AttemptRecord{
				ID:         uuid.New(),
				Identifier: email,
				Type:       threat.IdentifierEmail,
				Endpoint:   endpoint,
				CreatedAt:  time.Now(),
			})
		}
	}()
	return nil
}

func (a *archiveStore) AddToWhitelist(ctx context.Context, ip string) error {
	if err := a.Store.AddToWhitelist(ctx, ip); err != nil {
		return err
	}
	go a.archiveList(ip, threat.ListAllow, "", 0)
	return nil
}

func (a *archiveStore) AddToBlacklist(ctx context.Context, ip, reason string, duration time.Duration) error {
	if err := a.Store.AddToBlacklist(ctx, ip, reason, duration); err != nil {
		return err
	}
	go a.archiveList(ip, threat.ListDeny, reason, duration)
	return nil
}

func (a *archiveStore) RemoveFromWhitelist(ctx context.Context, ip string) error {
	if err := a.Store.RemoveFromWhitelist(ctx, ip); err != nil {
		return err
	}
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.lists.Deactivate(bg, ip, threat.ListAllow); err != nil {
			a.logger.WithError(err).WithField("ip", ip).Warn("failed to archive whitelist removal")
		}
	}()
	return nil
}

func (a *archiveStore) archive(ctx context.Context, record *threat.AttemptRecord) {
	if err := a.attempts.Save(ctx, record); err != nil {
		a.logger.WithError(err).WithField("identifier", record.Identifier).Warn("failed to archive attempt")
	}
}

func (a *archiveStore) archiveList(ip string, kind threat.ListKind, reason string, duration time.Duration) {
	bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := &threat.ListEntry{
		ID:        uuid.New(),
		IP:        ip,
		Kind:      kind,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if reason != "" {
		entry.Reason = &reason
	}
	if duration > 0 {
		expires := time.Now().Add(duration)
		entry.ExpiresAt = &expires
	}
	if err := a.lists.Save(bg, entry); err != nil {
		a.logger.WithError(err).WithField("ip", ip).Warn("failed to archive list entry")
	}
}
