package threat

import "context"

type ListRepository interface {
	Save(ctx context.Context, entry *ListEntry) error
	FindActiveByKind(ctx context.Context, kind ListKind) ([]ListEntry, error)
	Deactivate(ctx context.Context, ip string, kind ListKind) error
}

type AttemptRepository interface {
	Save(ctx context.Context, record *AttemptRecord) error
	CountSince(ctx context.Context, identifier string, idType IdentifierType, sinceSeconds int) (int64, error)
}
