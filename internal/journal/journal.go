// Package journal keeps the off-chain commit journal: one entry per ledger
// write, recording what was committed, by whom, and under which transaction.
// The ledger is authoritative for record state; the journal exists for
// operational queries the privacy-preserving ledger cannot serve, such as
// "when did we broadcast the commit for this fingerprint".
package journal

import (
	"context"
	"time"

	"sealedger/internal/attest/models"
)

// Entry is one broadcast commit.
type Entry struct {
	ID           string
	SubmissionID string
	DocHash      models.Digest
	LineHash     models.Digest
	Score        int
	TxHash       string
	Sender       string
	CreatedAt    time.Time
}

// Store is interface-driven so the in-memory implementation can back tests
// and development while Postgres backs production.
type Store interface {
	Save(ctx context.Context, entry Entry) error
	FindByDocHash(ctx context.Context, docHash models.Digest) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
