// Package ledger implements the gateway to the attestation contract: the
// signed write path, the permit-authorized read path, and the privileged
// auditor mutations. One Gateway is constructed per role wallet at process
// start and passed by reference into the services that need it.
package ledger

import (
	"context"
	"log/slog"

	"sealedger/internal/attest/models"
	"sealedger/internal/permit"
	"sealedger/internal/wallet"
	dErrors "sealedger/pkg/domain-errors"
)

// CommitReceipt identifies a broadcast transaction. Holding a receipt does
// not prove confirmation; callers re-query before trusting the outcome.
type CommitReceipt struct {
	TxHash string `json:"tx_hash"`
}

// Gateway binds a compute client, a contract address and the wallet acting
// as sender for state-changing operations.
type Gateway struct {
	client   ComputeClient
	contract string
	sender   wallet.Wallet
	log      *slog.Logger
}

func New(client ComputeClient, contractAddress string, sender wallet.Wallet, log *slog.Logger) *Gateway {
	return &Gateway{client: client, contract: contractAddress, sender: sender, log: log}
}

// Sender returns the address of the wallet this gateway writes as.
func (g *Gateway) Sender() string { return g.sender.Address() }

// Contract returns the attestation contract address this gateway targets.
func (g *Gateway) Contract() string { return g.contract }

// Wallet exposes the role wallet for permit building.
func (g *Gateway) Wallet() wallet.Wallet { return g.sender }

// Write commits an attested record. The record, fingerprint, line hash and
// binding score are fixed at this point; nothing is mutated afterwards except
// auditors and audit_state via the privileged operations below. A returned
// error means unknown outcome, not a guaranteed no-op.
func (g *Gateway) Write(ctx context.Context, rec models.ExtractedRecord, doc, line models.Digest, score int) (CommitReceipt, error) {
	if err := rec.Validate(); err != nil {
		return CommitReceipt{}, err
	}
	if doc.IsZero() || line.IsZero() {
		return CommitReceipt{}, dErrors.New(dErrors.CodeCommit, "record is missing commitment hashes")
	}

	msg := executeMsg{Add: &addMsg{Invoice: toContractInvoice(rec, doc, line, score)}}
	txHash, err := g.client.Execute(ctx, g.sender, msg, gasLimitExecute)
	if err != nil {
		return CommitReceipt{}, err
	}
	g.log.InfoContext(ctx, "attested record committed",
		"tx_hash", txHash,
		"doc_hash", doc.String(),
	)
	return CommitReceipt{TxHash: txHash}, nil
}

// Read lists attested records scoped to walletAddr, authorized by the given
// permit. The gateway checks scope coverage before spending a round trip;
// the ledger re-validates authoritatively. Record order is ledger-defined.
func (g *Gateway) Read(ctx context.Context, p permit.Permit, walletAddr string) ([]models.AttestedRecord, error) {
	if !p.Covers(g.contract) {
		return nil, dErrors.Newf(dErrors.CodeAuthorization, "permit does not cover contract %s", g.contract)
	}

	query := queryMsg{GetAll: &getAllQuery{Wallet: walletAddr, Permit: p, Index: 0}}
	var resp invoiceListResponse
	if err := g.client.Query(ctx, query, &resp); err != nil {
		return nil, err
	}
	if resp.VectInvoice == nil {
		return nil, dErrors.New(dErrors.CodeQuery, "ledger response missing vect_invoice")
	}

	records := make([]models.AttestedRecord, 0, len(resp.VectInvoice))
	for _, ci := range resp.VectInvoice {
		rec, err := fromContractInvoice(ci)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpdateAuditor assigns an auditor wallet to the record at index. Privileged;
// same unknown-outcome contract as Write.
func (g *Gateway) UpdateAuditor(ctx context.Context, index uint8, auditor string) (CommitReceipt, error) {
	if auditor == "" {
		return CommitReceipt{}, dErrors.New(dErrors.CodeBadRequest, "auditor address must not be empty")
	}
	msg := executeMsg{UpdateAuditor: &updateAuditorMsg{InvoiceIndex: index, Auditor: auditor}}
	txHash, err := g.client.Execute(ctx, g.sender, msg, gasLimitExecute)
	if err != nil {
		return CommitReceipt{}, err
	}
	g.log.InfoContext(ctx, "auditor assigned", "tx_hash", txHash, "index", index, "auditor", auditor)
	return CommitReceipt{TxHash: txHash}, nil
}

// SetAuditState records an auditor disposition on the record at index.
// Privileged; same unknown-outcome contract as Write.
func (g *Gateway) SetAuditState(ctx context.Context, index uint8, state models.AuditState) (CommitReceipt, error) {
	if !state.IsDisposition() {
		return CommitReceipt{}, dErrors.Newf(dErrors.CodeBadRequest, "%q is not a disposition", state)
	}
	msg := executeMsg{SetAuditState: &setAuditStateMsg{InvoiceIndex: index, State: string(state)}}
	txHash, err := g.client.Execute(ctx, g.sender, msg, gasLimitExecute)
	if err != nil {
		return CommitReceipt{}, err
	}
	g.log.InfoContext(ctx, "audit disposition broadcast", "tx_hash", txHash, "index", index, "state", state)
	return CommitReceipt{TxHash: txHash}, nil
}
