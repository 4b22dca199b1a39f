package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"sealedger/internal/attest/models"
	"sealedger/internal/permit"
	"sealedger/internal/wallet"
	dErrors "sealedger/pkg/domain-errors"
)

// MemoryLedger is an in-process ledger runtime with the contract's observable
// semantics: owner-gated writes, auditor-gated dispositions, and query
// permits validated by rebuilding and verifying the signed payload. It backs
// tests and the dev mode where no chain is reachable.
type MemoryLedger struct {
	mu       sync.Mutex
	contract string
	hrp      string
	owner    string
	invoices []contractInvoice
	seq      int
}

func NewMemoryLedger(contractAddress, hrp, owner string) *MemoryLedger {
	return &MemoryLedger{contract: contractAddress, hrp: hrp, owner: owner}
}

func (m *MemoryLedger) Execute(ctx context.Context, signer wallet.Wallet, msg any, gasLimit uint64) (string, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "marshal execute msg")
	}
	signBytes, err := TxSignBytes(m.contract, signer.Address(), raw, gasLimit)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "canonicalize execute msg")
	}
	sig, err := signer.SignAmino(ctx, signBytes)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "sign execute msg")
	}
	sender, err := wallet.VerifyAmino(signBytes, sig, m.hrp)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "execute signature rejected")
	}

	var env executeMsg
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "decode execute msg")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case env.Add != nil:
		if sender != m.owner {
			return "", dErrors.New(dErrors.CodeCommit, "only the owner can add an invoice")
		}
		m.invoices = append(m.invoices, env.Add.Invoice)
	case env.UpdateAuditor != nil:
		if sender != m.owner {
			return "", dErrors.New(dErrors.CodeCommit, "only the owner can assign an auditor")
		}
		inv, err := m.at(env.UpdateAuditor.InvoiceIndex)
		if err != nil {
			return "", err
		}
		inv.Auditors = env.UpdateAuditor.Auditor
	case env.SetAuditState != nil:
		inv, err := m.at(env.SetAuditState.InvoiceIndex)
		if err != nil {
			return "", err
		}
		if sender != inv.Auditors {
			return "", dErrors.New(dErrors.CodeCommit, "only the assigned auditor can set the audit state")
		}
		if _, err := models.ParseAuditState(env.SetAuditState.State); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeCommit, "reject audit state")
		}
		inv.AuditState = env.SetAuditState.State
	default:
		return "", dErrors.New(dErrors.CodeCommit, "unknown execute msg")
	}

	m.seq++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s/%d", raw, m.seq)))
	return hex.EncodeToString(sum[:]), nil
}

func (m *MemoryLedger) at(index uint8) (*contractInvoice, error) {
	if int(index) >= len(m.invoices) {
		return nil, dErrors.Newf(dErrors.CodeCommit, "no invoice at index %d", index)
	}
	return &m.invoices[index], nil
}

func (m *MemoryLedger) Query(_ context.Context, query any, out any) error {
	raw, err := json.Marshal(query)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeQuery, "marshal query")
	}
	var env queryMsg
	if err := json.Unmarshal(raw, &env); err != nil {
		return dErrors.Wrap(err, dErrors.CodeQuery, "decode query")
	}
	if env.GetAll == nil {
		return dErrors.New(dErrors.CodeQuery, "unknown query msg")
	}

	viewer, err := m.validatePermit(env.GetAll.Permit)
	if err != nil {
		return err
	}
	if viewer != env.GetAll.Wallet {
		return dErrors.New(dErrors.CodeAuthorization, "permit signer does not match queried wallet")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var resp invoiceListResponse
	resp.VectInvoice = []contractInvoice{}
	for _, inv := range m.invoices {
		// Owner sees every record; an auditor sees the records assigned
		// to their wallet.
		if viewer == m.owner || viewer == inv.Auditors {
			resp.VectInvoice = append(resp.VectInvoice, inv)
		}
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeQuery, "encode response")
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeQuery, "decode response")
	}
	return nil
}

// validatePermit rebuilds the canonical sign doc from the permit's public
// params, verifies the signature and returns the signer's address — the same
// validation the on-chain toolkit performs.
func (m *MemoryLedger) validatePermit(pm permit.Permit) (string, error) {
	covered := false
	for _, t := range pm.Params.AllowedTokens {
		if t == m.contract {
			covered = true
			break
		}
	}
	if !covered {
		return "", dErrors.Newf(dErrors.CodeAuthorization, "permit does not allow contract %s", m.contract)
	}

	signBytes, err := permit.SignBytes(pm.Params)
	if err != nil {
		return "", err
	}
	viewer, err := wallet.VerifyAmino(signBytes, pm.Signature, m.hrp)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeAuthorization, "permit signature rejected")
	}
	return viewer, nil
}
