// Package permit implements the signed query permit: a read-only
// authorization object a wallet signs off-ledger and presents alongside
// queries. The signed payload is a zero-value transaction shell — zero fee,
// zero sequence, zero account number, empty memo — which makes it stable,
// replay-safe for reads, and useless for any state-changing purpose. Those
// fixed values are part of the protocol and are never caller-controlled.
package permit

import (
	"context"
	"encoding/json"
	"sort"

	"sealedger/internal/wallet"
	dErrors "sealedger/pkg/domain-errors"
	pstrings "sealedger/pkg/platform/strings"
)

// Permission names the read capabilities a permit grants.
type Permission string

const (
	// PermissionOwner authorizes reading records scoped to the signing wallet.
	PermissionOwner Permission = "owner"
)

// Scope binds a permit to a chain and a set of contracts. A permit built for
// one scope must be rejected for any other.
type Scope struct {
	ChainID          string
	AllowedContracts []string
	Permissions      []Permission
}

// Params are the public permit parameters; together with the signature they
// form the complete permit a reader presents.
type Params struct {
	AllowedTokens []string `json:"allowed_tokens"`
	ChainID       string   `json:"chain_id"`
	PermitName    string   `json:"permit_name"`
	Permissions   []string `json:"permissions"`
}

// Permit is the wire object embedded in permissioned queries.
type Permit struct {
	Params    Params              `json:"params"`
	Signature wallet.StdSignature `json:"signature"`
}

// signDoc is the canonical amino payload the wallet signs. Struct fields are
// declared in the byte order the chain canonicalizes to (alphabetical keys,
// no whitespace), so a plain json.Marshal reproduces the exact signed bytes.
type signDoc struct {
	AccountNumber string    `json:"account_number"`
	ChainID       string    `json:"chain_id"`
	Fee           fee       `json:"fee"`
	Memo          string    `json:"memo"`
	Msgs          []permMsg `json:"msgs"`
	Sequence      string    `json:"sequence"`
}

type fee struct {
	Amount []struct{} `json:"amount"`
	Gas    string     `json:"gas"`
}

type permMsg struct {
	Type  string  `json:"type"`
	Value msgBody `json:"value"`
}

type msgBody struct {
	AllowedTokens []string `json:"allowed_tokens"`
	PermitName    string   `json:"permit_name"`
	Permissions   []string `json:"permissions"`
}

// SignBytes returns the canonical payload for a permit with the given
// parameters. Exposed so verifiers rebuild the identical bytes from the
// permit's public params.
func SignBytes(p Params) ([]byte, error) {
	tokens := append([]string(nil), p.AllowedTokens...)
	perms := append([]string(nil), p.Permissions...)
	sort.Strings(tokens)
	sort.Strings(perms)

	doc := signDoc{
		AccountNumber: "0",
		ChainID:       p.ChainID,
		Fee:           fee{Amount: []struct{}{}, Gas: "1"},
		Memo:          "",
		Msgs: []permMsg{{
			Type: "query_permit",
			Value: msgBody{
				AllowedTokens: tokens,
				PermitName:    p.PermitName,
				Permissions:   perms,
			},
		}},
		Sequence: "0",
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeAuthorization, "marshal permit sign doc")
	}
	return b, nil
}

// Build constructs and signs a permit for one read session. Permits are not
// cached here: each read builds a fresh one.
func Build(ctx context.Context, w wallet.Wallet, name string, scope Scope) (Permit, error) {
	if name == "" {
		return Permit{}, dErrors.New(dErrors.CodeAuthorization, "permit name must not be empty")
	}
	contracts := pstrings.DedupeAndTrim(scope.AllowedContracts)
	if len(contracts) == 0 {
		return Permit{}, dErrors.New(dErrors.CodeAuthorization, "permit scope must allow at least one contract")
	}
	perms := scope.Permissions
	if len(perms) == 0 {
		perms = []Permission{PermissionOwner}
	}
	permStrings := make([]string, len(perms))
	for i, p := range perms {
		permStrings[i] = string(p)
	}

	params := Params{
		AllowedTokens: contracts,
		ChainID:       scope.ChainID,
		PermitName:    name,
		Permissions:   permStrings,
	}
	payload, err := SignBytes(params)
	if err != nil {
		return Permit{}, err
	}
	sig, err := w.SignAmino(ctx, payload)
	if err != nil {
		return Permit{}, dErrors.Wrap(err, dErrors.CodeAuthorization, "wallet rejected permit signing")
	}
	return Permit{Params: params, Signature: sig}, nil
}

// Covers reports whether the permit's scope covers the given contract.
func (p Permit) Covers(contract string) bool {
	for _, t := range p.Params.AllowedTokens {
		if t == contract {
			return true
		}
	}
	return false
}
