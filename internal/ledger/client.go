package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"sealedger/internal/wallet"
	dErrors "sealedger/pkg/domain-errors"
)

//go:generate mockgen -destination=../../mocks/mockledger/compute_client.go -package=mockledger sealedger/internal/ledger ComputeClient

// ComputeClient is the opaque transactional and query surface of the ledger
// runtime. The gateway builds contract messages; how they reach consensus is
// not its concern.
type ComputeClient interface {
	// Execute signs and broadcasts a contract execution, returning the
	// transaction hash. An error here means unknown outcome: the broadcast
	// may still have been accepted.
	Execute(ctx context.Context, signer wallet.Wallet, msg any, gasLimit uint64) (string, error)
	// Query runs a read-only contract query and decodes the JSON response
	// into out.
	Query(ctx context.Context, query any, out any) error
}

// txSignDoc is the canonical payload a wallet signs for an execution. Field
// order is the alphabetical key order of the encoded form.
type txSignDoc struct {
	ContractAddress string          `json:"contract_address"`
	GasLimit        uint64          `json:"gas_limit"`
	Msg             json.RawMessage `json:"msg"`
	Sender          string          `json:"sender"`
}

// TxSignBytes returns the canonical bytes a signer commits to for a contract
// execution. Shared by the HTTP client and the in-memory ledger so both sides
// agree byte for byte.
func TxSignBytes(contractAddress, sender string, msg json.RawMessage, gasLimit uint64) ([]byte, error) {
	b, err := json.Marshal(txSignDoc{
		ContractAddress: contractAddress,
		GasLimit:        gasLimit,
		Msg:             msg,
		Sender:          sender,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tx sign doc: %w", err)
	}
	return b, nil
}

// LCDClient talks to a node's light client daemon over HTTP.
type LCDClient struct {
	baseURL         string
	contractAddress string
	codeHash        string
	httpc           *http.Client
}

// NewLCDClient builds a compute client for one contract. The http.Client
// carries the caller's timeout policy; the ledger gateway imposes none of
// its own.
func NewLCDClient(baseURL, contractAddress, codeHash string, httpc *http.Client) *LCDClient {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &LCDClient{
		baseURL:         baseURL,
		contractAddress: contractAddress,
		codeHash:        codeHash,
		httpc:           httpc,
	}
}

type executeRequest struct {
	Sender          string              `json:"sender"`
	ContractAddress string              `json:"contract_address"`
	CodeHash        string              `json:"code_hash"`
	Msg             json.RawMessage     `json:"msg"`
	GasLimit        uint64              `json:"gas_limit"`
	Signature       wallet.StdSignature `json:"signature"`
}

type executeResponse struct {
	TxHash string `json:"tx_hash"`
}

type queryRequest struct {
	ContractAddress string `json:"contract_address"`
	CodeHash        string `json:"code_hash"`
	Query           any    `json:"query"`
}

func (c *LCDClient) Execute(ctx context.Context, signer wallet.Wallet, msg any, gasLimit uint64) (string, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "marshal execute msg")
	}
	signBytes, err := TxSignBytes(c.contractAddress, signer.Address(), raw, gasLimit)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "canonicalize execute msg")
	}
	sig, err := signer.SignAmino(ctx, signBytes)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCommit, "sign execute msg")
	}

	var resp executeResponse
	err = c.post(ctx, c.baseURL+"/compute/v1beta1/txs", executeRequest{
		Sender:          signer.Address(),
		ContractAddress: c.contractAddress,
		CodeHash:        c.codeHash,
		Msg:             raw,
		GasLimit:        gasLimit,
		Signature:       sig,
	}, &resp)
	if err != nil {
		return "", wrapTransport(err, dErrors.CodeCommit, "broadcast execute")
	}
	if resp.TxHash == "" {
		return "", dErrors.New(dErrors.CodeCommit, "broadcast accepted without a transaction hash")
	}
	return resp.TxHash, nil
}

func (c *LCDClient) Query(ctx context.Context, query any, out any) error {
	err := c.post(ctx, c.baseURL+"/compute/v1beta1/query", queryRequest{
		ContractAddress: c.contractAddress,
		CodeHash:        c.codeHash,
		Query:           query,
	}, out)
	if err != nil {
		return wrapTransport(err, dErrors.CodeQuery, "contract query")
	}
	return nil
}

func (c *LCDClient) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node responded %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wrapTransport keeps collaborator timeouts distinguishable from other
// transport failures.
func wrapTransport(err error, code dErrors.Code, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+": collaborator timed out")
	}
	return dErrors.Wrap(err, code, msg)
}
