package blockchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TronClient implements Gateway against a TRON full node's HTTP API
// (trongrid or a self-hosted node).
//
// Transfers from the same wallet are serialized with a per-address lock:
// the node derives transaction ordering from the reference block, and
// concurrent submissions from one account can otherwise invalidate each
// other. Resolutions for different bets still submit concurrently.
type TronClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger

	mu        sync.Mutex
	senderMus map[string]*sync.Mutex
}

// NewTronClient creates a new TRON gateway client.
func NewTronClient(baseURL string, log *zap.SugaredLogger) *TronClient {
	return &TronClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:       log,
		senderMus: make(map[string]*sync.Mutex),
	}
}

// generateAddressResponse is the node's reply to /wallet/generateaddress
type generateAddressResponse struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
	HexAddress string `json:"hexAddress"`
}

// CreateAccount generates a fresh keypair on the node.
func (t *TronClient) CreateAccount(ctx context.Context) (*Account, error) {
	var resp generateAddressResponse
	if err := t.post(ctx, "/wallet/generateaddress", map[string]interface{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to generate address: %w", err)
	}

	address := resp.Address
	if address == "" && resp.HexAddress != "" {
		converted, err := HexToBase58(resp.HexAddress)
		if err != nil {
			return nil, fmt.Errorf("node returned unusable address: %w", err)
		}
		address = converted
	}

	if err := ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("generated address is not valid: %w", err)
	}

	return &Account{
		Address:    address,
		PublicKey:  resp.PublicKey,
		PrivateKey: resp.PrivateKey,
	}, nil
}

// GetBalance returns the account balance in Sun. Unactivated accounts
// (no deposit yet) report zero.
func (t *TronClient) GetBalance(ctx context.Context, address string) (int64, error) {
	req := map[string]interface{}{
		"address": address,
		"visible": true,
	}
	var resp struct {
		Balance int64 `json:"balance"`
	}
	if err := t.post(ctx, "/wallet/getaccount", req, &resp); err != nil {
		return 0, fmt.Errorf("failed to get balance for %s: %w", address, err)
	}
	return resp.Balance, nil
}

// accountTxResponse mirrors the /v1/accounts/{addr}/transactions payload.
type accountTxResponse struct {
	Data []struct {
		TxID    string `json:"txID"`
		RawData struct {
			Contract []struct {
				Parameter struct {
					Value struct {
						OwnerAddress string `json:"owner_address"`
						AssetName    string `json:"asset_name"`
					} `json:"value"`
				} `json:"parameter"`
			} `json:"contract"`
		} `json:"raw_data"`
	} `json:"data"`
}

// GetInboundTransactions lists transactions addressed to the given account.
func (t *TronClient) GetInboundTransactions(ctx context.Context, address string) ([]AccountTx, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s/transactions?only_to=true&limit=50", t.baseURL, address)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp accountTxResponse
	if err := t.do(httpReq, &resp); err != nil {
		return nil, fmt.Errorf("failed to list transactions for %s: %w", address, err)
	}

	txs := make([]AccountTx, 0, len(resp.Data))
	for _, tx := range resp.Data {
		if len(tx.RawData.Contract) == 0 {
			continue
		}
		value := tx.RawData.Contract[0].Parameter.Value

		sender := value.OwnerAddress
		if converted, err := HexToBase58(sender); err == nil {
			sender = converted
		}

		txs = append(txs, AccountTx{
			TxID:   tx.TxID,
			Sender: sender,
			Asset:  value.AssetName,
		})
	}
	return txs, nil
}

// GetTransactionInfo returns the confirmation record of a transaction.
func (t *TronClient) GetTransactionInfo(ctx context.Context, txID string) (*TxInfo, error) {
	req := map[string]interface{}{"value": txID}
	var resp struct {
		BlockNumber int64 `json:"blockNumber"`
	}
	if err := t.post(ctx, "/wallet/gettransactioninfobyid", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get transaction info for %s: %w", txID, err)
	}
	if resp.BlockNumber == 0 {
		return nil, fmt.Errorf("transaction %s not confirmed yet", txID)
	}
	return &TxInfo{BlockNumber: resp.BlockNumber}, nil
}

// GetBlock fetches a block header by number.
func (t *TronClient) GetBlock(ctx context.Context, number int64) (*Block, error) {
	req := map[string]interface{}{"num": number}
	var resp struct {
		BlockID     string `json:"blockID"`
		BlockHeader struct {
			RawData struct {
				Number int64 `json:"number"`
			} `json:"raw_data"`
		} `json:"block_header"`
	}
	if err := t.post(ctx, "/wallet/getblockbynum", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get block %d: %w", number, err)
	}
	if resp.BlockID == "" {
		return nil, fmt.Errorf("block %d not found", number)
	}
	return &Block{Number: number, Hash: resp.BlockID}, nil
}

// Transfer moves amountSun from the given wallet to toAddress. The raw
// transaction is built and signed on the node, then broadcast.
func (t *TronClient) Transfer(ctx context.Context, from TransferContext, toAddress string, amountSun int64) (*TransferResult, error) {
	if amountSun <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", amountSun)
	}
	if err := ValidateAddress(toAddress); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	lock := t.senderLock(from.Address)
	lock.Lock()
	defer lock.Unlock()

	// Build the unsigned transaction
	createReq := map[string]interface{}{
		"owner_address": from.Address,
		"to_address":    toAddress,
		"amount":        amountSun,
		"visible":       true,
	}
	var unsigned json.RawMessage
	if err := t.post(ctx, "/wallet/createtransaction", createReq, &unsigned); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign on the node
	signReq := map[string]interface{}{
		"transaction": unsigned,
		"privateKey":  from.PrivateKey,
	}
	var signed json.RawMessage
	if err := t.post(ctx, "/wallet/gettransactionsign", signReq, &signed); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	var signedTx struct {
		TxID string `json:"txID"`
	}
	if err := json.Unmarshal(signed, &signedTx); err != nil || signedTx.TxID == "" {
		return nil, fmt.Errorf("signed transaction has no txID")
	}

	// Broadcast
	var broadcast struct {
		Result  bool   `json:"result"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := t.post(ctx, "/wallet/broadcasttransaction", signed, &broadcast); err != nil {
		return nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if !broadcast.Result {
		return nil, fmt.Errorf("broadcast rejected: %s %s", broadcast.Code, broadcast.Message)
	}

	t.log.Infow("transfer broadcast",
		"from", from.Address,
		"to", toAddress,
		"amount_sun", amountSun,
		"tx_id", signedTx.TxID,
	)

	return &TransferResult{TxID: signedTx.TxID}, nil
}

// senderLock returns the submission lock for a sending address.
func (t *TronClient) senderLock(address string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.senderMus[address]
	if !ok {
		lock = &sync.Mutex{}
		t.senderMus[address] = lock
	}
	return lock
}

// nodeError is the error envelope some wallet endpoints return with HTTP 200.
type nodeError struct {
	Error string `json:"Error"`
}

// post sends a JSON request to a wallet endpoint and decodes the response.
func (t *TronClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return t.do(httpReq, out)
}

func (t *TronClient) do(req *http.Request, out interface{}) error {
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned status %d: %s", resp.StatusCode, string(data))
	}

	var nodeErr nodeError
	if err := json.Unmarshal(data, &nodeErr); err == nil && nodeErr.Error != "" {
		return fmt.Errorf("node error: %s", nodeErr.Error)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
