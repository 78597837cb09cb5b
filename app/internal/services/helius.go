package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"pagefun/shared/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// BalanceOracle answers whether a wallet currently holds at least the
// required amount of a token. Implementations return false (not an error)
// when the token is simply not held; an error means the upstream could not
// be consulted.
type BalanceOracle interface {
	HasBalance(ctx context.Context, walletAddress, tokenID string, requiredAmount uint64) (bool, error)
}

// HeliusOracle queries the Helius DAS API for fungible holdings.
type HeliusOracle struct {
	apiKey     string
	rpcURL     string
	httpClient *http.Client
	maxRetries int
	appLogger  *logger.Logger
}

// DAS searchAssets request/response structures. Double-check with Helius
// docs if their API changes.
type heliusSearchRequest struct {
	JsonRPC string                 `json:"jsonrpc"`
	ID      string                 `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
}

type heliusTokenInfo struct {
	Balance  uint64 `json:"balance"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
}

type heliusAssetMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Mint   string `json:"mint"`
}

type heliusAssetContent struct {
	Metadata *heliusAssetMetadata `json:"metadata"`
}

// The mint can surface under different field names depending on the asset
// interface: the asset id, a top-level mint, or the nested metadata mint.
type heliusAsset struct {
	ID        string              `json:"id"`
	Mint      string              `json:"mint"`
	TokenInfo *heliusTokenInfo    `json:"token_info"`
	Content   *heliusAssetContent `json:"content"`
}

type heliusAssetsPage struct {
	Total int           `json:"total"`
	Limit int           `json:"limit"`
	Page  int           `json:"page"`
	Items []heliusAsset `json:"items"`
}

type heliusRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type heliusSearchResponse struct {
	JsonRPC string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Result  *heliusAssetsPage `json:"result"`
	Error   *heliusRPCError   `json:"error"`
}

func NewHeliusOracle(apiKey, rpcURL string, maxRetries, timeoutSeconds int, appLogger *logger.Logger) (*HeliusOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("HELIUS_API_KEY environment variable not set")
	}
	if rpcURL == "" {
		rpcURL = fmt.Sprintf("https://mainnet.helius-rpc.com/?api-key=%s", apiKey)
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 15
	}

	client := rpc.New(rpcURL)
	_, err := client.GetHealth(context.Background())
	if err != nil {
		appLogger.Error("Failed to connect to Helius RPC during initialization", "url", sanitizeURL(rpcURL), "error", err)
		return nil, fmt.Errorf("failed to connect to Helius RPC at %s: %w", sanitizeURL(rpcURL), err)
	}
	appLogger.Info("Helius RPC client initialized successfully", "url", sanitizeURL(rpcURL))

	return &HeliusOracle{
		apiKey:     apiKey,
		rpcURL:     rpcURL,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		maxRetries: maxRetries,
		appLogger:  appLogger,
	}, nil
}

func sanitizeURL(rawURL string) string {
	if idx := strings.Index(rawURL, "api-key="); idx != -1 {
		return rawURL[:idx+len("api-key=")] + "HIDDEN_FOR_LOGS"
	}
	return rawURL
}

// HasBalance checks the wallet's fungible holdings for the token and
// compares the raw integer balance against requiredAmount. No decimal
// scaling is applied: thresholds are denominated in base units, matching
// the balances the DAS API reports.
func (o *HeliusOracle) HasBalance(ctx context.Context, walletAddress, tokenID string, requiredAmount uint64) (bool, error) {
	if tokenID == "" {
		return false, fmt.Errorf("no token id supplied for balance check")
	}
	if _, err := solana.PublicKeyFromBase58(walletAddress); err != nil {
		// A malformed wallet cannot hold anything; not an oracle failure.
		o.appLogger.Warn("Balance check for invalid wallet address", "walletAddress", walletAddress, "error", err)
		return false, nil
	}

	requestPayload := heliusSearchRequest{
		JsonRPC: "2.0",
		ID:      "pagefun-balance-check",
		Method:  "searchAssets",
		Params: map[string]interface{}{
			"ownerAddress": walletAddress,
			"tokenType":    "fungible",
			"page":         1,
			"limit":        1000,
			"options": map[string]bool{
				"showNativeBalance": false,
			},
		},
	}
	bodyBytes, err := json.Marshal(requestPayload)
	if err != nil {
		return false, fmt.Errorf("internal error preparing balance check request: %w", err)
	}

	respBody, err := o.fetchWithRetry(ctx, bodyBytes)
	if err != nil {
		return false, err
	}

	var apiResp heliusSearchResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		o.appLogger.Error("Failed to decode Helius response", "error", err, "walletAddress", walletAddress)
		return false, fmt.Errorf("failed to parse balance oracle response: %w", err)
	}
	if apiResp.Error != nil {
		o.appLogger.Warn("Helius API returned an error in JSON response",
			"code", apiResp.Error.Code, "message", apiResp.Error.Message, "walletAddress", walletAddress)
		return false, fmt.Errorf("balance oracle error: %s", apiResp.Error.Message)
	}
	if apiResp.Result == nil {
		return false, fmt.Errorf("balance oracle response missing result")
	}

	for _, asset := range apiResp.Result.Items {
		if !assetMatchesToken(&asset, tokenID) {
			continue
		}
		var balance uint64
		if asset.TokenInfo != nil {
			balance = asset.TokenInfo.Balance
		}
		hasEnough := balance >= requiredAmount
		o.appLogger.Debug("Helius balance check result",
			"walletAddress", walletAddress, "token", tokenID,
			"balance", balance, "required", requiredAmount, "hasEnough", hasEnough)
		return hasEnough, nil
	}

	o.appLogger.Debug("Token not held by wallet", "walletAddress", walletAddress, "token", tokenID)
	return false, nil
}

func assetMatchesToken(asset *heliusAsset, tokenID string) bool {
	if asset.ID == tokenID || asset.Mint == tokenID {
		return true
	}
	if asset.Content != nil && asset.Content.Metadata != nil && asset.Content.Metadata.Mint == tokenID {
		return true
	}
	return false
}

// fetchWithRetry POSTs the payload to the RPC endpoint. Rate limiting
// (HTTP 429) is retried with exponential backoff up to maxRetries
// attempts; other non-2xx statuses fail immediately.
func (o *HeliusOracle) fetchWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error

	for i := 0; i < o.maxRetries; i++ {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, o.rpcURL, bytes.NewBuffer(payload))
		if reqErr != nil {
			return nil, fmt.Errorf("failed http request creation: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.httpClient.Do(req)
		if err != nil {
			lastErr = err
			o.appLogger.Warn("HTTP request to balance oracle failed", "attempt", i+1, "maxRetries", o.maxRetries, "error", err)
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if readErr != nil {
					return nil, fmt.Errorf("failed to read balance oracle response body: %w", readErr)
				}
				return body, nil
			}
			if resp.StatusCode != http.StatusTooManyRequests {
				o.appLogger.Warn("Balance oracle returned non-2xx status", "status", resp.StatusCode, "body", string(body))
				return nil, fmt.Errorf("balance oracle returned status %d", resp.StatusCode)
			}
			lastErr = fmt.Errorf("balance oracle rate limited (429)")
			o.appLogger.Warn("Balance oracle rate limited", "attempt", i+1, "maxRetries", o.maxRetries)
		}

		if i < o.maxRetries-1 {
			backoff := time.Duration(math.Pow(2, float64(i))) * time.Second
			if backoff > 15*time.Second {
				backoff = 15 * time.Second
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("balance oracle request failed after %d attempts: %w", o.maxRetries, lastErr)
}
