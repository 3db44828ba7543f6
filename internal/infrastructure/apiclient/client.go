package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

var _ confirmation.StatusOracle = (*Client)(nil)

// Client talks to the simulator HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		http:    hc,
	}
}

func (c *Client) Submit(ctx context.Context, req PaymentRequest) (transaction.Transaction, error) {
	path := c.baseURL + "/api/transactions"

	var out transactionResp
	if err := c.call(ctx, http.MethodPost, path, req, &out); err != nil {
		return transaction.Transaction{}, err
	}
	return out.toTransaction(), nil
}

// Check fetches the latest state of the order. It is the status oracle the
// confirmation poller probes.
func (c *Client) Check(ctx context.Context, ref confirmation.Reference) (transaction.Transaction, error) {
	if ref == "" {
		return transaction.Transaction{}, fmt.Errorf("empty payment reference")
	}
	path := c.baseURL + "/api/transactions/order/" + url.PathEscape(string(ref))

	var out transactionResp
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return transaction.Transaction{}, err
	}
	return out.toTransaction(), nil
}

func (c *Client) List(ctx context.Context) ([]transaction.Transaction, error) {
	path := c.baseURL + "/api/transactions"

	var out []transactionResp
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	txs := make([]transaction.Transaction, 0, len(out))
	for _, r := range out {
		txs = append(txs, r.toTransaction())
	}
	return txs, nil
}

// call expects a 200 with a JSON body decodable into resp.
func (c *Client) call(ctx context.Context, method, path string, req any, resp any) error {
	code, body, err := c.doJSON(ctx, method, path, req)
	if err != nil {
		return err
	}

	if code != http.StatusOK {
		return &UnexpectedStatusError{
			Method: method,
			Path:   path,
			Code:   code,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, resp); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// doJSON sends req as JSON when non-nil and returns the status code with
// the raw body.
func (c *Client) doJSON(ctx context.Context, method, path string, req any) (int, []byte, error) {
	var reader io.Reader
	if req != nil {
		b, err := json.Marshal(req)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, path, reader)
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	rsp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(rsp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	return rsp.StatusCode, body, nil
}
