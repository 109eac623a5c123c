package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/pkg/interceptors"
)

const TrackPath = "/api/v1/orders/track"

// HTTPClient calls a remote storefront's tracking endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient uses an otelhttp-instrumented client when client is nil.
func NewHTTPClient(baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type remoteError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *HTTPClient) Track(ctx context.Context, req Request) (order.Confirmation, error) {
	req, err := req.Normalize()
	if err != nil {
		return order.Confirmation{}, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return order.Confirmation{}, fmt.Errorf("tracking: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+TrackPath, bytes.NewReader(body))
	if err != nil {
		return order.Confirmation{}, fmt.Errorf("tracking: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	interceptors.InjectHTTPHeaders(ctx, httpReq.Header)

	res, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return order.Confirmation{}, contextErr(ctx)
		}
		return order.Confirmation{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
		var rec order.Confirmation
		if err := json.NewDecoder(res.Body).Decode(&rec); err != nil {
			return order.Confirmation{}, fmt.Errorf("%w: decode response: %v", ErrTransient, err)
		}
		return order.New(rec)
	case res.StatusCode == http.StatusNotFound:
		return order.Confirmation{}, ErrOrderNotFound
	case res.StatusCode == http.StatusBadRequest:
		return order.Confirmation{}, ErrMalformedInput
	case res.StatusCode == http.StatusGatewayTimeout:
		return order.Confirmation{}, ErrTimedOut
	default:
		return order.Confirmation{}, fmt.Errorf("%w: status %d: %s", ErrTransient, res.StatusCode, readMessage(res.Body))
	}
}

func readMessage(r io.Reader) string {
	var e remoteError
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&e); err != nil {
		return "no details"
	}
	return e.Message
}
