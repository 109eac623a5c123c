package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/grocery-storefront/internal/api/grpcx"
	"github.com/jcmexdev/grocery-storefront/internal/order"
	"github.com/jcmexdev/grocery-storefront/internal/tracking"
)

var (
	addrFlag = &cli.StringFlag{
		Name:    "addr",
		Usage:   "storefront HTTP base URL",
		Value:   "http://localhost:8080",
		EnvVars: []string{"STOREFRONT_ADDR"},
	}
	grpcAddrFlag = &cli.StringFlag{
		Name:  "grpc",
		Usage: "track over gRPC at this host:port instead of HTTP",
	}
)

// remoteLookup picks the gRPC or HTTP client. The returned close function is
// never nil.
func remoteLookup(c *cli.Context) (tracking.Lookup, func() error, error) {
	if addr := c.String("grpc"); addr != "" {
		conn, err := grpcx.Dial(addr)
		if err != nil {
			return nil, nil, err
		}
		return grpcx.NewClient(conn), conn.Close, nil
	}
	return tracking.NewHTTPClient(c.String("addr"), nil), func() error { return nil }, nil
}

func trackCommand() *cli.Command {
	return &cli.Command{
		Name:      "track",
		Usage:     "look up an order on a running storefront",
		ArgsUsage: "ORDER_ID PHONE",
		Flags: []cli.Flag{
			addrFlag,
			grpcAddrFlag,
			&cli.DurationFlag{Name: "timeout", Value: tracking.DefaultTimeout},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: storefront track ORDER_ID PHONE", 2)
			}
			remote, closeFn, err := remoteLookup(c)
			if err != nil {
				return err
			}
			defer closeFn()

			lookup := tracking.NewRetrying(tracking.WithTimeout(remote, c.Duration("timeout")))
			rec, err := lookup.Track(c.Context, tracking.Request{OrderID: c.Args().Get(0), Phone: c.Args().Get(1)})
			if err != nil {
				return cli.Exit(tracking.Message(err), 1)
			}
			return printOrder(rec)
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "advance an order's status (operator action)",
		ArgsUsage: "ORDER_ID STATUS",
		Flags: []cli.Flag{
			addrFlag,
			&cli.StringFlag{Name: "note", Usage: "free-text note stored with the event"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: storefront status ORDER_ID STATUS", 2)
			}
			id := c.Args().Get(0)
			next, err := order.ParseStatus(c.Args().Get(1))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			body, err := json.Marshal(map[string]string{"status": string(next), "note": c.String("note")})
			if err != nil {
				return err
			}
			url := strings.TrimRight(c.String("addr"), "/") + "/api/v1/orders/" + id + "/status"
			req, err := http.NewRequestWithContext(c.Context, http.MethodPatch, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			client := &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
			res, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("update status of %s: %w", id, err)
			}
			defer res.Body.Close()

			if res.StatusCode != http.StatusOK {
				msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
				return cli.Exit(fmt.Sprintf("update status of %s: %s: %s", id, res.Status, strings.TrimSpace(string(msg))), 1)
			}
			var rec order.Confirmation
			if err := json.NewDecoder(res.Body).Decode(&rec); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return printOrder(rec)
		},
	}
}

func printOrder(rec order.Confirmation) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
