/*
Command salesctl submits and queries sales against a running sales server.

Usage:

	salesctl [-server URL] add -product Laptop -customer "Acme Corp" -amount 1200 -date 2024-06-15
	salesctl [-server URL] list
	salesctl [-server URL] dashboard [-product P] [-customer C] [-from YYYY-MM-DD] [-to YYYY-MM-DD]
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"sales_tracker/internal/client"
	"sales_tracker/internal/sales"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "salesctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("salesctl", flag.ContinueOnError)
	server := global.String("server", envOr("SALES_SERVER_URL", "http://localhost:8081"), "sales server base URL")
	timeout := global.Duration("timeout", 10*time.Second, "request timeout")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errors.New("missing command: add, list or dashboard")
	}

	c := client.New(*server, *timeout)
	defer c.Close()

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		product := fs.String("product", "", "product name")
		customer := fs.String("customer", "", "customer name")
		amount := fs.String("amount", "", "sale amount")
		date := fs.String("date", time.Now().Format(sales.DateLayout), "sale date (YYYY-MM-DD or RFC 3339)")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		sale, err := c.Create(ctx, sales.RawSale{
			Product:  *product,
			Customer: *customer,
			Amount:   sales.FlexString(*amount),
			Date:     *date,
		})
		if err != nil {
			return err
		}
		return printJSON(out, sale)

	case "list":
		all, err := c.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, all)

	case "dashboard":
		fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
		product := fs.String("product", "", "exact product filter")
		customer := fs.String("customer", "", "exact customer filter")
		from := fs.String("from", "", "first day included")
		to := fs.String("to", "", "last day included")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		criteria := sales.Criteria{Product: *product, Customer: *customer}
		for _, bound := range []struct {
			flag  string
			value string
			dst   **time.Time
		}{
			{"from", *from, &criteria.From},
			{"to", *to, &criteria.To},
		} {
			if bound.value == "" {
				continue
			}
			t, err := sales.ParseDate(bound.value, time.Local)
			if err != nil {
				return fmt.Errorf("invalid -%s %q: %w", bound.flag, bound.value, err)
			}
			*bound.dst = &t
		}
		dash, err := c.Dashboard(ctx, criteria)
		if err != nil {
			return err
		}
		return printJSON(out, dash)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
