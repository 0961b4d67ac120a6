package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"costlens/internal/service"
	"costlens/pkg/auth"
	"costlens/pkg/client"
	"costlens/pkg/config"
)

const usage = `usage: costctl <command> [flags]

commands:
  upload <file.csv>        upload a billing CSV and print the analysis
  ask <question>           ask a question about the uploaded data
  sample [-out file]       print or write a sample billing CSV
  hash-password <secret>   print a bcrypt hash for ADMIN_PASSWORD_HASH
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "upload":
		err = runUpload(ctx, os.Args[2:])
	case "ask":
		err = runAsk(ctx, os.Args[2:])
	case "sample":
		err = runSample(os.Args[2:])
	case "hash-password":
		err = runHashPassword(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// clientFlags registers the connection flags shared by commands that talk to
// the server. Defaults come from COSTLENS_URL and COSTLENS_CLIENT_TIMEOUT.
func clientFlags(fs *flag.FlagSet) func() (*client.Client, error) {
	url := fs.String("url", "", "server origin (default COSTLENS_URL or http://localhost:5000)")
	token := fs.String("token", os.Getenv("COSTLENS_TOKEN"), "access token")
	timeout := fs.Duration("timeout", 0, "request timeout")

	return func() (*client.Client, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		baseURL := cfg.Client.BaseURL
		if *url != "" {
			baseURL = *url
		}
		t := cfg.Client.Timeout
		if *timeout > 0 {
			t = *timeout
		}
		var opts []client.Option
		if *token != "" {
			opts = append(opts, client.WithToken(*token))
		}
		return client.New(baseURL, t, opts...), nil
	}
}

func runUpload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	newClient := clientFlags(fs)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("upload takes exactly one CSV path")
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	resp, err := c.Upload(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d records, $%.2f from %s to %s\n",
		resp.Message, len(resp.Results), resp.Summary.TotalCost,
		resp.Summary.DateRange.Start, resp.Summary.DateRange.End)
	for _, d := range resp.DroppedRows {
		fmt.Printf("  skipped line %d: %s\n", d.Line, d.Reason)
	}
	return printJSON(struct {
		Anomalies       any `json:"anomalies"`
		Recommendations any `json:"recommendations"`
	}{resp.Anomalies, resp.Recommendations})
}

func runAsk(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	newClient := clientFlags(fs)
	_ = fs.Parse(args)
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return errors.New("ask needs a question")
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	resp, err := c.Ask(ctx, question)
	if resp != nil && !resp.Success {
		return errors.New(resp.Response)
	}
	if err != nil {
		return err
	}

	fmt.Println(resp.Response)
	if resp.SQLQuery != "" {
		fmt.Printf("\nSQL: %s\n", resp.SQLQuery)
	}
	return nil
}

func runSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	out := fs.String("out", "", "write to this file instead of stdout")
	seed := fs.Int64("seed", 0, "random seed, 0 for a time-based one")
	_ = fs.Parse(args)

	data := service.SampleCSV(time.Now(), service.NewRand(*seed))
	if *out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Printf("Sample CSV written to %s\n", *out)
	return nil
}

func runHashPassword(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("hash-password takes exactly one password")
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
