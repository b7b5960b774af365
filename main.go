package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Isabellarossi/edgedb/highlight"
	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/query"
	"github.com/Isabellarossi/edgedb/server"
	"github.com/Isabellarossi/edgedb/tui"
)

var version = "dev"

func main() {
	fs := flag.NewFlagSet("edgeql-norm", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "edgeql-norm: watch EdgeQL normalization in real-time\n\n"+
			"Usage:\n  edgeql-norm [flags] <addr>\n  edgeql-norm -q <query|->\n  edgeql-norm -top N <addr>\n\nFlags:\n")
		fs.PrintDefaults()
	}

	q := fs.String("q", "", "normalize a single query locally and print the result (- reads stdin)")
	topN := fs.Int("top", 0, "print the N most frequent keys recorded by edgeql-normd and exit")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("edgeql-norm %s\n", version)
		return
	}

	if *q != "" {
		if err := normalizeOnce(os.Stdout, *q); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	if *topN > 0 {
		if err := printTop(os.Stdout, fs.Arg(0), *topN); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	monitor(fs.Arg(0))
}

func normalizeOnce(w io.Writer, text string) error {
	if text == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	}

	e, err := normalize.Normalize(text)
	if err != nil {
		return err //nolint:wrapcheck
	}

	fmt.Fprintln(w, highlight.Key(e.Key))
	if e.Skipped != normalize.SkipNone {
		fmt.Fprintf(w, "skipped: %s\n", e.Skipped)
	}
	for i, v := range e.Variables {
		fmt.Fprintf(w, "  %-14s %-18s %s\n", e.ParamName(i), v.Value.TypeName(), query.Literal(v.Value))
	}
	if e.Extracted() {
		fmt.Fprintln(w, highlight.Query(query.Bind(e)))
	}
	return nil
}

func printTop(w io.Writer, addr string, n int) error {
	client, err := server.Dial(addr)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := client.Top(ctx, n)
	if err != nil {
		return err //nolint:wrapcheck
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%8d  %016x  %s  %s\n", r.Hits, r.Fingerprint,
			r.LastSeen.Format(time.DateTime), strings.TrimSpace(highlight.Key(r.Key)))
	}
	return nil
}

func monitor(addr string) {
	p := tea.NewProgram(tui.New(addr), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
