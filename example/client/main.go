package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Isabellarossi/edgedb/server"
)

const addr = "localhost:9091"

var queries = []func(i int) string{
	func(int) string {
		return fmt.Sprintf("SELECT User { name, email } FILTER .id = <uuid>'%s'", uuid.NewString())
	},
	func(i int) string {
		return fmt.Sprintf("SELECT User { name } FILTER .name = 'user%d' LIMIT 1", i)
	},
	func(i int) string {
		return fmt.Sprintf("SELECT Order { total } FILTER .total > %d.5 ORDER BY .total DESC LIMIT %d", i, 10+i%3)
	},
	func(i int) string {
		return fmt.Sprintf("INSERT User { name := 'user%d', email := 'user%d@example.com' }", i, i)
	},
	func(i int) string {
		return fmt.Sprintf("SELECT sum({%dn, 2n}) + %d.25n", i, i)
	},
	func(i int) string {
		return fmt.Sprintf("WITH x := $name SELECT User FILTER .name = x AND .age > %d", 18+i%10)
	},
	func(int) string {
		return "SELECT User { name } ORDER BY .name"
	},
	func(int) string {
		return "CONFIGURE SESSION SET query_execution_timeout := <duration>'1s'"
	},
	func(int) string {
		return "SELECT 'unterminated"
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := server.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = client.Close() }()
	fmt.Println("sending EdgeQL to edgeql-normd on " + addr)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 1; ; i++ {
		var wg sync.WaitGroup
		for range 4 {
			wg.Go(func() {
				q := queries[rand.IntN(len(queries))](i) //nolint:gosec // demo traffic
				ev, err := client.Normalize(ctx, q)
				if err != nil {
					fmt.Printf("[%d] error: %v\n", i, err)
					return
				}
				fmt.Printf("[%d] %-9s %s\n", i, ev.Outcome, ev.Key)
			})
		}
		wg.Wait()

		// A burst of one shape trips the hot key detector.
		if i%10 == 0 {
			for j := range 60 {
				_, _ = client.Normalize(ctx, fmt.Sprintf("SELECT User FILTER .id = %d", j))
			}
		}

		select {
		case <-ctx.Done():
			fmt.Println("shutting down")
			return nil
		case <-ticker.C:
		}
	}
}
