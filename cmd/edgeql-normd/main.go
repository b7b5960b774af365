package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Isabellarossi/edgedb/server"
	"github.com/Isabellarossi/edgedb/service"
	"github.com/Isabellarossi/edgedb/stats"
	"github.com/Isabellarossi/edgedb/web"
)

var version = "dev"

type options struct {
	grpcAddr string
	httpAddr string
	dsnEnv   string
	cfg      service.Config
}

func main() {
	fs := flag.NewFlagSet("edgeql-normd", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "edgeql-normd: EdgeQL normalization daemon for edgeql-norm\n\nUsage:\n  edgeql-normd [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n  EDGEQL_NORM_DSN    PostgreSQL or MySQL DSN for key statistics (read by default via -dsn-env)\n")
	}

	def := service.DefaultConfig()
	var opts options
	fs.StringVar(&opts.grpcAddr, "grpc", ":9091", "gRPC server address for the TUI and clients")
	fs.StringVar(&opts.httpAddr, "http", "", "HTTP server address for the web UI (e.g. :8080)")
	fs.StringVar(&opts.dsnEnv, "dsn-env", "EDGEQL_NORM_DSN", "environment variable holding the statistics DSN")
	fs.IntVar(&opts.cfg.HotThreshold, "hot-threshold", def.HotThreshold, "normalizations of one key within -hot-window that mark it hot (0 = disable)")
	fs.DurationVar(&opts.cfg.HotWindow, "hot-window", def.HotWindow, "time window for hot key detection")
	fs.DurationVar(&opts.cfg.HotCooldown, "hot-cooldown", def.HotCooldown, "minimum interval between alerts for the same key")
	fs.IntVar(&opts.cfg.Buffer, "buffer", def.Buffer, "per-watcher event buffer")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("edgeql-normd %s\n", version)
		return
	}

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Statistics (optional)
	var (
		rec service.Recorder
		top server.TopLister
	)
	if raw := os.Getenv(opts.dsnEnv); raw != "" {
		r, err := stats.Open(ctx, raw)
		if err != nil {
			return fmt.Errorf("open stats db: %w", err)
		}
		defer func() { _ = r.Close() }()
		rec, top = r, r
		log.Printf("key statistics enabled (driver=%s)", r.Driver())
	} else {
		log.Printf("key statistics disabled (%s not set)", opts.dsnEnv)
	}

	svc := service.New(opts.cfg, rec)
	defer svc.Close()
	go svc.Run(ctx)

	// gRPC server
	var lc net.ListenConfig
	grpcLis, err := lc.Listen(ctx, "tcp", opts.grpcAddr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", opts.grpcAddr, err)
	}
	srv := server.New(svc, top)
	go func() {
		log.Printf("gRPC server listening on %s", opts.grpcAddr)
		if err := srv.Serve(grpcLis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	// Web UI (optional)
	var webSrv *web.Server
	if opts.httpAddr != "" {
		httpLis, err := lc.Listen(ctx, "tcp", opts.httpAddr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", opts.httpAddr, err)
		}
		webSrv = web.New(svc, top)
		go func() {
			log.Printf("web UI listening on %s", opts.httpAddr)
			if err := webSrv.Serve(httpLis); err != nil {
				log.Printf("web serve: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Printf("shutting down")

	if webSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := webSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web shutdown: %v", err)
		}
	}
	// Closing the service ends Watch streams so GracefulStop can return.
	svc.Close()
	srv.GracefulStop()
	return nil
}
