package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"scrapemap/internal/config"
	"scrapemap/internal/export"
	"scrapemap/internal/fetch"
	server "scrapemap/internal/http"
	"scrapemap/internal/migrate"
	"scrapemap/internal/runs"
	"scrapemap/internal/scrape"
	"scrapemap/internal/store"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: scrapemap [-config path] <command> [args]

commands:
  serve                       run the management API server
  show                        list stored sitemap ids
  print <sitemap-id>          print a sitemap definition as JSON
  data <sitemap-id>           print a sitemap's records (-format json|csv|markdown)
  rescrape <sitemap-id>       clear records and scrape the sitemap again
`)
	os.Exit(2)
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
	}

	cfg := config.Load(*configPath)

	// Run migrations on a short-lived connection
	if err := migrate.Run(cfg.Database.DSN); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	// Create a shared *sql.DB with pooling for the Store
	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db failed: %v", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	st := store.New(db)

	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))

	ctx := context.Background()
	args := flag.Args()[1:]

	switch flag.Arg(0) {
	case "serve":
		fetcher := fetch.New(time.Duration(cfg.Fetcher.TimeoutMs)*time.Millisecond, cfg.Fetcher.UserAgent)
		mgr := runs.NewManager(logger)
		s := server.NewServer(cfg, st, mgr, fetcher, logger)
		if err := s.Listen(); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	case "show":
		ids, err := st.ListSitemaps(ctx)
		if err != nil {
			log.Fatalf("list sitemaps failed: %v", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	case "print":
		if len(args) != 1 {
			usage()
		}
		m, err := st.GetSitemap(ctx, args[0])
		if err != nil {
			log.Fatalf("get sitemap failed: %v", err)
		}
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			log.Fatalf("encode sitemap failed: %v", err)
		}
		fmt.Println(string(out))
	case "data":
		fs := flag.NewFlagSet("data", flag.ExitOnError)
		formatName := fs.String("format", "json", "output format: json|csv|markdown")
		if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
			usage()
		}
		format, err := export.ParseFormat(*formatName)
		if err != nil {
			log.Fatalf("%v", err)
		}

		id := fs.Arg(0)
		m, err := st.GetSitemap(ctx, id)
		if err != nil {
			log.Fatalf("get sitemap failed: %v", err)
		}
		records, err := st.ListRecords(ctx, id)
		if err != nil {
			log.Fatalf("list records failed: %v", err)
		}
		if err := export.Write(os.Stdout, format, m, records); err != nil {
			log.Fatalf("export failed: %v", err)
		}
	case "rescrape":
		if len(args) != 1 {
			usage()
		}
		m, err := st.GetSitemap(ctx, args[0])
		if err != nil {
			log.Fatalf("get sitemap failed: %v", err)
		}
		if err := st.ResetRecords(ctx, m.ID); err != nil {
			log.Fatalf("reset records failed: %v", err)
		}

		fetcher := fetch.New(time.Duration(cfg.Fetcher.TimeoutMs)*time.Millisecond, cfg.Fetcher.UserAgent)
		scraper := scrape.NewScraper(scrape.NewQueue(), m, st, fetcher, logger, scrape.Options{
			RequestInterval: time.Duration(cfg.Scraper.RequestIntervalMs) * time.Millisecond,
			PageloadDelay:   time.Duration(cfg.Scraper.PageloadDelayMs) * time.Millisecond,
		})
		if err := scraper.Run(ctx); err != nil {
			log.Fatalf("scrape failed: %v", err)
		}
	default:
		usage()
	}
}
