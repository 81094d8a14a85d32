// Command-line entry point for the PNR parser.
//
// Input is a single reservation document per invocation: terminal-style
// RAW text or an AIR/AÉREO markup table. The convert subcommand prints
// the structured itinerary; debug shows per-parser pattern traces for
// diagnosing provider format drift; serve and worker expose the same
// engine over HTTP and NATS.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pnr_parser/internal/api"
	"pnr_parser/internal/config"
	"pnr_parser/internal/engine"
	"pnr_parser/internal/feed"
	"pnr_parser/internal/logging"
	"pnr_parser/internal/metrics"
	"pnr_parser/internal/pnr"
	"pnr_parser/internal/render"
	"pnr_parser/internal/registry"
	"pnr_parser/internal/storage"

	_ "pnr_parser/internal/parsers" // register all parsers via init()
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "pnr_parser - commands:")
	fmt.Fprintln(w, "  convert  - convert a reservation document to a structured itinerary")
	fmt.Fprintln(w, "  debug    - show per-parser pattern traces for a document")
	fmt.Fprintln(w, "  serve    - run the conversion API server")
	fmt.Fprintln(w, "  worker   - run the NATS feed worker")
	fmt.Fprintln(w, "  archive  - inspect a local conversion archive")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pnr_parser convert [-in pnr.txt] [-format json|text|html] [-pretty] [-lang en|es] [-year N] [-archive pnr.db]")
	fmt.Fprintln(w, "  pnr_parser debug [-in pnr.txt]")
	fmt.Fprintln(w, "  pnr_parser serve [-addr :8080] [-db pnr.db]")
	fmt.Fprintln(w, "  pnr_parser worker [-url nats://localhost:4222] [-subject pnr.convert] [-db pnr.db]")
	fmt.Fprintln(w, "  pnr_parser archive -db pnr.db list|show <id>|search <query>|stats")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - convert and debug read the document from -in or stdin.")
	fmt.Fprintln(w, "  - serve and worker read defaults from the environment (.env supported).")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "convert":
		runConvert(os.Args[2:])
	case "debug":
		runDebug(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "worker":
		runWorker(os.Args[2:])
	case "archive":
		runArchive(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

// readDocument loads the whole input document from a file or stdin.
func readDocument(path string) string {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Input read error: %v\n", err)
		os.Exit(1)
	}
	return string(data)
}

func runConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	inPath := fs.String("in", "", "Input document file (default: stdin)")
	outPath := fs.String("out", "", "Output file (default: stdout)")
	format := fs.String("format", "json", "Output format: json, text, or html")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	lang := fs.String("lang", "en", "Rendering language: en or es")
	year := fs.Int("year", 0, "Base year for date resolution (default: current year)")
	archivePath := fs.String("archive", "", "Record the conversion in this SQLite archive")
	showDuration := fs.Bool("duration", true, "Show segment durations")
	showTransit := fs.Bool("transit", true, "Show transit gaps between segments")
	showClass := fs.Bool("class", true, "Show cabin class")
	showBags := fs.Bool("bags", true, "Show baggage allowance")
	showPrice := fs.Bool("price", true, "Show per-segment price")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	_ = fs.Parse(args)

	registry.Default().Sort()

	text := readDocument(*inPath)
	docFormat := pnr.DetectFormat(text)

	baseYear := *year
	if baseYear == 0 {
		baseYear = time.Now().Year()
	}

	start := time.Now()
	result := engine.ConvertAt(text, baseYear)
	elapsed := time.Since(start)

	opts := render.Options{
		Language:     *lang,
		ShowDuration: *showDuration,
		ShowTransit:  *showTransit,
		ShowClass:    *showClass,
		ShowBags:     *showBags,
		ShowPrice:    *showPrice,
	}

	var out []byte
	switch *format {
	case "json":
		enc, err := marshalJSON(result, *pretty)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
			os.Exit(1)
		}
		out = enc
	case "text":
		out = []byte(render.Text(result, opts))
	case "html":
		out = []byte(render.HTML(result, opts))
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format: %s\n", *format)
		os.Exit(2)
	}

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		wout = f
	}
	_, _ = wout.Write(out)
	if wout == os.Stdout && len(out) > 0 && out[len(out)-1] != '\n' {
		_, _ = wout.Write([]byte("\n"))
	}

	if *archivePath != "" {
		db, err := storage.Open(*archivePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Archive open error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		record, err := storage.NewConversion(string(docFormat), text, result)
		if err == nil {
			id, insertErr := db.Insert(context.Background(), record)
			if insertErr != nil {
				fmt.Fprintf(os.Stderr, "Archive insert error: %v\n", insertErr)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "archived: id=%d\n", id)
		}
	}

	if *showStats {
		fmt.Fprintf(os.Stderr,
			"stats: format=%s segments=%d passengers=%d fare=%v elapsed=%s\n",
			docFormat, len(result.Segments), result.Meta.Passengers,
			result.Meta.Fare != nil, elapsed,
		)
	}
}

func runDebug(args []string) {
	fs := flag.NewFlagSet("debug", flag.ExitOnError)
	inPath := fs.String("in", "", "Input document file (default: stdin)")
	_ = fs.Parse(args)

	reg := registry.Default()
	reg.Sort()

	text := readDocument(*inPath)
	doc := pnr.New(text)

	fmt.Printf("format: %s\n", doc.Format)
	fmt.Printf("parsers: %d registered\n\n", reg.ParserCount())

	for _, p := range reg.AllParsers() {
		tr, ok := p.(registry.Traceable)
		if !ok {
			fmt.Printf("== %s (no trace support)\n\n", p.Name())
			continue
		}
		printTrace(tr.ParseWithTrace(doc))
	}
}

func printTrace(t *registry.TraceResult) {
	status := "no match"
	if t.Matched {
		status = "matched"
	}
	fmt.Printf("== %s: %s\n", t.ParserName, status)

	if t.QuickCheck != nil {
		fmt.Printf("   quick check: passed=%v", t.QuickCheck.Passed)
		if t.QuickCheck.Reason != "" {
			fmt.Printf(" (%s)", t.QuickCheck.Reason)
		}
		fmt.Println()
	}

	for _, f := range t.Formats {
		fmt.Printf("   rule %-24s matched=%v\n", f.Name, f.Matched)
		if f.Matched {
			for k, v := range f.Captures {
				fmt.Printf("      %-12s = %q\n", k, v)
			}
		}
	}

	for _, e := range t.Extractors {
		fmt.Printf("   extractor %-16s matched=%v", e.Name, e.Matched)
		if e.Matched {
			fmt.Printf(" value=%q", e.Value)
		}
		fmt.Println()
	}
	fmt.Println()
}

func runServe(args []string) {
	cfg := config.Load()

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.HTTPAddr, "HTTP listen address")
	dbPath := fs.String("db", cfg.SQLitePath, "SQLite archive path (empty disables the archive)")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	_ = fs.Parse(args)

	log, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	registry.Default().Sort()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openConfiguredStores(ctx, cfg, *dbPath)
	if err != nil {
		log.Fatalw("open stores", "error", err)
	}
	defer stores.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	server := api.NewServer(api.Config{
		Addr:     *addr,
		APIKeys:  cfg.APIKeys,
		Language: cfg.Language,
		Events:   eventSink(stores),
	}, archiveStore(stores), m, log)

	if err := server.Run(ctx); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

// openConfiguredStores opens every backend named in the environment,
// with the sqlite path overridable per subcommand, and bootstraps the
// postgres/clickhouse schemas.
func openConfiguredStores(ctx context.Context, cfg *config.Config, sqlitePath string) (*storage.Stores, error) {
	stores, err := storage.OpenStores(ctx, storage.Config{
		SQLitePath:  sqlitePath,
		PostgresDSN: cfg.PostgresDSN,
		ClickHouse: storage.ClickHouseConfig{
			Host:     cfg.CHHost,
			Port:     cfg.CHPort,
			Database: cfg.CHDatabase,
			User:     cfg.CHUser,
			Password: cfg.CHPassword,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := stores.CreateSchemas(ctx); err != nil {
		stores.Close()
		return nil, err
	}
	return stores, nil
}

// archiveStore picks the conversion archive: postgres when configured,
// else the local sqlite file, else none. Both satisfy api.Store and
// feed.Archive.
func archiveStore(stores *storage.Stores) api.Store {
	switch {
	case stores.Postgres != nil:
		return stores.Postgres
	case stores.SQLite != nil:
		return stores.SQLite
	default:
		return nil
	}
}

func eventSink(stores *storage.Stores) api.EventSink {
	if stores.ClickHouse == nil {
		return nil
	}
	return stores.ClickHouse
}

func runWorker(args []string) {
	cfg := config.Load()

	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	url := fs.String("url", cfg.NATSURL, "NATS server URL")
	subject := fs.String("subject", cfg.NATSSubject, "Request subject")
	resultSubject := fs.String("result", cfg.NATSResultSubject, "Result subject for replies without an inbox")
	queue := fs.String("queue", cfg.NATSQueue, "Queue group")
	dbPath := fs.String("db", "", "SQLite archive path (empty disables archiving)")
	logLevel := fs.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	_ = fs.Parse(args)

	log, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	registry.Default().Sort()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openConfiguredStores(ctx, cfg, *dbPath)
	if err != nil {
		log.Fatalw("open stores", "error", err)
	}
	defer stores.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	worker, err := feed.New(feed.Config{
		URL:           *url,
		Subject:       *subject,
		ResultSubject: *resultSubject,
		Queue:         *queue,
	}, archiveStore(stores), eventSink(stores), m, log)
	if err != nil {
		log.Fatalw("worker start", "error", err)
	}
	defer worker.Close()

	if err := worker.Run(ctx); err != nil {
		log.Fatalw("worker stopped", "error", err)
	}
}

func runArchive(args []string) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	dbPath := fs.String("db", "pnr.db", "SQLite archive path")
	limit := fs.Int("limit", 20, "Maximum rows for list/search")
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "archive: missing action (list|show <id>|search <query>|stats)")
		os.Exit(2)
	}

	db, err := storage.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Archive open error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	switch rest[0] {
	case "list":
		conversions, err := db.Recent(ctx, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "List error: %v\n", err)
			os.Exit(1)
		}
		printConversionTable(conversions)
	case "show":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "archive show: missing id")
			os.Exit(2)
		}
		id, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid id: %s\n", rest[1])
			os.Exit(2)
		}
		c, err := db.GetByID(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Show error: %v\n", err)
			os.Exit(1)
		}
		if c == nil {
			fmt.Fprintf(os.Stderr, "No conversion with id %d\n", id)
			os.Exit(1)
		}
		enc, err := marshalJSON(c, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(enc))
	case "search":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "archive search: missing query")
			os.Exit(2)
		}
		conversions, err := db.Search(ctx, strings.Join(rest[1:], " "), *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		printConversionTable(conversions)
	case "stats":
		stats, err := db.Stats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("conversions: %d\n", stats.TotalConversions)
		fmt.Printf("empty:       %d\n", stats.EmptyConversions)
		fmt.Printf("avg segments: %.1f\n", stats.AvgSegments)
		for format, count := range stats.ByFormat {
			fmt.Printf("  %-8s %d\n", format, count)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown archive action: %s\n", rest[0])
		os.Exit(2)
	}
}

func printConversionTable(conversions []storage.Conversion) {
	if len(conversions) == 0 {
		fmt.Println("no conversions")
		return
	}
	fmt.Printf("%-6s %-20s %-8s %-4s %-9s %-12s\n", "ID", "CREATED", "FORMAT", "SEGS", "PAX", "TOTAL")
	for _, c := range conversions {
		total := ""
		if c.Currency != "" {
			total = fmt.Sprintf("%s %.2f", c.Currency, c.Total)
		}
		fmt.Printf("%-6d %-20s %-8s %-4d %-9d %-12s\n",
			c.ID, c.CreatedAt.Format("2006-01-02 15:04:05"), c.Format,
			c.SegmentCount, c.Passengers, total)
	}
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
