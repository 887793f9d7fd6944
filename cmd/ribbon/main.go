// Command ribbon turns pose traces into finished ribbon strokes. It reads
// samples from a trace file or a live serial tracker, runs them through
// the stroke filter pipeline, stores finished strokes and optionally
// plots them and serves debug routes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/ribbon/internal/config"
	"github.com/banshee-data/ribbon/internal/fsutil"
	"github.com/banshee-data/ribbon/internal/monitor"
	"github.com/banshee-data/ribbon/internal/posesource"
	"github.com/banshee-data/ribbon/internal/ribbon/filters"
	"github.com/banshee-data/ribbon/internal/ribbon/pipeline"
	"github.com/banshee-data/ribbon/internal/ribbon/stroke"
	"github.com/banshee-data/ribbon/internal/security"
	"github.com/banshee-data/ribbon/internal/strokedb"
	"github.com/banshee-data/ribbon/internal/version"
)

var (
	configPath  = flag.String("config", "", "Tuning config JSON (built-in defaults when empty)")
	inputPath   = flag.String("input", "", "Pose trace file to replay ('-' for stdin)")
	serialPath  = flag.String("serial", "", "Serial port of a live pose tracker")
	baudRate    = flag.Int("baud", 0, "Serial baud rate (default 115200)")
	parity      = flag.String("parity", "", "Serial parity: N, E or O")
	stopBits    = flag.Int("stop-bits", 0, "Serial stop bits: 1 or 2")
	serialInit  = flag.String("serial-init", "", "Semicolon-separated commands sent to the tracker after opening")
	dbPath      = flag.String("db", "strokes.db", "Stroke database path (empty disables persistence)")
	plotDir     = flag.String("plot-dir", "", "Write thickness and path PNGs of each stroke into this directory")
	listen      = flag.String("listen", "", "Serve debug routes on this address (e.g. :8080)")
	opsLog      = flag.String("log-ops", "stderr", "Ops log destination: stderr, stdout, a file path, or empty to disable")
	diagLog     = flag.String("log-diag", "", "Diag log destination")
	traceLog    = flag.String("log-trace", "", "Trace log destination (per-sample, verbose)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// eventSource is satisfied by posesource.Reader and posesource.SerialSource.
type eventSource interface {
	Run(ctx context.Context, out chan<- posesource.Event) error
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if (*inputPath == "") == (*serialPath == "") {
		log.Fatal("exactly one of -input or -serial is required")
	}

	closeLogs, err := configureLogging(*opsLog, *diagLog, *traceLog)
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	defer closeLogs()
	log.Print(version.String())

	cfg := config.DefaultTuningConfig()
	if *configPath != "" {
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *strokedb.DB
	if *dbPath != "" {
		db, err = strokedb.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open stroke database: %v", err)
		}
		defer db.Close()
	}

	src, sourceName, closeSrc, err := openSource(fsutil.OSFileSystem{})
	if err != nil {
		log.Fatalf("failed to open pose source: %v", err)
	}
	defer closeSrc()

	stats := monitor.NewPreviewStats()
	var commit pipeline.Renderer
	if db != nil {
		commit = strokedb.NewRecorder(db, sourceName)
	}
	o, brush := pipeline.NewFromTuning(cfg, commit, stats)
	feeder := posesource.NewFeeder(o, brush, cfg.GetMinSegment())
	if *plotDir != "" {
		run := security.SanitizeFilename(sourceName) + "_" + time.Now().Format("20060102_150405")
		feeder.OnStroke = plotHook(fsutil.OSFileSystem{}, *plotDir, run)
	}

	var wg sync.WaitGroup
	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, *listen, db)
		}()
	}

	if err := process(ctx, src, feeder); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("pose source failed: %v", err)
	}
	st := feeder.Stats()
	log.Printf("done: strokes=%d samples=%d accepted=%d gated=%d invalid=%d",
		st.Strokes, st.Samples, st.Accepted, st.Gated, st.Invalid)

	if *listen != "" && ctx.Err() == nil {
		log.Printf("input finished; serving %s until interrupted", *listen)
	}
	wg.Wait()
}

// process pumps events from src into feeder until src is exhausted or
// ctx is cancelled. An open stroke is ended when the source stops.
func process(ctx context.Context, src eventSource, feeder *posesource.Feeder) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan posesource.Event, 64)
	srcErr := make(chan error, 1)
	go func() {
		defer close(events)
		srcErr <- src.Run(ctx, events)
	}()

	if err := feeder.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		cancel()
		<-srcErr
		return err
	}
	return <-srcErr
}

func openSource(fsys fsutil.FileSystem) (eventSource, string, func(), error) {
	if *serialPath != "" {
		port, err := posesource.OpenSerial(*serialPath, posesource.PortOptions{
			BaudRate: *baudRate,
			StopBits: *stopBits,
			Parity:   *parity,
		})
		if err != nil {
			return nil, "", nil, err
		}
		for _, cmd := range splitCommands(*serialInit) {
			if err := port.SendCommand(cmd); err != nil {
				port.Close()
				return nil, "", nil, fmt.Errorf("failed to send %q: %w", cmd, err)
			}
		}
		return port, "serial:" + *serialPath, func() { port.Close() }, nil
	}

	if *inputPath == "-" {
		return posesource.NewReader(os.Stdin), "stdin", func() {}, nil
	}
	f, err := fsys.Open(*inputPath)
	if err != nil {
		return nil, "", nil, err
	}
	return posesource.NewReader(f), "file:" + filepath.Base(*inputPath), func() { f.Close() }, nil
}

// plotHook returns a Feeder.OnStroke callback that plots every finished
// stroke into dir/run.
func plotHook(fsys fsutil.FileSystem, dir, run string) func([]stroke.Point) {
	n := 0
	return func(points []stroke.Point) {
		n++
		name := fmt.Sprintf("stroke_%03d", n)
		if _, err := monitor.PlotStroke(fsys, filepath.Join(dir, run), name, points); err != nil {
			log.Printf("failed to plot %s: %v", name, err)
		}
	}
}

func serveDebug(ctx context.Context, addr string, db *strokedb.DB) {
	mux := http.NewServeMux()
	if db != nil {
		db.AttachAdminRoutes(mux)
		mux.Handle("/chart", monitor.ChartHandler(monitor.DBLoader(db)))
	}

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

// splitCommands splits a semicolon-separated command list, dropping blanks.
func splitCommands(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// configureLogging routes the ops, diag and trace streams of every package
// to the named destinations. The returned func closes any opened files.
func configureLogging(ops, diag, trace string) (func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	writers := make([]io.Writer, 3)
	opened := map[string]io.Writer{}
	for i, dest := range []string{ops, diag, trace} {
		if w, ok := opened[dest]; ok {
			writers[i] = w
			continue
		}
		w, c, err := openLogWriter(dest)
		if err != nil {
			closeAll()
			return nil, err
		}
		if c != nil {
			closers = append(closers, c)
		}
		opened[dest] = w
		writers[i] = w
	}

	for _, set := range []func(ops, diag, trace io.Writer){
		filters.SetLogWriters,
		pipeline.SetLogWriters,
		posesource.SetLogWriters,
		strokedb.SetLogWriters,
		monitor.SetLogWriters,
	} {
		set(writers[0], writers[1], writers[2])
	}
	return closeAll, nil
}

// openLogWriter resolves a log destination. An empty destination yields a
// nil writer, which disables the stream.
func openLogWriter(dest string) (io.Writer, io.Closer, error) {
	switch dest {
	case "":
		return nil, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", dest, err)
	}
	return f, f, nil
}
