package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/capwatch/app/capture"
	"github.com/umputun/capwatch/app/notify"
	"github.com/umputun/capwatch/app/remote"
	"github.com/umputun/capwatch/app/tracker"
	"github.com/umputun/capwatch/app/web"
)

var opts struct {
	API struct {
		Prefix    string        `long:"prefix" env:"PREFIX" required:"true" description:"archiving service api prefix, i.e. https://example.com/api"`
		CSRFToken string        `long:"csrf" env:"CSRF" description:"csrf token sent with mutating requests"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"http client timeout"`
	} `group:"api" namespace:"api" env-namespace:"API"`

	Interval  time.Duration `short:"i" long:"interval" env:"INTERVAL" default:"5s" description:"poll interval"`
	MaxProbes int           `long:"max-probes" env:"MAX_PROBES" default:"4" description:"max concurrent size probes"`

	Web struct {
		Enabled   bool    `long:"enabled" env:"ENABLED" description:"enable local control api"`
		Address   string  `long:"address" env:"ADDRESS" default:"127.0.0.1:8080" description:"listen address"`
		RateLimit float64 `long:"rate-limit" env:"RATE_LIMIT" default:"10" description:"mutating requests per second per client, 0 to disable"`
	} `group:"web" namespace:"web" env-namespace:"WEB"`

	Notify struct {
		Webhooks   []string      `long:"webhook" env:"WEBHOOK" env-delim:"," description:"webhook url(s) for finished captures"`
		Headers    []string      `long:"header" env:"HEADER" env-delim:"," description:"extra webhook header(s), name:value"`
		Timeout    time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"webhook timeout"`
		Attempts   int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"delivery attempts"`
		Delay      time.Duration `long:"delay" env:"DELAY" default:"1s" description:"initial delay between attempts"`
		OnlyFailed bool          `long:"only-failed" env:"ONLY_FAILED" description:"notify on failed captures only"`
	} `group:"notify" namespace:"notify" env-namespace:"NOTIFY"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"capwatch.log" description:"file to log to"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"maximum size in megabytes before it gets rotated"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"maximum number of old log files to retain"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"maximum number of days to retain old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"LOG"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "unknown"

func main() {
	fmt.Printf("capwatch %s\n", revision)

	p := flags.NewParser(&opts, flags.Default)
	p.NamespaceDelimiter = "."
	p.EnvNamespaceDelimiter = "_"
	p.EnvNamespace = "CAPWATCH"
	if _, err := p.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	setupLog(opts.Dbg, setupLogs())

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// run wires tracker with the remote client, notifications and the local api, blocks until ctx canceled
func run(ctx context.Context) error {
	rc := remote.New(remote.Params{Prefix: opts.API.Prefix, CSRFToken: opts.API.CSRFToken, Timeout: opts.API.Timeout})

	var onFinished func(capture.Job)
	if ns := makeNotifier(); ns != nil {
		onFinished = ns.OnFinished
	}

	tr := tracker.New(tracker.Params{Remote: rc, Interval: opts.Interval, MaxProbes: opts.MaxProbes, OnFinished: onFinished})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tr.Run(gctx)
		return nil
	})

	if opts.Web.Enabled {
		srv, err := web.New(web.Config{Tracker: tr, Version: revision, RateLimit: opts.Web.RateLimit})
		if err != nil {
			return fmt.Errorf("failed to make web server: %w", err)
		}
		g.Go(func() error { return srv.Run(gctx, opts.Web.Address) })
	}
	return g.Wait()
}

// makeNotifier returns nil if no webhooks configured
func makeNotifier() *notify.Service {
	return notify.NewService(notify.Params{
		Destinations: opts.Notify.Webhooks,
		Headers:      opts.Notify.Headers,
		Timeout:      opts.Notify.Timeout,
		Attempts:     opts.Notify.Attempts,
		Delay:        opts.Notify.Delay,
		OnlyFailed:   opts.Notify.OnlyFailed,
	})
}

// setupLogs returns writer for logs, rotated file if enabled or stdout
func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
}

func setupLog(dbg bool, out io.Writer) {
	if dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile, log.Out(out), log.Err(out))
		return
	}
	log.Setup(log.Msec, log.Out(out), log.Err(out))
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	stacktrace := make([]byte, 8192)
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for sig := range sigChan {
			switch sig {
			case syscall.SIGQUIT: // dump stacktrace on SIGQUIT
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
			case syscall.SIGTERM, syscall.SIGINT:
				log.Printf("[WARN] shutdown signal %v received", sig)
				cancel()
				return
			}
		}
	}()
}
