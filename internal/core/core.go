package core

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/docterling/corerelay/internal/conf"
	"github.com/docterling/corerelay/internal/edgepull"
	"github.com/docterling/corerelay/internal/logger"
)

var version = "v0.0.0"

var cli struct {
	Version  bool   `help:"print version"`
	Confpath string `arg:"" default:""`
}

// Core is the top-level, long-running process: configuration, logging,
// the WebRTC session registry, and its session-expiry sweep.
type Core struct {
	ctx       context.Context
	ctxCancel func()
	confPath  string
	confMgr   *conf.Manager
	logger    *logger.Logger
	sessions  *SessionRegistry
	ingest    *IngestManager

	done chan struct{}
}

// New parses args, loads configuration, and starts the process. The
// returned bool is false if startup failed (the reason is already
// printed or logged); the caller should exit nonzero in that case.
func New(args []string) (*Core, bool) {
	parser, err := kong.New(&cli,
		kong.Description("corerelay "+version),
		kong.UsageOnError(),
	)
	if err != nil {
		panic(err)
	}

	_, err = parser.Parse(args)
	parser.FatalIfErrorf(err)

	if cli.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	c := &Core{
		ctx:       ctx,
		ctxCancel: ctxCancel,
		confPath:  cli.Confpath,
		sessions:  NewSessionRegistry(),
		done:      make(chan struct{}),
	}

	cfg, err := conf.Load(cli.Confpath)
	if err != nil {
		fmt.Printf("ERR: %s\n", err)
		return nil, false
	}
	c.confMgr = conf.NewManager(cfg)

	c.logger, err = logger.New(cfg.LogLevel, cfg.LogDestinations, cfg.LogFile)
	if err != nil {
		fmt.Printf("ERR: %s\n", err)
		return nil, false
	}

	if c.confPath != "" {
		a, _ := filepath.Abs(c.confPath)
		c.Log(logger.Info, "configuration loaded from %s", a)
	} else {
		c.Log(logger.Warn, "no configuration file given, using defaults")
	}
	c.Log(logger.Info, "corerelay %s", version)

	var lb *edgepull.RoundRobinLB
	if len(cfg.Origin) > 0 {
		lb, err = edgepull.NewRoundRobinLB(cfg.Origin)
		if err != nil {
			fmt.Printf("ERR: %s\n", err)
			return nil, false
		}
	}
	c.ingest = NewIngestManager(lb)

	go c.run()

	return c, true
}

// Close stops the Core and waits for its goroutine to return.
func (c *Core) Close() {
	c.ctxCancel()
	<-c.done
}

// Wait blocks until the Core exits (on interrupt or an internal error).
func (c *Core) Wait() {
	<-c.done
}

// Log implements logger.Writer.
func (c *Core) Log(level logger.Level, format string, args ...interface{}) {
	c.logger.Log(level, format, args...)
}

// Sessions returns the process-wide WebRTC session registry.
func (c *Core) Sessions() *SessionRegistry {
	return c.sessions
}

// Conf returns the process-wide configuration manager.
func (c *Core) Conf() *conf.Manager {
	return c.confMgr
}

// Ingest returns the process-wide edge-pull ingest manager.
func (c *Core) Ingest() *IngestManager {
	return c.ingest
}

func (c *Core) run() {
	defer close(c.done)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	sweepInterval := time.Duration(c.confMgr.Current().SessionTimeout) / 2
	expireTick := time.NewTicker(sweepInterval)
	defer expireTick.Stop()

outer:
	for {
		select {
		case <-expireTick.C:
			c.sessions.ExpireAll()

		case <-interrupt:
			c.Log(logger.Info, "shutting down gracefully")
			break outer

		case <-c.ctx.Done():
			break outer
		}
	}

	c.ctxCancel()
	c.logger.Close()
}
