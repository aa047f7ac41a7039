package main

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/llmconn/internal/config"
	"github.com/charmbracelet/llmconn/internal/connect"
	"github.com/charmbracelet/llmconn/internal/fetch"
	"github.com/charmbracelet/llmconn/internal/history"
	"github.com/charmbracelet/llmconn/internal/logsink"
	"github.com/charmbracelet/llmconn/internal/resolver"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// app holds the state shared by every command of one invocation.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	timeout    time.Duration
	verbose    bool
	quiet      bool
	skipSetup  bool

	logger    *log.Logger
	connector *connect.Connector
	prompts   *promptLog

	// pick asks the user for a model title; nil disables the prompt.
	pick func(ctx context.Context, titles []string) (string, error)
	// aborted is set when the user dismissed the picker.
	aborted atomic.Bool

	historyOnce sync.Once
	historyDB   *history.DB
	historyErr  error
}

func newApp(out, errOut io.Writer) *app {
	a := &app{
		out:    out,
		errOut: errOut,
	}
	if isInputTTY() && isErrTTY() {
		a.pick = pickModel
	}
	return a
}

func (a *app) setup(_ context.Context) error {
	// a missing .env is fine.
	_ = godotenv.Load()

	a.logger = log.NewWithOptions(a.errOut, log.Options{Prefix: "llmconn"})
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	if a.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return cliError{err, "Could not find settings path."}
		}
		if err := config.EnsureFile(path); err != nil {
			return cliError{err, "Could not create settings file."}
		}
		a.configPath = path
	}
	a.logger.Debug("using settings", "path", a.configPath)

	a.prompts = &promptLog{path: a.logPath}
	a.connector = connect.New(connect.Options{
		Loader:         config.FileLoader{Path: a.configPath},
		Defaults:       resolver.DefaultTitleFunc(a.defaultTitle),
		Sink:           a.prompts,
		Observer:       a.record,
		TimeoutSeconds: timeoutSeconds(a.timeout),
		Logger:         a.logger,
	})
	return nil
}

func (a *app) close() error {
	var errs []error
	if a.historyDB != nil {
		errs = append(errs, a.historyDB.Close())
	}
	return errors.Join(errs...)
}

// timeoutSeconds rounds d up to whole seconds; zero keeps the per-model
// timeouts.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func (a *app) config(ctx context.Context) (*config.Config, error) {
	cfg, err := a.connector.Config(ctx)
	if err != nil {
		return nil, explain(err)
	}
	return cfg, nil
}

func (a *app) connect(ctx context.Context, title string) (*fetch.Client, error) {
	client, err := a.connector.Connect(ctx, title)
	if aerr := a.pickAborted(); aerr != nil {
		return nil, aerr
	}
	if err != nil {
		return nil, explain(err)
	}
	return client, nil
}

func (a *app) resolve(ctx context.Context, title string) (config.Model, error) {
	model, err := a.connector.Resolve(ctx, title)
	if aerr := a.pickAborted(); aerr != nil {
		return config.Model{}, aerr
	}
	if err != nil {
		return config.Model{}, explain(err)
	}
	return model, nil
}

// pickAborted reports a dismissed picker. The resolver ignores errors from
// the default title lookup and would fall back to the first model.
func (a *app) pickAborted() error {
	if !a.aborted.Load() {
		return nil
	}
	return cliError{huh.ErrUserAborted, "No model picked."}
}

// defaultTitle is asked by the resolver when no title is given. An empty
// answer makes the resolver fall back to the first model.
func (a *app) defaultTitle(ctx context.Context) (string, error) {
	cfg, err := a.connector.Config(ctx)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	if cfg.DefaultModel != "" || a.pick == nil || len(cfg.Models) < 2 { //nolint:mnd
		return cfg.DefaultModel, nil
	}
	title, err := a.pick(ctx, cfg.Titles())
	if errors.Is(err, huh.ErrUserAborted) {
		a.aborted.Store(true)
	}
	return title, err
}

func (a *app) logPath() (string, error) {
	cfg, err := a.connector.Config(context.Background())
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return cfg.LogPath, nil
}

func (a *app) history(ctx context.Context) (*history.DB, error) {
	a.historyOnce.Do(func() {
		cfg, err := a.connector.Config(ctx)
		if err != nil {
			a.historyErr = err
			return
		}
		a.historyDB, a.historyErr = history.Open(cfg.HistoryPath)
	})
	if a.historyErr != nil {
		return nil, cliError{a.historyErr, "Could not open the request history."}
	}
	return a.historyDB, nil
}

// record is the observer of every client: it keeps the request history.
func (a *app) record(ex fetch.Exchange) {
	a.logger.Debug("request", "model", ex.Title, "method", ex.Method, "url", ex.URL, "status", ex.Status, "took", ex.Duration)
	db, err := a.history(context.Background())
	if err != nil {
		a.logger.Warn("could not open history", "err", err)
		return
	}
	if err := db.Record(ex); err != nil {
		a.logger.Warn("could not record request", "err", err)
	}
}

// promptLog opens the log file the first time something is written to it.
type promptLog struct {
	path func() (string, error)
	once sync.Once
	file *logsink.File
	err  error
}

var _ fetch.Sink = &promptLog{}

func (p *promptLog) open() (*logsink.File, error) {
	p.once.Do(func() {
		path, err := p.path()
		if err != nil {
			p.err = err
			return
		}
		p.file, p.err = logsink.NewFile(path)
	})
	return p.file, p.err
}

func (p *promptLog) Append(text string) error {
	f, err := p.open()
	if err != nil {
		return err
	}
	return f.Append(text) //nolint:wrapcheck
}

func (p *promptLog) AppendLine(text string) error {
	f, err := p.open()
	if err != nil {
		return err
	}
	return f.AppendLine(text) //nolint:wrapcheck
}
