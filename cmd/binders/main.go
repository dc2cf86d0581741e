// Package main is the binders CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hyperjump/binders/internal/cli"
	"github.com/hyperjump/binders/internal/config"
	"github.com/hyperjump/binders/internal/editor"
	"github.com/hyperjump/binders/internal/keyword"
	"github.com/hyperjump/binders/internal/migrate"
	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/search"
	"github.com/hyperjump/binders/internal/server"
	"github.com/hyperjump/binders/internal/storage"
	"github.com/hyperjump/binders/internal/watcher"
	"github.com/hyperjump/binders/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/binders/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if it exists, and a missing default file yields the built-in
// defaults. Returns the config and the path that was loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				cfg, err := config.Load(fallback)
				if err != nil {
					return nil, "", err
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command func(args []string, stdout io.Writer) error

var commands = map[string]command{
	"server":  runServer,
	"create":  runCreate,
	"import":  runImport,
	"get":     runGet,
	"list":    runList,
	"log":     runLog,
	"patch":   runPatch,
	"delete":  runDelete,
	"search":  runSearch,
	"status":  runStatus,
	"reindex": runReindex,
	"upgrade": runUpgrade,
	"watch":   runWatch,
}

// usageError marks errors caused by bad arguments; run prints usage after them.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}
	name := args[0]
	switch name {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "binders version %s (format %s)\n", version, models.CurrentBindersVersion)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", name)
		printUsage(stderr)
		return 1
	}
	if err := cmd(args[1:], stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "Run 'binders help' for usage.\n")
			return 2
		}
		return 1
	}
	return 0
}

// commonFlags are shared by commands that open the local store.
type commonFlags struct {
	configPath *string
	debug      *bool
	output     *string
}

func newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs, commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
		output:     fs.String("output", "text", "output format: text or json"),
	}
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(reorderArgs(args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	return nil
}

// reorderArgs moves flags that appear after positional arguments to the front so
// that flag.Parse sees them ("binders get b1 --output json").
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' && a != "-" {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			return append(reordered, args[:i]...)
		}
	}
	return args
}

// Components holds initialized services.
type Components struct {
	Config       *config.Config
	Logger       *zap.Logger
	Storage      storage.Storage
	KeywordIndex keyword.KeywordIndex
	Engine       *search.Engine
	Editor       *editor.Service
}

func (c *Components) Close() {
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}
	engine := search.NewEngine(store, keywordIndex, &cfg.Search,
		search.WithLogger(logger),
		search.WithSpellChecker(keyword.NewSpellChecker(keywordIndex)),
	)
	svc := editor.New(store, keywordIndex, engine, cfg.Editor,
		editor.WithLogger(logger),
		editor.WithUsagePaths(append(storage.DatabaseFiles(cfg.Storage.DatabasePath), cfg.Storage.BleveIndexPath)...),
	)
	return &Components{
		Config:       cfg,
		Logger:       logger,
		Storage:      store,
		KeywordIndex: keywordIndex,
		Engine:       engine,
		Editor:       svc,
	}, nil
}

// open loads config and initializes components for a one-shot command.
func open(flags commonFlags) (*Components, cli.OutputFormat, error) {
	format, err := cli.ParseFormat(*flags.output)
	if err != nil {
		return nil, "", usagef("%v", err)
	}
	cfg, _, err := loadConfig(*flags.configPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *flags.debug)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create logger: %w", err)
	}
	c, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, "", err
	}
	return c, format, nil
}

func runServer(args []string, _ io.Writer) error {
	fs, flags := newFlagSet("server")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, resolvedConfigPath, err := loadConfig(*flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *flags.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", debugMode))

	c, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exts := cfg.Watch.Extensions
	watchSvc := watcher.New(
		inboxHandler(c.Editor, exts),
		exts,
		cfg.Watch.RecursiveOrDefault(),
		watcher.WithLogger(logger),
	)
	if err := watchSvc.Start(ctx, cfg.Watch.Directories...); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watchSvc.Stop()
	go watchSvc.SyncExisting()

	srv := server.NewServer(c.Editor, &cfg.Server, logger, watchSvc, resolvedConfigPath, cfg)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// inboxHandler connects watcher events to the editor service.
func inboxHandler(svc *editor.Service, exts []string) watcher.Handler {
	return watcher.HandlerFuncs{
		Import: func(ctx context.Context, path string) error {
			_, err := svc.ImportFile(ctx, path, exts)
			return err
		},
		Remove: func(ctx context.Context, path string) error {
			_, err := svc.RemoveFile(ctx, path)
			return err
		},
	}
}

func runCreate(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("create")
	id := fs.String("id", "", "binder id (generated when empty)")
	lang := fs.String("lang", "en", "language code (ISO 639-1)")
	from := fs.String("from", "", "plain text file split into chunks at blank lines")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usagef("usage: binders create [flags] <title> [paragraph...]")
	}
	if *from != "" && fs.NArg() > 1 {
		return usagef("--from cannot be combined with paragraph arguments")
	}
	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()

	var rec *models.BinderRecord
	if *from != "" {
		text, readErr := os.ReadFile(*from)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", *from, readErr)
		}
		rec, err = c.Editor.CreateFromText(context.Background(), *id, *lang, fs.Arg(0), string(text))
	} else {
		var chunks [][]string
		for _, p := range fs.Args()[1:] {
			chunks = append(chunks, []string{p})
		}
		rec, err = c.Editor.Create(context.Background(), *id, *lang, fs.Arg(0), chunks...)
	}
	if err != nil {
		return err
	}
	return cli.WriteBinder(stdout, rec, format)
}

func runImport(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("import")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usagef("usage: binders import [flags] <file-or-directory>")
	}
	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := context.Background()
	if info.IsDir() {
		n, err := c.Editor.ImportDirectory(ctx, path, c.Config.Watch.Extensions)
		if err != nil {
			return fmt.Errorf("imported %d file(s) before failing: %w", n, err)
		}
		if format == cli.OutputJSON {
			return cli.WriteJSON(stdout, map[string]int{"imported": n})
		}
		fmt.Fprintf(stdout, "Imported %d file(s) from %s\n", n, path)
		return nil
	}
	// A single file is imported whatever its extension.
	res, err := c.Editor.ImportFile(ctx, path, nil)
	if err != nil {
		return err
	}
	return cli.WriteImport(stdout, res, format)
}

func runGet(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("get")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("usage: binders get [flags] <binder-id>")
	}
	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	rec, err := c.Editor.Get(context.Background(), fs.Arg(0))
	if err != nil {
		return err
	}
	return cli.WriteBinder(stdout, rec, format)
}

func runList(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("list")
	offset := fs.Int("offset", 0, "skip this many binders")
	limit := fs.Int("limit", 50, "maximum binders to list")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	list, err := c.Editor.List(context.Background(), *offset, *limit)
	if err != nil {
		return err
	}
	if format == cli.OutputJSON {
		if list == nil {
			list = []models.BinderSummary{}
		}
		return cli.WriteJSON(stdout, list)
	}
	for _, s := range list {
		fmt.Fprintf(stdout, "%-40s  r%-4d  %3d chunks  %s\n", s.ID, s.Revision, s.Chunks, s.Title)
	}
	return nil
}

func runLog(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("log")
	since := fs.Uint64("since", 0, "only entries with a version above this")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("usage: binders log [flags] <binder-id>")
	}
	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	entries, err := c.Editor.Log(context.Background(), fs.Arg(0), *since)
	if err != nil {
		return err
	}
	return cli.WriteLog(stdout, entries, format)
}

// readPatchRequest reads a PatchRequest from path, or stdin when path is "-".
func readPatchRequest(path string, stdin io.Reader) (*editor.PatchRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var req editor.PatchRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid patch request: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid patch request: %w", err)
	}
	return &req, nil
}

func runPatch(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("patch")
	revision := fs.Int64("revision", 0, "expected stored revision (overrides the request; 0 keeps it)")
	noTrack := fs.Bool("no-track", false, "do not log the applied patches")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return usagef("usage: binders patch [flags] <binder-id> <request.json|->")
	}
	req, err := readPatchRequest(fs.Arg(1), os.Stdin)
	if err != nil {
		return err
	}
	if *revision > 0 {
		req.Revision = *revision
	}
	if *noTrack {
		off := false
		req.TrackChanges = &off
	}
	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	rec, err := c.Editor.ApplyOps(context.Background(), fs.Arg(0), *req)
	if err != nil {
		return err
	}
	return cli.WriteBinder(stdout, rec, format)
}

func runDelete(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("delete")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("usage: binders delete [flags] <binder-id>")
	}
	c, _, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.Editor.Delete(context.Background(), fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Binder deleted: %s\n", fs.Arg(0))
	return nil
}

func runReindex(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("reindex")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	c, _, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	n, err := c.Editor.Reindex(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Reindexed %d binder(s)\n", n)
	return nil
}

// buildSearchQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("search")
	serverURL := fs.String("server", "", "server URL (empty = open the local store)")
	limit := fs.Int("limit", 10, "number of results")
	offset := fs.Int("offset", 0, "skip this many results")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	lang := fs.String("lang", "", "only binders with this language code")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	query := &models.SearchQuery{
		Query:        buildSearchQuery(fs.Args()),
		Limit:        *limit,
		Offset:       *offset,
		FuzzyEnabled: *fuzzy,
		Language:     *lang,
	}
	if query.Query == "" {
		return usagef("usage: binders search [flags] <query>")
	}

	if *serverURL != "" {
		format, err := cli.ParseFormat(*flags.output)
		if err != nil {
			return usagef("%v", err)
		}
		var response models.SearchResponse
		if err := postJSON(*serverURL+"/api/v1/search", query, http.StatusOK, &response); err != nil {
			return err
		}
		return cli.WriteSearchResults(stdout, &response, format)
	}

	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	response, err := c.Editor.Search(context.Background(), query)
	if err != nil {
		return err
	}
	return cli.WriteSearchResults(stdout, response, format)
}

func runStatus(args []string, stdout io.Writer) error {
	fs, flags := newFlagSet("status")
	serverURL := fs.String("server", "", "server URL (empty = open the local store)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *serverURL != "" {
		format, err := cli.ParseFormat(*flags.output)
		if err != nil {
			return usagef("%v", err)
		}
		var st editor.Status
		if err := getJSON(*serverURL+"/api/v1/status", &st); err != nil {
			return err
		}
		return cli.WriteStatus(stdout, &st, format)
	}
	c, format, err := open(flags)
	if err != nil {
		return err
	}
	defer c.Close()
	st, err := c.Editor.Status(context.Background())
	if err != nil {
		return err
	}
	return cli.WriteStatus(stdout, st, format)
}

// runUpgrade rewrites binder files in the current format without touching the store.
func runUpgrade(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("upgrade", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", defaultConfigPath, "config file path (for visual defaults)")
	inPlace := fs.Bool("w", false, "write the result back to the file instead of stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usagef("usage: binders upgrade [-w] <file>...")
	}
	defaults := migrate.DefaultVisual()
	if cfg, _, err := loadConfig(*configPath); err == nil {
		defaults = migrate.Defaults{FitBehaviour: cfg.Editor.DefaultFitBehaviour, BgColor: cfg.Editor.DefaultBgColor}
	}
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out, err := migrate.Upgrade(data, defaults)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if !*inPlace {
			if _, err := stdout.Write(append(out, '\n')); err != nil {
				return err
			}
			continue
		}
		if bytes.Equal(bytes.TrimSpace(data), out) {
			fmt.Fprintf(stdout, "%s: already current\n", path)
			continue
		}
		if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: upgraded to %s\n", path, migrate.V040)
	}
	return nil
}

func runWatch(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return usagef("usage: binders watch <add|remove|list> [path]")
	}
	sub := args[0]
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	syncExisting := fs.Bool("sync", true, "import files already in the directory")
	if err := parseFlags(fs, args[1:]); err != nil {
		return err
	}
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			return usagef("usage: binders watch add <path>")
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			return err
		}
		body := map[string]any{"path": path, "sync": *syncExisting}
		if err := postJSON(*serverURL+"/api/v1/watch/directories", body, http.StatusCreated, nil); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			return usagef("usage: binders watch remove <path>")
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			return err
		}
		req, err := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		if err != nil {
			return err
		}
		if err := doJSON(req, http.StatusOK, nil); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(*serverURL+"/api/v1/watch/directories", &out); err != nil {
			return err
		}
		for _, d := range out.Directories {
			fmt.Fprintln(stdout, d)
		}
	default:
		return usagef("unknown watch subcommand: %s", sub)
	}
	return nil
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func postJSON(endpoint string, body any, want int, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(req, want, out)
}

func getJSON(endpoint string, out any) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return doJSON(req, http.StatusOK, out)
}

func doJSON(req *http.Request, want int, out any) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `binders - chunked document store with a patch log

Usage:
  binders server [flags]                       Start the HTTP server and inbox watcher
  binders create [flags] <title> [para...]     Create a binder, one chunk per paragraph (--from splits a text file)
  binders import [flags] <file-or-directory>   Import binder JSON (0.3.0 or 0.4.0)
  binders get [flags] <id>                     Show a binder
  binders list [flags]                         List binders
  binders log [flags] <id>                     Show a binder's change log
  binders patch [flags] <id> <request.json|->  Apply a batch of patch operations
  binders delete [flags] <id>                  Delete a binder
  binders search [flags] <query>               Search titles and paragraphs
  binders status [flags]                       Show store and index counts
  binders reindex [flags]                      Rebuild the search index from the store
  binders upgrade [-w] <file>...               Rewrite binder files in the current format
  binders watch <add|remove|list> [path]       Manage inbox directories of a running server
  binders version                              Show version
  binders help                                 Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/binders/config.yaml)
  --debug            Enable debug logging
  --output string    Output format: text or json (default: text)

Patch requests are JSON:
  {"revision": 3, "operations": [
    {"op": "inject", "chunkIndex": 1},
    {"op": "edit", "chunkIndex": 1, "paragraphs": ["New paragraph"]}]}
  Operations: text, inject, merge, timestamp, log, edit.

Examples:
  binders import ./exports
  binders get 4f1c... --output json
  binders log --since 10 4f1c...
  echo '{"operations":[{"op":"merge","chunkIndex":2,"mergeUp":true}]}' | binders patch 4f1c... -
  binders search --fuzzy pmup
  binders upgrade -w legacy.json
  binders watch add ~/binders/inbox`)
}
