package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/heefoo/codexray/internal/config"
	"github.com/heefoo/codexray/internal/contextbuilder"
	"github.com/heefoo/codexray/internal/hooks"
	"github.com/heefoo/codexray/internal/indexer"
	"github.com/heefoo/codexray/internal/query"
	"github.com/heefoo/codexray/internal/store"
	"github.com/heefoo/codexray/pkg/mcp"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = initCmd(os.Args[2:])
	case "index":
		err = indexCmd(os.Args[2:])
	case "sync":
		err = syncCmd(os.Args[2:])
	case "watch":
		err = watchCmd(os.Args[2:])
	case "status":
		err = statusCmd(os.Args[2:])
	case "query":
		err = queryCmd(os.Args[2:])
	case "semantic":
		err = semanticCmd(os.Args[2:])
	case "context":
		err = contextCmd(os.Args[2:])
	case "overview":
		err = overviewCmd(os.Args[2:])
	case "hooks":
		err = hooksCmd(os.Args[2:])
	case "serve":
		err = serveCmd(os.Args[2:])
	case "reset":
		err = resetCmd(os.Args[2:])
	case "version":
		fmt.Println("codexray v0.1.0")
		return
	case "help", "-h", "--help":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "codexray: %v\n", err)
		os.Exit(1)
	}
}

// projectRoot is always the current working directory; every verb operates
// on the project that invoked it.
func projectRoot() (string, error) {
	return os.Getwd()
}

func openStore(root string) (*store.Store, *config.Config, error) {
	if !config.Initialized(root) {
		return nil, nil, fmt.Errorf("project is not initialized (run `codexray init` first)")
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	if err := config.CheckSchema(cfg); err != nil {
		return nil, nil, err
	}
	config.Validate(cfg)

	st, err := store.Open(config.DBPath(root))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return st, cfg, nil
}

func newIndexer(root string, st *store.Store, cfg *config.Config) *indexer.Indexer {
	maxSize := int64(cfg.MaxFileSize)
	if maxSize <= 0 {
		maxSize = config.DefaultMaxFileSize
	}
	return &indexer.Indexer{
		Root:        root,
		Store:       st,
		Excludes:    cfg.Exclude,
		MaxFileSize: maxSize,
	}
}

func initCmd(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	doIndex := fs.Bool("index", false, "Run a full index immediately after creating storage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	if config.Initialized(root) {
		return fmt.Errorf("already initialized at %s", config.StorageDir(root))
	}

	cfg := config.Default(root)
	if err := cfg.Save(root); err != nil {
		return err
	}
	st, err := store.Open(config.DBPath(root))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	fmt.Printf("initialized %s\n", config.StorageDir(root))

	if *doIndex {
		idx := newIndexer(root, st, cfg)
		res, err := idx.FullIndex(context.Background(), false)
		if err != nil {
			return err
		}
		printIndexResult(res)
	}
	return nil
}

func indexCmd(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	force := fs.Bool("force", false, "Re-index every file regardless of hash")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, cfg, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	idx := newIndexer(root, st, cfg)
	res, err := idx.FullIndex(context.Background(), *force)
	if err != nil {
		return err
	}
	if !*quiet {
		printIndexResult(res)
	}
	return nil
}

func syncCmd(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, cfg, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	idx := newIndexer(root, st, cfg)
	res, err := idx.Sync(context.Background())
	if err != nil {
		return err
	}
	if !*quiet {
		printIndexResult(res)
	}
	return nil
}

func watchCmd(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, cfg, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	idx := newIndexer(root, st, cfg)
	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", root)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nstopping watch...")
		cancel()
	}()

	return idx.Watch(ctx, func(path string, err error) {
		log.Printf("watch: %s: %v", path, err)
	})
}

func statusCmd(args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, _, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("files:  %d\n", stats.FileCount)
	fmt.Printf("nodes:  %d\n", stats.NodeCount)
	fmt.Printf("edges:  %d\n", stats.EdgeCount)
	fmt.Printf("fts5:   %v\n", st.HasKeywordIndex())
	for kind, count := range stats.ByKind {
		fmt.Printf("  %-16s %d\n", kind, count)
	}
	return nil
}

func queryCmd(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Max results")
	kind := fs.String("kind", "", "Restrict results to this node kind")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: codexray query <string> [--kind] [--limit]")
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, _, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := query.New(st)
	nodes, err := eng.SearchNodes(context.Background(), strings.Join(fs.Args(), " "), *limit)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if *kind != "" && string(n.Kind) != *kind {
			continue
		}
		fmt.Printf("%-10s %-40s %s:%d\n", n.Kind, n.QualifiedName, n.FilePath, n.StartLine)
	}
	return nil
}

func semanticCmd(args []string) error {
	fs := flag.NewFlagSet("semantic", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Max results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: codexray semantic <string>")
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, _, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := query.New(st)
	nodes, err := eng.SemanticSearch(context.Background(), strings.Join(fs.Args(), " "), *limit)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		fmt.Printf("%-10s %-40s %s:%d\n", n.Kind, n.QualifiedName, n.FilePath, n.StartLine)
	}
	return nil
}

func contextCmd(args []string) error {
	fs := flag.NewFlagSet("context", flag.ExitOnError)
	maxNodes := fs.Int("max-nodes", contextbuilder.DefaultMaxNodes, "Max symbols in the bundle")
	includeCode := fs.Bool("code", true, "Include source snippets")
	format := fs.String("format", "lines", "Output shape: lines or compact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: codexray context <string>")
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, _, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	builder := &contextbuilder.Builder{Engine: query.New(st), Root: root}
	result, err := builder.Build(context.Background(), contextbuilder.Request{
		Query:       strings.Join(fs.Args(), " "),
		MaxNodes:    *maxNodes,
		IncludeCode: *includeCode,
	})
	if err != nil {
		return err
	}
	switch *format {
	case "compact":
		fmt.Print(contextbuilder.FormatCompact(result))
	case "lines":
		fmt.Print(contextbuilder.FormatLines(result))
	default:
		return fmt.Errorf("unknown -format %q, want lines or compact", *format)
	}
	return nil
}

func overviewCmd(args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, cfg, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	tree, err := st.GetFileTree(ctx)
	if err != nil {
		return err
	}
	hotspots, err := st.FindHotspots(ctx, 10)
	if err != nil {
		return err
	}

	fmt.Printf("project: %s\n", cfg.ProjectName)
	fmt.Printf("files: %d, nodes: %d, edges: %d\n\n", stats.FileCount, stats.NodeCount, stats.EdgeCount)
	fmt.Printf("directories: %d\n", len(tree))
	fmt.Println("\ntop hotspots:")
	for _, h := range hotspots {
		fmt.Printf("  %-40s in=%d out=%d\n", h.Node.QualifiedName, h.InDegree, h.OutDegree)
	}
	return nil
}

func hooksCmd(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: codexray hooks {install|remove|status}")
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}

	switch args[0] {
	case "install":
		if err := hooks.Install(root); err != nil {
			return err
		}
		fmt.Println("installed pre-commit sync hook")
	case "remove":
		if err := hooks.Remove(root); err != nil {
			return err
		}
		fmt.Println("removed pre-commit sync hook")
	case "status":
		st, err := hooks.Status(root)
		if err != nil {
			return err
		}
		fmt.Printf("installed:  %v\n", st.Installed)
		fmt.Printf("executable: %v\n", st.Executable)
	default:
		return fmt.Errorf("unknown hooks subcommand %q", args[0])
	}
	return nil
}

func serveCmd(args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, _, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	eng := query.New(st)
	builder := &contextbuilder.Builder{Engine: eng, Root: root}
	srv := mcp.New(eng, builder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return srv.ServeStdio(ctx)
}

func resetCmd(args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	st, _, err := openStore(root)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Reset(context.Background()); err != nil {
		return err
	}
	fmt.Println("index reset")
	return nil
}

func printIndexResult(res *indexer.Result) {
	fmt.Printf("files indexed: %d, skipped: %d, deleted: %d\n", res.FilesIndexed, res.FilesSkipped, res.FilesDeleted)
	fmt.Printf("nodes: %d, edges: %d\n", res.NodesCreated, res.EdgesCreated)
	if len(res.Errors) > 0 {
		fmt.Printf("errors: %d\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Printf("  %s: %v\n", e.Path, e.Err)
		}
	}
}

func printHelp() {
	fmt.Print(`codexray - local code intelligence engine

Commands:
  init [--index]                 Create .codexray/ storage, optionally run a full index
  index [--force] [--quiet]      Full index of the project tree
  sync [--quiet]                 Incremental re-index of changed files
  watch                          Watch the tree and index changes as they happen
  status                         Show index size
  query <string> [--kind] [--limit]   Keyword search
  semantic <string>              TF-IDF ranked search
  context <string>               Build a context bundle for a task description
  overview                       Project summary and top hotspots
  hooks {install|remove|status}  Manage the pre-commit sync hook
  serve                          Start the MCP server over stdio
  reset                          Drop every row, keep the schema
  version                        Show version
  help                           Show this help
`)
}
