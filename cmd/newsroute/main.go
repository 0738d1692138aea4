package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rjardine/newsroute/internal/api"
	"github.com/rjardine/newsroute/internal/archive"
	"github.com/rjardine/newsroute/internal/config"
	"github.com/rjardine/newsroute/internal/dispatch"
	"github.com/rjardine/newsroute/internal/events"
	"github.com/rjardine/newsroute/internal/ingest"
	"github.com/rjardine/newsroute/internal/log"
	"github.com/rjardine/newsroute/internal/routing"
	"github.com/rjardine/newsroute/internal/store"
	"github.com/rjardine/newsroute/internal/tui"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "scheme":
		return runSchemeNoun(args)
	case "provider":
		return runProviderNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "watch":
		return runWatch(args)
	case "version", "--version":
		fmt.Printf("newsroute %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`newsroute - Ingest routing engine for newsroom content

Usage:
  newsroute <noun> <action> [flags]

Core Resources (Nouns):
  system    Service lifecycle and health
  scheme    Routing scheme configuration
  provider  Ingest provider state

System Commands:
  system start      Start the routing service in foreground
  system status     Show config, database, and scheme readiness
  system watch      Real-time provider monitoring TUI

Scheme Commands:
  scheme check      Validate scheme files and print the set fingerprint
  scheme show       Print one resolved scheme
  scheme list       List schemes stored in the database

Provider Commands:
  provider list     List ingest providers and their idle state

General:
  version           Show version information
  help              Show this help message

Use 'newsroute <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: newsroute system start [--config PATH]")
			fmt.Println("Start the routing service in the foreground.")
			return 0
		}
		return runStart(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: newsroute system status [--config PATH] [--json]")
			fmt.Println("Show config, database, and scheme readiness.")
			return 0
		}
		return runStatus(actionArgs)
	case "watch":
		if hasHelpFlag(actionArgs) {
			printWatchHelp()
			return 0
		}
		return runWatch(actionArgs)
	case "help":
		printSystemNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runSchemeNoun(args []string) int {
	if len(args) < 1 {
		printSchemeNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSchemeNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: newsroute scheme check [--config PATH] [--json]")
			fmt.Println("Validate scheme and filter files and print the set fingerprint.")
			return 0
		}
		return runSchemeCheck(actionArgs)
	case "show":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: newsroute scheme show <name> [--config PATH] [--json]")
			fmt.Println("Print one resolved scheme from the configured scheme files.")
			return 0
		}
		return runSchemeShow(actionArgs)
	case "list":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: newsroute scheme list [--config PATH] [--json]")
			fmt.Println("List schemes stored in the database.")
			return 0
		}
		return runSchemeList(actionArgs)
	case "help":
		printSchemeNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown scheme action: %s\n", action)
		return 1
	}
}

func runProviderNoun(args []string) int {
	if len(args) < 1 {
		printProviderNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printProviderNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: newsroute provider list [--config PATH] [--json]")
			fmt.Println("List ingest providers and their idle state.")
			return 0
		}
		return runProviderList(actionArgs)
	case "help":
		printProviderNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown provider action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: newsroute system <action>")
	fmt.Fprintln(w, "Actions: start, status, watch")
}

func printSchemeNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: newsroute scheme <action> [flags]")
	fmt.Fprintln(w, "Actions: check, show, list")
}

func printProviderNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: newsroute provider <action> [flags]")
	fmt.Fprintln(w, "Actions: list")
}

func printWatchHelp() {
	fmt.Println("Usage: newsroute system watch [flags]")
	fmt.Println()
	fmt.Println("Real-time provider monitoring TUI.")
	fmt.Println("Shows provider idle state and the recent routing feed.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --api-url URL    Service API URL (default: http://localhost:8099)")
	fmt.Println("  --api-key KEY    API Bearer Token (or NEWSROUTE_API_KEY env var)")
	fmt.Println()
	fmt.Println("Keybindings:")
	fmt.Println("  q, Ctrl+C        Quit")
	fmt.Println("  ↑/↓, k/j         Navigate providers")
}

// --- CONFIG RESOLUTION ---

func loadConfigAt(configPath string) (*config.Config, string, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			return nil, "", err
		}
		configPath = discovered
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}

	configDir := configPath
	if stat, statErr := os.Stat(configDir); statErr != nil || !stat.IsDir() {
		configDir = filepath.Dir(configPath)
	}
	return cfg, configDir, nil
}

func schemesDirFor(cfg *config.Config, configDir string) string {
	if cfg.Routing.SchemesDir != "" {
		return cfg.Routing.SchemesDir
	}
	return filepath.Join(configDir, "schemes")
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, configDir, err := loadConfigAt(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("newsroute starting", "version", version, "config", configDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.Path, "error", err)
		return 1
	}
	defer st.Close()
	logger.Info("database opened", "path", cfg.Storage.Path)

	set, err := routing.LoadSchemes(schemesDirFor(cfg, configDir))
	if err != nil {
		logger.Error("failed to load routing schemes", "error", err)
		return 1
	}
	if err := syncSchemes(ctx, st, set); err != nil {
		logger.Error("failed to store routing schemes", "error", err)
		return 1
	}
	logger.Info("routing schemes loaded", "count", len(set.Schemes), "fingerprint", set.Fingerprint)

	filters, err := routing.LoadFilters(filepath.Join(configDir, "filters.yaml"))
	if err != nil {
		logger.Error("failed to load content filters", "error", err)
		return 1
	}
	logger.Info("content filters loaded", "count", filters.Len())

	fsArchive, err := archive.NewFS(cfg.Storage.ArchiveDir)
	if err != nil {
		logger.Error("failed to initialize archive", "dir", cfg.Storage.ArchiveDir, "error", err)
		return 1
	}

	hub := events.NewHub(256)
	matcher := routing.NewMatcher(filters)
	dispatcher := dispatch.New(
		archive.NewStaticDesks(cfg.Routing.Desks),
		archive.NewMacros(),
		fsArchive,
		cfg.Routing.DispatchWorkers,
	)
	pipeline := ingest.NewPipeline(st, matcher, dispatcher, st, hub)

	guard := ingest.NewRemovalGuard(st)
	if err := guard.Refresh(ctx); err != nil {
		logger.Warn("removal guard refresh failed", "error", err)
	}
	go refreshGuardOnProviderChange(ctx, guard, hub, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	monitor := ingest.NewIdleMonitor(st, hub, cfg.Idle.CheckInterval)
	go func() {
		if err := monitor.Start(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("idle monitor: %w", err)
		}
	}()

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
		}, st, st, st, matcher, pipeline, hub, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("newsroute running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("newsroute stopped")
	return 0
}

// syncSchemes upserts file-defined schemes into the database, preserving the
// ID of any scheme already stored under the same name.
func syncSchemes(ctx context.Context, st *store.Store, set *routing.Set) error {
	for _, name := range set.Names() {
		scheme := set.Schemes[name]
		if existing, err := st.GetSchemeByName(ctx, name); err == nil {
			scheme.ID = existing.ID
		}
		if err := st.SaveScheme(ctx, scheme); err != nil {
			return fmt.Errorf("scheme %q: %w", name, err)
		}
	}
	return nil
}

func refreshGuardOnProviderChange(ctx context.Context, guard *ingest.RemovalGuard, hub *events.Hub, logger *slog.Logger) {
	ch, cancel := hub.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type != events.TypeProviderUpdated {
				continue
			}
			if err := guard.Refresh(ctx); err != nil {
				logger.Warn("removal guard refresh failed", "error", err)
			}
		}
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	type statusReport struct {
		ConfigOK    bool   `json:"config_ok"`
		ConfigError string `json:"config_error,omitempty"`
		DBOK        bool   `json:"db_ok"`
		DBError     string `json:"db_error,omitempty"`
		Schemes     int    `json:"schemes"`
		Providers   int    `json:"providers"`
		Fingerprint string `json:"fingerprint,omitempty"`
	}
	report := statusReport{}

	cfg, configDir, err := loadConfigAt(*configPath)
	if err != nil {
		report.ConfigError = err.Error()
	} else {
		report.ConfigOK = true

		if set, loadErr := routing.LoadSchemes(schemesDirFor(cfg, configDir)); loadErr == nil {
			report.Fingerprint = set.Fingerprint
		}

		ctx := context.Background()
		st, openErr := store.Open(ctx, cfg.Storage.Path)
		if openErr != nil {
			report.DBError = openErr.Error()
		} else {
			defer st.Close()
			report.DBOK = true
			if schemes, listErr := st.ListSchemes(ctx); listErr == nil {
				report.Schemes = len(schemes)
			}
			if providers, listErr := st.ListProviders(ctx); listErr == nil {
				report.Providers = len(providers)
			}
		}
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("config:    %s\n", checkMark(report.ConfigOK, report.ConfigError))
		fmt.Printf("database:  %s\n", checkMark(report.DBOK, report.DBError))
		fmt.Printf("schemes:   %d\n", report.Schemes)
		fmt.Printf("providers: %d\n", report.Providers)
		if report.Fingerprint != "" {
			fmt.Printf("scheme set: %s\n", report.Fingerprint)
		}
	}

	if !report.ConfigOK || !report.DBOK {
		return 1
	}
	return 0
}

func checkMark(ok bool, errMsg string) string {
	if ok {
		return "OK"
	}
	return "FAIL (" + errMsg + ")"
}

func runSchemeCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, configDir, err := loadConfigAt(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	set, err := routing.LoadSchemes(schemesDirFor(cfg, configDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scheme check FAILED: %v\n", err)
		return 1
	}

	filters, err := routing.LoadFilters(filepath.Join(configDir, "filters.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Filter check FAILED: %v\n", err)
		return 1
	}

	if *jsonOut {
		out := map[string]any{
			"schemes":     set.Names(),
			"filters":     filters.Len(),
			"fingerprint": set.Fingerprint,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("Schemes: %d (%s)\n", len(set.Schemes), strings.Join(set.Names(), ", "))
	fmt.Printf("Filters: %d\n", filters.Len())
	fmt.Printf("Fingerprint: %s\n", set.Fingerprint)
	fmt.Println("Status: scheme check PASSED.")
	return 0
}

func runSchemeShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")

	var name string
	var remaining []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") && name == "" {
			name = arg
		} else {
			remaining = append(remaining, arg)
		}
	}
	if err := fs.Parse(remaining); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if name == "" {
		fmt.Fprintln(os.Stderr, "Usage: newsroute scheme show <name> [--config PATH] [--json]")
		return 1
	}

	cfg, configDir, err := loadConfigAt(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	set, err := routing.LoadSchemes(schemesDirFor(cfg, configDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load schemes: %v\n", err)
		return 1
	}

	scheme, ok := set.Schemes[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown scheme: %s\n", name)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(scheme, "", "  ")
		fmt.Println(string(data))
	} else {
		data, _ := yaml.Marshal(scheme)
		fmt.Print(string(data))
	}
	return 0
}

func runSchemeList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, _, err := loadConfigAt(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer st.Close()

	schemes, err := st.ListSchemes(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list schemes: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(schemes, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	for _, scheme := range schemes {
		fmt.Printf("%s  %s  (%d rules)\n", scheme.ID, scheme.Name, len(scheme.Rules))
	}
	return 0
}

func runProviderList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, _, err := loadConfigAt(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Storage.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer st.Close()

	providers, err := st.ListProviders(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list providers: %v\n", err)
		return 1
	}

	idle := ingest.IdleProviders(providers, time.Now())

	if *jsonOut {
		type providerReport struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			SchemeID string `json:"scheme_id,omitempty"`
			Closed   bool   `json:"closed"`
			Idle     bool   `json:"idle"`
		}
		idleSet := make(map[string]bool, len(idle))
		for _, p := range idle {
			idleSet[p.ID] = true
		}
		reports := make([]providerReport, 0, len(providers))
		for _, p := range providers {
			reports = append(reports, providerReport{
				ID:       p.ID,
				Name:     p.Name,
				SchemeID: p.SchemeID,
				Closed:   p.IsClosed,
				Idle:     idleSet[p.ID],
			})
		}
		data, _ := json.MarshalIndent(reports, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	idleSet := make(map[string]bool, len(idle))
	for _, p := range idle {
		idleSet[p.ID] = true
	}
	for _, p := range providers {
		state := "active"
		if p.IsClosed {
			state = "closed"
		} else if idleSet[p.ID] {
			state = "idle"
		}
		fmt.Printf("%s  %-20s  %s\n", p.ID, p.Name, state)
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://localhost:8099", "Service API URL")
	apiKey := fs.String("api-key", os.Getenv("NEWSROUTE_API_KEY"), "API Bearer Token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API key required. Use --api-key or NEWSROUTE_API_KEY env var.")
		return 1
	}

	if err := tui.Run(*apiURL, *apiKey); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}
