package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaybot/pkg/channels"
	_ "relaybot/pkg/channels/autoload" // registers channel factories
	"relaybot/pkg/config"
	"relaybot/pkg/dispatch"
	"relaybot/pkg/gateway"
	"relaybot/pkg/handler"
	"relaybot/pkg/monitor"
	"relaybot/pkg/provider"
	"relaybot/pkg/provider/claude"
	"relaybot/pkg/provider/gemini"
	"relaybot/pkg/provider/openailm"
	"relaybot/pkg/router"
	"relaybot/pkg/search"
	"relaybot/pkg/store"
	"relaybot/pkg/wiki"
)

func main() {
	monitor.PrintBanner()

	// --- 0. Configuration ---
	cfg, sysCfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v\n", err)
	}
	monitor.SetupSlog(sysCfg.LogLevel)

	// --- 1. User store ---
	db, err := store.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to open user database: %v\n", err)
	}
	defer db.Close()

	users, err := store.NewUserStore(db)
	if err != nil {
		log.Fatalf("❌ Failed to init user store: %v\n", err)
	}

	// --- 2. Providers ---
	models := map[string]provider.ModelClient{
		provider.Gemini: gemini.NewClient(),
		provider.GPT:    openailm.NewClient(),
		provider.Claude: claude.NewClient(),
	}
	dispatcher := dispatch.New(
		search.NewClient(),
		models,
		sysCfg.SearchMaxResults,
		time.Duration(sysCfg.DispatchTimeoutMs)*time.Millisecond,
	)

	// --- 3. Core handler ---
	botHandler := handler.New(handler.Options{
		Users:             users,
		Router:            router.New(users),
		Dispatcher:        dispatcher,
		Wiki:              wiki.NewClient(),
		RequiredChannel:   cfg.RequiredChannel,
		MembershipTimeout: time.Duration(sysCfg.MembershipTimeoutMs) * time.Millisecond,
		LookupTimeout:     time.Duration(sysCfg.DispatchTimeoutMs) * time.Millisecond,
		WikiSummaryLimit:  sysCfg.WikiSummaryLimit,
	})

	// --- 4. Gateway assembly (Builder pattern) ---
	gw, err := gateway.NewGatewayBuilder().
		WithMonitor(monitor.NewCLIMonitor()).
		WithChannel(channels.LoadFromConfig(cfg.Channels, sysCfg)...).
		WithHandler(botHandler).
		Build()
	if err != nil {
		log.Fatalf("❌ Failed to build gateway: %v\n", err)
	}

	// --- 5. Wait for shutdown signal ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("\nReceived shutdown signal. Stopping services...")

	gw.StopAll()
	log.Println("Bye!")
}
