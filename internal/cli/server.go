package cli

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exam-bot/internal/app"
	"exam-bot/internal/config"
	"exam-bot/internal/infra/blob"
	"exam-bot/internal/infra/memory"
	redisstore "exam-bot/internal/infra/redis"
	transport "exam-bot/internal/transport/http"
	"exam-bot/internal/transport/telegram"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the Telegram bot and the WebSocket gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	blobs, err := blob.NewLocalStore(cfg.Media.Dir)
	if err != nil {
		return err
	}

	var conversations app.ConversationRepository
	if st.redis != nil {
		conversations = redisstore.NewConversationStore(st.redis, cfg.Redis.Prefix, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		conversations = memory.NewConversationStore()
	}

	if cfg.Admin.ID == 0 {
		log.Printf("admin id not configured, question authoring is disabled")
	}

	catalog := make(app.Catalog, 0, len(cfg.Subjects))
	for _, s := range cfg.Subjects {
		catalog = append(catalog, app.SubjectInfo{Name: s.Name, Title: s.Title})
	}
	dispatcher := app.NewDispatcher(conversations, st.store, blobs, app.Options{
		AdminID:  cfg.Admin.ID,
		Subjects: catalog,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	botDone := make(chan struct{})
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, dispatcher, telegram.Options{
			Debug:   cfg.Telegram.Debug,
			Timeout: cfg.Telegram.Timeout,
			Workers: cfg.Telegram.Workers,
		})
		if err != nil {
			return err
		}
		go func() {
			defer close(botDone)
			if err := bot.Run(runCtx); err != nil {
				log.Printf("telegram bot stopped: %v", err)
			}
		}()
	} else {
		log.Printf("telegram token not configured, running the http gateway only")
		close(botDone)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", transport.Healthz)
	if cfg.Server.WSToken != "" {
		mux.HandleFunc("/ws", transport.NewWSHandler(dispatcher, cfg.Server.WSToken).ServeWS)
	} else {
		log.Printf("ws token not configured, websocket gateway disabled")
	}

	addr := net.JoinHostPort(cfg.Server.Host, finalPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting exam bot gateway on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down...")
	}

	cancel()
	<-botDone

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
