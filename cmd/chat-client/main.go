package main

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"
	"github.com/EzRa021/Muhu-voice-app/internal/blobstore"
	"github.com/EzRa021/Muhu-voice-app/internal/boot"
	"github.com/EzRa021/Muhu-voice-app/internal/handlers"
	"github.com/EzRa021/Muhu-voice-app/internal/identity"
	"github.com/EzRa021/Muhu-voice-app/internal/outbox"
	"github.com/EzRa021/Muhu-voice-app/internal/pipeline"
	"github.com/EzRa021/Muhu-voice-app/internal/profilecache"
	"github.com/EzRa021/Muhu-voice-app/internal/relay"
	"github.com/EzRa021/Muhu-voice-app/internal/remote/memory"
	"github.com/EzRa021/Muhu-voice-app/internal/service/chat"
)

type Template struct {
	templates *template.Template
	watcher   *fsnotify.Watcher
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// Watch reloads the view templates on change; dev only.
func (t *Template) Watch() {
	var err error

	t.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-t.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					log.Infof("reloading templates: %s", event.Name)
					t.templates = template.Must(template.ParseGlob("ui/views/*.html"))
				}
			case err, ok := <-t.watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watcher: %+v", err)
			}
		}
	}()

	if err := t.watcher.Add("./ui/views"); err != nil {
		log.Fatalf("watcher: %+v", err)
	}
}

func (t *Template) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
}

func NewTemplate() *Template {
	return &Template{
		templates: template.Must(template.ParseGlob("ui/views/*.html")),
	}
}

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	// collaborators; the memory store stands in for the hosted realtime
	// database in local mode
	store := memory.New()

	cache, err := profilecache.New()
	if err != nil {
		log.Fatalf("profile cache: %+v", err)
	}
	defer cache.Close()

	blobs, err := blobstore.New(config)
	if err != nil {
		log.Fatalf("blobstore: %+v", err)
	}

	ob, err := outbox.Open(config.UserID, config)
	if err != nil {
		log.Fatalf("outbox: %+v", err)
	}
	defer ob.Close()

	// delivery core
	clk := clock.New()
	monitor := relay.NewMonitor(config, clk)
	defer monitor.Close()

	languages := chat.NewLanguages(store, cache)
	feed := chat.NewFeed()
	deliveries := pipeline.New(ob, monitor, store, languages, feed, config, clk)
	resync := pipeline.NewResync(ob, monitor, deliveries)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go resync.Run(ctx)
	monitor.Start()

	chatService := chat.New(store, blobs, languages, feed, deliveries)
	sessions := identity.New(config)

	server := echo.New()
	server.Use(middleware.BodyLimit("100M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("muhu_chat"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	server.Static("/static", "ui/static")

	t := NewTemplate()
	defer t.Close()
	if config.IsDevelopment() {
		t.Watch()
	}
	server.Renderer = t

	server.GET("/", func(c echo.Context) error {
		return c.Render(http.StatusOK, "app.html", map[string]any{
			"ConnectionState": monitor.State().String(),
		})
	})

	api := server.Group("/api")
	api.POST("/chats/:chatId/messages", handlers.SendMessage(chatService, sessions))
	api.POST("/chats/:chatId/audio", handlers.SendAudioMessage(chatService, sessions))
	api.GET("/chats/:chatId/messages", handlers.ListMessages(chatService, sessions))
	api.GET("/chats/:chatId/feed", handlers.ListFeed(chatService, sessions))
	api.POST("/chats/:chatId/read", handlers.MarkChatRead(chatService, sessions))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		server.Logger.Fatal(err)
	}
}
