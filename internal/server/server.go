package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"skillswap/internal/blob"
	"skillswap/internal/cache"
	"skillswap/internal/meetlink"
	"skillswap/internal/realtime"
	"skillswap/internal/storage"
)

// Server defines fields used in HTTP processing.
type Server struct {
	logger     *zap.SugaredLogger
	httpServer *http.Server
	h          handler

	afterShutdown []func()
}

// NewServer returns a Server wiring every endpoint over the provided store,
// blob store, realtime hub and meet link generator. Behaviour is adjusted
// via opts.
func NewServer(logger *zap.Logger, store *storage.Store, blobs *blob.Store,
	hub *realtime.Hub, links *meetlink.Generator, opts ...Option) (*Server, error) {
	sugar := logger.Sugar()

	srv := &Server{
		logger: sugar,
		h: handler{
			logger: sugar,
			store:  store,
			blobs:  blobs,
			cache:  cache.New(nil),
			hub:    hub,
			links:  links,
		},
	}

	cfg := &config{
		httpServer: &http.Server{
			Addr: "0.0.0.0:9000",
		},
		jsonHandlers: map[string]http.Handler{
			"/conversations/start": http.HandlerFunc(srv.h.conversationStart),
			"/conversations/get":   http.HandlerFunc(srv.h.conversationsByUser),
			"/messages/add":        http.HandlerFunc(srv.h.createMessage),
			"/messages/get":        http.HandlerFunc(srv.h.messagesByConversation),
			"/offers/update":       http.HandlerFunc(srv.h.updateOffer),
			"/attachments/get":     http.HandlerFunc(srv.h.attachmentsByMessage),
			"/attachments/url":     http.HandlerFunc(srv.h.attachmentURL),
			"/sessions/add":        http.HandlerFunc(srv.h.createSession),
			"/sessions/get":        http.HandlerFunc(srv.h.sessionsBySwap),
			"/sessions/start":      http.HandlerFunc(srv.h.startSession),
			"/sessions/end":        http.HandlerFunc(srv.h.endSession),
			"/sessions/cancel":     http.HandlerFunc(srv.h.cancelSession),
			"/history/add":         http.HandlerFunc(srv.h.logActivity),
			"/history/get":         http.HandlerFunc(srv.h.swapHistory),
			"/history/by-type":     http.HandlerFunc(srv.h.historyByType),
			"/history/recent":      http.HandlerFunc(srv.h.recentActivities),
			"/history/stats":       http.HandlerFunc(srv.h.activityStats),
			"/profiles/get":        http.HandlerFunc(srv.h.getProfile),
			"/profiles/update":     http.HandlerFunc(srv.h.updateProfile),
			"/timezones/get":       http.HandlerFunc(srv.h.getTimezones),
		},
		rawHandlers: map[string]http.Handler{
			"/attachments/add": http.HandlerFunc(srv.h.uploadAttachments),
			blob.PublicPath:    http.HandlerFunc(srv.h.downloadFile),
			"/ws":              http.HandlerFunc(srv.h.subscribe),
		},
	}

	for _, opt := range opts {
		opt.apply(cfg)
	}

	// the middleware options always run last so user options see the bare
	// handlers
	applyEnforcePostJson().apply(cfg)
	applyLog(logger).apply(cfg)
	registerHandlers().apply(cfg)

	srv.httpServer = cfg.httpServer
	srv.afterShutdown = cfg.afterShutdown

	return srv, nil
}

// Start calls ListenAndServe on the http.Server instance inside Server
// struct and implements graceful shutdown via goroutine waiting for signals.
// Functions registered via RegisterAfterShutdown run once the server has
// stopped accepting connections.
func (s *Server) Start() error {
	idleConnsClosed := make(chan struct{})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		s.logger.Info("Shutting down HTTP server")

		if err := s.httpServer.Shutdown(context.Background()); err != nil {
			s.logger.Errorf("srv.Shutdown: %v", err)
		}
		s.logger.Info("HTTP server is stopped")

		close(idleConnsClosed)
	}()

	s.logger.Infof("Starting HTTP server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("s.httpServer.ListenAndServe: %v", err)
	}

	<-idleConnsClosed

	for _, f := range s.afterShutdown {
		f()
	}

	return nil
}
