package telegram_webhook

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jdelaire/inferbot/core"
)

const (
	DefaultPath      = "/webhook"
	defaultQueueSize = 64
	defaultWorkers   = 4
	secretHeader     = "X-Telegram-Bot-Api-Secret-Token"
	shutdownTimeout  = 5 * time.Second
)

// Config holds webhook server settings.
type Config struct {
	Addr      string
	Path      string
	Secret    string
	QueueSize int
	Workers   int
}

// Server accepts Telegram updates pushed over HTTP. Each request is decoded,
// queued and acknowledged immediately; a fixed pool of workers dispatches
// queued updates.
type Server struct {
	cfg     Config
	handler core.UpdateHandler
	logger  *slog.Logger
	app     *fiber.App

	mu     sync.RWMutex
	queue  chan tgbotapi.Update
	closed bool
	wg     sync.WaitGroup
}

// New creates a webhook server.
func New(cfg Config, handler core.UpdateHandler, logger *slog.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		queue:   make(chan tgbotapi.Update, cfg.QueueSize),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           30 * time.Second,
		BodyLimit:             core.MaxUpdateBytes,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger(logger))

	app.Get("/", s.alive)
	app.Post(cfg.Path, s.receive)

	s.app = app
	return s
}

// App exposes the fiber application (for testing).
func (s *Server) App() *fiber.App { return s.app }

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the workers and the HTTP server on ln until ctx is cancelled,
// then stops accepting requests and waits for the workers to exit.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.work(ctx)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()
	s.logger.Info("webhook server listening", "addr", ln.Addr().String(), "path", s.cfg.Path)

	var serveErr error
	select {
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			s.logger.Warn("webhook shutdown", "error", err)
		}
	case serveErr = <-errCh:
	}

	s.closeQueue()
	s.wg.Wait()
	s.logger.Info("webhook server stopped")

	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}

func (s *Server) work(ctx context.Context) {
	for u := range s.queue {
		if ctx.Err() != nil {
			s.logger.Debug("update abandoned on shutdown", "update_id", u.UpdateID)
			continue
		}
		res := s.handler(ctx, u)
		s.logger.Debug("update handled", "update_id", u.UpdateID, "result", res.String())
	}
}

// enqueue hands u to the workers without blocking.
func (s *Server) enqueue(u tgbotapi.Update) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.queue <- u:
		return true
	default:
		return false
	}
}

func (s *Server) closeQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.queue)
	}
}

func (s *Server) alive(c *fiber.Ctx) error {
	return c.SendString("alive")
}

func (s *Server) receive(c *fiber.Ctx) error {
	if s.cfg.Secret != "" {
		got := c.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.Secret)) != 1 {
			s.logger.Warn("webhook rejected: bad secret token", "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid secret token"})
		}
	}

	u, err := core.DecodeUpdate(c.Body())
	if err != nil {
		s.logger.Warn("malformed update", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed update"})
	}

	if !s.enqueue(u) {
		s.logger.Warn("update queue full", "update_id", u.UpdateID)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "busy"})
	}

	return c.SendString("ok")
}

var _ core.Receiver = (*Server)(nil)
