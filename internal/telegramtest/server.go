// Package telegramtest runs a fake Telegram Bot API for tests.
package telegramtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotUsername is the username answered by getMe.
const BotUsername = "test_bot"

// Call is one Bot API request seen by the server.
type Call struct {
	Token  string
	Method string
	Form   url.Values
}

// HandlerFunc answers one method. A non-nil error is returned to the client
// as an ok=false response carrying the error text as description.
type HandlerFunc func(form url.Values) (any, error)

// Server is an httptest server speaking the Bot API's form-encoded protocol.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	handlers map[string]HandlerFunc
}

// NewServer starts a fake Bot API that is closed when t ends. getMe,
// sendMessage and getUpdates have working defaults; other methods answer
// true.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{handlers: make(map[string]HandlerFunc)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle overrides the reply for method.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = fn
}

// Endpoint is the API endpoint format expected by tgbotapi.
func (s *Server) Endpoint() string {
	return s.URL + "/bot%s/%s"
}

// Bot returns a client bound to this server.
func (s *Server) Bot(t testing.TB, token string) *tgbotapi.BotAPI {
	t.Helper()
	bot, err := tgbotapi.NewBotAPIWithClient(token, s.Endpoint(), s.Client())
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	return bot
}

// Calls returns the recorded requests for method, or all requests when
// method is empty.
func (s *Server) Calls(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Call
	for _, c := range s.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	token, method, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/bot"), "/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Token: token, Method: method, Form: r.PostForm})
	fn := s.handlers[method]
	s.mu.Unlock()

	if fn == nil {
		fn = defaultHandler(method)
	}

	w.Header().Set("Content-Type", "application/json")
	result, err := fn(r.PostForm)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"error_code":  http.StatusBadRequest,
			"description": err.Error(),
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func defaultHandler(method string) HandlerFunc {
	switch method {
	case "getMe":
		return func(url.Values) (any, error) {
			return map[string]any{"id": 1, "is_bot": true, "first_name": "Test", "username": BotUsername}, nil
		}
	case "sendMessage":
		return func(form url.Values) (any, error) {
			chatID, _ := strconv.ParseInt(form.Get("chat_id"), 10, 64)
			return map[string]any{
				"message_id": 1,
				"date":       0,
				"chat":       map[string]any{"id": chatID, "type": "private"},
				"text":       form.Get("text"),
			}, nil
		}
	case "getUpdates":
		return func(url.Values) (any, error) { return []any{}, nil }
	default:
		return func(url.Values) (any, error) { return true, nil }
	}
}
