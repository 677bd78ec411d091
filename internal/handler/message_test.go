package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qchat/internal/chat"
	"qchat/internal/domain"
	"qchat/internal/quantum"
	"qchat/pkg/errors"
	"qchat/pkg/logger"
	"qchat/pkg/validator"
)

// In-memory repositories so handler tests exercise the full service path
// without a database.

type memSessionRepo struct {
	sessions map[string]*domain.ChatSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*domain.ChatSession{}}
}

func (r *memSessionRepo) Create(ctx context.Context, session *domain.ChatSession) error {
	r.sessions[session.SessionCode] = session
	return nil
}

func (r *memSessionRepo) FindByCode(ctx context.Context, code string) (*domain.ChatSession, error) {
	session, ok := r.sessions[code]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return session, nil
}

func (r *memSessionRepo) Update(ctx context.Context, session *domain.ChatSession) error {
	if _, ok := r.sessions[session.SessionCode]; !ok {
		return errors.ErrSessionNotFound
	}
	r.sessions[session.SessionCode] = session
	return nil
}

type memMessageRepo struct {
	messages []*domain.Message
	nextID   int64
}

func (r *memMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.nextID++
	message.ID = r.nextID
	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *memMessageRepo) Update(ctx context.Context, message *domain.Message) error {
	for i, m := range r.messages {
		if m.ID == message.ID {
			copied := *message
			r.messages[i] = &copied
			return nil
		}
	}
	return errors.ErrMessageNotFound
}

func (r *memMessageRepo) FindBySession(ctx context.Context, sessionID uuid.UUID, afterID int64) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID && !m.IsDestroyed && m.ID > afterID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memMessageRepo) FindRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Message, error) {
	var out []*domain.Message
	for i := len(r.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.messages[i]
		if m.SessionID == sessionID && !m.IsDestroyed {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memMessageRepo) FindAllBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memEventRepo struct {
	events []*domain.SecurityEvent
}

func (r *memEventRepo) Create(ctx context.Context, event *domain.SecurityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *memEventRepo) FindBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.SecurityEvent, error) {
	var out []*domain.SecurityEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].SessionID == sessionID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

type testEnv struct {
	router   *mux.Router
	sessions *memSessionRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithBits(t, 16)
}

func newTestEnvWithBits(t *testing.T, defaultBits int) *testEnv {
	t.Helper()

	sessions := newMemSessionRepo()
	gen := quantum.NewGenerator(quantum.NewRandomSource(), logger.NewNop())
	service := chat.NewService(sessions, &memMessageRepo{}, &memEventRepo{}, gen, logger.NewNop())

	val := validator.New()
	sessionHandler := NewSessionHandler(service, defaultBits, val, logger.NewNop())
	messageHandler := NewMessageHandler(service, val, logger.NewNop())

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/sessions", sessionHandler.CreateSession).Methods("POST")
	r.HandleFunc("/api/v1/sessions/join", sessionHandler.JoinSession).Methods("POST")
	r.HandleFunc("/api/v1/sessions/{code}/key", sessionHandler.GenerateKey).Methods("POST")
	r.HandleFunc("/api/v1/sessions/{code}/messages", messageHandler.SendMessage).Methods("POST")
	r.HandleFunc("/api/v1/sessions/{code}/messages", messageHandler.GetMessages).Methods("GET")
	r.HandleFunc("/api/v1/sessions/{code}/attack", messageHandler.SimulateAttack).Methods("POST")

	return &testEnv{router: r, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (e *testEnv) createSessionWithKey(t *testing.T) string {
	t.Helper()

	rec := e.do(t, "POST", "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	code := decodeResponse(t, rec)["session_code"].(string)

	rec = e.do(t, "POST", "/api/v1/sessions/"+code+"/key", map[string]interface{}{"bits": 16})
	require.Equal(t, http.StatusOK, rec.Code)
	return code
}

func TestCreateJoinAndSendFlow(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	rec := env.do(t, "POST", "/api/v1/sessions/join", map[string]interface{}{
		"session_code": code,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
		"sender":  "alice",
		"message": "hello bob",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEqual(t, "hello bob", body["encrypted_message"])

	rec = env.do(t, "GET", "/api/v1/sessions/"+code+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeResponse(t, rec)
	msgs := list["messages"].([]interface{})
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, "hello bob", first["message"])
	assert.Equal(t, "alice", first["sender"])
}

func TestJoinSessionLowercaseCodeNormalized(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	rec := env.do(t, "POST", "/api/v1/sessions/join", map[string]interface{}{
		"session_code": "  " + strings.ToLower(code) + " ",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJoinUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/v1/sessions/join", map[string]interface{}{
		"session_code": "NOPE0000",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateKeyUsesConfiguredDefaultBits(t *testing.T) {
	env := newTestEnvWithBits(t, 24)

	rec := env.do(t, "POST", "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	code := decodeResponse(t, rec)["session_code"].(string)

	rec = env.do(t, "POST", "/api/v1/sessions/"+code+"/key", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResponse(t, rec)
	assert.Equal(t, float64(24), body["key_length"])
}

func TestSendMessageWithoutKeyRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	code := decodeResponse(t, rec)["session_code"].(string)

	rec = env.do(t, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
		"sender":  "alice",
		"message": "no key yet",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageUnknownFieldRejected(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	rec := env.do(t, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
		"sender":     "alice",
		"message":    "hi",
		"surprising": true,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMessagesInvalidCursor(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	rec := env.do(t, "GET", "/api/v1/sessions/"+code+"/messages?last_message_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "GET", "/api/v1/sessions/"+code+"/messages?last_message_id=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMessagesCursorSkipsSeen(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	for _, text := range []string{"one", "two"} {
		rec := env.do(t, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
			"sender":  "alice",
			"message": text,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, "GET", "/api/v1/sessions/"+code+"/messages?last_message_id=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	msgs := decodeResponse(t, rec)["messages"].([]interface{})
	require.Len(t, msgs, 1)
	assert.Equal(t, "two", msgs[0].(map[string]interface{})["message"])
}

func TestSimulateAttackRequiresMessages(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	rec := env.do(t, "POST", "/api/v1/sessions/"+code+"/attack", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulateAttackReportsSecure(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	rec := env.do(t, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
		"sender":  "bob",
		"message": "intercept me",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "POST", "/api/v1/sessions/"+code+"/attack", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResponse(t, rec)
	assert.Equal(t, "All 1 intercepted messages remain secure", body["summary"])
	results := body["attack_results"].([]interface{})
	require.Len(t, results, 1)
}

func TestSelfDestructMessageDisappearsAfterRead(t *testing.T) {
	env := newTestEnv(t)
	code := env.createSessionWithKey(t)

	rec := env.do(t, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
		"sender":              "alice",
		"message":             "burn after reading",
		"is_self_destruct":    true,
		"self_destruct_timer": 0,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The read that marks the message read also destroys it.
	rec = env.do(t, "GET", "/api/v1/sessions/"+code+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decodeResponse(t, rec)["messages"].([]interface{})
	assert.Empty(t, msgs)

	// And it stays gone.
	rec = env.do(t, "GET", "/api/v1/sessions/"+code+"/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs = decodeResponse(t, rec)["messages"].([]interface{})
	assert.Empty(t, msgs)
}
