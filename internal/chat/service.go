// Package chat implements the session and message lifecycle around the toy
// quantum-key ciphers.
package chat

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"qchat/internal/cipher"
	"qchat/internal/domain"
	"qchat/internal/metrics"
	"qchat/internal/quantum"
	"qchat/pkg/errors"
	"qchat/pkg/logger"
)

const (
	sessionCodeLength  = 8
	sessionCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeAttempts       = 5

	// attackMessageLimit bounds how many recent messages an interception
	// simulation covers.
	attackMessageLimit = 5

	// eventTailLimit is how many recent security events analytics returns.
	eventTailLimit = 10

	// defaultDestructSeconds applies when a self-destruct message does not
	// name a timer. An explicit 0 still means destroy on first read.
	defaultDestructSeconds = 30
)

// SessionRepository persists chat sessions. Uniqueness on the session code is
// enforced by the store.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.ChatSession) error
	FindByCode(ctx context.Context, code string) (*domain.ChatSession, error)
	Update(ctx context.Context, session *domain.ChatSession) error
}

// MessageRepository persists messages, ordered by creation time.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	Update(ctx context.Context, message *domain.Message) error
	// FindBySession returns non-destroyed messages with ID greater than
	// afterID, oldest first. afterID 0 returns everything.
	FindBySession(ctx context.Context, sessionID uuid.UUID, afterID int64) ([]*domain.Message, error)
	// FindRecent returns up to limit non-destroyed messages, newest first.
	FindRecent(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.Message, error)
	// FindAllBySession returns every message including destroyed ones.
	FindAllBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.Message, error)
}

// EventRepository appends to the security audit log.
type EventRepository interface {
	Create(ctx context.Context, event *domain.SecurityEvent) error
	FindBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*domain.SecurityEvent, error)
}

// Service coordinates the chat lifecycle. Concurrent requests against the
// same session rely on the storage layer's serialization; key replacement is
// last-writer-wins by design.
type Service struct {
	sessions SessionRepository
	messages MessageRepository
	events   EventRepository
	keys     *quantum.Generator
	logger   logger.Logger
	now      func() time.Time
}

func NewService(sessions SessionRepository, messages MessageRepository, events EventRepository, keys *quantum.Generator, log logger.Logger) *Service {
	return &Service{
		sessions: sessions,
		messages: messages,
		events:   events,
		keys:     keys,
		logger:   log,
		now:      time.Now,
	}
}

// CreateSession starts a new chat with a fresh unique code and no key.
func (s *Service) CreateSession(ctx context.Context) (*domain.ChatSession, error) {
	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.ChatSession{
		ID:               uuid.New(),
		SessionCode:      code,
		EncryptionMethod: domain.MethodXOR,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}

	s.logger.Info("session created", map[string]interface{}{
		"session_code": session.SessionCode,
	})
	return session, nil
}

// JoinSession resolves an active session by code.
func (s *Service) JoinSession(ctx context.Context, code string) (*domain.ChatSession, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, errors.ErrSessionInactive
	}
	return session, nil
}

// GetSession resolves any session by code, active or not.
func (s *Service) GetSession(ctx context.Context, code string) (*domain.ChatSession, error) {
	return s.sessions.FindByCode(ctx, code)
}

// KeyTimeRemaining reports whole seconds of key validity left for a session.
func (s *Service) KeyTimeRemaining(session *domain.ChatSession) int {
	return session.KeyTimeRemaining(s.now())
}

// KeyResult is the outcome of a key generation request.
type KeyResult struct {
	Key          string                `json:"key"`
	KeyLength    int                   `json:"key_length"`
	Source       string                `json:"source"`
	Measurements []quantum.Measurement `json:"measurements,omitempty"`
	ExpiresIn    int                   `json:"expires_in"`
}

// GenerateKey replaces the session key with a freshly generated one. The old
// key is discarded, not merged; the refresh counter records the replacement.
func (s *Service) GenerateKey(ctx context.Context, code string, bits int) (*KeyResult, error) {
	if bits < 1 {
		return nil, errors.ErrInvalidBitLength
	}

	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	key, measurements := s.keys.GenerateKey(bits)

	now := s.now()
	session.QuantumKey = &key
	session.KeyGeneratedAt = &now
	session.KeyRefreshes++
	session.UpdatedAt = now

	// Record before the session update so the event counter lands in the
	// same write as the new key.
	s.recordEvent(ctx, session, domain.EventKeyGeneration,
		fmt.Sprintf("Quantum key generated with %d bits (fingerprint %s)", bits, quantum.Fingerprint(key)))

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to store generated key")
	}
	metrics.KeysGenerated.Inc()

	s.logger.Info("quantum key generated", map[string]interface{}{
		"session_code": code,
		"bits":         bits,
		"source":       s.keys.SourceName(),
		"fingerprint":  quantum.Fingerprint(key),
	})

	return &KeyResult{
		Key:          key,
		KeyLength:    len(key),
		Source:       s.keys.SourceName(),
		Measurements: measurements,
		ExpiresIn:    int(domain.KeyValidityWindow.Seconds()),
	}, nil
}

// SendMessageRequest carries one send action.
type SendMessageRequest struct {
	SessionCode      string                  `json:"session_code" validate:"required,session_code"`
	Sender           domain.Sender           `json:"sender" validate:"required"`
	Message          string                  `json:"message" validate:"required,max=4096"`
	EncryptionMethod domain.EncryptionMethod `json:"encryption_method"`
	IsSelfDestruct   bool                    `json:"is_self_destruct"`
	DestructTimer    *int                    `json:"self_destruct_timer" validate:"omitempty,min=0,max=86400"`
}

// SendMessage validates key freshness, encrypts, and persists. All domain
// rules are checked before any write: an expired key or unknown method leaves
// no message behind. The chosen method becomes the session's method tag so
// the read path decrypts with the same scheme.
func (s *Service) SendMessage(ctx context.Context, req *SendMessageRequest) (*domain.Message, error) {
	if !req.Sender.Valid() {
		return nil, errors.ErrInvalidSender
	}

	session, err := s.sessions.FindByCode(ctx, req.SessionCode)
	if err != nil {
		return nil, err
	}

	if session.Key() == "" {
		return nil, errors.ErrNoKey
	}

	now := s.now()
	if session.IsKeyExpired(now) {
		return nil, errors.ErrKeyExpired
	}

	method := req.EncryptionMethod
	if method == "" {
		method = session.EncryptionMethod
	}

	encrypted, err := cipher.Encrypt(method, req.Message, session.Key())
	if err != nil {
		return nil, err
	}

	timer := defaultDestructSeconds
	if req.DestructTimer != nil {
		timer = *req.DestructTimer
	}

	message := &domain.Message{
		SessionID:       session.ID,
		Sender:          req.Sender,
		OriginalMessage: req.Message,
		EncryptedText:   encrypted,
		IsSelfDestruct:  req.IsSelfDestruct,
		DestructTimer:   timer,
		CreatedAt:       now,
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, errors.Wrap(err, "failed to store message")
	}

	session.EncryptionMethod = method
	session.TotalMessages++
	session.UpdatedAt = now

	// Record before the session update so the event counter lands in the
	// same write as the message counters.
	s.recordEvent(ctx, session, domain.EventMessageSent,
		fmt.Sprintf("Message sent by %s using %s encryption", req.Sender, method))

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to update session counters")
	}
	metrics.MessagesSent.Inc()

	return message, nil
}

// MessageView is a message prepared for display: decrypted when possible,
// with its remaining lifetime computed on demand.
type MessageView struct {
	ID                   int64         `json:"id"`
	Sender               domain.Sender `json:"sender"`
	Message              string        `json:"message"`
	EncryptedMessage     string        `json:"encrypted_message"`
	IsSelfDestruct       bool          `json:"is_self_destruct"`
	TimeUntilDestruction *int          `json:"time_until_destruction"`
	Timestamp            time.Time     `json:"timestamp"`
}

// MessageList is the poll response.
type MessageList struct {
	Messages         []MessageView `json:"messages"`
	KeyTimeRemaining int           `json:"key_time_remaining"`
}

// GetMessages returns messages after the given cursor, evaluating
// self-destruction and read marking along the way. There is no background
// scheduler; this sweep on every read path is what enforces destruction.
func (s *Service) GetMessages(ctx context.Context, code string, afterID int64) (*MessageList, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.FindBySession(ctx, session.ID, afterID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load messages")
	}

	now := s.now()
	views := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		if msg.ReadAt == nil {
			readAt := now
			msg.ReadAt = &readAt
		}

		if msg.ShouldSelfDestruct(now) {
			msg.Destroy()
			metrics.MessagesDestroyed.Inc()
		}

		if err := s.messages.Update(ctx, msg); err != nil {
			return nil, errors.Wrap(err, "failed to update message state")
		}

		if msg.IsDestroyed {
			continue
		}

		display := msg.OriginalMessage
		if session.Key() != "" {
			display = cipher.Decrypt(session.EncryptionMethod, msg.EncryptedText, session.Key())
		}

		views = append(views, MessageView{
			ID:                   msg.ID,
			Sender:               msg.Sender,
			Message:              display,
			EncryptedMessage:     msg.EncryptedText,
			IsSelfDestruct:       msg.IsSelfDestruct,
			TimeUntilDestruction: msg.TimeUntilDestruction(now),
			Timestamp:            msg.CreatedAt,
		})
	}

	return &MessageList{
		Messages:         views,
		KeyTimeRemaining: session.KeyTimeRemaining(now),
	}, nil
}

// AttackResult pairs one message with its simulated interception report.
type AttackResult struct {
	MessageID int64               `json:"message_id"`
	Sender    domain.Sender       `json:"sender"`
	Report    cipher.AttackReport `json:"attack_result"`
}

// AttackSummary is the response of an interception simulation.
type AttackSummary struct {
	Results []AttackResult `json:"attack_results"`
	Summary string         `json:"summary"`
}

// SimulateAttack runs the interception demonstration over the most recent
// messages. Purely illustrative; no plaintext leaves this function.
func (s *Service) SimulateAttack(ctx context.Context, code string) (*AttackSummary, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.FindRecent(ctx, session.ID, attackMessageLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load messages")
	}
	if len(msgs) == 0 {
		return nil, errors.ErrNoMessages
	}

	results := make([]AttackResult, 0, len(msgs))
	for _, msg := range msgs {
		results = append(results, AttackResult{
			MessageID: msg.ID,
			Sender:    msg.Sender,
			Report:    cipher.SimulateInterception(msg.OriginalMessage, msg.EncryptedText),
		})
	}

	s.recordEvent(ctx, session, domain.EventAttackSimulation,
		"Simulated hacker attack on encrypted messages")
	session.UpdatedAt = s.now()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to update session counters")
	}
	metrics.AttacksSimulated.Inc()

	return &AttackSummary{
		Results: results,
		Summary: fmt.Sprintf("All %d intercepted messages remain secure", len(results)),
	}, nil
}

// AnalyticsReport aggregates session activity.
type AnalyticsReport struct {
	TotalMessages       int                     `json:"total_messages"`
	ActiveMessages      int                     `json:"active_messages"`
	SelfDestructCount   int                     `json:"self_destruct_messages"`
	DestroyedMessages   int                     `json:"destroyed_messages"`
	KeyRefreshes        int                     `json:"key_refreshes"`
	SecurityEventCount  int                     `json:"security_events"`
	SessionAgeHours     float64                 `json:"session_age_hours"`
	RecentEvents        []*domain.SecurityEvent `json:"recent_events"`
	EncryptionMethod    domain.EncryptionMethod `json:"encryption_method"`
	KeyTimeRemainingSec int                     `json:"key_time_remaining"`
}

// Analytics computes the dashboard view for a session.
func (s *Service) Analytics(ctx context.Context, code string) (*AnalyticsReport, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.FindAllBySession(ctx, session.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load messages")
	}

	events, err := s.events.FindBySession(ctx, session.ID, eventTailLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load security events")
	}

	report := &AnalyticsReport{
		TotalMessages:       len(msgs),
		KeyRefreshes:        session.KeyRefreshes,
		SecurityEventCount:  len(events),
		SessionAgeHours:     s.now().Sub(session.CreatedAt).Hours(),
		RecentEvents:        events,
		EncryptionMethod:    session.EncryptionMethod,
		KeyTimeRemainingSec: session.KeyTimeRemaining(s.now()),
	}

	for _, msg := range msgs {
		if msg.IsDestroyed {
			report.DestroyedMessages++
		} else {
			report.ActiveMessages++
		}
		if msg.IsSelfDestruct {
			report.SelfDestructCount++
		}
	}

	return report, nil
}

// ExportedMessage is one message in an export payload.
type ExportedMessage struct {
	Sender           domain.Sender `json:"sender"`
	Message          string        `json:"message,omitempty"`
	EncryptedMessage string        `json:"encrypted_message,omitempty"`
	Timestamp        time.Time     `json:"timestamp"`
}

// Export is a downloadable chat transcript. The key is never exported.
type Export struct {
	SessionCode      string                  `json:"session_code"`
	ExportTimestamp  time.Time               `json:"export_timestamp"`
	QuantumKey       string                  `json:"quantum_key,omitempty"`
	EncryptionMethod domain.EncryptionMethod `json:"encryption_method,omitempty"`
	Messages         []ExportedMessage       `json:"messages"`
	Filename         string                  `json:"filename"`
}

// Export formats. "decrypted" carries plaintext, "encrypted" carries
// ciphertext with the key redacted.
const (
	ExportDecrypted = "decrypted"
	ExportEncrypted = "encrypted"
)

// ExportChat builds a transcript of the surviving messages.
func (s *Service) ExportChat(ctx context.Context, code, format string) (*Export, error) {
	if format != ExportDecrypted && format != ExportEncrypted {
		return nil, errors.ErrInvalidFormat
	}

	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.FindBySession(ctx, session.ID, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load messages")
	}

	export := &Export{
		SessionCode:     session.SessionCode,
		ExportTimestamp: s.now().UTC(),
		Messages:        make([]ExportedMessage, 0, len(msgs)),
		Filename:        fmt.Sprintf("quantum_chat_%s_%s.json", session.SessionCode, format),
	}

	if format == ExportEncrypted {
		export.QuantumKey = "[REDACTED]"
		export.EncryptionMethod = session.EncryptionMethod
	}

	for _, msg := range msgs {
		exported := ExportedMessage{
			Sender:    msg.Sender,
			Timestamp: msg.CreatedAt,
		}
		if format == ExportEncrypted {
			exported.EncryptedMessage = msg.EncryptedText
		} else {
			exported.Message = msg.OriginalMessage
		}
		export.Messages = append(export.Messages, exported)
	}

	return export, nil
}

// RecentMessages returns up to limit surviving messages, oldest first. Used
// by the advisory endpoints to build conversation context.
func (s *Service) RecentMessages(ctx context.Context, code string, limit int) ([]*domain.Message, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.FindRecent(ctx, session.ID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load messages")
	}

	// FindRecent is newest-first; conversation context reads oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ActiveMessages returns every surviving message, oldest first.
func (s *Service) ActiveMessages(ctx context.Context, code string) ([]*domain.Message, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.FindBySession(ctx, session.ID, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load messages")
	}
	return msgs, nil
}

// SessionKey returns the current key and its generation metadata for key
// quality analysis. ErrNoKey when none has been generated.
func (s *Service) SessionKey(ctx context.Context, code string) (string, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if session.Key() == "" {
		return "", errors.ErrNoKey
	}
	return session.Key(), nil
}

// KeySourceName exposes which key source the service was built with.
func (s *Service) KeySourceName() string {
	return s.keys.SourceName()
}

// recordEvent appends to the audit log and bumps the session counter. Audit
// failures are logged, not propagated: lifecycle actions must not fail
// because the log write did.
func (s *Service) recordEvent(ctx context.Context, session *domain.ChatSession, eventType domain.SecurityEventType, description string) {
	event := &domain.SecurityEvent{
		ID:          uuid.New(),
		SessionID:   session.ID,
		EventType:   eventType,
		Description: description,
		CreatedAt:   s.now(),
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("failed to record security event", map[string]interface{}{
			"session_code": session.SessionCode,
			"event_type":   string(eventType),
			"error":        err.Error(),
		})
		return
	}
	session.SecurityEvents++
}

func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := randomCode(sessionCodeLength)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate session code")
		}

		_, err = s.sessions.FindByCode(ctx, code)
		if errors.Is(err, errors.ErrSessionNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
		// Collision, try again.
	}
	return "", fmt.Errorf("could not allocate a unique session code after %d attempts", codeAttempts)
}

func randomCode(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(sessionCodeCharset)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = sessionCodeCharset[idx.Int64()]
	}
	return string(out), nil
}
