// Package domain defines the chat session records and their lifecycle rules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// KeyValidityWindow is how long a generated quantum key stays usable.
const KeyValidityWindow = 5 * time.Minute

// Sender identifies one of the two fixed chat participants.
type Sender string

const (
	SenderAlice Sender = "alice"
	SenderBob   Sender = "bob"
)

// Valid reports whether s is one of the two participant roles.
func (s Sender) Valid() bool {
	return s == SenderAlice || s == SenderBob
}

// EncryptionMethod tags the cipher scheme a session uses.
type EncryptionMethod string

const (
	MethodXOR EncryptionMethod = "xor"
	MethodOTP EncryptionMethod = "otp"
)

// Placeholder markers written over destroyed message content. Once these are
// in place there is no recovery path.
const (
	DestroyedPlaintext  = "[Message Self-Destructed]"
	DestroyedCiphertext = "[Encrypted Data Destroyed]"
)

// ChatSession is a two-party chat identified by a shareable code. The quantum
// key is replaced wholesale on every generation request; it is never merged.
type ChatSession struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	SessionCode      string           `json:"session_code" db:"session_code"`
	QuantumKey       *string          `json:"-" db:"quantum_key"`
	KeyGeneratedAt   *time.Time       `json:"key_generated_at,omitempty" db:"key_generated_at"`
	EncryptionMethod EncryptionMethod `json:"encryption_method" db:"encryption_method"`
	IsActive         bool             `json:"is_active" db:"is_active"`
	TotalMessages    int              `json:"total_messages" db:"total_messages"`
	KeyRefreshes     int              `json:"key_refreshes" db:"key_refreshes"`
	SecurityEvents   int              `json:"security_events_count" db:"security_events_count"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Key returns the current key material, empty when none has been generated.
func (s *ChatSession) Key() string {
	if s.QuantumKey == nil {
		return ""
	}
	return *s.QuantumKey
}

// IsKeyExpired reports whether the key is unusable at now: either no key was
// ever generated, or now is strictly past generation time plus the validity
// window. At exactly the window boundary the key is still valid.
func (s *ChatSession) IsKeyExpired(now time.Time) bool {
	if s.KeyGeneratedAt == nil {
		return true
	}
	return now.After(s.KeyGeneratedAt.Add(KeyValidityWindow))
}

// KeyTimeRemaining returns whole seconds until the key expires, floored at 0.
func (s *ChatSession) KeyTimeRemaining(now time.Time) int {
	if s.KeyGeneratedAt == nil || s.IsKeyExpired(now) {
		return 0
	}
	remaining := s.KeyGeneratedAt.Add(KeyValidityWindow).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// Message belongs to exactly one session. IDs are a monotonically increasing
// sequence so clients can poll with a last-seen cursor.
type Message struct {
	ID              int64      `json:"id" db:"id"`
	SessionID       uuid.UUID  `json:"session_id" db:"session_id"`
	Sender          Sender     `json:"sender" db:"sender"`
	OriginalMessage string     `json:"original_message" db:"original_message"`
	EncryptedText   string     `json:"encrypted_message" db:"encrypted_message"`
	IsSelfDestruct  bool       `json:"is_self_destruct" db:"is_self_destruct"`
	DestructTimer   int        `json:"self_destruct_timer" db:"self_destruct_timer"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	ReadAt          *time.Time `json:"read_at,omitempty" db:"read_at"`
	IsDestroyed     bool       `json:"is_destroyed" db:"is_destroyed"`
}

// ShouldSelfDestruct reports whether the message's destruction condition
// holds at now. Evaluated on every read path; there is no background timer.
func (m *Message) ShouldSelfDestruct(now time.Time) bool {
	if !m.IsSelfDestruct || m.IsDestroyed {
		return false
	}

	// Timer elapsed since creation.
	if now.After(m.CreatedAt.Add(time.Duration(m.DestructTimer) * time.Second)) {
		return true
	}

	// A zero timer destroys the message as soon as it has been read.
	if m.DestructTimer == 0 && m.ReadAt != nil {
		return true
	}

	return false
}

// Destroy irreversibly redacts the message content.
func (m *Message) Destroy() {
	m.IsDestroyed = true
	m.OriginalMessage = DestroyedPlaintext
	m.EncryptedText = DestroyedCiphertext
}

// TimeUntilDestruction returns whole seconds until the timer fires, floored
// at 0, or nil when the message is not scheduled to self-destruct.
func (m *Message) TimeUntilDestruction(now time.Time) *int {
	if !m.IsSelfDestruct || m.IsDestroyed {
		return nil
	}
	remaining := m.CreatedAt.Add(time.Duration(m.DestructTimer) * time.Second).Sub(now)
	secs := int(remaining.Seconds())
	if secs < 0 {
		secs = 0
	}
	return &secs
}

// SecurityEventType categorizes audit log entries.
type SecurityEventType string

const (
	EventKeyGeneration    SecurityEventType = "key_generation"
	EventMessageSent      SecurityEventType = "message_sent"
	EventAttackSimulation SecurityEventType = "attack_simulation"
)

// SecurityEvent is an append-only audit row tied to a session. Immutable once
// written.
type SecurityEvent struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	SessionID   uuid.UUID         `json:"session_id" db:"session_id"`
	EventType   SecurityEventType `json:"event_type" db:"event_type"`
	Description string            `json:"description" db:"description"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}
