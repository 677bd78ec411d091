package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWithKey(generatedAt time.Time) *ChatSession {
	key := "1010101010101010"
	return &ChatSession{
		QuantumKey:     &key,
		KeyGeneratedAt: &generatedAt,
	}
}

func TestIsKeyExpired(t *testing.T) {
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := sessionWithKey(generated)

	assert.False(t, session.IsKeyExpired(generated))
	assert.False(t, session.IsKeyExpired(generated.Add(4*time.Minute+59*time.Second)))
	// Exactly at the boundary the key is still usable.
	assert.False(t, session.IsKeyExpired(generated.Add(KeyValidityWindow)))
	assert.True(t, session.IsKeyExpired(generated.Add(KeyValidityWindow+time.Nanosecond)))
	assert.True(t, session.IsKeyExpired(generated.Add(time.Hour)))
}

func TestIsKeyExpiredWithoutKey(t *testing.T) {
	session := &ChatSession{}
	assert.True(t, session.IsKeyExpired(time.Now()))
}

func TestKeyTimeRemaining(t *testing.T) {
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := sessionWithKey(generated)

	assert.Equal(t, 300, session.KeyTimeRemaining(generated))
	assert.Equal(t, 180, session.KeyTimeRemaining(generated.Add(2*time.Minute)))
	assert.Equal(t, 0, session.KeyTimeRemaining(generated.Add(10*time.Minute)))
	assert.Equal(t, 0, (&ChatSession{}).KeyTimeRemaining(generated))
}

func TestKeyTimeRemainingNeverIncreases(t *testing.T) {
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := sessionWithKey(generated)

	prev := session.KeyTimeRemaining(generated)
	for offset := time.Second; offset <= 6*time.Minute; offset += 13 * time.Second {
		cur := session.KeyTimeRemaining(generated.Add(offset))
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestSessionKeyAccessor(t *testing.T) {
	assert.Equal(t, "", (&ChatSession{}).Key())

	key := "0101"
	assert.Equal(t, "0101", (&ChatSession{QuantumKey: &key}).Key())
}

func TestSenderValid(t *testing.T) {
	assert.True(t, SenderAlice.Valid())
	assert.True(t, SenderBob.Valid())
	assert.False(t, Sender("eve").Valid())
	assert.False(t, Sender("").Valid())
}

func TestShouldSelfDestructTimerElapsed(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &Message{
		IsSelfDestruct: true,
		DestructTimer:  30,
		CreatedAt:      created,
	}

	assert.False(t, msg.ShouldSelfDestruct(created.Add(29*time.Second)))
	assert.False(t, msg.ShouldSelfDestruct(created.Add(30*time.Second)))
	assert.True(t, msg.ShouldSelfDestruct(created.Add(31*time.Second)))
}

func TestShouldSelfDestructZeroTimerOnRead(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &Message{
		IsSelfDestruct: true,
		DestructTimer:  0,
		CreatedAt:      created,
	}

	// Unread, within the same instant: survives.
	assert.False(t, msg.ShouldSelfDestruct(created))

	readAt := created
	msg.ReadAt = &readAt
	assert.True(t, msg.ShouldSelfDestruct(created))
}

func TestShouldSelfDestructPlainMessageNever(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	readAt := created
	msg := &Message{
		IsSelfDestruct: false,
		CreatedAt:      created,
		ReadAt:         &readAt,
	}

	assert.False(t, msg.ShouldSelfDestruct(created.Add(24*time.Hour)))
}

func TestShouldSelfDestructAlreadyDestroyed(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &Message{
		IsSelfDestruct: true,
		DestructTimer:  1,
		CreatedAt:      created,
		IsDestroyed:    true,
	}

	assert.False(t, msg.ShouldSelfDestruct(created.Add(time.Hour)))
}

func TestDestroyRedactsContent(t *testing.T) {
	msg := &Message{
		OriginalMessage: "secret",
		EncryptedText:   "c2VjcmV0",
	}

	msg.Destroy()

	assert.True(t, msg.IsDestroyed)
	assert.Equal(t, DestroyedPlaintext, msg.OriginalMessage)
	assert.Equal(t, DestroyedCiphertext, msg.EncryptedText)
}

func TestTimeUntilDestruction(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := &Message{
		IsSelfDestruct: true,
		DestructTimer:  60,
		CreatedAt:      created,
	}

	remaining := msg.TimeUntilDestruction(created.Add(20 * time.Second))
	require.NotNil(t, remaining)
	assert.Equal(t, 40, *remaining)

	floored := msg.TimeUntilDestruction(created.Add(2 * time.Minute))
	require.NotNil(t, floored)
	assert.Equal(t, 0, *floored)

	plain := &Message{CreatedAt: created}
	assert.Nil(t, plain.TimeUntilDestruction(created))
}
