package crypto

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/MKhiriev/wallet-cloud-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, 32)
}

func sampleEntities() []models.Entity {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	completed := now.Add(time.Minute)

	return []models.Entity{
		{ID: "pay-1", Kind: models.SubKindPayment, CreatedAt: now, UpdatedAt: now, Payment: &models.Payment{
			Direction: models.PaymentOutgoing, AmountMsat: 21_000, FeesMsat: 4, PaymentHash: "ab12",
			Description: "coffee", CompletedAt: &completed,
		}},
		{ID: "contact-1", Kind: models.SubKindContact, CreatedAt: now, UpdatedAt: now, Contact: &models.Contact{
			Name: "Alice", Offers: []string{"lno1qq"}, Pinned: true,
		}},
		{ID: "card-1", Kind: models.SubKindCard, CreatedAt: now, UpdatedAt: now, Card: &models.Card{
			Name: "Travel", UID: "04a1b2", DailyLimit: 100_000, LastCounter: 9,
		}},
		{ID: "seed-1", Kind: models.SubKindSeed, CreatedAt: now, UpdatedAt: now, Seed: &models.Seed{
			Mnemonics: "abandon ability able about above absent", Language: "en",
		}},
	}
}

// ─────────────────────────────────────────────
// Codec
// ─────────────────────────────────────────────

func TestCodec_RoundTripAllSubKinds(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)

	stats := models.SizeStats{"payment/incoming": {Mean: 600, StdDev: 40, Samples: 50}}

	for _, entity := range sampleEntities() {
		for _, pad := range []int{0, 1, 255, 4096} {
			t.Run(fmt.Sprintf("%s/pad=%d", entity.Kind, pad), func(t *testing.T) {
				codec.intn = func(int) int { return pad }

				encoded, err := codec.Encode(entity, stats)
				require.NoError(t, err)
				assert.Positive(t, encoded.UnpaddedSize)

				decoded, err := codec.Decode(entity.Kind, encoded.Ciphertext)
				require.NoError(t, err)
				assert.Equal(t, entity, decoded)
			})
		}
	}
}

func TestCodec_PaddingHidesSubKind(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)
	codec.intn = func(int) int { return 0 }

	stats := models.SizeStats{"payment/incoming": {Mean: 2000, StdDev: 100, Samples: 10}}

	var sizes []int
	for _, entity := range sampleEntities() {
		encoded, err := codec.Encode(entity, stats)
		require.NoError(t, err)
		sizes = append(sizes, len(encoded.Ciphertext))
	}

	for _, size := range sizes[1:] {
		assert.Equal(t, sizes[0], size, "all small entities must be padded to the same floor")
	}
}

func TestCodec_NonceIsRandom(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)
	codec.intn = func(int) int { return 0 }

	entity := sampleEntities()[0]
	a, err := codec.Encode(entity, nil)
	require.NoError(t, err)
	b, err := codec.Encode(entity, nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestCodec_DecodeFailures(t *testing.T) {
	codec, err := NewCodec(testKey())
	require.NoError(t, err)

	entity := sampleEntities()[1]
	encoded, err := codec.Encode(entity, nil)
	require.NoError(t, err)

	t.Run("too short", func(t *testing.T) {
		_, err := codec.Decode(entity.Kind, []byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrCiphertextTooShort)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := bytes.Clone(encoded.Ciphertext)
		tampered[len(tampered)-1] ^= 0xff
		_, err := codec.Decode(entity.Kind, tampered)
		assert.Error(t, err)
	})

	t.Run("wrong subkind", func(t *testing.T) {
		_, err := codec.Decode(models.SubKindPayment, encoded.Ciphertext)
		assert.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewCodec(bytes.Repeat([]byte{9}, 32))
		require.NoError(t, err)
		_, err = other.Decode(entity.Kind, encoded.Ciphertext)
		assert.Error(t, err)
	})
}

func TestNewCodec_BadKey(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	assert.Error(t, err)
}

// ─────────────────────────────────────────────
// padding
// ─────────────────────────────────────────────

func TestPaddingLength(t *testing.T) {
	maxMinusOne := func(n int) int { return n - 1 }

	t.Run("no history falls back to small pad", func(t *testing.T) {
		assert.Equal(t, 255, paddingLength(100, nil, maxMinusOne))
	})

	t.Run("range starting below zero is ignored", func(t *testing.T) {
		stats := models.SizeStats{"payment/incoming": {Mean: 10, StdDev: 20, Samples: 3}}
		assert.Equal(t, 255, paddingLength(100, stats, maxMinusOne))
	})

	t.Run("below range pads up to range", func(t *testing.T) {
		stats := models.SizeStats{"payment/incoming": {Mean: 1000, StdDev: 100, Samples: 3}}
		// range is [850, 1150]
		assert.Equal(t, 750, paddingLength(100, stats, func(int) int { return 0 }))
		assert.Equal(t, 750+299, paddingLength(100, stats, maxMinusOne))
	})

	t.Run("inside range uses fallback", func(t *testing.T) {
		stats := models.SizeStats{"payment/incoming": {Mean: 1000, StdDev: 100, Samples: 3}}
		assert.Equal(t, 17, paddingLength(900, stats, func(int) int { return 17 }))
	})

	t.Run("widest group wins", func(t *testing.T) {
		stats := models.SizeStats{
			"payment/incoming": {Mean: 1000, StdDev: 100, Samples: 3},
			"contact":          {Mean: 3000, StdDev: 100, Samples: 3},
		}
		// contact range is [2850, 3150]
		assert.Equal(t, 2850-100, paddingLength(100, stats, func(int) int { return 0 }))
	})

	t.Run("payment directions are separate groups", func(t *testing.T) {
		// входящие платежи короче исходящих
		stats := models.SizeStats{
			"payment/incoming": {Mean: 400, StdDev: 20, Samples: 8},
			"payment/outgoing": {Mean: 1200, StdDev: 40, Samples: 8},
		}
		// outgoing range is [1140, 1260]; a short incoming payment pads up to it
		assert.Equal(t, 1140-380, paddingLength(380, stats, func(int) int { return 0 }))
	})
}

// ─────────────────────────────────────────────
// record ids and keys
// ─────────────────────────────────────────────

func TestRecordID_Deterministic(t *testing.T) {
	secret := []byte("wallet secret")

	assert.Equal(t, RecordID(secret, "pay-1"), RecordID(bytes.Clone(secret), "pay-1"))
	assert.Len(t, RecordID(secret, "pay-1"), 64)
}

func TestRecordID_NoCollisions(t *testing.T) {
	seen := make(map[string]string)
	for s := 0; s < 10; s++ {
		secret := []byte(fmt.Sprintf("secret-%d", s))
		for i := 0; i < 1000; i++ {
			key := fmt.Sprintf("%d/%d", s, i)
			id := RecordID(secret, fmt.Sprintf("entity-%d", i))
			prev, dup := seen[id]
			require.False(t, dup, "collision between %s and %s", prev, key)
			seen[id] = key
		}
	}
}

func TestRecordIDs_ReverseIndex(t *testing.T) {
	forward, reverse := RecordIDs([]byte("k"), []string{"a", "b"})

	require.Len(t, forward, 2)
	assert.Equal(t, "a", reverse[forward["a"]])
	assert.Equal(t, "b", reverse[forward["b"]])
}

func TestDeriveKeyRing(t *testing.T) {
	master, err := DeriveMasterSecret("passphrase", "wallet-1")
	require.NoError(t, err)
	require.Len(t, master, 32)

	again, err := DeriveMasterSecret("passphrase", "wallet-1")
	require.NoError(t, err)
	assert.Equal(t, master, again)

	other, err := DeriveMasterSecret("passphrase", "wallet-2")
	require.NoError(t, err)
	assert.NotEqual(t, master, other)

	ring, err := DeriveKeyRing(master)
	require.NoError(t, err)
	assert.Len(t, ring.EncryptionKey, 32)
	assert.NotEqual(t, ring.EncryptionKey, ring.RecordKey)
	assert.Len(t, ring.ContainerName("backup"), 32)
	assert.NotEqual(t, ring.ContainerName("backup"), ring.ContainerName("seed"))
}

func TestDerive_EmptyInputs(t *testing.T) {
	_, err := DeriveMasterSecret("", "wallet")
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = DeriveKeyRing(nil)
	assert.ErrorIs(t, err, ErrEmptySecret)
}
