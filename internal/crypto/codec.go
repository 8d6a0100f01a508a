// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	mrand "math/rand/v2"

	"github.com/MKhiriev/wallet-cloud-sync/models"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	frameVersion    byte = 1
	frameHeaderSize      = 1 + 4
)

// Decode errors.
var (
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrMalformedFrame     = errors.New("malformed plaintext frame")
	ErrKindMismatch       = errors.New("decoded entity kind does not match record")
)

// Encoded is the result of encoding one entity.
type Encoded struct {
	Ciphertext []byte

	// UnpaddedSize is the serialized size before padding. It feeds the size
	// statistics that calibrate later padding.
	UnpaddedSize int
}

// Codec serializes, pads and encrypts entities with ChaCha20-Poly1305.
//
// The sealed blob is nonce ‖ ciphertext ‖ tag. The plaintext frame is
//
//	version (1 byte) ‖ body length (uint32 BE) ‖ JSON body ‖ zero padding
//
// and the subkind is bound as additional data, so a record cannot be
// replayed as another subtype.
type Codec struct {
	aead cipher.AEAD
	intn func(int) int
}

// NewCodec builds a Codec from a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("create chacha20poly1305: %w", err)
	}

	return &Codec{aead: aead, intn: mrand.IntN}, nil
}

// Encode serializes entity, pads it using stats and encrypts the frame.
func (c *Codec) Encode(entity models.Entity, stats models.SizeStats) (Encoded, error) {
	// 1. Serialize to JSON
	body, err := json.Marshal(entity)
	if err != nil {
		return Encoded{}, fmt.Errorf("marshal entity: %w", err)
	}

	// 2. Frame and pad
	pad := paddingLength(len(body), stats, c.intn)
	frame := make([]byte, frameHeaderSize+len(body)+pad)
	frame[0] = frameVersion
	binary.BigEndian.PutUint32(frame[1:frameHeaderSize], uint32(len(body)))
	copy(frame[frameHeaderSize:], body)

	// 3. Seal: nonce || ciphertext || tag
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(frame)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Encoded{}, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, frame, []byte(entity.Kind))
	return Encoded{Ciphertext: sealed, UnpaddedSize: len(body)}, nil
}

// Decode decrypts ciphertext of the given subkind, strips the padding and
// deserializes the entity.
func (c *Codec) Decode(kind models.SubKind, ciphertext []byte) (models.Entity, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize+c.aead.Overhead() {
		return models.Entity{}, ErrCiphertextTooShort
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	frame, err := c.aead.Open(nil, nonce, sealed, []byte(kind))
	if err != nil {
		return models.Entity{}, fmt.Errorf("decryption failed: %w", err)
	}

	if len(frame) < frameHeaderSize || frame[0] != frameVersion {
		return models.Entity{}, ErrMalformedFrame
	}
	bodyLen := int(binary.BigEndian.Uint32(frame[1:frameHeaderSize]))
	if bodyLen > len(frame)-frameHeaderSize {
		return models.Entity{}, ErrMalformedFrame
	}

	var entity models.Entity
	if err := json.Unmarshal(frame[frameHeaderSize:frameHeaderSize+bodyLen], &entity); err != nil {
		return models.Entity{}, fmt.Errorf("unmarshal entity: %w", err)
	}
	if entity.Kind != kind {
		return models.Entity{}, ErrKindMismatch
	}

	return entity, nil
}
