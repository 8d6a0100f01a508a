// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package crypto implements the client-side cryptography of the sync engine:
// key derivation, deterministic record identifiers, size-obfuscating padding
// and the authenticated encryption of entities.
//
// The remote record store never sees plaintext. Keys exist only in client
// memory and are derived from the wallet passphrase:
//
//	master    = Argon2id(passphrase, salt(walletID))
//	keyring   = HKDF-SHA256(master, info) for each purpose
//	recordID  = hex(SHA256(SHA256(keyring.RecordKey) ‖ entityID))
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	keyLen = 32

	saltDomain     = "wallet-cloud-sync/salt/v1"
	infoEncryption = "wallet-cloud-sync/encryption/v1"
	infoRecordID   = "wallet-cloud-sync/record-id/v1"
	infoContainer  = "wallet-cloud-sync/container/v1"
)

// ErrEmptySecret is returned when key material is empty.
var ErrEmptySecret = errors.New("empty secret")

// Argon2id tuning parameters (OWASP recommendation for interactive use).
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
)

// DeriveMasterSecret stretches passphrase into a 256-bit secret with
// Argon2id. The salt is derived from walletID, so every device that knows
// the passphrase reaches the same secret and can restore the backup.
func DeriveMasterSecret(passphrase, walletID string) ([]byte, error) {
	if passphrase == "" || walletID == "" {
		return nil, ErrEmptySecret
	}

	salt := sha256.Sum256([]byte(saltDomain + walletID))
	return argon2.IDKey([]byte(passphrase), salt[:16], argonTime, argonMemory, argonThreads, keyLen), nil
}

// KeyRing holds the purpose-bound keys derived from the master secret.
type KeyRing struct {
	EncryptionKey []byte
	RecordKey     []byte
	containerKey  []byte
}

// DeriveKeyRing expands master into independent keys with HKDF-SHA256.
func DeriveKeyRing(master []byte) (KeyRing, error) {
	if len(master) == 0 {
		return KeyRing{}, ErrEmptySecret
	}

	expand := func(info string) ([]byte, error) {
		key := make([]byte, keyLen)
		r := hkdf.New(sha256.New, master, nil, []byte(info))
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("hkdf expand %q: %w", info, err)
		}
		return key, nil
	}

	enc, err := expand(infoEncryption)
	if err != nil {
		return KeyRing{}, err
	}
	rec, err := expand(infoRecordID)
	if err != nil {
		return KeyRing{}, err
	}
	cont, err := expand(infoContainer)
	if err != nil {
		return KeyRing{}, err
	}

	return KeyRing{EncryptionKey: enc, RecordKey: rec, containerKey: cont}, nil
}

// ContainerName returns the remote container for a sync domain. It is
// stable for a wallet and does not reveal the wallet id.
func (k KeyRing) ContainerName(domain string) string {
	h := sha256.New()
	h.Write(k.containerKey)
	h.Write([]byte(domain))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
