// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"time"
)

// SubKind identifies an entity subtype. A sync domain bundles one or more
// subkinds under a single state machine.
type SubKind string

const (
	SubKindPayment SubKind = "payment"
	SubKindContact SubKind = "contact"
	SubKindCard    SubKind = "card"
	SubKindSeed    SubKind = "seed"
)

// SubKinds lists every known subkind in upload priority order.
var SubKinds = []SubKind{SubKindPayment, SubKindContact, SubKindCard, SubKindSeed}

// Valid reports whether k is a known subkind.
func (k SubKind) Valid() bool {
	for _, known := range SubKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ErrEntityBodyMismatch is returned by [Entity.Validate] when the populated
// body does not match the entity subkind.
var ErrEntityBodyMismatch = errors.New("entity body does not match its subkind")

// Entity is one logical record subject to sync. Exactly one of the body
// pointers is set, matching Kind.
type Entity struct {
	ID        string    `json:"id"`
	Kind      SubKind   `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Payment *Payment `json:"payment,omitempty"`
	Contact *Contact `json:"contact,omitempty"`
	Card    *Card    `json:"card,omitempty"`
	Seed    *Seed    `json:"seed,omitempty"`
}

// Validate checks that the entity has an id and exactly the body its kind
// requires.
func (e Entity) Validate() error {
	if e.ID == "" || !e.Kind.Valid() {
		return ErrEntityBodyMismatch
	}

	set := 0
	for _, present := range []bool{e.Payment != nil, e.Contact != nil, e.Card != nil, e.Seed != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return ErrEntityBodyMismatch
	}

	switch e.Kind {
	case SubKindPayment:
		if e.Payment == nil {
			return ErrEntityBodyMismatch
		}
	case SubKindContact:
		if e.Contact == nil {
			return ErrEntityBodyMismatch
		}
	case SubKindCard:
		if e.Card == nil {
			return ErrEntityBodyMismatch
		}
	case SubKindSeed:
		if e.Seed == nil {
			return ErrEntityBodyMismatch
		}
	}

	return nil
}

// PaymentDirection tells whether a payment was sent or received.
type PaymentDirection string

const (
	PaymentIncoming PaymentDirection = "incoming"
	PaymentOutgoing PaymentDirection = "outgoing"
)

// Payment is a Lightning or on-chain payment as recorded by the wallet.
type Payment struct {
	Direction   PaymentDirection `json:"direction"`
	AmountMsat  int64            `json:"amount_msat"`
	FeesMsat    int64            `json:"fees_msat"`
	PaymentHash string           `json:"payment_hash,omitempty"`
	Description string           `json:"description,omitempty"`
	Invoice     string           `json:"invoice,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Failed      bool             `json:"failed,omitempty"`
}

// Contact is an address book entry.
type Contact struct {
	Name     string   `json:"name"`
	PhotoURI string   `json:"photo_uri,omitempty"`
	Offers   []string `json:"offers,omitempty"`
	Pinned   bool     `json:"pinned,omitempty"`
}

// Card is a contactless payment card linked to the wallet.
type Card struct {
	Name         string `json:"name"`
	UID          string `json:"uid"`
	DailyLimit   int64  `json:"daily_limit_msat,omitempty"`
	TxLimit      int64  `json:"tx_limit_msat,omitempty"`
	Frozen       bool   `json:"frozen,omitempty"`
	Archived     bool   `json:"archived,omitempty"`
	LastCounter  uint32 `json:"last_counter,omitempty"`
	ActivatedKey string `json:"activated_key,omitempty"`
}

// Seed is the recovery phrase backup.
type Seed struct {
	Mnemonics string `json:"mnemonics"`
	Language  string `json:"language"`
	Name      string `json:"name,omitempty"`
}
