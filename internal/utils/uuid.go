package utils

import "github.com/google/uuid"

// UUIDGenerator produces time-ordered UUIDv7 strings, falling back to v4.
// The record store uses them as change tags, so tags of one record sort by
// write time.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
