// Package id generates identifiers for storefront records that are not keyed by
// database sequences.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// referenceAlphabet omits characters that are easy to misread over the phone.
const referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// OrderReferenceLength is the random part of an order reference.
const OrderReferenceLength = 10

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "req-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// OrderReference returns a customer-facing order reference such as "ord-7KQ2M9XPAB".
func OrderReference() (string, error) {
	ref, err := gonanoid.Generate(referenceAlphabet, OrderReferenceLength)
	if err != nil {
		return "", fmt.Errorf("generate order reference: %w", err)
	}
	return "ord-" + ref, nil
}

// IsOrderReference reports whether s has the shape produced by OrderReference.
func IsOrderReference(s string) bool {
	ref, ok := strings.CutPrefix(s, "ord-")
	if !ok || len(ref) != OrderReferenceLength {
		return false
	}
	for _, r := range ref {
		if !strings.ContainsRune(referenceAlphabet, r) {
			return false
		}
	}
	return true
}

// NewCartID returns a random UUID for an anonymous cart.
func NewCartID() string {
	return uuid.NewString()
}

// ParseCartID normalizes a cart ID, rejecting anything that is not a UUID.
func ParseCartID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid cart id %q: %w", s, err)
	}
	return u.String(), nil
}
