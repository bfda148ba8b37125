package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ohler55/ojg/oj"
)

// namespace scopes every node identifier to this pipeline.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://thecodingtrain.com/content-graph"))

// NodeID derives a stable identifier from a seed describing the entity and
// its relation context (e.g. "Track/beginners/p5"). The same seed always
// yields the same ID, so rebuilds are reproducible.
func NodeID(seed string) string {
	return uuid.NewSHA1(namespace, []byte(seed)).String()
}

// ContentDigest returns the hex SHA-256 of the canonical JSON encoding of v.
// encoding/json sorts map keys, which makes the encoding canonical.
func ContentDigest(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// ToFields converts a typed entity into the generic record stored on a Node.
func ToFields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	parsed, err := oj.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse fields: %w", err)
	}
	fields, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fields of %T are not an object", v)
	}
	return fields, nil
}
