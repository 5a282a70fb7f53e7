package signer

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// KeyPair holds a hex encoded ed25519 seed and public key, both 0x-prefixed.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GenerateKey returns a fresh ed25519 keypair.
func GenerateKey() (KeyPair, error) {
	return generateKey(rand.Reader)
}

func generateKey(r io.Reader) (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return KeyPair{
		PrivateKey: encodeHex(priv.Seed()),
		PublicKey:  encodeHex(pub),
	}, nil
}

// PublicKeyFor derives the public key of a hex encoded seed.
func PublicKeyFor(privateKey string) (string, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return "", fmt.Errorf("private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	return encodeHex(pub), nil
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
