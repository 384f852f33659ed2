// Package crypto implements the three pure record-integrity operations the
// envelope relies on: checksum, sign, and verify. It never depends on the
// Identity adapter — verify takes a PublicKeyResolver so callers can supply
// key lookup however they see fit.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gitgovernance/core/pkg/canonicalize"
	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

// GenerateKeyPair returns a fresh Ed25519 key pair, public key first.
func GenerateKeyPair() (pub ed25519.PublicKey, priv ed25519.PrivateKey, err error) {
	pub, priv, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: key generation: %w", err)
	}
	return pub, priv, nil
}

// EncodePublicKey/EncodePrivateKey render keys the way records persist them:
// base64 standard encoding, matching ActorRecord.PublicKey's shape.
func EncodePublicKey(pub ed25519.PublicKey) string  { return base64.StdEncoding.EncodeToString(pub) }
func EncodePrivateKey(priv ed25519.PrivateKey) string { return base64.StdEncoding.EncodeToString(priv) }

// DecodePublicKey/DecodePrivateKey parse the base64 forms back to raw keys.
func DecodePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode public key: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("crypto: invalid public key size %d", len(b))
	}
	return ed25519.PublicKey(b), nil
}

func DecodePrivateKey(s string) (ed25519.PrivateKey, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: decode private key: %w", err)
	}
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("crypto: invalid private key size %d", len(b))
	}
	return ed25519.PrivateKey(b), nil
}

// Checksum computes the SHA-256 hex digest over the canonical JSON form of
// payload. This is header.payloadChecksum.
func Checksum(payload interface{}) (string, error) {
	sum, err := canonicalize.Checksum(payload)
	if err != nil {
		return "", fmt.Errorf("crypto: checksum: %w", err)
	}
	return sum, nil
}

// PlaceholderSignature marks an unsigned or mock-signed slot. signRecord
// replaces any signature carrying this marker in place instead of appending.
const PlaceholderSignature = "placeholder"

// Sign produces a Signature over payload's canonical bytes using privKey.
func Sign(payload interface{}, privKey ed25519.PrivateKey, keyID, role, notes string) (contracts.Signature, error) {
	bytesToSign, err := canonicalize.JCS(payload)
	if err != nil {
		return contracts.Signature{}, fmt.Errorf("crypto: sign: canonicalize payload: %w", err)
	}
	sig := ed25519.Sign(privKey, bytesToSign)
	return contracts.Signature{
		KeyID:     keyID,
		Role:      role,
		Notes:     notes,
		Signature: base64.StdEncoding.EncodeToString(sig),
		Timestamp: time.Now().Unix(),
	}, nil
}

// PublicKeyResolver resolves an actor/keyId to its current Ed25519 public
// key. Record Model must not depend on Identity, so this is supplied by the
// caller (normally Identity.GetActorPublicKey).
type PublicKeyResolver func(keyID string) (ed25519.PublicKey, bool)

// VerifyResult is the non-error-wrapped outcome of Verify, letting callers
// distinguish a failed verification from a hard error.
type VerifyResult struct {
	OK     bool
	Kind   gitgoverr.Kind
	Detail string
}

func ok() VerifyResult { return VerifyResult{OK: true} }

func fail(kind gitgoverr.Kind, detail string) VerifyResult {
	return VerifyResult{OK: false, Kind: kind, Detail: detail}
}

// Verify recomputes the payload checksum and verifies every signature in
// header.signatures against resolver. It returns the first failure found;
// callers that need every failure should call VerifyAll.
func Verify(header contracts.Header, payload interface{}, resolver PublicKeyResolver) VerifyResult {
	results := VerifyAll(header, payload, resolver)
	for _, r := range results {
		if !r.OK {
			return r
		}
	}
	return ok()
}

// VerifyAll returns one VerifyResult for the checksum plus one per signature,
// so tooling can report every integrity defect rather than just the first.
func VerifyAll(header contracts.Header, payload interface{}, resolver PublicKeyResolver) []VerifyResult {
	results := make([]VerifyResult, 0, 1+len(header.Signatures))

	sum, err := Checksum(payload)
	if err != nil {
		results = append(results, fail(gitgoverr.KindChecksumMismatch, err.Error()))
		return results
	}
	if sum != header.PayloadChecksum {
		results = append(results, fail(gitgoverr.KindChecksumMismatch,
			fmt.Sprintf("computed %s != header %s", sum, header.PayloadChecksum)))
	} else {
		results = append(results, ok())
	}

	if len(header.Signatures) == 0 {
		results = append(results, fail(gitgoverr.KindSignatureInvalid, "no signatures present"))
		return results
	}

	bytesToVerify, err := canonicalize.JCS(payload)
	if err != nil {
		results = append(results, fail(gitgoverr.KindSignatureInvalid, "cannot canonicalize payload: "+err.Error()))
		return results
	}

	for _, sig := range header.Signatures {
		pub, found := resolver(sig.KeyID)
		if !found {
			results = append(results, fail(gitgoverr.KindKeyNotFound, "no public key for keyId "+sig.KeyID))
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(sig.Signature)
		if err != nil {
			results = append(results, fail(gitgoverr.KindSignatureInvalid, "malformed signature: "+err.Error()))
			continue
		}
		if !ed25519.Verify(pub, bytesToVerify, raw) {
			results = append(results, fail(gitgoverr.KindSignatureInvalid, "signature does not verify for keyId "+sig.KeyID))
			continue
		}
		results = append(results, ok())
	}
	return results
}
