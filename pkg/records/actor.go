package records

import (
	"fmt"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

// BuildActorPayload fills defaults on a partial ActorPayload and validates
// the result, matching createActor's payload-assembly step (spec §4.4).
func BuildActorPayload(partial contracts.ActorPayload) (contracts.ActorPayload, error) {
	const op = "records.BuildActorPayload"
	if partial.Type == "" || partial.DisplayName == "" {
		return contracts.ActorPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "type and displayName are required")
	}
	if partial.ID == "" {
		partial.ID = GenerateActorID(string(partial.Type), partial.DisplayName)
	}
	if !ValidateActorID(partial.ID) {
		return contracts.ActorPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("id %q does not match actor id pattern", partial.ID))
	}
	if len(partial.Roles) == 0 {
		partial.Roles = []string{contracts.RoleAuthor}
	}
	if partial.Status == "" {
		partial.Status = contracts.ActorStatusActive
	}
	return ValidateActorPayload(partial)
}

// ValidateActorPayload enforces ActorPayload's structural constraints
// (spec §3): regex id, known type/status, non-empty roles and public key.
func ValidateActorPayload(p contracts.ActorPayload) (contracts.ActorPayload, error) {
	const op = "records.ValidateActorPayload"
	if !ValidateActorID(p.ID) {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("id %q does not match actor id pattern", p.ID))
	}
	if p.Type != contracts.ActorTypeHuman && p.Type != contracts.ActorTypeAgent {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown actor type %q", p.Type))
	}
	if p.Status != contracts.ActorStatusActive && p.Status != contracts.ActorStatusRevoked {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown actor status %q", p.Status))
	}
	if len(p.Roles) == 0 {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "roles must be non-empty")
	}
	if p.PublicKey == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "publicKey must be non-empty")
	}
	return p, nil
}

// LoadActorRecord validates an untrusted envelope+payload read from storage
// (spec §4.2 loadX). It does not verify signatures — that's crypto.Verify's
// job, invoked separately by callers that have a PublicKeyResolver.
func LoadActorRecord(rec contracts.ActorRecord) (contracts.ActorRecord, error) {
	const op = "records.LoadActorRecord"
	if rec.Header.Version != contracts.HeaderVersion {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "unsupported header version")
	}
	if rec.Header.Type != contracts.KindActor {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "header.type is not actor")
	}
	if len(rec.Header.Signatures) == 0 {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "signatures must be non-empty")
	}
	if _, err := ValidateActorPayload(rec.Payload); err != nil {
		return rec, err
	}
	sum, err := crypto.Checksum(rec.Payload)
	if err != nil {
		return rec, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "checksum", err)
	}
	if sum != rec.Header.PayloadChecksum {
		return rec, gitgoverr.New(gitgoverr.KindChecksumMismatch, op, "payload checksum does not match header")
	}
	return rec, nil
}
