// Package identity implements the Identity Adapter (spec §4.4): actor CRUD,
// key generation/rotation with succession chains, and record signing on
// behalf of every other adapter.
package identity

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/eventbus"
	"github.com/gitgovernance/core/pkg/gitgoverr"
	"github.com/gitgovernance/core/pkg/keyprovider"
	"github.com/gitgovernance/core/pkg/records"
	"github.com/gitgovernance/core/pkg/session"
	"github.com/gitgovernance/core/pkg/store"
)

// maxSuccessionDepth bounds resolveCurrentActorId's chain walk. Succession
// chains are acyclic by construction; this is a defensive cap (spec §4.4).
const maxSuccessionDepth = 64

// Adapter is the Identity Adapter: actor CRUD, signing, rotation.
type Adapter struct {
	store   store.Store[contracts.ActorRecord]
	keys    keyprovider.KeyProvider
	session session.Manager
	bus     *eventbus.Bus
	now     func() time.Time
	logger  *slog.Logger
}

// New wires an Adapter. bus may be nil (events are then dropped, never an
// error, matching "emission when bus absent degrades to a warning").
func New(st store.Store[contracts.ActorRecord], keys keyprovider.KeyProvider, sess session.Manager, bus *eventbus.Bus, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{store: st, keys: keys, session: sess, bus: bus, now: time.Now, logger: logger}
}

func (a *Adapter) publish(eventType contracts.EventType, source string, payload map[string]any) {
	if a.bus == nil {
		a.logger.Warn("identity: event bus absent, dropping event", "eventType", eventType)
		return
	}
	a.bus.Publish(contracts.Event{
		Type:        eventType,
		TimestampMs: a.now().UnixMilli(),
		Source:      source,
		Payload:     payload,
	})
}

// CreateActor assembles, self-signs, and persists a new ActorRecord (spec
// §4.4's bootstrap flow).
func (a *Adapter) CreateActor(ctx context.Context, partial contracts.ActorPayload) (contracts.ActorRecord, error) {
	const op = "Identity.CreateActor"
	if partial.Type == "" || partial.DisplayName == "" {
		return contracts.ActorRecord{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "type and displayName are required")
	}

	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return contracts.ActorRecord{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "key generation", err)
	}
	partial.PublicKey = crypto.EncodePublicKey(pub)

	payload, err := records.BuildActorPayload(partial)
	if err != nil {
		return contracts.ActorRecord{}, err
	}

	rec, err := a.buildSelfSigned(payload, priv)
	if err != nil {
		return contracts.ActorRecord{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "sign", err)
	}

	if err := a.store.Put(ctx, payload.ID, &rec); err != nil {
		return contracts.ActorRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}

	if err := a.keys.Set(ctx, payload.ID, priv); err != nil {
		a.logger.Warn("identity: failed to persist private key", "actorId", payload.ID, "err", err)
	}

	ids, err := a.store.List(ctx)
	isBootstrap := err == nil && len(ids) == 1
	a.publish(contracts.EventActorCreated, op, map[string]any{
		"actorId":     payload.ID,
		"isBootstrap": isBootstrap,
	})

	return rec, nil
}

// buildSelfSigned computes the checksum, builds the header, and signs the
// payload with keyId == the actor's own id (createActor's bootstrap case).
func (a *Adapter) buildSelfSigned(payload contracts.ActorPayload, priv ed25519.PrivateKey) (contracts.ActorRecord, error) {
	sum, err := crypto.Checksum(payload)
	if err != nil {
		return contracts.ActorRecord{}, err
	}
	sig, err := crypto.Sign(payload, priv, payload.ID, contracts.RoleAuthor, "self-signed bootstrap")
	if err != nil {
		return contracts.ActorRecord{}, err
	}
	return contracts.ActorRecord{
		Header:  contracts.Header{Version: contracts.HeaderVersion, Type: contracts.KindActor, PayloadChecksum: sum, Signatures: []contracts.Signature{sig}},
		Payload: payload,
	}, nil
}

// GetActor returns nil, nil when id is unknown (spec: "getActor returns
// null for missing").
func (a *Adapter) GetActor(ctx context.Context, id string) (*contracts.ActorRecord, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, "Identity.GetActor", "read", err)
	}
	return rec, nil
}

// ListActors returns every persisted actor record.
func (a *Adapter) ListActors(ctx context.Context) ([]contracts.ActorRecord, error) {
	ids, err := a.store.List(ctx)
	if err != nil {
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, "Identity.ListActors", "list", err)
	}
	out := make([]contracts.ActorRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := a.store.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// GetActorPublicKey is the PublicKeyResolver every signature verification
// path uses.
func (a *Adapter) GetActorPublicKey(ctx context.Context, keyID string) (ed25519.PublicKey, bool) {
	rec, err := a.GetActor(ctx, keyID)
	if err != nil || rec == nil {
		return nil, false
	}
	pub, err := crypto.DecodePublicKey(rec.Payload.PublicKey)
	if err != nil {
		return nil, false
	}
	return pub, true
}

// SignRecord adds (or replaces placeholder) signatures on an arbitrary
// record on behalf of actorId, preserving T (spec §4.4). Go methods can't
// introduce their own type parameters, so this is a package-level generic
// function taking the adapter explicitly rather than a method on Adapter.
func SignRecord[T any](ctx context.Context, a *Adapter, rec contracts.Record[T], actorID, role, notes string) (contracts.Record[T], error) {
	const op = "Identity.SignRecord"
	actor, err := a.GetActor(ctx, actorID)
	if err != nil {
		return rec, err
	}
	if actor == nil {
		return rec, gitgoverr.New(gitgoverr.KindActorNotFound, op, fmt.Sprintf("actor %q not found", actorID))
	}

	sum, err := crypto.Checksum(rec.Payload)
	if err != nil {
		return rec, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "checksum", err)
	}
	rec.Header.PayloadChecksum = sum

	priv, ok, err := a.keys.Get(ctx, actorID)
	if err != nil {
		a.logger.Warn("identity: key lookup failed, falling back to mock signature", "actorId", actorID, "err", err)
		ok = false
	}

	var sig contracts.Signature
	if ok {
		sig, err = crypto.Sign(rec.Payload, priv, actorID, role, notes)
		if err != nil {
			return rec, gitgoverr.Wrap(gitgoverr.KindSignatureInvalid, op, "sign", err)
		}
	} else {
		a.logger.Warn("identity: no private key for actor, using placeholder signature", "actorId", actorID)
		sig = contracts.Signature{
			KeyID:     actorID,
			Role:      role,
			Notes:     notes,
			Signature: crypto.PlaceholderSignature,
			Timestamp: a.now().Unix(),
		}
	}

	replaced := false
	out := make([]contracts.Signature, 0, len(rec.Header.Signatures)+1)
	for _, s := range rec.Header.Signatures {
		if s.Signature == crypto.PlaceholderSignature {
			out = append(out, sig)
			replaced = true
			continue
		}
		out = append(out, s)
	}
	if !replaced {
		out = append(out, sig)
	}
	rec.Header.Signatures = out
	return rec, nil
}

// RevokeActor flips status to revoked and re-checksums the header.
func (a *Adapter) RevokeActor(ctx context.Context, id, revokedBy, reason, supersededBy string) (contracts.ActorRecord, error) {
	const op = "Identity.RevokeActor"
	rec, err := a.GetActor(ctx, id)
	if err != nil {
		return contracts.ActorRecord{}, err
	}
	if rec == nil {
		return contracts.ActorRecord{}, gitgoverr.New(gitgoverr.KindActorNotFound, op, fmt.Sprintf("actor %q not found", id))
	}
	if rec.Payload.Status == contracts.ActorStatusRevoked {
		return contracts.ActorRecord{}, gitgoverr.New(gitgoverr.KindActorAlreadyRevoked, op, fmt.Sprintf("actor %q already revoked", id))
	}

	rec.Payload.Status = contracts.ActorStatusRevoked
	if supersededBy != "" {
		rec.Payload.SupersededBy = supersededBy
	}
	sum, err := crypto.Checksum(rec.Payload)
	if err != nil {
		return contracts.ActorRecord{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "checksum", err)
	}
	rec.Header.PayloadChecksum = sum

	if err := a.store.Put(ctx, id, rec); err != nil {
		return contracts.ActorRecord{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist", err)
	}

	a.publish(contracts.EventActorRevoked, op, map[string]any{
		"actorId":      id,
		"revokedBy":    revokedBy,
		"reason":       reason,
		"supersededBy": supersededBy,
	})
	return *rec, nil
}

// versionSuffix matches a trailing "-v{N}" suffix on an actor id.
var versionSuffix = regexp.MustCompile(`-v(\d+)$`)

func nextRotatedID(id string) string {
	if m := versionSuffix.FindStringSubmatch(id); m != nil {
		n, _ := strconv.Atoi(m[1])
		return versionSuffix.ReplaceAllString(id, fmt.Sprintf("-v%d", n+1))
	}
	return id + "-v2"
}

// RotationResult is rotateActorKey's return shape.
type RotationResult struct {
	OldActor contracts.ActorRecord
	NewActor contracts.ActorRecord
}

// RotateActorKey generates a fresh keypair under a derived "-v{N}" id,
// revokes the old actor with a succession pointer, and best-effort migrates
// session state and the new private key (spec §4.4).
func (a *Adapter) RotateActorKey(ctx context.Context, id string) (RotationResult, error) {
	const op = "Identity.RotateActorKey"
	old, err := a.GetActor(ctx, id)
	if err != nil {
		return RotationResult{}, err
	}
	if old == nil {
		return RotationResult{}, gitgoverr.New(gitgoverr.KindActorNotFound, op, fmt.Sprintf("actor %q not found", id))
	}
	if old.Payload.Status == contracts.ActorStatusRevoked {
		return RotationResult{}, gitgoverr.New(gitgoverr.KindActorAlreadyRevoked, op, fmt.Sprintf("actor %q already revoked", id))
	}

	newID := nextRotatedID(id)
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return RotationResult{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "key generation", err)
	}

	newPayload := old.Payload
	newPayload.ID = newID
	newPayload.PublicKey = crypto.EncodePublicKey(pub)
	newPayload.Status = contracts.ActorStatusActive
	newPayload.SupersededBy = ""

	newRec, err := a.buildSelfSigned(newPayload, priv)
	if err != nil {
		return RotationResult{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "sign", err)
	}
	if err := a.store.Put(ctx, newID, &newRec); err != nil {
		return RotationResult{}, gitgoverr.Wrap(gitgoverr.KindIOError, op, "persist new actor", err)
	}

	revoked, err := a.RevokeActor(ctx, id, newID, "rotation", newID)
	if err != nil {
		return RotationResult{}, err
	}

	if a.session != nil {
		if state, ok, err := a.session.GetActorState(ctx, id); err == nil && ok {
			if err := a.session.UpdateActorState(ctx, newID, state); err != nil {
				a.logger.Warn("identity: failed to migrate session state on rotation", "oldId", id, "newId", newID, "err", err)
			}
		}
	}
	if err := a.keys.Set(ctx, newID, priv); err != nil {
		a.logger.Warn("identity: failed to persist rotated private key", "actorId", newID, "err", err)
	}

	return RotationResult{OldActor: revoked, NewActor: newRec}, nil
}

// ResolveCurrentActorID follows the supersededBy chain while the actor is
// revoked, capped at maxSuccessionDepth (chains are acyclic by construction).
func (a *Adapter) ResolveCurrentActorID(ctx context.Context, id string) (string, error) {
	current := id
	for depth := 0; depth < maxSuccessionDepth; depth++ {
		rec, err := a.GetActor(ctx, current)
		if err != nil || rec == nil {
			return current, nil
		}
		if rec.Payload.Status == contracts.ActorStatusRevoked && rec.Payload.SupersededBy != "" {
			current = rec.Payload.SupersededBy
			continue
		}
		return current, nil
	}
	return current, nil
}

// GetCurrentActor reads the session's current actor id, resolves
// succession, and falls back to the first active actor (spec §4.4).
func (a *Adapter) GetCurrentActor(ctx context.Context) (contracts.ActorRecord, error) {
	const op = "Identity.GetCurrentActor"
	if a.session != nil {
		if sessDoc, err := a.session.LoadSession(ctx); err == nil && sessDoc.CurrentActorID != "" {
			resolved, err := a.ResolveCurrentActorID(ctx, sessDoc.CurrentActorID)
			if err == nil {
				if rec, err := a.GetActor(ctx, resolved); err == nil && rec != nil {
					return *rec, nil
				}
			}
		}
	}

	actors, err := a.ListActors(ctx)
	if err != nil {
		return contracts.ActorRecord{}, err
	}
	for _, rec := range actors {
		if rec.Payload.Status == contracts.ActorStatusActive {
			return rec, nil
		}
	}
	return contracts.ActorRecord{}, gitgoverr.New(gitgoverr.KindNoActiveActor, op, "no active actor found")
}

// GetEffectiveActorForAgent resolves agentId through succession and returns
// the actor record it points to.
func (a *Adapter) GetEffectiveActorForAgent(ctx context.Context, agentID string) (*contracts.ActorRecord, error) {
	resolved, err := a.ResolveCurrentActorID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return a.GetActor(ctx, resolved)
}
