package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// stateClaims is the per-actor State wrapped as JWT claims, mirroring the
// teacher's IdentityClaims pattern: registered claims plus a domain
// payload, HMAC-signed so a session file can't be hand-edited to impersonate
// another actor without the signing secret.
type stateClaims struct {
	jwt.RegisteredClaims
	StateJSON string `json:"state"`
}

// JWT wraps an FS session store, signing/verifying each actor's state as a
// JWT before it is persisted. Useful when .session.json is shared across a
// trust boundary (e.g. mounted into a sandboxed agent run) and must be
// tamper-evident.
type JWT struct {
	inner  *FS
	secret []byte
	ttl    time.Duration
}

func NewJWT(gitgovDir string, secret []byte, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWT{inner: NewFS(gitgovDir), secret: secret, ttl: ttl}
}

func (j *JWT) sign(actorID string, state State) (string, error) {
	body, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("session(jwt): encode state: %w", err)
	}
	now := time.Now().UTC()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			Issuer:    "gitgov/session",
		},
		StateJSON: string(body),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWT) verify(tokenString string) (State, error) {
	token, err := jwt.ParseWithClaims(tokenString, &stateClaims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		return State{}, fmt.Errorf("session(jwt): parse: %w", err)
	}
	claims, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid {
		return State{}, fmt.Errorf("session(jwt): invalid token")
	}
	var state State
	if err := json.Unmarshal([]byte(claims.StateJSON), &state); err != nil {
		return State{}, fmt.Errorf("session(jwt): decode state: %w", err)
	}
	return state, nil
}

func (j *JWT) LoadSession(ctx context.Context) (*Session, error) {
	doc, err := j.inner.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	out := &Session{CurrentActorID: doc.CurrentActorID, States: make(map[string]State, len(doc.States))}
	for actorID, wrapped := range doc.States {
		token, _ := wrapped.Extra["token"].(string)
		if token == "" {
			continue
		}
		state, err := j.verify(token)
		if err != nil {
			return nil, err
		}
		out.States[actorID] = state
	}
	return out, nil
}

func (j *JWT) GetActorState(ctx context.Context, actorID string) (State, bool, error) {
	wrapped, ok, err := j.inner.GetActorState(ctx, actorID)
	if err != nil || !ok {
		return State{}, ok, err
	}
	token, _ := wrapped.Extra["token"].(string)
	if token == "" {
		return State{}, false, nil
	}
	state, err := j.verify(token)
	if err != nil {
		return State{}, false, err
	}
	return state, true, nil
}

func (j *JWT) UpdateActorState(ctx context.Context, actorID string, state State) error {
	token, err := j.sign(actorID, state)
	if err != nil {
		return err
	}
	return j.inner.UpdateActorState(ctx, actorID, State{
		ActorID: actorID,
		Extra:   map[string]interface{}{"token": token},
	})
}
