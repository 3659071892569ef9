package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	pkgerrors "github.com/creditpool/creditpool-backend/pkg/errors"
	"github.com/creditpool/creditpool-backend/pkg/redis"
)

const idempotencyScope = "contribute"

type replayRecord struct {
	Fingerprint string            `json:"fingerprint"`
	Result      *ContributeResult `json:"result,omitempty"`
}

func contributeFingerprint(input ContributeInput) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%t", input.UserID, input.CollectionID, input.Amount, input.Public)))
	return hex.EncodeToString(sum[:])
}

// contributeOnce claims the idempotency key before debiting. A retried
// request with the same key and payload gets the stored result back instead
// of a second debit.
func (s *service) contributeOnce(ctx context.Context, input ContributeInput) (*ContributeResult, error) {
	key := s.idem.IdempotencyKey(idempotencyScope, input.UserID.String()+":"+input.IdempotencyKey)
	fingerprint := contributeFingerprint(input)

	pending, err := json.Marshal(replayRecord{Fingerprint: fingerprint})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency record")
	}
	claimed, err := s.idem.SetNX(ctx, key, string(pending), s.idemTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	if !claimed {
		return s.replay(ctx, key, fingerprint)
	}

	result, err := s.contribute(ctx, input)
	if err != nil {
		// Failed attempts release the key so the client can retry.
		if delErr := s.idem.Del(context.WithoutCancel(ctx), key); delErr != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "idempotency_key", key), "release idempotency key", delErr)
		}
		return nil, err
	}

	stored, err := json.Marshal(replayRecord{Fingerprint: fingerprint, Result: result})
	if err == nil {
		err = s.idem.Set(context.WithoutCancel(ctx), key, string(stored), s.idemTTL)
	}
	if err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "idempotency_key", key), "store idempotent contribution", err)
	}
	return result, nil
}

func (s *service) replay(ctx context.Context, key, fingerprint string) (*ContributeResult, error) {
	raw, err := s.idem.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotent request is still in progress")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record")
	}
	var record replayRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode idempotency record")
	}
	if record.Fingerprint != fingerprint {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different payload")
	}
	if record.Result == nil {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotent request is still in progress")
	}
	result := *record.Result
	result.Replayed = true
	return &result, nil
}
