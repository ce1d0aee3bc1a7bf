// Package reporedis backs the session store with Redis for deployments
// where the partner gateway and the resolver endpoint run as separate
// processes. Sessions live as hashes under session:{token} with a TTL, so
// expiry sweeping is handled by Redis itself.
package reporedis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-qr-login-relay/sessions"
)

const keyPrefix = "session:"

var _ sessions.Repo = (*Repo)(nil)

// resolveScript commits a resolution only while resolvedBy is still unset.
// Returns -1 when the key is gone, 0 when another resolver won the race,
// 1 on commit. One script call keeps the whole write atomic.
var resolveScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
if redis.call("HGET", KEYS[1], "resolvedBy") then
	return 0
end
redis.call("HSET", KEYS[1],
	"resolvedBy", ARGV[1],
	"resolvedCredentialId", ARGV[2],
	"loginIdentifier", ARGV[3],
	"secret", ARGV[4],
	"resolvedAt", ARGV[5])
return 1
`)

type Repo struct {
	cli *redis.Client
	ttl time.Duration
}

// New connects to Redis and verifies the connection. The ttl bounds how long
// a session key lives; zero keeps keys forever (not recommended).
func New(ctx context.Context, url string, ttl time.Duration) (*Repo, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "[reporedis.New] redis.ParseURL")
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, errors.Wrap(err, "[reporedis.New] redis ping")
	}
	return &Repo{cli: cli, ttl: ttl}, nil
}

func (r *Repo) Close() error {
	return r.cli.Close()
}

func (r *Repo) Insert(ctx context.Context, session *sessions.LoginSession) error {
	key := keyPrefix + session.Token

	// HSETNX on the token field is the duplicate guard; losing it means a
	// live session already owns this token.
	ok, err := r.cli.HSetNX(ctx, key, "token", session.Token).Result()
	if err != nil {
		return errors.Wrap(err, "[reporedis.Insert] HSetNX")
	}
	if !ok {
		return sessions.ErrDuplicateToken
	}

	if err := r.cli.HSet(ctx, key,
		"partnerKey", session.PartnerKey,
		"siteIdentity", session.SiteIdentity,
		"createdAt", session.CreatedAt.Format(time.RFC3339Nano),
	).Err(); err != nil {
		return errors.Wrap(err, "[reporedis.Insert] HSet")
	}

	if r.ttl > 0 {
		if err := r.cli.Expire(ctx, key, r.ttl).Err(); err != nil {
			return errors.Wrap(err, "[reporedis.Insert] Expire")
		}
	}
	return nil
}

func (r *Repo) FindByToken(ctx context.Context, tokenStr string) (*sessions.LoginSession, error) {
	fields, err := r.cli.HGetAll(ctx, keyPrefix+tokenStr).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[reporedis.FindByToken] HGetAll")
	}
	if len(fields) == 0 {
		return nil, sessions.ErrNotFound
	}

	session := &sessions.LoginSession{
		Token:                fields["token"],
		PartnerKey:           fields["partnerKey"],
		SiteIdentity:         fields["siteIdentity"],
		ResolvedBy:           fields["resolvedBy"],
		ResolvedCredentialID: fields["resolvedCredentialId"],
		LoginIdentifier:      fields["loginIdentifier"],
		Secret:               fields["secret"],
	}
	if session.CreatedAt, err = parseTime(fields["createdAt"]); err != nil {
		return nil, errors.Wrap(err, "[reporedis.FindByToken] createdAt")
	}
	if v := fields["resolvedAt"]; v != "" {
		if session.ResolvedAt, err = parseTime(v); err != nil {
			return nil, errors.Wrap(err, "[reporedis.FindByToken] resolvedAt")
		}
	}
	return session, nil
}

func (r *Repo) Resolve(ctx context.Context, tokenStr string, resolution sessions.Resolution) error {
	res, err := resolveScript.Run(ctx, r.cli, []string{keyPrefix + tokenStr},
		resolution.ResolvedBy,
		resolution.ResolvedCredentialID,
		resolution.LoginIdentifier,
		resolution.Secret,
		resolution.ResolvedAt.Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return errors.Wrap(err, "[reporedis.Resolve] script")
	}

	switch res {
	case 1:
		return nil
	case 0:
		return sessions.ErrAlreadyResolved
	default:
		return sessions.ErrNotFound
	}
}

// DeleteExpired is a no-op: session keys carry a native TTL.
func (r *Repo) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
