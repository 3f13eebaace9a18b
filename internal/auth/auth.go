// Package auth binds a caller to one player seat of one game. Tokens are
// HS256 JWTs issued when the game is created.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnauthorized = errors.New("unauthorized")

type Claims struct {
	GameCode string `json:"game"`
	PlayerID string `json:"player"`
	jwt.RegisteredClaims
}

type Identity struct {
	GameCode string
	PlayerID string
}

// Authority signs and verifies player tokens. With an empty secret it runs in
// dev mode: no tokens are issued and the caller's claimed player id is trusted.
type Authority struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthority(secret string, ttl time.Duration) *Authority {
	return &Authority{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (a *Authority) DevMode() bool { return len(a.secret) == 0 }

// Issue returns a token for playerID in game code, or "" in dev mode.
func (a *Authority) Issue(code, playerID string) (string, error) {
	if a.DevMode() {
		return "", nil
	}
	now := a.now()
	claims := Claims{
		GameCode: code,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Identify resolves the caller for game code. In dev mode claimedPlayer is
// taken at face value; otherwise token must be valid and issued for code.
func (a *Authority) Identify(code, token, claimedPlayer string) (Identity, error) {
	if a.DevMode() {
		if claimedPlayer == "" {
			return Identity{}, fmt.Errorf("%w: missing player_id", ErrUnauthorized)
		}
		return Identity{GameCode: code, PlayerID: claimedPlayer}, nil
	}
	if token == "" {
		return Identity{}, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.GameCode != code {
		return Identity{}, fmt.Errorf("%w: token issued for another game", ErrUnauthorized)
	}
	return Identity{GameCode: claims.GameCode, PlayerID: claims.PlayerID}, nil
}

// Credentials pulls the caller's token and claimed player id off r. Browsers
// cannot set headers on a websocket upgrade, so both also come from the query.
func Credentials(r *http.Request) (token, playerID string) {
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		token = bearer
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	playerID = r.Header.Get("X-Player-ID")
	if playerID == "" {
		playerID = r.URL.Query().Get("player_id")
	}
	return token, playerID
}
