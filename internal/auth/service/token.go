package service

import (
	"time"

	"github.com/legionkimitri/authd/internal/auth/domain"
	"github.com/legionkimitri/authd/pkg/jwtx"
)

// TokenService mints access/refresh token pairs. Access and refresh
// tokens are signed with distinct secrets so a leaked refresh secret
// cannot forge access tokens and vice versa.
type TokenService struct {
	Access  jwtx.HS256
	Refresh jwtx.HS256
	Issuer  string

	AccessTTL  time.Duration // defaults to jwtx.DefaultAccessTTL
	RefreshTTL time.Duration // defaults to jwtx.DefaultRefreshTTL
}

// IssuePair signs a fresh access+refresh pair for the user. The expiry
// timestamps ride along so callers can derive storage expiry without
// re-parsing the tokens.
func (s *TokenService) IssuePair(userID, name, username string) (domain.TokenPair, error) {
	accessTTL := s.AccessTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTTL
	}
	refreshTTL := s.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTTL
	}

	now := time.Now()

	access, err := s.Access.Sign(jwtx.NewAccessClaims(userID, name, username, s.Issuer, accessTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Refresh.Sign(jwtx.NewRefreshClaims(userID, s.Issuer, refreshTTL, now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(accessTTL),
		RefreshExpiresAt: now.Add(refreshTTL),
	}, nil
}
