package ports

import "github.com/sweetshop/inventory-api/internal/core/domain"

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
}

// TokenVerifier checks a token's signature and expiry and returns the
// identity embedded at issuance.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// PasswordHasher is the one-way hash capability used by the credential flow.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(digest, plaintext string) bool
}
