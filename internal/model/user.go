package model

import "time"

// Role names stored in the users.role column and carried in JWT claims.
const (
	RoleDJ       = "DJ"
	RoleAudience = "AUDIENCE"
)

// User represents an application user record as stored in the `users`
// table. Audience accounts are created on first join and carry no
// password; DJ accounts register with credentials and an e-mail address
// that is flagged once verified.
//
// Fields:
//  ID            – primary key identifier of the user.
//  Username      – unique display name used to log in.
//  Email         – e-mail address; empty for audience accounts.
//  PasswordHash  – bcrypt hashed password; empty for audience accounts.
//  Role          – DJ or AUDIENCE.
//  EmailVerified – whether the DJ confirmed their e-mail address.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	ID            uint64    // users.id
	Username      string    // users.username
	Email         string    // users.email
	PasswordHash  string    // users.password_hash
	Role          string    // users.role
	EmailVerified bool      // users.email_verified
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation. The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
