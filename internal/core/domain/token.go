package domain

// TokenKind discriminates what a signed token may be used for. A token is
// only accepted when verified against the kind it was minted with.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// OneTimePurpose scopes a single-use token to exactly one flow.
type OneTimePurpose string

const (
	PurposeVerification  OneTimePurpose = "verification"
	PurposePasswordReset OneTimePurpose = "password_reset"
)

// TokenClaims is the verified payload carried by an access or refresh token.
type TokenClaims struct {
	UserID string
	Role   string
	Kind   TokenKind
	ID     string // jti, unique per minted token
}

// TokenPair is the access+refresh pair issued at login, registration,
// OAuth sign-in, and on every successful rotation.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
