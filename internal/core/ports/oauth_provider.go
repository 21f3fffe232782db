package ports

import "context"

// OAuthProfile is the normalized identity returned by a provider after a
// successful code exchange.
type OAuthProfile struct {
	Provider  string
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Avatar    string
}

// OAuthProvider wraps one upstream provider's authorization-code handshake.
type OAuthProvider interface {
	Name() string
	AuthURL(state string) string
	FetchProfile(ctx context.Context, code string) (*OAuthProfile, error)
}
