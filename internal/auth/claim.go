package auth

// Provider is a closed set. Adding a provider is a reviewed code change:
// every switch over Provider handles each tag explicitly.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderApple  Provider = "apple"
	ProviderGoogle Provider = "google"
)

// Claim is a verified, ephemeral statement of identity produced from a
// raw credential. It contains facts only, no decisions.
type Claim struct {
	Provider Provider
	Subject  string // provider-scoped subject id; empty for local
	Email    string // email asserted by the provider

	// Optional profile facts, used only when creating a new account.
	Name    string
	Picture string

	// Optional push-delivery token supplied alongside the credential.
	DeviceToken string
}
