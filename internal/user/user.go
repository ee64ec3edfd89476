package user

import "time"

// User is the durable identity record held by the directory.
// PasswordHash is empty for third-party-only accounts; password
// login is enabled iff it is set.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string

	// ProviderIDs maps a provider tag (e.g. "apple") to the external
	// subject id that provider knows the user by.
	ProviderIDs map[string]string

	AvatarURL   string
	Bio         string
	Locale      string
	Timezone    string
	DeviceToken string
	PushEnabled bool
	IsActive    bool

	CreatedAt time.Time
	UpdatedAt time.Time
	LastLogin *time.Time
}
