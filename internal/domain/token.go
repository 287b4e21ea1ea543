package domain

import "time"

// Push registrations live in two storage shapes and the effective token set
// for a user is the deduplicated union of both:
//
//   - PushToken: one legacy singleton record per user email.
//   - DeviceToken: one record per registered device, flagged active/inactive.
//
// Stored tokens are SNS platform-endpoint ARNs, created at registration time.

// PushToken is the legacy one-token-per-user record.
type PushToken struct {
	Email     string    `json:"email" dynamodbav:"user_email"`
	Token     string    `json:"token" dynamodbav:"token"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// DeviceToken is one registered device of a user.
type DeviceToken struct {
	Email     string    `json:"email" dynamodbav:"user_email"`
	DeviceID  string    `json:"id" dynamodbav:"device_id"`
	Token     string    `json:"token" dynamodbav:"token"`
	Activo    *bool     `json:"activo" dynamodbav:"activo"`
	Platform  string    `json:"platform" dynamodbav:"platform"` // "web" | "android" | "ios"
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Active reports whether the device should receive pushes. A missing flag
// counts as active — older clients never wrote it.
func (d *DeviceToken) Active() bool {
	return d.Activo == nil || *d.Activo
}

type RegisterDeviceRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=web android ios"`
}
