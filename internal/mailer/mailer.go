package mailer

// Mailer delivers the two security emails the core sends. Implementations
// must never include secrets beyond what the caller passes in: the reset
// url carries only an opaque request id.
type Mailer interface {
	SendOneTimeCode(toEmail, code string) error
	SendPasswordResetLink(toEmail, url string) error
}
