package mailer

// Job kinds published by the API and consumed by cmd/email_worker.
const (
	KindWelcome        = "welcome"
	KindAccountBlocked = "account_blocked"
)

// EmailJob is the JSON payload put on the RabbitMQ queue. Subject/Text/HTML
// may be filled in by the producer; when Kind is set the worker composes
// the body itself from Name.
type EmailJob struct {
	To      string `json:"to"`
	Kind    string `json:"kind,omitempty"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject,omitempty"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}
