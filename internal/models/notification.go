package models

// Названия шаблонов писем.
const (
	TemplateRegistrationConfirmation = "registration-confirmation"
	TemplatePasswordRecovery         = "password-recovery"
	TemplateAccountDeleted           = "account-deleted"
)

// Notification письмо, которое нужно отрисовать по шаблону и отправить.
// Передается через RabbitMQ в формате JSON.
type Notification struct {
	Subject  string            `json:"subject"`
	To       string            `json:"to"`
	Template string            `json:"template"`
	Context  map[string]string `json:"context"`
}
