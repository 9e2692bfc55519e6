package members

import "errors"

// FormError ошибка ввода, текст которой показывается пользователю в форме.
type FormError struct {
	Msg string
}

func (e *FormError) Error() string {
	return e.Msg
}

func formError(msg string) error {
	return &FormError{Msg: msg}
}

var (
	// ErrInvalidKey ключ из ссылки не совпал ни с одной учетной записью.
	ErrInvalidKey = errors.New("invalid key")
	// ErrStaffAccount служебную учетную запись удалить нельзя.
	ErrStaffAccount = errors.New("impossible to remove staff account")
)

// Тексты сообщений, которые видит пользователь.
const (
	MsgMaxMembers = "Max member reach. I'm sorry about that, don't forget that it's " +
		"a beta version of Sublimall. Registrations will been soon re-opened!"
	MsgEmptyEmail       = "Email can't be empty."
	MsgEmptyPassword    = "Password can't be empty."
	MsgInvalidEmail     = "Need a valid email."
	MsgPasswordMismatch = "Password doesn't match."
	MsgEmailMismatch    = "Emails doesn't match."
	MsgEmailUsed        = "Email already used."
	MsgCreateFailed     = "Error while creating your account. A report have been sent. Sorry about that."
)

// Темы писем.
const (
	SubjectRegistration = "Sublimall.org account confirmation"
	SubjectRecovery     = "Sublimall.org password recovery"
	SubjectDeleted      = "Sublimall.org account deleted"
)
