package generation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/model"
)

var (
	ErrMissingCredential = goerr.New("gemini api key is not configured")
)

// Kind is the user-facing cause of a failed generation
type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindInvalidCredential Kind = "invalid_credential"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindSafetyBlocked     Kind = "safety_blocked"
	KindBillingIssue      Kind = "billing_issue"
	KindUnknown           Kind = "unknown"
)

// classifiers are checked in order against the lowercased error text; the
// first match wins. A quota signal therefore beats a "safety" substring in
// the same message.
var classifiers = []struct {
	kind       Kind
	indicators []string
}{
	{KindInvalidCredential, []string{"api key not valid", "api_key_invalid", "invalid api key"}},
	{KindQuotaExceeded, []string{"quota", "429", "resource_exhausted", "rate limit"}},
	{KindSafetyBlocked, []string{"safety"}},
	{KindBillingIssue, []string{"billing"}},
}

// Classify maps a raw error from the AI service to a Kind
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingCredential) {
		return KindMissingCredential
	}

	msg := strings.ToLower(err.Error())
	for _, c := range classifiers {
		for _, indicator := range c.indicators {
			if strings.Contains(msg, indicator) {
				return c.kind
			}
		}
	}
	return KindUnknown
}

var messages = map[Kind]string{
	KindMissingCredential: "Chave de API não configurada. Configure sua chave do Gemini para continuar.",
	KindInvalidCredential: "Sua chave de API é inválida. Verifique a chave configurada e tente novamente.",
	KindQuotaExceeded:     "Limite de uso da API atingido. Aguarde alguns minutos e tente novamente.",
	KindSafetyBlocked:     "O conteúdo foi bloqueado pelas políticas de segurança. Tente reformular o tema ou a ideia.",
	KindBillingIssue:      "Há um problema de faturamento na sua conta do Google. Verifique as configurações de pagamento.",
	KindUnknown:           "Falha ao gerar conteúdo. Por favor, verifique sua conexão e sua chave de API e tente novamente.",
}

// Error is a classified generation failure. Error() keeps the technical
// cause for logs; Message() is what users see.
type Error struct {
	Kind    Kind
	Section model.Section // empty for full generation
	cause   error
}

func newError(cause error, section model.Section) *Error {
	return &Error{
		Kind:    Classify(cause),
		Section: section,
		cause:   cause,
	}
}

func (x *Error) Error() string {
	if x.Section != "" {
		return fmt.Sprintf("%s (section %s): %v", x.Kind, x.Section, x.cause)
	}
	return fmt.Sprintf("%s: %v", x.Kind, x.cause)
}

func (x *Error) Unwrap() error {
	return x.cause
}

// Message returns the localized message shown to users
func (x *Error) Message() string {
	msg, ok := messages[x.Kind]
	if !ok {
		msg = messages[KindUnknown]
	}
	if x.Section != "" {
		return fmt.Sprintf("Não foi possível regenerar a seção %s. %s", x.Section.Name(), msg)
	}
	return msg
}

// UserMessage returns the user-facing message of any error returned by the
// generator. Unclassified errors get the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Message()
	}
	return messages[KindUnknown]
}

// KindOf returns the Kind of a generator error, or KindUnknown
func KindOf(err error) Kind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return KindUnknown
}
