package generation_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/verbo-studio/verbo/pkg/usecase/generation"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want generation.Kind
	}{
		{"missing credential", goerr.Wrap(generation.ErrMissingCredential, "no key"), generation.KindMissingCredential},
		{"invalid key", errors.New("API key not valid. Please pass a valid API key."), generation.KindInvalidCredential},
		{"invalid key reason", errors.New("reason: API_KEY_INVALID"), generation.KindInvalidCredential},
		{"quota", errors.New("You exceeded your current quota"), generation.KindQuotaExceeded},
		{"status 429", errors.New("Error 429, Status: RESOURCE_EXHAUSTED"), generation.KindQuotaExceeded},
		{"quota wins over safety", errors.New("429 too many requests while evaluating safety settings"), generation.KindQuotaExceeded},
		{"safety", errors.New("candidate blocked due to SAFETY"), generation.KindSafetyBlocked},
		{"billing", errors.New("Billing account is disabled"), generation.KindBillingIssue},
		{"unknown", errors.New("connection reset by peer"), generation.KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, generation.Classify(tc.err), tc.want)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	gt.Equal(t, generation.Classify(nil), generation.Kind(""))
}

func TestUserMessageForeignError(t *testing.T) {
	gt.Equal(t, generation.UserMessage(nil), "")
	gt.S(t, generation.UserMessage(errors.New("boom"))).Contains("Falha ao gerar conteúdo")
	gt.Equal(t, generation.KindOf(errors.New("boom")), generation.KindUnknown)
}
