package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verbo-studio/verbo/pkg/adapter"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/policy"
	"github.com/verbo-studio/verbo/pkg/usecase/credential"
	"github.com/verbo-studio/verbo/pkg/usecase/history"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
)

type mockGenerator struct {
	apiKeys []string
}

func (m *mockGenerator) Generate(ctx context.Context, apiKey string, input model.UserInput) (*model.GeneratedContent, error) {
	m.apiKeys = append(m.apiKeys, apiKey)
	return &model.GeneratedContent{
		Script:           "Roteiro sobre " + input.Theme,
		Titles:           []string{"T1", "T2", "T3", "T4", "T5"},
		Tags:             []string{"fé", "coragem"},
		Description:      "Descrição",
		ThumbnailPrompts: []string{"P1", "P2", "P3"},
	}, nil
}

func (m *mockGenerator) RegenerateSection(ctx context.Context, apiKey string, section model.Section, input model.UserInput, current *model.GeneratedContent, idea string) (*model.Patch, error) {
	if idea == "fail" {
		return nil, errors.New("429 Too Many Requests")
	}
	return &model.Patch{
		Section: section,
		Content: model.GeneratedContent{Titles: []string{"N1", "N2", "N3", "N4", "N5"}},
	}, nil
}

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *mockGenerator) {
	t.Helper()
	storage, err := adapter.NewLocalStorage(t.TempDir())
	gt.NoError(t, err)

	keys := credential.New(storage)
	gen := &mockGenerator{}
	store := history.New(history.NewBlobPersister(storage))
	store.Load(context.Background())

	reviewer, err := policy.New(context.Background())
	gt.NoError(t, err)

	var out bytes.Buffer
	return &shell{
		ctrl:     studio.New(gen, store, keys),
		keys:     keys,
		reviewer: reviewer,
		out:      &out,
		spin: func(string) func() { return func() {} },
		readSecret: func(string) (string, error) {
			return "AIzaSyTESTKEY1234", nil
		},
	}, &out, gen
}

func run(t *testing.T, sh *shell, line string) error {
	t.Helper()
	quit, err := sh.exec(context.Background(), line)
	gt.False(t, quit)
	return err
}

func TestShellGenerateFlow(t *testing.T) {
	sh, out, gen := newTestShell(t)

	gt.NoError(t, run(t, sh, "key set"))
	gt.NoError(t, run(t, sh, "set theme Davi e Golias"))
	gt.NoError(t, run(t, sh, "set tom Épico"))
	gt.NoError(t, run(t, sh, "set audience Crianças"))
	gt.NoError(t, run(t, sh, "generate"))

	gt.Equal(t, gen.apiKeys, []string{"AIzaSyTESTKEY1234"})
	gt.S(t, out.String()).Contains("Tema: Davi e Golias")
	gt.S(t, out.String()).Contains("Roteiro sobre Davi e Golias")

	out.Reset()
	gt.NoError(t, run(t, sh, "regenerate titulos mais curtos"))
	gt.S(t, out.String()).Contains("Títulos")
	gt.S(t, out.String()).Contains("N1\nN2")

	out.Reset()
	gt.NoError(t, run(t, sh, "show tags"))
	gt.S(t, out.String()).Contains("fé, coragem")

	out.Reset()
	gt.NoError(t, run(t, sh, "history"))
	gt.S(t, out.String()).Contains("Davi e Golias")
	gt.S(t, out.String()).Contains("1*")
}

func TestShellRequiresFields(t *testing.T) {
	sh, _, gen := newTestShell(t)

	gt.NoError(t, run(t, sh, "set theme Rute"))
	err := run(t, sh, "generate")
	gt.Error(t, err)
	gt.Equal(t, userMessage(err), "Por favor, preencha os campos obrigatórios.")
	gt.A(t, gen.apiKeys).Length(0)
}

func TestShellRegenerateFailureKeepsContent(t *testing.T) {
	sh, out, _ := newTestShell(t)

	err := run(t, sh, "regenerate tags")
	gt.Error(t, err)
	gt.Equal(t, userMessage(err), "Nenhum conteúdo gerado. Gere um conteúdo primeiro.")

	gt.NoError(t, run(t, sh, "example"))
	gt.NoError(t, run(t, sh, "generate"))

	err = run(t, sh, "regenerate tags fail")
	gt.Error(t, err)
	gt.S(t, userMessage(err)).Contains("Não foi possível regenerar a seção Tags")

	out.Reset()
	gt.NoError(t, run(t, sh, "status"))
	gt.S(t, out.String()).Contains("Estado: error")

	out.Reset()
	gt.NoError(t, run(t, sh, "show"))
	gt.S(t, out.String()).Contains("Roteiro sobre Números 13")
}

func TestShellConversations(t *testing.T) {
	sh, out, _ := newTestShell(t)

	gt.NoError(t, run(t, sh, "example"))
	gt.NoError(t, run(t, sh, "generate"))
	gt.NoError(t, run(t, sh, "set theme Jonas"))
	gt.NoError(t, run(t, sh, "generate"))

	out.Reset()
	gt.NoError(t, run(t, sh, "select 2"))
	gt.S(t, out.String()).Contains("Números 13")
	gt.Equal(t, sh.ctrl.State().Input.Theme, exampleInput.Theme)

	gt.NoError(t, run(t, sh, "delete 2"))
	gt.True(t, sh.ctrl.State().Content == nil)
	gt.A(t, sh.ctrl.History()).Length(1)

	err := run(t, sh, "select missing")
	gt.Equal(t, userMessage(err), "Conversa não encontrada.")

	gt.NoError(t, run(t, sh, "select"))
	gt.Equal(t, sh.ctrl.State().Input.Theme, "Jonas")

	gt.NoError(t, run(t, sh, "new"))
	gt.Equal(t, sh.ctrl.State().Input, model.UserInput{})
}

func TestShellExport(t *testing.T) {
	sh, _, _ := newTestShell(t)
	path := filepath.Join(t.TempDir(), "out.txt")

	gt.Error(t, run(t, sh, "export "+path))

	gt.NoError(t, run(t, sh, "example"))
	gt.NoError(t, run(t, sh, "generate"))
	gt.NoError(t, run(t, sh, "export "+path))

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(data), studio.Export(sh.ctrl.State().Input, sh.ctrl.State().Content))
}

func TestShellKey(t *testing.T) {
	sh, out, _ := newTestShell(t)

	gt.NoError(t, run(t, sh, "key show"))
	gt.S(t, out.String()).Contains("Nenhuma chave de API configurada.")

	gt.NoError(t, run(t, sh, "key set"))
	out.Reset()
	gt.NoError(t, run(t, sh, "key show"))
	gt.Equal(t, out.String(), "AIza*********1234\n")

	out.Reset()
	gt.NoError(t, run(t, sh, "key reveal"))
	gt.Equal(t, out.String(), "AIzaSyTESTKEY1234\n")

	gt.NoError(t, run(t, sh, "key remove"))
	key, err := sh.keys.APIKey(context.Background())
	gt.NoError(t, err)
	gt.Equal(t, key, "")
}

func TestShellUnknownInput(t *testing.T) {
	sh, _, _ := newTestShell(t)

	gt.Error(t, run(t, sh, "dance"))
	gt.Error(t, run(t, sh, "set color blue"))
	gt.Error(t, run(t, sh, "regenerate intro"))
	gt.NoError(t, run(t, sh, ""))

	quit, err := sh.exec(context.Background(), "exit")
	gt.NoError(t, err)
	gt.True(t, quit)
}

func TestShellReview(t *testing.T) {
	sh, out, _ := newTestShell(t)

	err := run(t, sh, "review")
	gt.Equal(t, userMessage(err), "Nenhum conteúdo gerado. Gere um conteúdo primeiro.")

	gt.NoError(t, run(t, sh, "example"))
	gt.NoError(t, run(t, sh, "generate"))

	out.Reset()
	gt.NoError(t, run(t, sh, "review"))
	gt.Equal(t, out.String(), "Nenhum problema encontrado.\n")
}
