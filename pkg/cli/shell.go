package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/policy"
	"github.com/verbo-studio/verbo/pkg/usecase/credential"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

const shellHelp = `Comandos:
  set <campo> <valor>        define um campo da entrada (theme, tone, audience, idea,
                             title-ideas, description-ideas, thumbnail-ideas)
  input                      mostra a entrada atual
  example                    preenche a entrada com um exemplo
  generate                   gera o pacote de conteúdo completo
  show [seção]               mostra o conteúdo atual ou uma seção
  regenerate <seção> [ideia] regenera uma seção (script, titles, tags, description, thumbnails)
  review                     verifica o conteúdo atual com as políticas (limites do YouTube)
  history                    lista as conversas salvas
  select <n|id>              abre uma conversa salva
  delete <n|id>              exclui uma conversa salva
  new                        inicia uma nova conversa
  export [arquivo]           exporta o conteúdo atual (padrão: conteudo_biblico_gerado.txt)
  key set|show|reveal|remove gerencia a chave de API do Gemini
  status                     mostra o estado atual
  help                       mostra esta ajuda
  exit                       sai
`

var inputFields = map[string]func(x *model.UserInput) *string{
	"theme":             func(x *model.UserInput) *string { return &x.Theme },
	"tema":              func(x *model.UserInput) *string { return &x.Theme },
	"tone":              func(x *model.UserInput) *string { return &x.Tone },
	"tom":               func(x *model.UserInput) *string { return &x.Tone },
	"audience":          func(x *model.UserInput) *string { return &x.Audience },
	"publico":           func(x *model.UserInput) *string { return &x.Audience },
	"idea":              func(x *model.UserInput) *string { return &x.CreativeIdea },
	"ideia":             func(x *model.UserInput) *string { return &x.CreativeIdea },
	"title-ideas":       func(x *model.UserInput) *string { return &x.TitleIdeas },
	"description-ideas": func(x *model.UserInput) *string { return &x.DescriptionIdeas },
	"thumbnail-ideas":   func(x *model.UserInput) *string { return &x.ThumbnailIdeas },
}

var exampleInput = model.UserInput{
	Theme:        "Números 13 – Os espias e a Terra Prometida",
	Tone:         "Inspirador e devocional",
	Audience:     "Jovens cristãos e líderes de célula",
	CreativeIdea: "Mostrar como a fé vence o medo e a incredulidade",
}

// shell runs interactive commands against one controller session
type shell struct {
	ctrl       *studio.Controller
	keys       *credential.Store
	reviewer   *policy.Reviewer
	out        io.Writer
	spin       func(message string) func()
	readSecret func(prompt string) (string, error)
}

// exec runs one command line. It reports true when the shell should exit.
func (s *shell) exec(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "exit", "quit", "sair":
		return true, nil
	case "help", "ajuda", "?":
		fmt.Fprint(s.out, shellHelp)
	case "set":
		return false, s.set(rest)
	case "input":
		s.printInput(s.ctrl.State().Input)
	case "example":
		if err := s.ctrl.SetInput(exampleInput); err != nil {
			return false, err
		}
		s.printInput(exampleInput)
	case "generate":
		return false, s.generate(ctx)
	case "show":
		return false, s.show(rest)
	case "regenerate":
		return false, s.regenerate(ctx, rest)
	case "review":
		return false, s.review(ctx)
	case "history":
		return false, printHistory(s.out, s.ctrl.History(), s.ctrl.State().ActiveID)
	case "select":
		return false, s.selectConversation(rest)
	case "delete":
		return false, s.deleteConversation(ctx, rest)
	case "new":
		if err := s.ctrl.NewConversation(); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "Nova conversa iniciada.")
	case "export":
		return false, s.export(rest)
	case "key":
		return false, s.key(ctx, rest)
	case "status":
		s.printStatus()
	default:
		return false, goerr.New("unknown command, type help", goerr.V("command", cmd))
	}
	return false, nil
}

func (s *shell) set(args string) error {
	name, value, _ := strings.Cut(args, " ")
	field, ok := inputFields[strings.ToLower(name)]
	if !ok {
		return goerr.New("unknown input field", goerr.V("field", name))
	}

	input := s.ctrl.State().Input
	*field(&input) = strings.TrimSpace(value)
	return s.ctrl.SetInput(input)
}

func (s *shell) printInput(input model.UserInput) {
	fmt.Fprintf(s.out, "📖 Tema: %s\n🎭 Tom: %s\n👥 Público: %s\n💡 Ideia criativa: %s\n",
		input.Theme, input.Tone, input.Audience, input.CreativeIdea)
	fmt.Fprintf(s.out, "Ideias para títulos: %s\nIdeias para descrição: %s\nIdeias para thumbnails: %s\n",
		input.TitleIdeas, input.DescriptionIdeas, input.ThumbnailIdeas)
}

func (s *shell) printStatus() {
	state := s.ctrl.State()
	fmt.Fprintf(s.out, "Estado: %s\n", state.Status)
	if state.ActiveID != "" {
		fmt.Fprintf(s.out, "Conversa ativa: %s\n", state.ActiveID)
	}
	if state.Message != "" {
		fmt.Fprintf(s.out, "Último erro: %s\n", state.Message)
	}
}

func (s *shell) generate(ctx context.Context) error {
	stop := s.spin("Gerando conteúdo...")
	conv, err := s.ctrl.Generate(ctx, s.ctrl.State().Input)
	stop()
	if err != nil {
		return err
	}

	fmt.Fprint(s.out, studio.Export(conv.Input, conv.Content))
	reviewContent(ctx, s.out, s.reviewer, conv.Content)
	fmt.Fprintf(s.out, "Conversa salva: %s\n", conv.Title)
	return nil
}

func (s *shell) show(args string) error {
	state := s.ctrl.State()
	if state.Content == nil {
		return goerr.Wrap(studio.ErrNoContent, "nothing to show")
	}

	if args == "" {
		fmt.Fprint(s.out, studio.Export(state.Input, state.Content))
		return nil
	}

	section, err := parseSection(args)
	if err != nil {
		return err
	}
	printSection(s.out, state.Content, section)
	return nil
}

func (s *shell) regenerate(ctx context.Context, args string) error {
	name, idea, _ := strings.Cut(args, " ")
	section, err := parseSection(name)
	if err != nil {
		return err
	}

	stop := s.spin(fmt.Sprintf("Regenerando %s...", section.Name()))
	content, err := s.ctrl.Regenerate(ctx, section, strings.TrimSpace(idea))
	stop()
	if err != nil {
		return err
	}

	printSection(s.out, content, section)
	reviewContent(ctx, s.out, s.reviewer, content)
	return nil
}

func (s *shell) review(ctx context.Context) error {
	content := s.ctrl.State().Content
	if content == nil {
		return goerr.Wrap(studio.ErrNoContent, "nothing to review")
	}
	if s.reviewer == nil {
		return nil
	}

	findings, err := s.reviewer.Review(ctx, content)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Fprintln(s.out, "Nenhum problema encontrado.")
		return nil
	}
	printFindings(s.out, findings)
	return nil
}

func (s *shell) selectConversation(ref string) error {
	id, err := resolveConversation(s.ctrl.History(), ref)
	if err != nil {
		return err
	}
	conv, err := s.ctrl.SelectConversation(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Conversa aberta: %s\n", conv.Title)
	return nil
}

func (s *shell) deleteConversation(ctx context.Context, ref string) error {
	if ref == "" {
		return goerr.New("conversation id or number is required")
	}
	id, err := resolveConversation(s.ctrl.History(), ref)
	if err != nil {
		return err
	}
	if err := s.ctrl.DeleteConversation(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Conversa excluída.")
	return nil
}

func (s *shell) export(path string) error {
	if path == "" {
		path = studio.ExportFileName
	}
	text, err := s.ctrl.Export()
	if err != nil {
		return err
	}
	return writeExport(s.out, path, text)
}

func (s *shell) key(ctx context.Context, args string) error {
	switch args {
	case "set":
		secret, err := s.readSecret("Chave de API do Gemini: ")
		if err != nil {
			return err
		}
		if err := s.keys.Set(ctx, secret); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Chave de API salva.")

	case "", "show", "reveal":
		key, ok, err := s.keys.View(ctx, args == "reveal")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "Nenhuma chave de API configurada.")
			return nil
		}
		fmt.Fprintln(s.out, key)

	case "remove":
		if err := s.keys.Remove(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Chave de API removida.")

	default:
		return goerr.New("unknown key command", goerr.V("command", args))
	}
	return nil
}

func shellCompleter() *readline.PrefixCompleter {
	sections := []readline.PrefixCompleterInterface{
		readline.PcItem("script"),
		readline.PcItem("titles"),
		readline.PcItem("tags"),
		readline.PcItem("description"),
		readline.PcItem("thumbnails"),
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("set",
			readline.PcItem("theme"),
			readline.PcItem("tone"),
			readline.PcItem("audience"),
			readline.PcItem("idea"),
			readline.PcItem("title-ideas"),
			readline.PcItem("description-ideas"),
			readline.PcItem("thumbnail-ideas"),
		),
		readline.PcItem("input"),
		readline.PcItem("example"),
		readline.PcItem("generate"),
		readline.PcItem("show", sections...),
		readline.PcItem("regenerate", sections...),
		readline.PcItem("review"),
		readline.PcItem("history"),
		readline.PcItem("select"),
		readline.PcItem("delete"),
		readline.PcItem("new"),
		readline.PcItem("export"),
		readline.PcItem("key",
			readline.PcItem("set"),
			readline.PcItem("show"),
			readline.PcItem("reveal"),
			readline.PcItem("remove"),
		),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func shellCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive session: edit input, generate, regenerate sections and browse history",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, err := cfg.setupLogger(ctx, errWriter(c))
			if err != nil {
				return err
			}

			a, err := cfg.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rlConfig := &readline.Config{
				Prompt:          "verbo> ",
				AutoComplete:    shellCompleter(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			}
			if cfg.bucket == "" {
				rlConfig.HistoryFile = filepath.Join(cfg.dataDir, "shell_history")
			}

			rl, err := readline.NewEx(rlConfig)
			if err != nil {
				return goerr.Wrap(err, "failed to start shell")
			}
			defer rl.Close()

			sh := &shell{
				ctrl:     a.ctrl,
				keys:     a.keys,
				reviewer: a.reviewer,
				out:      rl.Stdout(),
				spin: func(message string) func() {
					return startSpinner(errWriter(c), message)
				},
				readSecret: func(prompt string) (string, error) {
					secret, err := rl.ReadPassword(prompt)
					if err != nil {
						return "", goerr.Wrap(err, "failed to read secret")
					}
					return string(secret), nil
				},
			}

			fmt.Fprintln(sh.out, "Gerador Bíblico de Conteúdo para YouTube. Digite help para ver os comandos.")
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read command")
				}

				quit, err := sh.exec(ctx, line)
				if err != nil {
					logging.From(ctx).Debug("shell command failed", "line", line, "error", err)
					fmt.Fprintf(rl.Stderr(), "Erro: %s\n", userMessage(err))
				}
				if quit {
					return nil
				}
			}
		},
	}
}
