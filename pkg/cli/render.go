package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/verbo-studio/verbo/pkg/model"
	"github.com/verbo-studio/verbo/pkg/policy"
	"github.com/verbo-studio/verbo/pkg/usecase/generation"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

var sectionAliases = map[string]model.Section{
	"script":           model.SectionScript,
	"roteiro":          model.SectionScript,
	"titles":           model.SectionTitles,
	"titulos":          model.SectionTitles,
	"títulos":          model.SectionTitles,
	"tags":             model.SectionTags,
	"description":      model.SectionDescription,
	"descricao":        model.SectionDescription,
	"descrição":        model.SectionDescription,
	"thumbnails":       model.SectionThumbnailPrompts,
	"thumbnailprompts": model.SectionThumbnailPrompts,
}

// parseSection accepts section names in English or Portuguese
func parseSection(name string) (model.Section, error) {
	section, ok := sectionAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", goerr.Wrap(model.ErrInvalidSection, "unknown section", goerr.V("section", name))
	}
	return section, nil
}

// userMessage returns the text shown for err. Domain failures get their
// Portuguese message; anything else is a configuration or usage error and
// is shown as is.
func userMessage(err error) string {
	var genErr *generation.Error
	switch {
	case errors.As(err, &genErr),
		errors.Is(err, model.ErrRequiredFields),
		errors.Is(err, model.ErrInvalidSection),
		errors.Is(err, studio.ErrBusy),
		errors.Is(err, studio.ErrNoContent),
		errors.Is(err, studio.ErrConversationNotFound),
		errors.Is(err, studio.ErrStaleResult):
		return studio.UserMessage(err)
	default:
		return err.Error()
	}
}

func printSection(w io.Writer, content *model.GeneratedContent, section model.Section) {
	fmt.Fprintf(w, "%s\n====================\n%s\n\n", section.Label(), content.Text(section))
}

func printHistory(w io.Writer, conversations []*model.Conversation, active model.ConversationID) error {
	if len(conversations) == 0 {
		fmt.Fprintln(w, "Nenhuma conversa salva.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tDATA\tTÍTULO")
	for i, c := range conversations {
		mark := ""
		if c.ID == active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\n", i+1, mark, c.ID, c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Title)
	}
	if err := tw.Flush(); err != nil {
		return goerr.Wrap(err, "failed to write history")
	}
	return nil
}

// writeExport writes the document to path, or to w when path is "-"
func writeExport(w io.Writer, path, text string) error {
	if path == "-" {
		_, err := io.WriteString(w, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return goerr.Wrap(err, "failed to write export", goerr.V("path", path))
	}
	fmt.Fprintf(w, "Conteúdo exportado para %s\n", path)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}

// startSpinner shows a spinner on w while the AI request runs. It prints
// the message once when w is not a terminal.
func startSpinner(w io.Writer, message string) func() {
	if !isTerminal(w) {
		fmt.Fprintln(w, message)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}

func printFindings(w io.Writer, findings []policy.Finding) {
	for _, f := range findings {
		fmt.Fprintf(w, "⚠️  %s: %s\n", f.Section.Name(), f.Message)
	}
}

// reviewContent prints policy findings for content to w. A failing policy
// evaluation is logged and does not fail the command.
func reviewContent(ctx context.Context, w io.Writer, reviewer *policy.Reviewer, content *model.GeneratedContent) []policy.Finding {
	if reviewer == nil {
		return nil
	}
	findings, err := reviewer.Review(ctx, content)
	if err != nil {
		logging.From(ctx).Warn("failed to review content", "error", err)
		return nil
	}
	printFindings(w, findings)
	return findings
}
