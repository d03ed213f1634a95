package studio

import (
	"strings"

	"github.com/verbo-studio/verbo/pkg/model"
)

const (
	// ExportFileName is the fixed name of the exported document
	ExportFileName = "conteudo_biblico_gerado.txt"

	exportHeader = "Gerador Bíblico de Conteúdo para YouTube"
	exportRule   = "===================="
)

// Export renders the content package as a plain-text document
func Export(input model.UserInput, content *model.GeneratedContent) string {
	var b strings.Builder
	b.WriteString(exportHeader + "\n")
	b.WriteString("Tema: " + input.Theme + "\n\n")

	for _, section := range model.Sections() {
		b.WriteString(section.Label() + "\n")
		b.WriteString(exportRule + "\n")
		b.WriteString(content.Text(section) + "\n\n")
	}
	return b.String()
}
