// Package remedy holds the remediation document model and the two
// LLM-driven operations on it: matching an incident against the catalog and
// drafting a new playbook.
package remedy

import "strings"

// Source records where a document came from.
type Source string

const (
	// SourceGenerated marks documents drafted by the generator.
	SourceGenerated Source = "generated"
	// SourceCatalog marks documents retrieved from the reference catalog.
	SourceCatalog Source = "catalog"
)

// documentMarker is the canonical YAML document-start marker every
// remediation document begins with.
const documentMarker = "---"

// Document is a remediation playbook.
//
// Documents are ephemeral: constructed in memory per incident, written to a
// branch file, then discarded.
type Document struct {
	// Content is the canonical playbook text, beginning with the document
	// marker and free of markup-fence artifacts.
	Content string

	// Source is where the document came from.
	Source Source

	// Path is the repository-relative file path for catalog documents.
	Path string
}

// Format normalizes raw model output into canonical document content.
//
// It strips markdown code-fence markers, trims surrounding whitespace, and
// ensures exactly one document-start marker at the top. Formatting already
// canonical content is a no-op.
func Format(raw string) string {
	content := strings.ReplaceAll(raw, "```yaml", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, documentMarker)
	content = strings.TrimLeft(content, "\n")
	return documentMarker + "\n" + content
}
