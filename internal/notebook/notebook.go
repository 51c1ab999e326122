// Package notebook serializes ordered code cells into the nbformat 4 JSON
// document that Jupyter and papermill-style executors consume. Encoding is
// deterministic: the same cells always produce the same bytes.
package notebook

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	nbformatMajor = 4
	nbformatMinor = 5
)

// CellTypeCode and CellTypeMarkdown are the only cell kinds emitted.
const (
	CellTypeCode     = "code"
	CellTypeMarkdown = "markdown"
)

// Cell is one notebook cell before serialization.
type Cell struct {
	Type   string
	Source string
}

type codeCell struct {
	CellType       string                 `json:"cell_type"`
	ExecutionCount interface{}            `json:"execution_count"`
	Metadata       map[string]interface{} `json:"metadata"`
	Outputs        []interface{}          `json:"outputs"`
	Source         []string               `json:"source"`
}

type markdownCell struct {
	CellType string                 `json:"cell_type"`
	Metadata map[string]interface{} `json:"metadata"`
	Source   []string               `json:"source"`
}

type kernelspec struct {
	DisplayName string `json:"display_name"`
	Language    string `json:"language"`
	Name        string `json:"name"`
}

type languageInfo struct {
	Name string `json:"name"`
}

type docMetadata struct {
	Kernelspec   kernelspec   `json:"kernelspec"`
	LanguageInfo languageInfo `json:"language_info"`
}

type document struct {
	Cells         []interface{} `json:"cells"`
	Metadata      docMetadata   `json:"metadata"`
	NBFormat      int           `json:"nbformat"`
	NBFormatMinor int           `json:"nbformat_minor"`
}

// splitSource converts a source string into nbformat's line list: every line
// keeps its trailing newline except the last.
func splitSource(src string) []string {
	if src == "" {
		return []string{}
	}
	lines := strings.SplitAfter(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Encode renders the cells as an nbformat 4 document with a python3
// kernelspec. Cells with an unknown type are rejected.
func Encode(cells []Cell) ([]byte, error) {
	doc := document{
		Cells: make([]interface{}, 0, len(cells)),
		Metadata: docMetadata{
			Kernelspec: kernelspec{
				DisplayName: "Python 3",
				Language:    "python",
				Name:        "python3",
			},
			LanguageInfo: languageInfo{Name: "python"},
		},
		NBFormat:      nbformatMajor,
		NBFormatMinor: nbformatMinor,
	}
	for i, cell := range cells {
		switch cell.Type {
		case CellTypeCode:
			doc.Cells = append(doc.Cells, codeCell{
				CellType:       CellTypeCode,
				ExecutionCount: nil,
				Metadata:       map[string]interface{}{},
				Outputs:        []interface{}{},
				Source:         splitSource(cell.Source),
			})
		case CellTypeMarkdown:
			doc.Cells = append(doc.Cells, markdownCell{
				CellType: CellTypeMarkdown,
				Metadata: map[string]interface{}{},
				Source:   splitSource(cell.Source),
			})
		default:
			return nil, fmt.Errorf("cell %d: unsupported cell type %q", i, cell.Type)
		}
	}

	data, err := json.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encoding notebook: %w", err)
	}
	return append(data, '\n'), nil
}

// RequirementsText renders pinned requirement specifiers as a pip
// requirements file, one per line with a trailing newline.
func RequirementsText(requirements []string) string {
	if len(requirements) == 0 {
		return ""
	}
	return strings.Join(requirements, "\n") + "\n"
}
