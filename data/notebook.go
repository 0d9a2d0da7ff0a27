package data

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MinNotebookFormat is the oldest major notebook format accepted.
const MinNotebookFormat = 4

// Notebook is the structured content of a notebook document.
// Cells keep every field they were read with; numbers are kept as json.Number
// so that a save/get round trip reproduces the stored values exactly.
type Notebook struct {
	Cells         []map[string]any `json:"cells"`
	Metadata      map[string]any   `json:"metadata"`
	NBFormat      int              `json:"nbformat"`
	NBFormatMinor int              `json:"nbformat_minor"`
}

// NewNotebook returns an empty notebook of the current format.
func NewNotebook() *Notebook {
	return &Notebook{
		Cells:         []map[string]any{},
		Metadata:      map[string]any{},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
}

// ParseNotebook decodes and validates raw notebook JSON.
func ParseNotebook(raw []byte) (*Notebook, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, invalidNotebook("not a json object: %v", err)
	}

	for _, key := range []string{"cells", "metadata", "nbformat", "nbformat_minor"} {
		value, exists := top[key]
		if !exists {
			return nil, invalidNotebook("missing field '%s'", key)
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, invalidNotebook("field '%s' is null", key)
		}
	}

	nb := &Notebook{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(nb); err != nil {
		return nil, invalidNotebook("%v", err)
	}

	if err := nb.Validate(); err != nil {
		return nil, err
	}

	return nb, nil
}

// Validate checks the structural rules of the notebook format.
func (nb *Notebook) Validate() error {
	if nb.NBFormat < MinNotebookFormat {
		return invalidNotebook("unsupported nbformat %d", nb.NBFormat)
	}
	if nb.NBFormatMinor < 0 {
		return invalidNotebook("negative nbformat_minor %d", nb.NBFormatMinor)
	}
	if nb.Metadata == nil {
		return invalidNotebook("metadata must be an object")
	}
	if nb.Cells == nil {
		return invalidNotebook("cells must be an array")
	}

	for i, cell := range nb.Cells {
		if cell == nil {
			return invalidNotebook("cell %d is not an object", i)
		}

		cellType, _ := cell["cell_type"].(string)
		switch cellType {
		case "code", "markdown", "raw":
		default:
			return invalidNotebook("cell %d has invalid cell_type %q", i, cell["cell_type"])
		}

		switch source := cell["source"].(type) {
		case string:
		case []any:
			for j, line := range source {
				if _, ok := line.(string); !ok {
					return invalidNotebook("cell %d source line %d is not a string", i, j)
				}
			}
		default:
			return invalidNotebook("cell %d source must be a string or list of strings", i)
		}
	}

	return nil
}

// Marshal serializes the notebook the way notebook files are written on disk.
func (nb *Notebook) Marshal() ([]byte, error) {
	if err := nb.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return nil, invalidNotebook("%v", err)
	}

	return append(raw, '\n'), nil
}

func invalidNotebook(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidNotebookFormat, fmt.Sprintf(format, args...))
}
