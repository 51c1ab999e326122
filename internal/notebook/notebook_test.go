package notebook

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeProducesValidNBFormat(t *testing.T) {
	cells := []Cell{
		{Type: CellTypeCode, Source: "import numpy as np\nprint(np.__version__)"},
		{Type: CellTypeCode, Source: "x = 1"},
	}
	data, err := Encode(cells)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("encoded notebook is not valid JSON: %v", err)
	}
	if got := doc["nbformat"].(float64); got != 4 {
		t.Errorf("nbformat = %v, want 4", got)
	}
	rawCells := doc["cells"].([]interface{})
	if len(rawCells) != 2 {
		t.Fatalf("got %d cells, want 2", len(rawCells))
	}
	first := rawCells[0].(map[string]interface{})
	if first["cell_type"] != "code" {
		t.Errorf("cell_type = %v, want code", first["cell_type"])
	}
	if first["execution_count"] != nil {
		t.Errorf("execution_count = %v, want null", first["execution_count"])
	}
	if outputs := first["outputs"].([]interface{}); len(outputs) != 0 {
		t.Errorf("outputs = %v, want empty", outputs)
	}
	meta := doc["metadata"].(map[string]interface{})
	ks := meta["kernelspec"].(map[string]interface{})
	if ks["name"] != "python3" {
		t.Errorf("kernelspec name = %v, want python3", ks["name"])
	}
}

func TestEncodeSourceLines(t *testing.T) {
	data, err := Encode([]Cell{{Type: CellTypeCode, Source: "a = 1\nb = 2\n"}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	var doc struct {
		Cells []struct {
			Source []string `json:"source"`
		} `json:"cells"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"a = 1\n", "b = 2\n"}
	if diff := cmp.Diff(want, doc.Cells[0].Source); diff != "" {
		t.Errorf("source lines mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	cells := []Cell{
		{Type: CellTypeCode, Source: "import os"},
		{Type: CellTypeMarkdown, Source: "## Results"},
	}
	first, err := Encode(cells)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, err := Encode(cells)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same cells encoded to different bytes")
	}
}

func TestEncodeRejectsUnknownCellType(t *testing.T) {
	if _, err := Encode([]Cell{{Type: "raw", Source: "x"}}); err == nil {
		t.Error("expected an error for unsupported cell type")
	}
}

func TestRequirementsText(t *testing.T) {
	got := RequirementsText([]string{"numpy==1.26.4", "scikit-learn==1.5.1"})
	want := "numpy==1.26.4\nscikit-learn==1.5.1\n"
	if got != want {
		t.Errorf("RequirementsText = %q, want %q", got, want)
	}
	if RequirementsText(nil) != "" {
		t.Error("empty requirements should render as empty string")
	}
}
