package llvmexport

import (
	"encoding/json"

	"github.com/llir/llvm/ir/constant"
)

// ManifestName is the global holding the manifest.
const ManifestName = "__bytetree_units"

type manifest struct {
	// Functions maps each defined symbol to the unit it was lowered
	// from.
	Functions map[string]string `json:"functions"`
}

// Manifest embeds a NUL-terminated JSON list of the lowered units as a
// constant global. It should be called once, after the last Lower.
func (e *Exporter) Manifest() error {
	data, err := json.Marshal(manifest{Functions: e.lowered})
	if err != nil {
		return err
	}

	g := e.m.NewGlobalDef(ManifestName, constant.NewCharArray(append(data, 0)))
	g.Immutable = true
	return nil
}
