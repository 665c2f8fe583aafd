package nn

import (
	"fmt"
	"strings"

	"github.com/laurent-dinh/blocks/internal/serialization"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

const optimizerPrefix = "optimizer."

// SaveCheckpoint writes the model state, the optimizer state (under an
// "optimizer." prefix) and training metadata to an .npz archive.
func SaveCheckpoint(path string, model Module, optimizerState map[string]*tensor.RawTensor, meta *serialization.Meta) error {
	arrays := model.StateDict()
	for name, raw := range optimizerState {
		arrays[optimizerPrefix+name] = raw
	}
	if err := serialization.SaveArrays(path, arrays, meta); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores the model state from an .npz archive and returns
// the optimizer state and metadata stored alongside it.
func LoadCheckpoint(path string, model Module) (map[string]*tensor.RawTensor, *serialization.Meta, error) {
	arrays, meta, err := serialization.LoadArrays(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	modelState := make(map[string]*tensor.RawTensor)
	optimizerState := make(map[string]*tensor.RawTensor)
	for name, raw := range arrays {
		if strings.HasPrefix(name, optimizerPrefix) {
			optimizerState[name[len(optimizerPrefix):]] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, nil, fmt.Errorf("failed to restore model state: %w", err)
	}
	return optimizerState, meta, nil
}
