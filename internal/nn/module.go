// Package nn provides the neural-network building blocks: parameters,
// linear layers, activations, multilayer perceptrons, initializers, loss
// functions and checkpointing. All blocks follow the same contract: they
// expose their trainable parameters and can export/import their state as a
// flat name -> RawTensor dictionary.
package nn

import (
	"fmt"
	"strings"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

// Module is the interface every trainable block implements.
type Module interface {
	// Parameters returns all trainable parameters of this module,
	// including nested ones.
	Parameters() []*Parameter

	// StateDict exports parameters as a flat name -> tensor map.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies values from a state dictionary into the
	// module's parameters, validating names, shapes and dtypes.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// prefixStateDict returns a copy of sd with every key prefixed by
// "<prefix>.".
func prefixStateDict(prefix string, sd map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(sd))
	for name, raw := range sd {
		out[prefix+"."+name] = raw
	}
	return out
}

// extractStateDict selects the entries of sd under "<prefix>." and strips
// the prefix.
func extractStateDict(prefix string, sd map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	p := prefix + "."
	for name, raw := range sd {
		if strings.HasPrefix(name, p) {
			out[name[len(p):]] = raw
		}
	}
	return out
}

// loadParameter copies raw into the parameter, validating shape and dtype.
func loadParameter(param *Parameter, raw *tensor.RawTensor, name string) error {
	if raw == nil {
		return fmt.Errorf("missing %s in state dict", name)
	}
	if !raw.Shape().Equal(param.Tensor().Shape()) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v",
			name, param.Tensor().Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %s", name, raw.DType())
	}
	copy(param.Tensor().Data(), raw.AsFloat32())
	return nil
}
