package optim

import (
	"fmt"

	"github.com/laurent-dinh/blocks/internal/nn"
	"github.com/laurent-dinh/blocks/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum:
//
//	v = momentum*v - lr*g
//	w = w + v
//
// With momentum 0 this reduces to w = w - lr*g and no velocity buffers
// are allocated.
type SGD struct {
	params     []*nn.Parameter
	lr         float32
	momentum   float32
	velocities []*tensor.RawTensor
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*nn.Parameter, lr, momentum float32) *SGD {
	s := &SGD{params: params, lr: lr, momentum: momentum}
	if momentum != 0 {
		s.velocities = make([]*tensor.RawTensor, len(params))
		for i, p := range params {
			s.velocities[i] = tensor.MustRaw(p.Tensor().Shape(), tensor.Float32)
		}
	}
	return s
}

// Step applies one SGD update in place.
func (s *SGD) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for i, p := range s.params {
		grad, ok := grads[p.Tensor().Raw()]
		if !ok {
			continue
		}
		w := p.Tensor().Data()
		g := grad.AsFloat32()

		if s.momentum == 0 {
			for j := range w {
				w[j] -= s.lr * g[j]
			}
			continue
		}

		v := s.velocities[i].AsFloat32()
		for j := range w {
			v[j] = s.momentum*v[j] - s.lr*g[j]
			w[j] += v[j]
		}
	}
}

// LearningRate returns the current learning rate.
func (s *SGD) LearningRate() float32 { return s.lr }

// SetLearningRate changes the learning rate.
func (s *SGD) SetLearningRate(lr float32) { s.lr = lr }

// StateDict exports the velocity buffers as "velocity_<i>".
func (s *SGD) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(s.velocities))
	for i, v := range s.velocities {
		out[fmt.Sprintf("velocity_%d", i)] = v
	}
	return out
}

// LoadStateDict restores the velocity buffers. An empty state dict is
// valid for a momentum-free optimizer.
func (s *SGD) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i := range s.velocities {
		name := fmt.Sprintf("velocity_%d", i)
		raw, ok := stateDict[name]
		if !ok {
			return fmt.Errorf("missing %s in optimizer state", name)
		}
		if !raw.Shape().Equal(s.velocities[i].Shape()) {
			return fmt.Errorf("%s shape mismatch: expected %v, got %v",
				name, s.velocities[i].Shape(), raw.Shape())
		}
		copy(s.velocities[i].AsFloat32(), raw.AsFloat32())
	}
	return nil
}
