package inference

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/vision"
)

// Runner executes one loaded model against a preprocessed input tensor and
// returns the raw output tensor with its shape. Detectors depend on this
// interface, not on the runtime, so they can be tested with crafted tensors.
type Runner interface {
	Run(ctx context.Context, input []float32) (data []float32, shape []int64, err error)
}

// Session wraps one ONNX Runtime session for a single model file. Input and
// output tensor names are resolved from the model itself, the same way the
// reference runtime resolves them dynamically.
type Session struct {
	path    string
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
}

// NewSession loads the model at path. A missing or unreadable model is fatal
// for the process: there is no degraded mode without it.
func NewSession(path string) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, domain.ErrModelLoad.WithError(fmt.Errorf("inspect model %s: %w", path, err))
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, domain.ErrModelLoad.WithError(fmt.Errorf("model %s has no usable input/output", path))
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, domain.ErrModelLoad.WithError(err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		return nil, domain.ErrModelLoad.WithError(fmt.Errorf("load model %s: %w", path, err))
	}

	return &Session{path: path, session: session}, nil
}

// Run executes one inference over a 1x3x640x640 input tensor.
func (s *Session) Run(ctx context.Context, input []float32) ([]float32, []int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(input) != vision.TensorLen {
		return nil, nil, domain.ErrInference.WithError(
			fmt.Errorf("input tensor has %d elements, want %d", len(input), vision.TensorLen))
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, 3, vision.InputSize, vision.InputSize), input)
	if err != nil {
		return nil, nil, domain.ErrInference.WithError(err)
	}
	defer inputTensor.Destroy()

	// One output slot, allocated by the runtime.
	outputs := []ort.Value{nil}

	s.mu.Lock()
	err = s.session.Run([]ort.Value{inputTensor}, outputs)
	s.mu.Unlock()
	if err != nil {
		return nil, nil, domain.ErrInference.WithError(fmt.Errorf("run %s: %w", s.path, err))
	}

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
		return nil, nil, domain.ErrInference.WithError(fmt.Errorf("model %s emitted a non-float32 output", s.path))
	}
	defer outputTensor.Destroy()

	// Copy out: the tensor's backing memory dies with Destroy.
	raw := outputTensor.GetData()
	data := make([]float32, len(raw))
	copy(data, raw)

	shape := outputTensor.GetShape()
	dims := make([]int64, len(shape))
	copy(dims, shape)

	return data, dims, nil
}

// Close releases the underlying runtime session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	return nil
}
