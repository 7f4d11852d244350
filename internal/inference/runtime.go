// Package inference owns the ONNX Runtime sessions behind the detectors.
// Sessions are expensive to create, so each model is loaded exactly once at
// process start and shared across all frames and cameras.
package inference

import (
	"fmt"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// defaultSharedLibPath picks the bundled ONNX Runtime library for the
// current platform. Used when no explicit path is configured.
func defaultSharedLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.dylib"
		}
		return "./third_party/onnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}

// InitRuntime initializes the shared ONNX Runtime environment. Must be
// called once before any session is created; pass an empty libraryPath to
// use the platform default.
func InitRuntime(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath == "" {
		libraryPath = defaultSharedLibPath()
	}
	ort.SetSharedLibraryPath(libraryPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime environment: %w", err)
	}
	return nil
}

// DestroyRuntime tears the environment down. Only meaningful at process
// shutdown, after every session has been closed.
func DestroyRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}
