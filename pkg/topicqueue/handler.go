package topicqueue

import (
	"errors"
	"fmt"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// Runtime identifies a Lambda runtime
type Runtime string

const (
	RuntimeProvidedAL2023 Runtime = "provided.al2023"
	RuntimeProvidedAL2    Runtime = "provided.al2"
	RuntimeNodeJS20       Runtime = "nodejs20.x"
	RuntimeNodeJS22       Runtime = "nodejs22.x"
	RuntimePython312      Runtime = "python3.12"
	RuntimePython313      Runtime = "python3.13"
	RuntimeJava21         Runtime = "java21"
)

// IsSupported reports whether the runtime can still be used for new functions
func (r Runtime) IsSupported() bool {
	switch r {
	case RuntimeProvidedAL2023, RuntimeProvidedAL2, RuntimeNodeJS20, RuntimeNodeJS22,
		RuntimePython312, RuntimePython313, RuntimeJava21:
		return true
	default:
		return false
	}
}

// String returns the string representation of the runtime
func (r Runtime) String() string {
	return string(r)
}

// HandlerDescriptor names the entry point, runtime and code bundle of the
// message-processing function.
type HandlerDescriptor struct {
	// Handler is the function entry point ("bootstrap" for provided runtimes)
	Handler string
	// Runtime is the Lambda runtime identifier
	Runtime Runtime
	// Code is the deployable bundle, usually pulumi.NewFileArchive
	Code pulumi.Archive

	// MemorySize in MB. Zero uses 128.
	MemorySize int
	// Timeout in seconds. Zero uses 30.
	Timeout int
	// Environment is passed to the function as-is
	Environment map[string]string
}

// Validate checks the descriptor can be turned into a function
func (h HandlerDescriptor) Validate() error {
	if h.Handler == "" {
		return errors.New("handler entry point is required")
	}
	if !h.Runtime.IsSupported() {
		return fmt.Errorf("unsupported runtime %q", h.Runtime)
	}
	if h.Code == nil {
		return errors.New("handler code archive is required")
	}
	if h.MemorySize != 0 && (h.MemorySize < 128 || h.MemorySize > 10240) {
		return fmt.Errorf("memory size must be between 128 and 10240 MB, got %d", h.MemorySize)
	}
	if h.Timeout < 0 || h.Timeout > 900 {
		return fmt.Errorf("timeout must be between 1 and 900 seconds, got %d", h.Timeout)
	}
	return nil
}

func (h HandlerDescriptor) memorySize() int {
	if h.MemorySize == 0 {
		return 128
	}
	return h.MemorySize
}

func (h HandlerDescriptor) timeout() int {
	if h.Timeout == 0 {
		return 30
	}
	return h.Timeout
}
