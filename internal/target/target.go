package target

import (
	"fmt"
	"runtime"
	"strings"
)

// OS is the operating system half of a target.
type OS uint8

const (
	Linux OS = iota
	Darwin
)

func (os OS) String() string {
	if os == Darwin {
		return "darwin"
	}
	return "linux"
}

// Target describes the architecture and OS code is generated for. Only
// x86_64 with the System V calling convention is implemented.
type Target struct {
	Arch     string // always "x86_64"
	OS       OS
	PtrSize  int
	PtrAlign int
}

func X86_64Linux() Target {
	return Target{Arch: "x86_64", OS: Linux, PtrSize: 8, PtrAlign: 8}
}

func X86_64Darwin() Target {
	return Target{Arch: "x86_64", OS: Darwin, PtrSize: 8, PtrAlign: 8}
}

// Host returns the target matching the running system, falling back to linux.
func Host() Target {
	if runtime.GOOS == "darwin" {
		return X86_64Darwin()
	}
	return X86_64Linux()
}

// Parse accepts triples such as "x86_64-linux", "x86_64-unknown-linux-gnu",
// "x86_64-apple-darwin" or "x86_64-macos".
func Parse(triple string) (Target, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(triple)), "-")
	if len(parts) < 2 {
		return Target{}, fmt.Errorf("target %q: expected <arch>-<os>", triple)
	}
	switch parts[0] {
	case "x86_64", "amd64", "x86-64":
	default:
		return Target{}, fmt.Errorf("target %q: unsupported architecture %q", triple, parts[0])
	}
	for _, p := range parts[1:] {
		switch {
		case p == "linux":
			return X86_64Linux(), nil
		case p == "macos" || strings.HasPrefix(p, "darwin"):
			return X86_64Darwin(), nil
		}
	}
	return Target{}, fmt.Errorf("target %q: unsupported operating system", triple)
}

// Triple is the canonical short name, accepted by Parse.
func (t Target) Triple() string {
	return t.Arch + "-" + t.OS.String()
}

func (t Target) String() string { return t.Triple() }

// SymbolPrefix is prepended to every global symbol name.
func (t Target) SymbolPrefix() string {
	if t.OS == Darwin {
		return "_"
	}
	return ""
}

// LocalLabelPrefix keeps labels out of the object's symbol table.
func (t Target) LocalLabelPrefix() string {
	if t.OS == Darwin {
		return "L"
	}
	return ".L"
}

// CallsThroughPLT reports whether calls to functions defined outside the unit
// go through the procedure linkage table.
func (t Target) CallsThroughPLT() bool { return t.OS == Linux }
