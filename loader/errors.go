package loader

import "fmt"

// LoadError reports a fatal failure while validating or processing an ELF
// image. The Loader surfaces every LoadError before any
// instruction executes.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load error: %s", e.Reason)
}
