package pdf

import (
	"fmt"
	"os"
)

// Assembler merges ordered per-segment PDFs into the final output document.
type Assembler struct {
	codec *Codec
}

// NewAssembler creates an assembler over the given codec.
func NewAssembler(codec *Codec) *Assembler {
	return &Assembler{codec: codec}
}

// Assemble merges the segment documents, in the given order, into out and
// runs the optimization pass. Inputs are left untouched. A partial output is
// removed on failure.
//
// Returns an *AssemblyError if there is nothing to merge or the merge or
// optimization step fails.
func (a *Assembler) Assemble(segments []string, out string) error {
	if len(segments) == 0 {
		return &AssemblyError{Op: "assemble", Err: fmt.Errorf("no non-empty segments")}
	}

	if err := a.codec.Merge(segments, out); err != nil {
		os.Remove(out)
		return err
	}
	if err := a.codec.Optimize(out); err != nil {
		os.Remove(out)
		return err
	}
	return nil
}
