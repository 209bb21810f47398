package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// AssemblyError is a failure of the document assembly stage itself, as
// opposed to a single page going missing. It is terminal for the whole job.
type AssemblyError struct {
	Op  string
	Err error
}

func (e *AssemblyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("assembly: %s", e.Op)
	}
	return fmt.Sprintf("assembly: %s: %v", e.Op, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Codec converts page images to PDFs and merges PDFs. Safe for concurrent
// use: pdfcpu records the running command in the configuration it is handed,
// so every call works on its own copy of the base configuration.
type Codec struct {
	conf model.Configuration
	imp  *pdfcpu.Import
}

// NewCodec initializes the codec. An initialization failure is terminal for
// any job that needs the codec.
func NewCodec() (*Codec, error) {
	conf := model.NewDefaultConfiguration()
	if conf == nil {
		return nil, &AssemblyError{Op: "init codec", Err: fmt.Errorf("no default configuration")}
	}
	conf.ValidationMode = model.ValidationRelaxed
	// Classic xref and uncompressed dictionaries keep the metadata that
	// varies between two builds of the same pages (creation dates, file IDs)
	// in plain text.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return &Codec{
		conf: *conf,
		imp:  pdfcpu.DefaultImportConfig(),
	}, nil
}

// config returns a private copy for a single pdfcpu call. pdfcpu mutates
// the configuration while working (command kind, optimization state).
func (c *Codec) config() *model.Configuration {
	conf := c.conf
	return &conf
}

// ConvertPage turns one page image (PNG or JPEG bytes) into a one-page PDF
// written to w. A conversion error means the page bytes are unusable; the
// caller records the page as failed and moves on.
func (c *Codec) ConvertPage(data []byte, w io.Writer) error {
	if len(data) == 0 {
		return fmt.Errorf("convert page: empty image")
	}
	if err := api.ImportImages(nil, w, []io.Reader{bytes.NewReader(data)}, c.imp, c.config()); err != nil {
		return fmt.Errorf("convert page: %w", err)
	}
	return nil
}

// ConvertPageFile is ConvertPage writing to path.
func (c *Codec) ConvertPageFile(data []byte, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("convert page: %w", err)
	}
	if err := c.ConvertPage(data, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("convert page: %w", err)
	}
	return nil
}

// Merge concatenates the given PDFs, in order, into out. Inputs are not
// modified.
func (c *Codec) Merge(inputs []string, out string) error {
	if len(inputs) == 0 {
		return &AssemblyError{Op: "merge", Err: fmt.Errorf("no input documents")}
	}
	if err := api.MergeCreateFile(inputs, out, false, c.config()); err != nil {
		return &AssemblyError{Op: "merge", Err: err}
	}
	return nil
}

// Optimize rewrites path in place with pdfcpu's optimization pass. This is
// the structural cleanup run on the final document so readers can reach the
// first page without the merge leftovers.
func (c *Codec) Optimize(path string) error {
	if err := api.OptimizeFile(path, "", c.config()); err != nil {
		return &AssemblyError{Op: "optimize", Err: err}
	}
	return nil
}

// PageCount returns the number of pages in the PDF at path.
func (c *Codec) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	return n, nil
}
