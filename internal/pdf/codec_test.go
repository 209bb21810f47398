package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/VitStudio/ctump-pdf/internal/testutil"
)

func TestConvertPage(t *testing.T) {
	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	var buf bytes.Buffer
	if err := codec.ConvertPage(testutil.PagePNG(t, 1), &buf); err != nil {
		t.Fatalf("ConvertPage: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF, starts with %q", buf.Bytes()[:8])
	}
}

func TestConvertPageConcurrent(t *testing.T) {
	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	dir := t.TempDir()

	const workers = 8
	pngs := make([][]byte, workers)
	for i := range pngs {
		pngs[i] = testutil.PagePNG(t, i+1)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := filepath.Join(dir, fmt.Sprintf("page_%d.pdf", i))
			if err := codec.ConvertPageFile(pngs[i], path); err != nil {
				errs[i] = err
				return
			}
			n, err := codec.PageCount(path)
			if err != nil {
				errs[i] = err
				return
			}
			if n != 1 {
				errs[i] = fmt.Errorf("expected 1 page, got %d", n)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}
}

func TestConvertPageRejectsGarbage(t *testing.T) {
	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	var buf bytes.Buffer
	if err := codec.ConvertPage([]byte("not an image"), &buf); err == nil {
		t.Error("expected error for garbage bytes")
	}
	if err := codec.ConvertPage(nil, &buf); err == nil {
		t.Error("expected error for empty bytes")
	}
}

func TestConvertPageFileCleansUpOnError(t *testing.T) {
	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	path := filepath.Join(t.TempDir(), "page.pdf")
	if err := codec.ConvertPageFile([]byte("garbage"), path); err == nil {
		t.Fatal("expected conversion error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("partial page file left behind: %v", err)
	}
}

func TestMergeAndPageCount(t *testing.T) {
	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	dir := t.TempDir()

	var inputs []string
	for page := 1; page <= 3; page++ {
		path := filepath.Join(dir, "page"+string(rune('0'+page))+".pdf")
		if err := codec.ConvertPageFile(testutil.PagePNG(t, page), path); err != nil {
			t.Fatalf("ConvertPageFile page %d: %v", page, err)
		}
		inputs = append(inputs, path)
	}

	out := filepath.Join(dir, "merged.pdf")
	if err := codec.Merge(inputs, out); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	n, err := codec.PageCount(out)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 pages, got %d", n)
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	err = codec.Merge(nil, filepath.Join(t.TempDir(), "out.pdf"))
	var aerr *AssemblyError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *AssemblyError, got %v", err)
	}
}

func TestOptimizeKeepsPages(t *testing.T) {
	codec, err := NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	dir := t.TempDir()

	path := filepath.Join(dir, "doc.pdf")
	if err := codec.ConvertPageFile(testutil.PagePNG(t, 9), path); err != nil {
		t.Fatalf("ConvertPageFile: %v", err)
	}
	if err := codec.Optimize(path); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	n, err := codec.PageCount(path)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 page after optimize, got %d", n)
	}
}
