package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"eoreview/internal/store"
)

const (
	packExt = ".enc"
	zstExt  = ".zst"
)

// Source is a directory of sealed packs named <test>.enc, optionally
// zstd-compressed as <test>.enc.zst.
type Source struct {
	Dir string
}

func (s Source) path(test string, compressed bool) string {
	p := filepath.Join(s.Dir, test+packExt)
	if compressed {
		p += zstExt
	}
	return p
}

// Read returns the sealed text for test. A missing pack is ErrNoPack.
func (s Source) Read(ctx context.Context, test string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if test == "" || strings.ContainsAny(test, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrNoPack, test)
	}
	if b, err := os.ReadFile(s.path(test, true)); err == nil {
		zr, err := zstd.NewReader(bytes.NewReader(b), zstd.WithDecoderConcurrency(0))
		if err != nil {
			return "", err
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return "", fmt.Errorf("pack %s: %w", test, err)
		}
		return string(out), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	b, err := os.ReadFile(s.path(test, false))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNoPack, test)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Write stores sealed text for test, compressing it when compress is set.
// Any pack in the other encoding is removed.
func (s Source) Write(test, sealed string, compress bool) error {
	data := []byte(sealed)
	if compress {
		zw, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return err
		}
		data = zw.EncodeAll(data, nil)
		_ = zw.Close()
	}
	if err := store.WriteFileAtomic(s.path(test, compress), data, 0o644); err != nil {
		return err
	}
	if err := os.Remove(s.path(test, !compress)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Tests lists the test keys that have a pack on disk.
func (s Source) Tests() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), zstExt)
		if !strings.HasSuffix(name, packExt) {
			continue
		}
		key := strings.TrimSuffix(name, packExt)
		if key != "" && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}
