package loader

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// Fetch downloads a height file from src into dir and returns the local path.
// src accepts anything go-getter understands (http, s3, gcs, git::, local paths).
// An existing file at the destination is replaced.
func Fetch(ctx context.Context, src, dir string) (string, error) {
	name, err := fileName(src)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", dir, err)
	}

	dst := filepath.Join(dir, name)
	if err := os.RemoveAll(dst); err != nil {
		return "", fmt.Errorf("clear %s: %w", dst, err)
	}
	if err := getter.GetFile(dst, src, getter.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("fetch %s: %w", src, err)
	}
	return dst, nil
}

// fileName keeps the extension of the remote file, which Open relies on.
func fileName(src string) (string, error) {
	s := src
	if i := strings.Index(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse source %q: %w", src, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("source %q has no file name", src)
	}
	return name, nil
}
