// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/essay-engine/internal/container"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// MarkitdownExtractor converts PDFs by piping them through the markitdown
// container image. It depends on a container.Runtime (docker or podman)
// injected at construction time.
type MarkitdownExtractor struct {
	runtime container.Runtime
	image   string
}

// NewMarkitdownExtractor verifies that image exists in rt before returning.
func NewMarkitdownExtractor(ctx context.Context, rt container.Runtime, image string) (*MarkitdownExtractor, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownExtractor{runtime: rt, image: image}, nil
}

// Extract pipes data through the container and returns its Markdown output.
func (m *MarkitdownExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	var out bytes.Buffer
	if err := m.runtime.Run(ctx, m.image, bytes.NewReader(data), &out); err != nil {
		return "", fmt.Errorf("converting with markitdown: %w", err)
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrNoText
	}
	return out.String(), nil
}

// NewExtractor returns the PDF extractor selected by cfg.PDFBackend.
func NewExtractor(ctx context.Context, cfg types.RetrievalConfig) (Extractor, error) {
	switch cfg.PDFBackend {
	case "", types.PDFNative:
		return PDFExtractor{}, nil
	case types.PDFMarkitdown:
		rt, err := container.DetectRuntime(ctx, cfg.ContainerRuntime)
		if err != nil {
			return nil, err
		}
		image := cfg.MarkitdownImage
		if image == "" {
			image = types.DefaultMarkitdownImage
		}
		return NewMarkitdownExtractor(ctx, rt, image)
	}
	return nil, fmt.Errorf("unsupported pdf_backend %q", cfg.PDFBackend)
}
