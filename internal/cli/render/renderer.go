package render

import "github.com/trebuchet-org/dvote/internal/domain/config"

// Renderer writes a command result for humans
type Renderer[T any] interface {
	Render(result T) error
}

var _ Renderer[*config.RuntimeConfig] = (*ConfigRenderer)(nil)
