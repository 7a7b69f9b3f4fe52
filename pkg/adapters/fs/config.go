package fs

import (
	"io"
	"log/slog"

	"github.com/mdxdb/mdxdb/pkg/mdxld"
)

const (
	DefaultBasePath  = ".db"
	DefaultExtension = ".mdx"
)

// ListPolicy decides what List does with a document whose header cannot be parsed.
type ListPolicy int

const (
	// ListFailFast aborts the whole listing on the first invalid document.
	ListFailFast ListPolicy = iota
	// ListSkipInvalid leaves invalid documents out and logs a warning.
	ListSkipInvalid
)

func (p ListPolicy) String() string {
	if p == ListSkipInvalid {
		return "skip"
	}
	return "fail"
}

// Config holds the dependencies for the filesystem backend.
type Config struct {
	BasePath          string
	Extension         string
	CreateDirectories *bool // nil means true
	Format            mdxld.Format
	ListPolicy        ListPolicy
	EventBuffer       int
	Logger            *slog.Logger
	ErrorHandler      func(error)
}

func (c Config) withDefaults() Config {
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.Extension[0] != '.' {
		c.Extension = "." + c.Extension
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 100
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

func (c Config) createDirectories() bool {
	return c.CreateDirectories == nil || *c.CreateDirectories
}
