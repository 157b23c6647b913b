package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/DEVBOX10/himalaya/internal/config"
)

var ErrCapabilityUnsupported = errors.New("capability unsupported")

// CapabilityUnsupportedError is returned when no provider of an account can
// serve a required capability.
type CapabilityUnsupportedError struct {
	Capability Capability
	Account    string
}

func (e *CapabilityUnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s is not supported by any backend of account %s", ErrCapabilityUnsupported, e.Capability, e.Account)
}

func (e *CapabilityUnsupportedError) Is(target error) bool {
	return target == ErrCapabilityUnsupported
}

// Provider is a transport able to serve some capabilities for one account.
// Supports must answer without doing I/O; providers connect lazily on the
// first capability call. A provider implementing io.Closer is closed with
// the Backend that opened it.
type Provider interface {
	Name() string
	Supports(c Capability) bool
}

// FolderValidator is implemented by providers whose message ids stay valid
// only while the folder validity value is unchanged (IMAP UIDVALIDITY).
// Caches keyed by message id compare it before serving.
type FolderValidator interface {
	FolderValidity(ctx context.Context, folder string) (uint32, error)
}

// Factory builds the provider of one backend kind for an account. It must
// not connect or authenticate.
type Factory func(acct *config.AccountConfig) (Provider, error)

// ContextFactory builds a synchronization-aware provider in front of the
// live upstream provider.
type ContextFactory func(acct *config.AccountConfig, upstream Provider) (Provider, error)

// Source tells the resolver where a capability should be served from.
type Source int

const (
	// SourceAuto binds the first configured provider supporting the capability.
	SourceAuto Source = iota
	// SourceContext routes the capability through the synchronization cache.
	SourceContext
)

func (s Source) String() string {
	switch s {
	case SourceContext:
		return "context"
	default:
		return "auto"
	}
}
