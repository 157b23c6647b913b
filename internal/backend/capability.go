package backend

import (
	"context"
	"fmt"

	"github.com/DEVBOX10/himalaya/internal/email"
)

// Capability identifies one family of backend operations.
type Capability int

const (
	AddFolder Capability = iota + 1
	ListFolders
	ExpungeFolder
	PurgeFolder
	DeleteFolder
	GetEnvelope
	ListEnvelopes
	SearchEnvelopes
	AddMessage
	GetMessages
	PeekMessages
	CopyMessages
	MoveMessages
	DeleteMessages
	AddFlags
	SetFlags
	RemoveFlags
	SendMessage
)

type FolderAdder interface {
	AddFolder(ctx context.Context, folder string) error
}

type FolderLister interface {
	ListFolders(ctx context.Context) (email.Folders, error)
}

type FolderExpunger interface {
	ExpungeFolder(ctx context.Context, folder string) error
}

type FolderPurger interface {
	PurgeFolder(ctx context.Context, folder string) error
}

type FolderDeleter interface {
	DeleteFolder(ctx context.Context, folder string) error
}

type EnvelopeGetter interface {
	GetEnvelope(ctx context.Context, folder, id string) (email.Envelope, error)
}

// EnvelopeLister pages envelopes newest first. A pageSize of 0 lists all.
type EnvelopeLister interface {
	ListEnvelopes(ctx context.Context, folder string, page, pageSize int) (email.Envelopes, error)
}

type EnvelopeSearcher interface {
	SearchEnvelopes(ctx context.Context, folder, query string, page, pageSize int) (email.Envelopes, error)
}

type MessageAdder interface {
	AddMessage(ctx context.Context, folder string, raw []byte, flags []string) (string, error)
}

// MessageGetter fetches messages by id. Fetching marks them as seen. The
// returned messages carry the id they were requested with.
type MessageGetter interface {
	GetMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error)
}

// MessagePeeker is like MessageGetter but leaves flags untouched.
type MessagePeeker interface {
	PeekMessages(ctx context.Context, folder string, ids []string) ([]email.Message, error)
}

type MessageCopier interface {
	CopyMessages(ctx context.Context, from, to string, ids []string) error
}

type MessageMover interface {
	MoveMessages(ctx context.Context, from, to string, ids []string) error
}

type MessageDeleter interface {
	DeleteMessages(ctx context.Context, folder string, ids []string) error
}

type FlagAdder interface {
	AddFlags(ctx context.Context, folder string, ids, flags []string) error
}

type FlagSetter interface {
	SetFlags(ctx context.Context, folder string, ids, flags []string) error
}

type FlagRemover interface {
	RemoveFlags(ctx context.Context, folder string, ids, flags []string) error
}

type MessageSender interface {
	SendMessage(ctx context.Context, raw []byte) error
}

type capabilityInfo struct {
	name string
	// implemented reports whether a provider has the Go methods of the
	// capability.
	implemented func(Provider) bool
}

func impl[T any](p Provider) bool {
	_, ok := p.(T)
	return ok
}

var capabilities = map[Capability]capabilityInfo{
	AddFolder:       {"add-folder", impl[FolderAdder]},
	ListFolders:     {"list-folders", impl[FolderLister]},
	ExpungeFolder:   {"expunge-folder", impl[FolderExpunger]},
	PurgeFolder:     {"purge-folder", impl[FolderPurger]},
	DeleteFolder:    {"delete-folder", impl[FolderDeleter]},
	GetEnvelope:     {"get-envelope", impl[EnvelopeGetter]},
	ListEnvelopes:   {"list-envelopes", impl[EnvelopeLister]},
	SearchEnvelopes: {"search-envelopes", impl[EnvelopeSearcher]},
	AddMessage:      {"add-message", impl[MessageAdder]},
	GetMessages:     {"get-messages", impl[MessageGetter]},
	PeekMessages:    {"peek-messages", impl[MessagePeeker]},
	CopyMessages:    {"copy-messages", impl[MessageCopier]},
	MoveMessages:    {"move-messages", impl[MessageMover]},
	DeleteMessages:  {"delete-messages", impl[MessageDeleter]},
	AddFlags:        {"add-flags", impl[FlagAdder]},
	SetFlags:        {"set-flags", impl[FlagSetter]},
	RemoveFlags:     {"remove-flags", impl[FlagRemover]},
	SendMessage:     {"send-message", impl[MessageSender]},
}

func (c Capability) String() string {
	if info, ok := capabilities[c]; ok {
		return info.name
	}
	return fmt.Sprintf("capability(%d)", int(c))
}

// AllCapabilities lists every known capability in declaration order.
func AllCapabilities() []Capability {
	all := make([]Capability, 0, len(capabilities))
	for c := AddFolder; c <= SendMessage; c++ {
		all = append(all, c)
	}
	return all
}

// Implements reports whether p both declares c and has its methods.
func Implements(p Provider, c Capability) bool {
	info, ok := capabilities[c]
	if !ok {
		return false
	}
	return p.Supports(c) && info.implemented(p)
}
