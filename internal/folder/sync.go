package folder

import (
	"sort"
	"strings"

	"github.com/DEVBOX10/himalaya/internal/config"
)

type SyncKind int

const (
	SyncAll SyncKind = iota
	SyncInclude
	SyncExclude
)

func (k SyncKind) String() string {
	switch k {
	case SyncInclude:
		return "include"
	case SyncExclude:
		return "exclude"
	default:
		return "all"
	}
}

// SyncStrategy selects the folders a synchronization covers.
type SyncStrategy struct {
	Kind    SyncKind
	folders map[string]bool
}

func All() SyncStrategy {
	return SyncStrategy{Kind: SyncAll}
}

func Include(names ...string) SyncStrategy {
	return SyncStrategy{Kind: SyncInclude, folders: toSet(names)}
}

func Exclude(names ...string) SyncStrategy {
	return SyncStrategy{Kind: SyncExclude, folders: toSet(names)}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// Folders returns the folder set of an include or exclude strategy, sorted.
func (s SyncStrategy) Folders() []string {
	names := make([]string, 0, len(s.folders))
	for name := range s.folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s SyncStrategy) Matches(name string) bool {
	switch s.Kind {
	case SyncInclude:
		return s.folders[name]
	case SyncExclude:
		return !s.folders[name]
	default:
		return true
	}
}

func (s SyncStrategy) String() string {
	if s.Kind == SyncAll {
		return s.Kind.String()
	}
	return s.Kind.String() + "(" + strings.Join(s.Folders(), ", ") + ")"
}

// SyncArgs are the raw folder selection flags of a sync command.
type SyncArgs struct {
	Source  string
	Include []string
	Exclude []string
	All     bool
}

// ResolveSyncStrategy maps the sync flags to a strategy. The first present
// input wins, in this order: source, include, exclude, all. Conflicting
// flags are not rejected. The boolean is false when no flag is present.
func ResolveSyncStrategy(args SyncArgs) (SyncStrategy, bool) {
	switch {
	case args.Source != "":
		return Include(args.Source), true
	case len(args.Include) > 0:
		return Include(args.Include...), true
	case len(args.Exclude) > 0:
		return Exclude(args.Exclude...), true
	case args.All:
		return All(), true
	default:
		return SyncStrategy{}, false
	}
}

// DefaultSyncStrategy is the strategy configured for the account, All when
// nothing is configured.
func DefaultSyncStrategy(acct *config.AccountConfig) SyncStrategy {
	switch strings.ToLower(acct.Sync.Strategy) {
	case "include":
		return Include(acct.Sync.Folders...)
	case "exclude":
		return Exclude(acct.Sync.Folders...)
	default:
		return All()
	}
}

// SyncStrategyFor resolves args and falls back to the account default.
func SyncStrategyFor(args SyncArgs, acct *config.AccountConfig) SyncStrategy {
	if strategy, ok := ResolveSyncStrategy(args); ok {
		return strategy
	}
	return DefaultSyncStrategy(acct)
}
