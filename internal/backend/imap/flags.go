package imap

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap"
)

var systemFlags = map[string]string{
	"seen":     imap.SeenFlag,
	"answered": imap.AnsweredFlag,
	"flagged":  imap.FlaggedFlag,
	"deleted":  imap.DeletedFlag,
	"draft":    imap.DraftFlag,
}

// toIMAPFlags maps the short flag names to IMAP system flags. Other names
// are kept as keywords.
func toIMAPFlags(flags []string) []string {
	out := make([]string, 0, len(flags))
	for _, flag := range flags {
		if system, ok := systemFlags[strings.ToLower(strings.TrimPrefix(flag, "\\"))]; ok {
			out = append(out, system)
			continue
		}
		out = append(out, flag)
	}
	return out
}

func (p *Provider) AddFlags(ctx context.Context, folder string, ids, flags []string) error {
	return p.storeFlags(ctx, folder, ids, flags, imap.AddFlags)
}

func (p *Provider) SetFlags(ctx context.Context, folder string, ids, flags []string) error {
	return p.storeFlags(ctx, folder, ids, flags, imap.SetFlags)
}

func (p *Provider) RemoveFlags(ctx context.Context, folder string, ids, flags []string) error {
	return p.storeFlags(ctx, folder, ids, flags, imap.RemoveFlags)
}

func (p *Provider) storeFlags(ctx context.Context, folder string, ids, flags []string, op imap.FlagsOp) error {
	seqset, _, err := parseUIDs(ids)
	if err != nil {
		return err
	}
	c, err := p.selectFolder(ctx, folder, false)
	if err != nil {
		return err
	}
	values := []interface{}{}
	for _, flag := range toIMAPFlags(flags) {
		values = append(values, flag)
	}
	item := imap.FormatFlagsOp(op, true)
	if err := c.UidStore(seqset, item, values, nil); err != nil {
		return fmt.Errorf("cannot store flags in folder %s: %w", folder, err)
	}
	return nil
}
