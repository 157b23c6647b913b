package folder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DEVBOX10/himalaya/internal/config"
)

func TestResolveSyncStrategyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		args SyncArgs
		want string
		ok   bool
	}{
		{"none", SyncArgs{}, "", false},
		{"source", SyncArgs{Source: "INBOX"}, "include(INBOX)", true},
		{"include", SyncArgs{Include: []string{"Sent", "INBOX"}}, "include(INBOX, Sent)", true},
		{"exclude", SyncArgs{Exclude: []string{"Spam"}}, "exclude(Spam)", true},
		{"all", SyncArgs{All: true}, "all", true},
		{"source wins", SyncArgs{Source: "INBOX", Include: []string{"Sent"}, Exclude: []string{"Spam"}, All: true}, "include(INBOX)", true},
		{"include beats exclude", SyncArgs{Include: []string{"Sent"}, Exclude: []string{"Spam"}, All: true}, "include(Sent)", true},
		{"exclude beats all", SyncArgs{Exclude: []string{"Spam"}, All: true}, "exclude(Spam)", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveSyncStrategy(tt.args)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
			again, _ := ResolveSyncStrategy(tt.args)
			assert.Equal(t, got, again)
		})
	}
}

func TestSyncStrategyMatches(t *testing.T) {
	assert.True(t, All().Matches("anything"))

	include := Include("INBOX", "INBOX")
	assert.True(t, include.Matches("INBOX"))
	assert.False(t, include.Matches("Sent"))
	assert.Equal(t, []string{"INBOX"}, include.Folders())

	exclude := Exclude("Spam")
	assert.False(t, exclude.Matches("Spam"))
	assert.True(t, exclude.Matches("INBOX"))
}

func TestSyncStrategyForFallsBackToAccount(t *testing.T) {
	acct := &config.AccountConfig{Sync: config.SyncConfig{Strategy: "exclude", Folders: []string{"Trash"}}}

	assert.Equal(t, "exclude(Trash)", SyncStrategyFor(SyncArgs{}, acct).String())
	assert.Equal(t, "all", SyncStrategyFor(SyncArgs{All: true}, acct).String())
	assert.Equal(t, "all", DefaultSyncStrategy(&config.AccountConfig{}).String())
	assert.Equal(t, "include(INBOX)", DefaultSyncStrategy(&config.AccountConfig{
		Sync: config.SyncConfig{Strategy: "Include", Folders: []string{"INBOX"}},
	}).String())
}
