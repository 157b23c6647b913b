package imap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/emersion/go-imap"

	"github.com/DEVBOX10/himalaya/internal/backend"
	"github.com/DEVBOX10/himalaya/internal/config"
)

type mockClient struct {
	mailboxes   []*imap.MailboxInfo
	messages    map[uint32]string
	uidPlus     bool
	uidValidity uint32

	selected     string
	readOnly     bool
	created      []string
	deleted      []string
	stored       []string
	storedValues []interface{}
	expunged     int
	uidExpunge   int
	moveErr      error
	copiedTo     []string
	appended     []string
	loggedOut    bool
}

func (m *mockClient) Login(username, password string) error { return nil }
func (m *mockClient) Logout() error {
	m.loggedOut = true
	return nil
}
func (m *mockClient) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	m.selected = name
	m.readOnly = readOnly
	return &imap.MailboxStatus{Name: name, UidValidity: m.uidValidity}, nil
}
func (m *mockClient) List(ref, name string, ch chan *imap.MailboxInfo) error {
	for _, mailbox := range m.mailboxes {
		ch <- mailbox
	}
	close(ch)
	return nil
}
func (m *mockClient) Create(name string) error {
	m.created = append(m.created, name)
	return nil
}
func (m *mockClient) Delete(name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}
func (m *mockClient) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	uids := []uint32{}
	for uid := range m.messages {
		uids = append(uids, uid)
	}
	return uids, nil
}
func (m *mockClient) UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	defer close(ch)
	uids := []uint32{}
	for uid := range m.messages {
		if seqset.Contains(uid) {
			uids = append(uids, uid)
		}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	for _, uid := range uids {
		msg := imap.NewMessage(uid, items)
		msg.Uid = uid
		msg.Envelope = &imap.Envelope{
			Subject: "subject " + formatUID(uid),
			From:    []*imap.Address{{PersonalName: "Alice", MailboxName: "alice", HostName: "example.com"}},
		}
		msg.Flags = []string{imap.SeenFlag}
		msg.Body = map[*imap.BodySectionName]imap.Literal{
			{}: bytes.NewBufferString(m.messages[uid]),
		}
		ch <- msg
	}
	return nil
}
func (m *mockClient) UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error {
	if ch != nil {
		close(ch)
	}
	m.stored = append(m.stored, string(item)+" "+seqset.String())
	m.storedValues = append(m.storedValues, value)
	return nil
}
func (m *mockClient) UidMove(seqset *imap.SeqSet, mailbox string) error { return m.moveErr }
func (m *mockClient) UidCopy(seqset *imap.SeqSet, mailbox string) error {
	m.copiedTo = append(m.copiedTo, mailbox)
	return nil
}
func (m *mockClient) Append(mailbox string, flags []string, date time.Time, msg imap.Literal) error {
	data, _ := io.ReadAll(msg)
	m.appended = append(m.appended, string(data))
	return nil
}
func (m *mockClient) Expunge(ch chan uint32) error {
	m.expunged++
	if ch != nil {
		close(ch)
	}
	return nil
}
func (m *mockClient) SupportUidPlus() (bool, error) { return m.uidPlus, nil }
func (m *mockClient) UidExpunge(seqset *imap.SeqSet, ch chan uint32) error {
	m.uidExpunge++
	if ch != nil {
		close(ch)
	}
	return nil
}
func (m *mockClient) AppendUID(mailbox string, flags []string, date time.Time, msg imap.Literal) (uint32, error) {
	if err := m.Append(mailbox, flags, date, msg); err != nil {
		return 0, err
	}
	return 42, nil
}

func newTestProvider(t *testing.T, mock *mockClient) *Provider {
	t.Helper()
	acct := &config.AccountConfig{
		Name: "work",
		IMAP: &config.IMAPConfig{Host: "imap.example.com", Port: 993, Encryption: config.EncryptionTLS, Login: "me"},
	}
	p, err := NewProvider(acct, func() (string, error) { return "secret", nil })
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	p.Connector = func(cfg *config.IMAPConfig, password string) (Client, error) {
		if password != "secret" {
			t.Fatalf("unexpected password %q", password)
		}
		return mock, nil
	}
	return p
}

func TestListFoldersWithMock(t *testing.T) {
	mock := &mockClient{mailboxes: []*imap.MailboxInfo{
		{Name: "INBOX", Delimiter: "/"},
		{Name: "Archive", Delimiter: "/", Attributes: []string{`\Archive`}},
	}}
	p := newTestProvider(t, mock)

	folders, err := p.ListFolders(context.Background())
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %d", len(folders))
	}
	if folders[0].Name != "INBOX" || folders[1].Name != "Archive" {
		t.Fatalf("unexpected folders: %v", folders)
	}
	if folders[1].Delim != "/" || folders[1].Desc != `\Archive` {
		t.Fatalf("unexpected folder details: %+v", folders[1])
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !mock.loggedOut {
		t.Fatalf("expected logout to be called")
	}
}

func TestProviderConnectsLazily(t *testing.T) {
	connects := 0
	acct := &config.AccountConfig{
		Name: "work",
		IMAP: &config.IMAPConfig{Host: "imap.example.com", Port: 993, Encryption: config.EncryptionTLS, Login: "me"},
	}
	p, err := NewProvider(acct, func() (string, error) {
		return "", errors.New("keyring locked")
	})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	p.Connector = func(cfg *config.IMAPConfig, password string) (Client, error) {
		connects++
		return &mockClient{}, nil
	}

	if !p.Supports(backend.ListFolders) || p.Supports(backend.SendMessage) {
		t.Fatalf("unexpected capability set")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close without connection: %v", err)
	}
	if _, err := p.ListFolders(context.Background()); err == nil {
		t.Fatalf("expected password error")
	}
	if connects != 0 {
		t.Fatalf("expected no connection attempt, got %d", connects)
	}
}

func TestNewProviderValidatesConfig(t *testing.T) {
	_, err := NewProvider(&config.AccountConfig{Name: "work"}, nil)
	if err == nil {
		t.Fatalf("expected missing imap config error")
	}
}

func TestGetMessagesKeepsRequestedOrder(t *testing.T) {
	mock := &mockClient{messages: map[uint32]string{
		3: "Subject: three\r\n\r\nthree",
		7: "Subject: seven\r\n\r\nseven",
	}}
	p := newTestProvider(t, mock)

	msgs, err := p.GetMessages(context.Background(), "INBOX", []string{"7", "3"})
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "7" || msgs[1].ID != "3" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if string(msgs[0].Raw) != "Subject: seven\r\n\r\nseven" {
		t.Fatalf("unexpected body: %q", msgs[0].Raw)
	}
	if mock.readOnly {
		t.Fatalf("get must select folder read-write")
	}

	if _, err := p.PeekMessages(context.Background(), "INBOX", []string{"3"}); err != nil {
		t.Fatalf("peek messages: %v", err)
	}
	if !mock.readOnly {
		t.Fatalf("peek must select folder read-only")
	}
}

func TestGetMessagesMissingID(t *testing.T) {
	mock := &mockClient{messages: map[uint32]string{3: "x"}}
	p := newTestProvider(t, mock)

	if _, err := p.GetMessages(context.Background(), "INBOX", []string{"3", "9"}); err == nil {
		t.Fatalf("expected error for missing message")
	}
	if _, err := p.GetMessages(context.Background(), "INBOX", []string{"abc"}); err == nil {
		t.Fatalf("expected error for invalid id")
	}
}

func TestListEnvelopesPaging(t *testing.T) {
	mock := &mockClient{messages: map[uint32]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "e"}}
	p := newTestProvider(t, mock)

	page, err := p.ListEnvelopes(context.Background(), "INBOX", 1, 2)
	if err != nil {
		t.Fatalf("list envelopes: %v", err)
	}
	if ids := page.IDs(); len(ids) != 2 || ids[0] != "5" || ids[1] != "4" {
		t.Fatalf("unexpected first page: %v", ids)
	}
	if page[0].From != "Alice <alice@example.com>" {
		t.Fatalf("unexpected from: %q", page[0].From)
	}

	all, err := p.ListEnvelopes(context.Background(), "INBOX", 1, 0)
	if err != nil {
		t.Fatalf("list all envelopes: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 envelopes, got %d", len(all))
	}

	beyond, err := p.ListEnvelopes(context.Background(), "INBOX", 4, 2)
	if err != nil {
		t.Fatalf("list beyond last page: %v", err)
	}
	if len(beyond) != 0 {
		t.Fatalf("expected empty page, got %v", beyond.IDs())
	}
}

func TestFolderOperations(t *testing.T) {
	mock := &mockClient{messages: map[uint32]string{1: "a", 2: "b"}}
	p := newTestProvider(t, mock)
	ctx := context.Background()

	if err := p.AddFolder(ctx, "Archive"); err != nil {
		t.Fatalf("add folder: %v", err)
	}
	if err := p.DeleteFolder(ctx, "Old"); err != nil {
		t.Fatalf("delete folder: %v", err)
	}
	if err := p.ExpungeFolder(ctx, "INBOX"); err != nil {
		t.Fatalf("expunge folder: %v", err)
	}
	if err := p.PurgeFolder(ctx, "INBOX"); err != nil {
		t.Fatalf("purge folder: %v", err)
	}

	if len(mock.created) != 1 || mock.created[0] != "Archive" {
		t.Fatalf("unexpected created folders: %v", mock.created)
	}
	if len(mock.deleted) != 1 || mock.deleted[0] != "Old" {
		t.Fatalf("unexpected deleted folders: %v", mock.deleted)
	}
	if mock.expunged != 2 {
		t.Fatalf("expected 2 expunges, got %d", mock.expunged)
	}
	if len(mock.stored) != 1 || mock.stored[0] != "+FLAGS.SILENT 1:2" {
		t.Fatalf("unexpected stores: %v", mock.stored)
	}
}

func TestDeleteMessagesUsesUidPlus(t *testing.T) {
	mock := &mockClient{uidPlus: true}
	p := newTestProvider(t, mock)

	if err := p.DeleteMessages(context.Background(), "INBOX", []string{"4"}); err != nil {
		t.Fatalf("delete messages: %v", err)
	}
	if mock.uidExpunge != 1 || mock.expunged != 0 {
		t.Fatalf("expected uid expunge, got uid=%d plain=%d", mock.uidExpunge, mock.expunged)
	}
}

func TestMoveMessagesFallsBackToCopy(t *testing.T) {
	mock := &mockClient{moveErr: errors.New("MOVE not supported")}
	p := newTestProvider(t, mock)

	if err := p.MoveMessages(context.Background(), "INBOX", "Archive", []string{"1", "2"}); err != nil {
		t.Fatalf("move messages: %v", err)
	}
	if len(mock.copiedTo) != 1 || mock.copiedTo[0] != "Archive" {
		t.Fatalf("expected copy to Archive, got %v", mock.copiedTo)
	}
	if mock.expunged != 1 {
		t.Fatalf("expected expunge after copy, got %d", mock.expunged)
	}
}

func TestAddMessageReturnsUID(t *testing.T) {
	mock := &mockClient{uidPlus: true}
	p := newTestProvider(t, mock)

	id, err := p.AddMessage(context.Background(), "Sent", []byte("raw"), []string{"seen"})
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	if id != "42" {
		t.Fatalf("expected id 42, got %q", id)
	}

	mock.uidPlus = false
	id, err = p.AddMessage(context.Background(), "Sent", []byte("raw"), nil)
	if err != nil {
		t.Fatalf("add message without uidplus: %v", err)
	}
	if id != "" || len(mock.appended) != 2 {
		t.Fatalf("unexpected append result: id=%q appended=%d", id, len(mock.appended))
	}
}

func TestFolderValidityExaminesFolder(t *testing.T) {
	mock := &mockClient{uidValidity: 7}
	p := newTestProvider(t, mock)

	validity, err := p.FolderValidity(context.Background(), "INBOX")
	if err != nil {
		t.Fatalf("folder validity: %v", err)
	}
	if validity != 7 {
		t.Fatalf("expected validity 7, got %d", validity)
	}
	if mock.selected != "INBOX" || !mock.readOnly {
		t.Fatalf("expected INBOX examined read-only, got %q read-only=%v", mock.selected, mock.readOnly)
	}
}

func TestStoreFlagsSendsFlagValues(t *testing.T) {
	mock := &mockClient{}
	p := newTestProvider(t, mock)

	if err := p.AddFlags(context.Background(), "INBOX", []string{"3", "5"}, []string{"seen", "custom"}); err != nil {
		t.Fatalf("add flags: %v", err)
	}
	if err := p.RemoveFlags(context.Background(), "INBOX", []string{"3"}, []string{"flagged"}); err != nil {
		t.Fatalf("remove flags: %v", err)
	}

	if len(mock.stored) != 2 || mock.stored[0] != "+FLAGS.SILENT 3,5" || mock.stored[1] != "-FLAGS.SILENT 3" {
		t.Fatalf("unexpected stores: %v", mock.stored)
	}
	values, ok := mock.storedValues[0].([]interface{})
	if !ok || len(values) != 2 || values[0] != imap.SeenFlag || values[1] != "custom" {
		t.Fatalf("unexpected flag values: %#v", mock.storedValues[0])
	}
}

func TestToIMAPFlags(t *testing.T) {
	got := toIMAPFlags([]string{"seen", `\Flagged`, "custom"})
	want := []string{imap.SeenFlag, imap.FlaggedFlag, "custom"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("flag %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
