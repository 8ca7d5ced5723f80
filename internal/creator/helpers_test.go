package creator_test

import (
	"testing"
	"time"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
	"creatorvault/internal/testutil"
)

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	carol = "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
)

// env bundles a Service with the fakes behind it.
type env struct {
	svc     *creator.Service
	db      creator.Database
	vault   creator.Vault
	gateway *testutil.StubGateway
	clock   *testutil.StubClock
}

func newEnv(t *testing.T, mutate ...func(*creator.Options)) *env {
	t.Helper()

	opts := creator.DefaultOptions()
	opts.Location = time.UTC
	for _, m := range mutate {
		m(&opts)
	}

	e := &env{
		db:      testutil.NewTestDatabase(t),
		vault:   testutil.NewTestVault(),
		gateway: testutil.NewStubGateway(),
		clock:   testutil.FixedClock(),
	}
	e.svc = creator.NewService(e.db, e.vault, testutil.NewTestEncryptor(), e.gateway,
		creator.NewNopLogger(), e.clock, testutil.NewStubIDGenerator(), opts)
	return e
}

func identity(addr string) model.Identity {
	return model.Identity{Address: addr}
}

// publish saves a published item owned by owner.
func (e *env) publish(t *testing.T, owner string, premium bool, price string) *model.ContentItem {
	t.Helper()
	item, err := e.svc.CreateContent(identity(owner), &model.ContentItem{
		Title:       "Item",
		Content:     "<p>body</p>",
		ContentType: model.ContentTypeArticle,
		Tags:        []string{"go"},
		Price:       model.MustParseEther(price),
		IsPremium:   premium,
		Status:      model.StatusPublished,
	})
	if err != nil {
		t.Fatalf("CreateContent() error = %v", err)
	}
	return item
}
