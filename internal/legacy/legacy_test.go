package legacy

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"testing"
	"time"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

const (
	alice = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	bob   = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

// browserDump is shaped like a localStorage export: every value a string.
func browserDump(t *testing.T, values map[string]any) string {
	t.Helper()
	out := make(map[string]string, len(values))
	for k, v := range values {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		out[k] = string(data)
	}
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return string(data)
}

func TestDecode_BrowserDump(t *testing.T) {
	t.Parallel()

	dump := browserDump(t, map[string]any{
		KeyContent: []map[string]any{{
			"id":             "c1",
			"title":          "Premium post",
			"content":        "<p>body</p>",
			"contentType":    "article",
			"tags":           []string{"eth"},
			"price":          0.01,
			"isPremium":      true,
			"creatorAddress": strings.ToLower(alice),
			"creatorName":    "Alice",
			"createdAt":      "2024-01-10T08:00:00.000Z",
			"views":          12,
			"likes":          3,
		}},
		KeyPurchases: []map[string]any{{
			"contentId": "c1", "amount": 0.01, "txHash": "0xaaa",
			"timestamp": 1705314600000, "buyerAddress": bob,
		}},
		KeyPayments: []map[string]any{
			{"contentId": "c1", "amount": 0.01, "txHash": "0xaaa", "timestamp": 1705314600000, "from": strings.ToLower(bob)},
			{"contentId": "c2", "amount": "0.02", "txHash": "0xbbb", "timestamp": "2024-01-16T00:00:00Z", "from": bob},
		},
		KeyTips: []map[string]any{{
			"id": "t1", "creatorAddress": alice, "amount": 0.05, "message": "thanks",
			"txHash": "0xccc", "timestamp": 1705314600000, "senderAddress": bob,
		}},
		KeyFallbackAuthUser: map[string]string{"address": bob, "name": "Fallback"},
		KeyAuthUser:         map[string]string{"address": strings.ToLower(alice), "name": "Alice"},
		"theme":             "dark",
	})

	snap, err := Decode(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if len(snap.Records.Content) != 1 {
		t.Fatalf("content = %d, want 1", len(snap.Records.Content))
	}
	item := snap.Records.Content[0]
	if item.CreatorAddress != alice {
		t.Errorf("creator = %q, want checksummed %q", item.CreatorAddress, alice)
	}
	if item.Price.String() != "0.01" || !item.IsPremium {
		t.Errorf("price = %s premium = %v, want 0.01 premium", item.Price, item.IsPremium)
	}
	if item.Status != model.StatusPublished {
		t.Errorf("status = %q, want published for dumps without status", item.Status)
	}
	if want := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC); !item.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", item.CreatedAt, want)
	}
	if item.Views != 12 || item.Likes != 3 {
		t.Errorf("counters = %d/%d, want 12/3", item.Views, item.Likes)
	}

	// The c1 purchase is stored under both purchase keys and must appear once.
	if len(snap.Records.Purchases) != 2 {
		t.Fatalf("purchases = %d, want 2", len(snap.Records.Purchases))
	}
	for _, p := range snap.Records.Purchases {
		if p.ID == "" || p.BuyerAddress != bob {
			t.Errorf("purchase = %+v, want derived id and buyer %s", p, bob)
		}
	}
	if got := snap.Records.Purchases[0].Timestamp; !got.Equal(time.UnixMilli(1705314600000)) {
		t.Errorf("timestamp = %v, want 2024-01-15 10:30 UTC", got)
	}

	if len(snap.Records.Tips) != 1 || snap.Records.Tips[0].Message != "thanks" {
		t.Errorf("tips = %+v, want the one tip", snap.Records.Tips)
	}

	if snap.Identity == nil || snap.Identity.Address != alice || snap.IdentityKey != KeyAuthUser {
		t.Errorf("identity = %+v from %q, want alice from auth_user", snap.Identity, snap.IdentityKey)
	}
	if !slices.Equal(snap.Unknown, []string{"theme"}) {
		t.Errorf("unknown = %v, want [theme]", snap.Unknown)
	}
	if len(snap.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", snap.Skipped)
	}
}

func TestDecode_RawJSONValues(t *testing.T) {
	t.Parallel()

	dump := `{
		"creator_vault_content": [{"id": "c1", "title": "Raw", "contentType": "video", "price": 0, "status": "draft"}],
		"fallback_auth_user": {"address": "` + bob + `"}
	}`
	snap, err := Decode(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(snap.Records.Content) != 1 || snap.Records.Content[0].Status != model.StatusDraft {
		t.Errorf("content = %+v, want one draft", snap.Records.Content)
	}
	if snap.Identity == nil || snap.IdentityKey != KeyFallbackAuthUser {
		t.Errorf("identity key = %q, want fallback_auth_user", snap.IdentityKey)
	}
}

func TestDecode_MalformedKeysSkipped(t *testing.T) {
	t.Parallel()

	dump := browserDump(t, map[string]any{
		KeyContent:   "{not json",
		KeyPurchases: `[{"contentId": "c1", "amount": "lots"}]`,
		KeyTips:      []map[string]any{{"id": "t1", "creatorAddress": alice, "amount": 0.1}},
	})
	snap, err := Decode(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if want := []string{KeyPurchases, KeyContent}; !slices.Equal(snap.Skipped, want) {
		t.Errorf("skipped = %v, want %v", snap.Skipped, want)
	}
	if len(snap.Records.Content) != 0 || len(snap.Records.Purchases) != 0 {
		t.Errorf("records from malformed keys = %d content, %d purchases, want none",
			len(snap.Records.Content), len(snap.Records.Purchases))
	}
	if len(snap.Records.Tips) != 1 {
		t.Errorf("tips = %d, want 1", len(snap.Records.Tips))
	}
}

func TestDecode_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dump string
	}{
		{name: "not an object", dump: `[1, 2, 3]`},
		{name: "not json", dump: `creator_vault_content=[]`},
		{name: "newer schema", dump: `{"schema_version": "99"}`},
		{name: "bad schema version", dump: `{"schema_version": "one"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode(strings.NewReader(tt.dump)); err == nil {
				t.Error("Decode() expected error")
			}
		})
	}
}

func TestDerivedIDStable(t *testing.T) {
	t.Parallel()

	a := derivedID("purchase", "c1", bob, "0xaaa")
	if a != derivedID("purchase", "c1", bob, "0xaaa") {
		t.Error("derivedID() differs for the same inputs")
	}
	if a == derivedID("purchase", "c1", bob, "0xbbb") {
		t.Error("derivedID() collides for different tx hashes")
	}
	if a == derivedID("tip", "c1", bob, "0xaaa") {
		t.Error("derivedID() collides across record kinds")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	set := &creator.RecordSet{
		Content: []*model.ContentItem{{
			ID: "c1", Title: "Post", Content: "body", ContentType: model.ContentTypeArticle,
			Tags: []string{"a"}, Price: model.MustParseEther("0.015"), IsPremium: true,
			CreatorAddress: alice, CreatedAt: at, UpdatedAt: at, Views: 4, Status: model.StatusPublished,
		}},
		Purchases: []*model.PurchaseRecord{{
			ID: "p1", ContentID: "c1", Amount: model.MustParseEther("0.015"), TxHash: "0x1", Timestamp: at, BuyerAddress: bob,
		}},
		Tips: []*model.TipRecord{{
			ID: "t1", CreatorAddress: alice, Amount: model.MustParseEther("1"), TxHash: "0x2", Timestamp: at, SenderAddress: bob,
		}},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, set, &model.Identity{Address: alice, Name: "Alice"}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Values are strings, and prices are bare numbers inside them.
	var raw map[string]string
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("exported dump is not a string map: %v", err)
	}
	if raw[KeySchemaVersion] != "1" {
		t.Errorf("schema_version = %q, want %q", raw[KeySchemaVersion], "1")
	}
	if !strings.Contains(raw[KeyContent], `"price":0.015`) {
		t.Errorf("content value = %s, want numeric price", raw[KeyContent])
	}

	snap, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(snap.Records.Content) != 1 || len(snap.Records.Purchases) != 1 || len(snap.Records.Tips) != 1 {
		t.Fatalf("round trip = %d/%d/%d records, want 1/1/1",
			len(snap.Records.Content), len(snap.Records.Purchases), len(snap.Records.Tips))
	}
	got := snap.Records.Content[0]
	if got.ID != "c1" || !got.Price.Equal(set.Content[0].Price) || !got.CreatedAt.Equal(at) || got.Views != 4 {
		t.Errorf("content = %+v, want the exported item", got)
	}
	if p := snap.Records.Purchases[0]; p.ID != "p1" || !p.Timestamp.Equal(at) {
		t.Errorf("purchase = %+v, want p1 at %v", p, at)
	}
	if snap.Identity == nil || snap.Identity.Name != "Alice" {
		t.Errorf("identity = %+v, want Alice", snap.Identity)
	}
}
