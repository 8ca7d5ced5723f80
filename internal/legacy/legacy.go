// Package legacy reads and writes the browser storage layout used by the
// original single-page app: a JSON object keyed by localStorage key.
package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// Storage keys.
const (
	KeyContent          = "creator_vault_content"
	KeyPurchases        = "user-purchases"
	KeyPayments         = "creator_vault_payments"
	KeyTips             = "user-tips"
	KeyAuthUser         = "auth_user"
	KeyFallbackAuthUser = "fallback_auth_user"
	KeySchemaVersion    = "schema_version"
)

// SchemaVersion is written on export. Dumps taken from a browser carry none.
const SchemaVersion = 1

// Snapshot is a decoded storage dump.
type Snapshot struct {
	Records *creator.RecordSet

	// Identity is the signed-in user found in the dump, if any.
	Identity *model.Identity
	// IdentityKey is the key Identity was read from.
	IdentityKey string

	// Skipped lists keys whose values could not be parsed.
	Skipped []string
	// Unknown lists keys this package does not read.
	Unknown []string
}

// Decode reads a storage dump. Each value may be a JSON-encoded string, as
// localStorage holds it, or raw JSON. A key that fails to parse is skipped and
// listed in Snapshot.Skipped; only a dump that is not a JSON object fails.
func Decode(r io.Reader) (*Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding storage dump: %w", err)
	}

	snap := &Snapshot{Records: &creator.RecordSet{}}

	if v, ok := raw[KeySchemaVersion]; ok {
		var version int
		if err := unmarshalValue(v, &version); err != nil {
			return nil, fmt.Errorf("reading %s: %w", KeySchemaVersion, err)
		}
		if version > SchemaVersion {
			return nil, fmt.Errorf("storage dump schema version %d is newer than supported version %d", version, SchemaVersion)
		}
	}

	for _, key := range sortedKeys(raw) {
		value := raw[key]
		var err error
		switch key {
		case KeySchemaVersion:
			continue
		case KeyContent:
			err = decodeContent(value, snap)
		case KeyPurchases, KeyPayments:
			err = decodePurchases(value, snap)
		case KeyTips:
			err = decodeTips(value, snap)
		case KeyAuthUser, KeyFallbackAuthUser:
			err = decodeIdentity(key, value, snap)
		default:
			snap.Unknown = append(snap.Unknown, key)
			continue
		}
		if err != nil {
			snap.Skipped = append(snap.Skipped, key)
		}
	}

	snap.Records.Purchases = dedupePurchases(snap.Records.Purchases)
	return snap, nil
}

// Encode writes records in the storage layout, each value JSON-encoded as a
// string the way localStorage stores it. A non-nil identity is written as
// auth_user.
func Encode(w io.Writer, set *creator.RecordSet, identity *model.Identity) error {
	content := make([]contentOut, 0, len(set.Content))
	for _, c := range set.Content {
		content = append(content, newContentOut(c))
	}
	purchases := make([]purchaseOut, 0, len(set.Purchases))
	for _, p := range set.Purchases {
		purchases = append(purchases, newPurchaseOut(p))
	}
	tips := make([]tipOut, 0, len(set.Tips))
	for _, t := range set.Tips {
		tips = append(tips, newTipOut(t))
	}

	values := map[string]any{
		KeySchemaVersion: SchemaVersion,
		KeyContent:       content,
		KeyPurchases:     purchases,
		KeyTips:          tips,
	}
	if identity != nil {
		values[KeyAuthUser] = identity
	}

	out := make(map[string]string, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		out[key] = string(data)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("writing storage dump: %w", err)
	}
	return nil
}

// unmarshalValue decodes a storage value, unwrapping a JSON string first.
func unmarshalValue(raw json.RawMessage, v any) error {
	data := bytes.TrimSpace(raw)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	return json.Unmarshal(data, v)
}

func decodeContent(raw json.RawMessage, snap *Snapshot) error {
	var items []contentIn
	if err := unmarshalValue(raw, &items); err != nil {
		return err
	}
	for i := range items {
		snap.Records.Content = append(snap.Records.Content, items[i].item())
	}
	return nil
}

func decodePurchases(raw json.RawMessage, snap *Snapshot) error {
	var records []purchaseIn
	if err := unmarshalValue(raw, &records); err != nil {
		return err
	}
	for i := range records {
		snap.Records.Purchases = append(snap.Records.Purchases, records[i].record())
	}
	return nil
}

func decodeTips(raw json.RawMessage, snap *Snapshot) error {
	var records []tipIn
	if err := unmarshalValue(raw, &records); err != nil {
		return err
	}
	for i := range records {
		snap.Records.Tips = append(snap.Records.Tips, records[i].record())
	}
	return nil
}

// decodeIdentity prefers auth_user over fallback_auth_user.
func decodeIdentity(key string, raw json.RawMessage, snap *Snapshot) error {
	var id model.Identity
	if err := unmarshalValue(raw, &id); err != nil {
		return err
	}
	id.Address = model.NormalizeAddress(id.Address)
	if id.IsAnonymous() {
		return nil
	}
	if snap.Identity != nil && snap.IdentityKey == KeyAuthUser {
		return nil
	}
	snap.Identity = &id
	snap.IdentityKey = key
	return nil
}

// dedupePurchases drops a purchase that appears under both user-purchases and
// creator_vault_payments, keeping the first by id and by transfer.
func dedupePurchases(in []*model.PurchaseRecord) []*model.PurchaseRecord {
	seenID := make(map[string]bool, len(in))
	seenTransfer := make(map[string]bool, len(in))
	out := in[:0]
	for _, p := range in {
		transfer := strings.Join([]string{p.ContentID, strings.ToLower(p.BuyerAddress), p.TxHash}, "\x00")
		if seenID[p.ID] || (p.TxHash != "" && seenTransfer[transfer]) {
			continue
		}
		seenID[p.ID] = true
		seenTransfer[transfer] = true
		out = append(out, p)
	}
	return out
}

// sortedKeys orders keys so user-purchases is read before
// creator_vault_payments and auth_user before fallback_auth_user.
func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	rank := func(k string) int {
		switch k {
		case KeyPurchases:
			return 0
		case KeyPayments:
			return 1
		case KeyAuthUser:
			return 2
		case KeyFallbackAuthUser:
			return 3
		}
		return 4
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return keys
}
