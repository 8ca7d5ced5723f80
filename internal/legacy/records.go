package legacy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"creatorvault/internal/model"
)

// recordNamespace seeds the ids derived for records stored without one.
var recordNamespace = uuid.MustParse("6f1c4b9e-3d2a-5e7f-8a90-1b2c3d4e5f60")

// jsTime is a browser timestamp: epoch milliseconds or an ISO-8601 string.
type jsTime time.Time

func (t *jsTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = jsTime{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*t = jsTime{}
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = jsTime(time.UnixMilli(ms).UTC())
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q", s)
		}
		*t = jsTime(parsed.UTC())
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s", data)
	}
	*t = jsTime(time.UnixMilli(int64(ms)).UTC())
	return nil
}

// isoTime writes what Date.prototype.toISOString produces.
type isoTime time.Time

func (t isoTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format("2006-01-02T15:04:05.000Z"))
}

// ethNumber writes an amount as a bare JSON number in ETH.
type ethNumber model.Amount

func (a ethNumber) MarshalJSON() ([]byte, error) {
	return []byte(model.Amount(a).String()), nil
}

type contentIn struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Content        string              `json:"content"`
	ContentType    model.ContentType   `json:"contentType"`
	CoverImage     string              `json:"coverImage"`
	Tags           []string            `json:"tags"`
	Price          model.Amount        `json:"price"`
	IsPremium      bool                `json:"isPremium"`
	CreatorAddress string              `json:"creatorAddress"`
	CreatorName    string              `json:"creatorName"`
	CreatedAt      jsTime              `json:"createdAt"`
	UpdatedAt      jsTime              `json:"updatedAt"`
	Views          int64               `json:"views"`
	Likes          int64               `json:"likes"`
	Status         model.ContentStatus `json:"status"`
}

func (c *contentIn) item() *model.ContentItem {
	status := c.Status
	if status == "" {
		status = model.StatusPublished
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return &model.ContentItem{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Content:        c.Content,
		ContentType:    c.ContentType,
		CoverImage:     c.CoverImage,
		Tags:           tags,
		Price:          c.Price,
		IsPremium:      c.IsPremium,
		CreatorAddress: model.NormalizeAddress(c.CreatorAddress),
		CreatorName:    c.CreatorName,
		CreatedAt:      time.Time(c.CreatedAt),
		UpdatedAt:      time.Time(c.UpdatedAt),
		Views:          c.Views,
		Likes:          c.Likes,
		Status:         status,
	}
}

type contentOut struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Content        string              `json:"content"`
	ContentType    model.ContentType   `json:"contentType"`
	CoverImage     string              `json:"coverImage,omitempty"`
	Tags           []string            `json:"tags"`
	Price          ethNumber           `json:"price"`
	IsPremium      bool                `json:"isPremium"`
	CreatorAddress string              `json:"creatorAddress"`
	CreatorName    string              `json:"creatorName"`
	CreatedAt      isoTime             `json:"createdAt"`
	UpdatedAt      isoTime             `json:"updatedAt"`
	Views          int64               `json:"views"`
	Likes          int64               `json:"likes"`
	Status         model.ContentStatus `json:"status"`
}

func newContentOut(c *model.ContentItem) contentOut {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return contentOut{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Content:        c.Content,
		ContentType:    c.ContentType,
		CoverImage:     c.CoverImage,
		Tags:           tags,
		Price:          ethNumber(c.Price),
		IsPremium:      c.IsPremium,
		CreatorAddress: c.CreatorAddress,
		CreatorName:    c.CreatorName,
		CreatedAt:      isoTime(c.CreatedAt),
		UpdatedAt:      isoTime(c.UpdatedAt),
		Views:          c.Views,
		Likes:          c.Likes,
		Status:         c.Status,
	}
}

// purchaseIn covers both user-purchases and creator_vault_payments entries.
// Payment entries name the buyer "from".
type purchaseIn struct {
	ID           string       `json:"id"`
	ContentID    string       `json:"contentId"`
	Amount       model.Amount `json:"amount"`
	TxHash       string       `json:"txHash"`
	Timestamp    jsTime       `json:"timestamp"`
	BuyerAddress string       `json:"buyerAddress"`
	From         string       `json:"from"`
}

func (p *purchaseIn) record() *model.PurchaseRecord {
	buyer := p.BuyerAddress
	if buyer == "" {
		buyer = p.From
	}
	buyer = model.NormalizeAddress(buyer)
	id := p.ID
	if id == "" {
		id = derivedID("purchase", p.ContentID, buyer, p.TxHash)
	}
	return &model.PurchaseRecord{
		ID:           id,
		ContentID:    p.ContentID,
		Amount:       p.Amount,
		TxHash:       p.TxHash,
		Timestamp:    time.Time(p.Timestamp),
		BuyerAddress: buyer,
	}
}

type purchaseOut struct {
	ID           string    `json:"id"`
	ContentID    string    `json:"contentId"`
	Amount       ethNumber `json:"amount"`
	TxHash       string    `json:"txHash"`
	Timestamp    int64     `json:"timestamp"`
	BuyerAddress string    `json:"buyerAddress"`
}

func newPurchaseOut(p *model.PurchaseRecord) purchaseOut {
	return purchaseOut{
		ID:           p.ID,
		ContentID:    p.ContentID,
		Amount:       ethNumber(p.Amount),
		TxHash:       p.TxHash,
		Timestamp:    p.Timestamp.UnixMilli(),
		BuyerAddress: p.BuyerAddress,
	}
}

type tipIn struct {
	ID             string       `json:"id"`
	CreatorAddress string       `json:"creatorAddress"`
	To             string       `json:"to"`
	Amount         model.Amount `json:"amount"`
	Message        string       `json:"message"`
	TxHash         string       `json:"txHash"`
	Timestamp      jsTime       `json:"timestamp"`
	SenderAddress  string       `json:"senderAddress"`
	From           string       `json:"from"`
}

func (t *tipIn) record() *model.TipRecord {
	creatorAddr := t.CreatorAddress
	if creatorAddr == "" {
		creatorAddr = t.To
	}
	sender := t.SenderAddress
	if sender == "" {
		sender = t.From
	}
	creatorAddr, sender = model.NormalizeAddress(creatorAddr), model.NormalizeAddress(sender)
	id := t.ID
	if id == "" {
		id = derivedID("tip", creatorAddr, sender, t.TxHash)
	}
	return &model.TipRecord{
		ID:             id,
		CreatorAddress: creatorAddr,
		Amount:         t.Amount,
		Message:        t.Message,
		TxHash:         t.TxHash,
		Timestamp:      time.Time(t.Timestamp),
		SenderAddress:  sender,
	}
}

type tipOut struct {
	ID             string    `json:"id"`
	CreatorAddress string    `json:"creatorAddress"`
	Amount         ethNumber `json:"amount"`
	Message        string    `json:"message,omitempty"`
	TxHash         string    `json:"txHash"`
	Timestamp      int64     `json:"timestamp"`
	SenderAddress  string    `json:"senderAddress"`
}

func newTipOut(t *model.TipRecord) tipOut {
	return tipOut{
		ID:             t.ID,
		CreatorAddress: t.CreatorAddress,
		Amount:         ethNumber(t.Amount),
		Message:        t.Message,
		TxHash:         t.TxHash,
		Timestamp:      t.Timestamp.UnixMilli(),
		SenderAddress:  t.SenderAddress,
	}
}

// derivedID is stable for the same inputs, so re-importing a dump whose
// records carry no id does not duplicate them.
func derivedID(kind string, parts ...string) string {
	name := kind
	for _, p := range parts {
		name += "\x00" + p
	}
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}
