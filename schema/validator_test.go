package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateTransferItemPayload(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"payload_version": "v1",
		"source": "newsnow",
		"source_item_id": "abc-123",
		"text": "Declan Rice to Arsenal, here we go",
		"author_name": "Fabrizio Romano",
		"url": "https://example.com/items/abc-123",
		"published_at": "2026-07-01T12:00:00Z"
	}`)

	item, err := ValidateTransferItemPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to validate: %v", err)
	}
	if item.Source != "newsnow" || item.SourceItemID != "abc-123" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.AuthorName == nil || *item.AuthorName != "Fabrizio Romano" {
		t.Fatalf("unexpected author: %+v", item.AuthorName)
	}
}

func TestValidateTransferItemPayloadRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{"missing text", `{"payload_version":"v1","source":"newsnow","source_item_id":"abc"}`},
		{"wrong version", `{"payload_version":"v2","source":"newsnow","source_item_id":"abc","text":"x"}`},
		{"blank source", `{"payload_version":"v1","source":"  ","source_item_id":"abc","text":"x"}`},
		{"unknown field", `{"payload_version":"v1","source":"newsnow","source_item_id":"abc","text":"x","extra":1}`},
		{"trailing content", `{"payload_version":"v1","source":"newsnow","source_item_id":"abc","text":"x"} {}`},
		{"bad timestamp", `{"payload_version":"v1","source":"newsnow","source_item_id":"abc","text":"x","published_at":"yesterday"}`},
		{"empty", ``},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ValidateTransferItemPayload(json.RawMessage(tc.payload)); err == nil {
				t.Fatalf("expected validation to fail")
			}
		})
	}
}
