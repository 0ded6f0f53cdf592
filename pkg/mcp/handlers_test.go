package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/session"
	"github.com/unowned-ai/duet/pkg/store"
)

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func call(t *testing.T, h toolHandler, args map[string]interface{}) (string, bool) {
	t.Helper()
	res, err := h(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("Handler returned a Go error: %v", err)
	}
	return resultText(res), res.IsError
}

func setupSession(t *testing.T, backend store.Backend, id string) *session.Session {
	t.Helper()
	sess, err := session.Open(context.Background(), backend, id)
	if err != nil {
		t.Fatalf("session.Open failed: %v", err)
	}
	return sess
}

func TestPingHandler(t *testing.T) {
	if text, isErr := call(t, pingHandler, nil); isErr || text != "pong_duet" {
		t.Errorf("Expected pong_duet, got %q (error=%v)", text, isErr)
	}
}

func TestAddUpdateRemoveItem(t *testing.T) {
	backend := store.NewMemoryBackend()
	sess := setupSession(t, backend, "alice")

	text, isErr := call(t, addItemHandler(sess), map[string]interface{}{
		"collection": "goals",
		"item":       `{"text":"walk together","kind":"daily"}`,
	})
	if isErr {
		t.Fatalf("add_item failed: %s", text)
	}
	var added struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(text), &added); err != nil || !strings.HasPrefix(added.ID, "goal_") {
		t.Fatalf("Unexpected add_item result %q: %v", text, err)
	}

	text, isErr = call(t, updateItemHandler(sess), map[string]interface{}{
		"collection": "goals",
		"id":         added.ID,
		"patch":      map[string]interface{}{"done": true},
	})
	if isErr {
		t.Fatalf("update_item failed: %s", text)
	}
	if g := sess.Own().Goals[0]; !g.Done || g.Text != "walk together" {
		t.Errorf("Unexpected goal after update: %+v", g)
	}

	text, isErr = call(t, removeItemHandler(sess), map[string]interface{}{"collection": "goals", "id": added.ID})
	if isErr {
		t.Fatalf("remove_item failed: %s", text)
	}
	if n := len(sess.Own().Goals); n != 0 {
		t.Errorf("Expected goal to be removed, %d left", n)
	}
}

func TestAddItemRejections(t *testing.T) {
	sess := setupSession(t, store.NewMemoryBackend(), "alice")

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing collection", map[string]interface{}{"item": `{"text":"x"}`}},
		{"unknown collection", map[string]interface{}{"collection": "diary", "item": `{"text":"x"}`}},
		{"bad json", map[string]interface{}{"collection": "memos", "item": `{"text":`}},
		{"unknown field", map[string]interface{}{"collection": "memos", "item": `{"txt":"x"}`}},
		{"invalid element", map[string]interface{}{"collection": "memos", "item": `{"text":"  "}`}},
		{"foreign author", map[string]interface{}{"collection": "wishes", "item": `{"text":"x","author_id":"bob"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if text, isErr := call(t, addItemHandler(sess), tt.args); !isErr {
				t.Errorf("Expected a tool error, got %q", text)
			}
		})
	}
}

func TestPartnerTools(t *testing.T) {
	backend := store.NewMemoryBackend()
	alice := setupSession(t, backend, "alice")
	bob := setupSession(t, backend, "bob")

	if _, err := bob.AddWish(context.Background(), "aquarium"); err != nil {
		t.Fatalf("AddWish failed: %v", err)
	}

	if text, isErr := call(t, setPartnerLinkHandler(alice), map[string]interface{}{"code": "alice"}); !isErr || !strings.Contains(text, "itself") {
		t.Errorf("Expected self link to be rejected, got %q", text)
	}

	text, isErr := call(t, setPartnerLinkHandler(alice), map[string]interface{}{"code": "bob"})
	if isErr || !strings.Contains(text, "pending") {
		t.Errorf("Expected pending linkage before bob links back, got %q", text)
	}

	if err := bob.SetLink(context.Background(), "alice"); err != nil {
		t.Fatalf("SetLink failed: %v", err)
	}
	text, isErr = call(t, refreshPartnerHandler(alice), nil)
	if isErr || !strings.Contains(text, "linked") {
		t.Errorf("Expected linked after refresh, got %q", text)
	}

	text, isErr = call(t, getViewHandler(alice), nil)
	if isErr {
		t.Fatalf("get_view failed: %s", text)
	}
	if !strings.Contains(text, "aquarium") || !strings.Contains(text, `"linkage":"linked"`) {
		t.Errorf("Expected bob's wish in the composed view, got %s", text)
	}

	var bobsWish string
	for _, w := range bob.Own().Wishes {
		bobsWish = w.ID
	}
	text, isErr = call(t, removeItemHandler(alice), map[string]interface{}{"collection": "wishes", "id": bobsWish})
	if !isErr || !strings.Contains(text, "read-only") {
		t.Errorf("Expected partner wish removal to be refused, got %q", text)
	}

	text, isErr = call(t, linkStatusHandler(alice), nil)
	if isErr || !strings.Contains(text, `"partner_link":"bob"`) {
		t.Errorf("Unexpected link_status result %q", text)
	}
}

func TestDashboardAndMood(t *testing.T) {
	sess := setupSession(t, store.NewMemoryBackend(), "alice")

	if text, isErr := call(t, setMoodHandler(sess), map[string]interface{}{"mood": "furious"}); !isErr {
		t.Errorf("Expected invalid mood to be rejected, got %q", text)
	}
	if text, isErr := call(t, setMoodHandler(sess), map[string]interface{}{"mood": "happy"}); isErr {
		t.Fatalf("set_mood failed: %s", text)
	}

	text, isErr := call(t, getDashboardHandler(sess), nil)
	if isErr {
		t.Fatalf("get_dashboard failed: %s", text)
	}
	var d map[string]interface{}
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		t.Fatalf("Dashboard is not JSON: %v", err)
	}
	if d["mood"] != string(records.MoodHappy) || d["own_progress"] != "no goals set" || d["linkage"] != "unlinked" {
		t.Errorf("Unexpected dashboard: %v", d)
	}
	if _, ok := d["partner_progress"]; ok {
		t.Errorf("Expected no partner progress without a partner")
	}
}
