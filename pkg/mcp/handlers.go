package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/duet/pkg/gateway"
	"github.com/unowned-ai/duet/pkg/linkage"
	"github.com/unowned-ai/duet/pkg/records"
	"github.com/unowned-ai/duet/pkg/session"
)

type toolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// RegisterTools registers every duet tool backed by sess and returns their names.
func RegisterTools(s *server.MCPServer, sess *session.Session) []string {
	tools := []struct {
		tool    mcp.Tool
		handler toolHandler
	}{
		{pingTool(), pingHandler},
		{getViewTool(), getViewHandler(sess)},
		{getDashboardTool(), getDashboardHandler(sess)},
		{linkStatusTool(), linkStatusHandler(sess)},
		{setPartnerLinkTool(), setPartnerLinkHandler(sess)},
		{refreshPartnerTool(), refreshPartnerHandler(sess)},
		{addItemTool(), addItemHandler(sess)},
		{updateItemTool(), updateItemHandler(sess)},
		{removeItemTool(), removeItemHandler(sess)},
		{setMoodTool(), setMoodHandler(sess)},
	}

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		s.AddTool(t.tool, t.handler)
		names = append(names, t.tool.Name)
	}
	return names
}

func pingTool() mcp.Tool {
	return mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong_duet' to check if the Duet MCP server is alive."),
	)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_duet"), nil
}

func getViewTool() mcp.Tool {
	return mcp.NewTool("get_view",
		mcp.WithDescription("Returns the composed view: own private collections, shared collections merged with the linked partner's, and the linkage state."),
		mcp.WithBoolean("refresh", mcp.Description("Reread own and partner records from the store first.")),
	)
}

func getViewHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vm, err := loadView(ctx, sess, boolArg(request, "refresh"))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load view: %v", err)), nil
		}
		return jsonResult(struct {
			Linkage     linkage.State `json:"linkage"`
			PartnerID   string        `json:"partner_id,omitempty"`
			PartnerLink string        `json:"partner_link,omitempty"`
			View        any           `json:"view"`
		}{vm.Linkage, vm.PartnerID, vm.Own.PartnerLink, vm.View})
	}
}

func getDashboardTool() mcp.Tool {
	return mcp.NewTool("get_dashboard",
		mcp.WithDescription("Returns the dashboard summary: mood, daily goal progress for both partners, latest anger log, next date plan and the memo thread."),
		mcp.WithBoolean("refresh", mcp.Description("Reread own and partner records from the store first.")),
	)
}

func getDashboardHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vm, err := loadView(ctx, sess, boolArg(request, "refresh"))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load dashboard: %v", err)), nil
		}
		d := vm.View.Dashboard
		out := map[string]any{
			"linkage":      vm.Linkage,
			"mood":         d.Mood,
			"own_progress": d.OwnProgress.String(),
			"thread":       d.Thread,
		}
		if d.PartnerProgress != nil {
			out["partner_progress"] = d.PartnerProgress.String()
		}
		if d.RecentAngerLog != nil {
			out["recent_anger_log"] = d.RecentAngerLog
		}
		if d.NextPlan != nil {
			out["next_plan"] = d.NextPlan
		}
		return jsonResult(out)
	}
}

func loadView(ctx context.Context, sess *session.Session, refresh bool) (session.ViewModel, error) {
	if refresh {
		return sess.Refresh(ctx)
	}
	return sess.View(ctx)
}

func linkStatusTool() mcp.Tool {
	return mcp.NewTool("link_status",
		mcp.WithDescription("Reports the account id to share with a partner, the stored partner link and the linkage state (unlinked, pending, linked)."),
	)
}

func linkStatusHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vm, err := sess.View(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to check partner link: %v", err)), nil
		}
		return jsonResult(map[string]any{
			"account_id":   sess.AccountID(),
			"partner_link": vm.Own.PartnerLink,
			"linkage":      vm.Linkage,
		})
	}
}

func setPartnerLinkTool() mcp.Tool {
	return mcp.NewTool("set_partner_link",
		mcp.WithDescription("Links this account to a partner by the partner's account id. The partner's shared records become visible once they link back."),
		mcp.WithString("code", mcp.Required(), mcp.Description("The partner's account id.")),
	)
}

func setPartnerLinkHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := stringArg(request, "code")
		if err := sess.SetLink(ctx, code); err != nil {
			var invalid *linkage.InvalidCodeError
			if errors.As(err, &invalid) {
				return mcp.NewToolResultError(invalid.Error()), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to set partner link: %v", err)), nil
		}
		vm, err := sess.View(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Partner link saved, but reading the partner failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Partner link set to '%s'. Linkage: %s.", code, vm.Linkage)), nil
	}
}

func refreshPartnerTool() mcp.Tool {
	return mcp.NewTool("refresh_partner",
		mcp.WithDescription("Rereads the partner's record to pick up their latest shared entries."),
	)
}

func refreshPartnerHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vm, err := sess.Refresh(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to refresh: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Linkage: %s.", vm.Linkage)), nil
	}
}

func addItemTool() mcp.Tool {
	return mcp.NewTool("add_item",
		mcp.WithDescription("Adds an element to one of your collections. Author and timestamps are filled in."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("One of: "+collectionNames()+".")),
		mcp.WithString("item", mcp.Required(), mcp.Description(`Element as a JSON object using snake_case field names, e.g. {"text":"walk","kind":"daily"} for goals.`)),
	)
}

func addItemHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, err := collectionArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		item, err := objectArg(request, "item")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		id, _ := item["id"].(string)
		if id == "" {
			id = records.NewElementID(c)
			item["id"] = id
		}
		raw, err := json.Marshal(item)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode item: %v", err)), nil
		}
		el, err := records.DecodeElement(c, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid %s item: %v", c, err)), nil
		}

		if err := sess.Apply(ctx, gateway.Append(c, el)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add to %s: %v", c, err)), nil
		}
		return jsonResult(map[string]string{"collection": string(c), "id": id})
	}
}

func updateItemTool() mcp.Tool {
	return mcp.NewTool("update_item",
		mcp.WithDescription("Updates fields of one of your own elements. id, author_id and created_at cannot be changed."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("One of: "+collectionNames()+".")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element id.")),
		mcp.WithString("patch", mcp.Required(), mcp.Description(`Fields to overwrite as a JSON object, e.g. {"done":true}.`)),
	)
}

func updateItemHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, err := collectionArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		id := stringArg(request, "id")
		if id == "" {
			return mcp.NewToolResultError("'id' parameter is required."), nil
		}
		patch, err := objectArg(request, "patch")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(patch) == 0 {
			return mcp.NewToolResultError("'patch' must name at least one field."), nil
		}

		if err := sess.Apply(ctx, gateway.Update(c, id, patch)); err != nil {
			return mcp.NewToolResultError(mutationMessage("update", c, id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Updated %s '%s'.", c, id)), nil
	}
}

func removeItemTool() mcp.Tool {
	return mcp.NewTool("remove_item",
		mcp.WithDescription("Removes one of your own elements. Your partner's elements cannot be removed."),
		mcp.WithString("collection", mcp.Required(), mcp.Description("One of: "+collectionNames()+".")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Element id.")),
	)
}

func removeItemHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		c, err := collectionArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		id := stringArg(request, "id")
		if id == "" {
			return mcp.NewToolResultError("'id' parameter is required."), nil
		}

		if err := sess.Remove(ctx, c, id); err != nil {
			return mcp.NewToolResultError(mutationMessage("remove", c, id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Removed %s '%s'.", c, id)), nil
	}
}

func mutationMessage(op string, c records.Collection, id string, err error) string {
	switch {
	case errors.Is(err, gateway.ErrElementNotFound):
		return fmt.Sprintf("No %s element '%s' in your record. Your partner's elements are read-only.", c, id)
	case errors.Is(err, gateway.ErrNotAuthor):
		return fmt.Sprintf("%s '%s' was written by someone else and is read-only.", c, id)
	}
	return fmt.Sprintf("Failed to %s %s '%s': %v", op, c, id, err)
}

func setMoodTool() mcp.Tool {
	return mcp.NewTool("set_mood",
		mcp.WithDescription("Sets today's mood."),
		mcp.WithString("mood", mcp.Required(), mcp.Description("One of: happy, okay, sad.")),
	)
}

func setMoodHandler(sess *session.Session) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mood := records.Mood(stringArg(request, "mood"))
		if err := sess.SetMood(ctx, mood); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to set mood: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Mood set to %s.", mood)), nil
	}
}
