package activity

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func embedActivity() *Activity {
	return &Activity{
		ID:          7,
		GuildID:     "guild-1",
		ChannelID:   "chan-1",
		Title:       "Pub quiz",
		Description: "Bring snacks",
		Location:    "The Red Lion",
		HostID:      "user-host",
		StartsAt:    time.Date(2026, 9, 4, 19, 0, 0, 0, time.UTC),
	}
}

func fieldByName(t *testing.T, embed *discordgo.MessageEmbed, name string) *discordgo.MessageEmbedField {
	t.Helper()
	for _, f := range embed.Fields {
		if strings.HasPrefix(f.Name, name) {
			return f
		}
	}
	t.Fatalf("no field starting with %q", name)
	return nil
}

func TestBuildEmbed(t *testing.T) {
	a := embedActivity()
	embed := BuildEmbed(a, nil)

	if embed.Title != "Pub quiz" {
		t.Errorf("title = %q, want %q", embed.Title, "Pub quiz")
	}
	if embed.Color != colorActive {
		t.Errorf("color = %#x, want %#x", embed.Color, colorActive)
	}

	when := fieldByName(t, embed, "When")
	want := fmt.Sprintf("<t:%d:F>", a.StartsAt.Unix())
	if when.Value != want {
		t.Errorf("when = %q, want %q", when.Value, want)
	}

	host := fieldByName(t, embed, "Host")
	if host.Value != "<@user-host>" {
		t.Errorf("host = %q, want %q", host.Value, "<@user-host>")
	}

	where := fieldByName(t, embed, "Where")
	if where.Value != "The Red Lion" {
		t.Errorf("where = %q, want %q", where.Value, "The Red Lion")
	}

	// Empty buckets still render, with a dash placeholder.
	going := fieldByName(t, embed, "Going")
	if going.Name != "Going (0)" {
		t.Errorf("going name = %q, want %q", going.Name, "Going (0)")
	}
	if going.Value != "–" {
		t.Errorf("going value = %q, want placeholder", going.Value)
	}
}

func TestBuildEmbedBuckets(t *testing.T) {
	a := embedActivity()
	rsvps := []*RSVP{
		{UserID: "u1", UserName: "alice", Response: Going},
		{UserID: "u2", UserName: "bob", Response: Going},
		{UserID: "u3", UserName: "carol", Response: Maybe},
		{UserID: "u4", UserName: "dave", Response: Declined},
	}
	embed := BuildEmbed(a, rsvps)

	going := fieldByName(t, embed, "Going")
	if going.Name != "Going (2)" {
		t.Errorf("going name = %q, want %q", going.Name, "Going (2)")
	}
	if going.Value != "alice\nbob" {
		t.Errorf("going value = %q, want %q", going.Value, "alice\nbob")
	}

	maybe := fieldByName(t, embed, "Maybe")
	if maybe.Value != "carol" {
		t.Errorf("maybe value = %q, want %q", maybe.Value, "carol")
	}

	declined := fieldByName(t, embed, "Can't make it")
	if declined.Name != "Can't make it (1)" {
		t.Errorf("declined name = %q, want %q", declined.Name, "Can't make it (1)")
	}
}

func TestBuildEmbedCancelled(t *testing.T) {
	a := embedActivity()
	a.Cancelled = true
	embed := BuildEmbed(a, nil)

	if embed.Title != "[Cancelled] Pub quiz" {
		t.Errorf("title = %q, want cancelled prefix", embed.Title)
	}
	if embed.Color != colorCancelled {
		t.Errorf("color = %#x, want %#x", embed.Color, colorCancelled)
	}
}

func TestBuildEmbedNoLocation(t *testing.T) {
	a := embedActivity()
	a.Location = ""
	embed := BuildEmbed(a, nil)

	for _, f := range embed.Fields {
		if f.Name == "Where" {
			t.Error("location field should be omitted when empty")
		}
	}
}

func TestButtons(t *testing.T) {
	a := embedActivity()
	components := Buttons(a)

	if len(components) != 1 {
		t.Fatalf("len = %d, want 1", len(components))
	}
	row, ok := components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("component is %T, want ActionsRow", components[0])
	}
	if len(row.Components) != 3 {
		t.Fatalf("buttons = %d, want 3", len(row.Components))
	}

	join, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("component is %T, want Button", row.Components[0])
	}
	if join.Label != "Join" || join.Style != discordgo.PrimaryButton {
		t.Errorf("first button = %q/%v, want Join/Primary", join.Label, join.Style)
	}
	if join.CustomID != "activity:rsvp:7:going" {
		t.Errorf("custom id = %q, want %q", join.CustomID, "activity:rsvp:7:going")
	}
}

func TestButtonsCancelled(t *testing.T) {
	a := embedActivity()
	a.Cancelled = true

	if got := Buttons(a); got != nil {
		t.Errorf("buttons = %v, want nil for cancelled activity", got)
	}
}

func TestParseCustomID(t *testing.T) {
	tests := []struct {
		customID string
		wantID   int64
		wantResp Response
		wantOK   bool
	}{
		{"activity:rsvp:7:going", 7, Going, true},
		{"activity:rsvp:12:maybe", 12, Maybe, true},
		{"activity:rsvp:3:declined", 3, Declined, true},
		{"activity:rsvp:3:yes", 0, "", false},
		{"activity:rsvp:abc:going", 0, "", false},
		{"activity:rsvp:", 0, "", false},
		{"other:button", 0, "", false},
		{"", 0, "", false},
	}

	for _, tt := range tests {
		id, resp, ok := ParseCustomID(tt.customID)
		if id != tt.wantID || resp != tt.wantResp || ok != tt.wantOK {
			t.Errorf("ParseCustomID(%q) = (%d, %q, %v), want (%d, %q, %v)",
				tt.customID, id, resp, ok, tt.wantID, tt.wantResp, tt.wantOK)
		}
	}
}

func TestRoundTripCustomID(t *testing.T) {
	for _, resp := range []Response{Going, Maybe, Declined} {
		id, got, ok := ParseCustomID(rsvpCustomID(42, resp))
		if !ok || id != 42 || got != resp {
			t.Errorf("round trip %q = (%d, %q, %v)", resp, id, got, ok)
		}
	}
}
