package cli

import (
	"testing"

	"github.com/BJPickles/AGSCogs-sub000/internal/config"
)

func TestSiteBase(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"plain", "https://www.rightmove.co.uk/property-for-sale/find.html?locationIdentifier=REGION%5E1234", "https://www.rightmove.co.uk", false},
		{"with port", "http://localhost:8080/search?q=bs3", "http://localhost:8080", false},
		{"no scheme", "www.example.org/search", "", true},
		{"garbage", "://", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := siteBase(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("siteBase(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("siteBase(%q): %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("siteBase(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildTarget(t *testing.T) {
	tc := config.TargetConfig{
		Name:                  "bristol",
		Source:                "rightmove",
		SearchURL:             "https://www.rightmove.co.uk/property-for-sale/find.html",
		ChannelID:             "chan-1",
		RetentionDays:         14,
		ActiveIntervalMinSecs: 540,
		ActiveIntervalMaxSecs: 660,
		IdleIntervalMinSecs:   900,
		IdleIntervalMaxSecs:   2700,
	}

	target, err := buildTarget(tc)
	if err != nil {
		t.Fatalf("buildTarget: %v", err)
	}
	if target.Name != "bristol" || target.ChannelID != "chan-1" {
		t.Errorf("target = %+v, want name/channel carried over", target)
	}
	if target.Source == nil {
		t.Error("expected a source to be wired")
	}
	if target.Schedule == nil {
		t.Error("expected a schedule to be wired")
	}
}

func TestBuildTargetUnknownSource(t *testing.T) {
	_, err := buildTarget(config.TargetConfig{
		Name:      "bad",
		Source:    "zillow",
		SearchURL: "https://example.org/search",
	})
	if err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestBuildTargetBadWindow(t *testing.T) {
	_, err := buildTarget(config.TargetConfig{
		Name:          "bad-window",
		Source:        "rightmove",
		SearchURL:     "https://www.rightmove.co.uk/property-for-sale/find.html",
		ActiveWindows: []string{"25:00-26:00"},
	})
	if err == nil {
		t.Error("expected error for invalid active window")
	}
}
