package model

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestResolveEmailPreferences(t *testing.T) {
	tests := []struct {
		name string
		row  *EmailPreference
		key  string
		want bool
	}{
		{"no row investment", nil, "investment", true},
		{"no row marketing", nil, "marketing", false},
		{"no row unknown key", nil, "something-else", true},
		{"explicit off", &EmailPreference{Investment: boolPtr(false)}, "investment", false},
		{"explicit marketing on", &EmailPreference{Marketing: boolPtr(true)}, "marketing", true},
		{"nil column keeps default", &EmailPreference{Visit: nil}, "visit", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveEmailPreferences(tt.row).Allows(tt.key)
			if got != tt.want {
				t.Fatalf("Allows(%q)=%v want=%v", tt.key, got, tt.want)
			}
		})
	}
}

func TestEmailPreferencePatchApply(t *testing.T) {
	row := &EmailPreference{UserUID: "u1", Update: boolPtr(false)}
	EmailPreferencePatch{Marketing: boolPtr(true)}.Apply(row)
	if row.Marketing == nil || !*row.Marketing {
		t.Fatalf("marketing not applied")
	}
	if row.Update == nil || *row.Update {
		t.Fatalf("untouched field changed")
	}
}

func TestNotificationTypeTable(t *testing.T) {
	for _, typ := range AllTypes() {
		if !typ.Valid() {
			t.Fatalf("%s should be valid", typ)
		}
		info := typ.Info()
		if info.Template == TemplateDefault || info.CTAPath == "" || info.Color == "" {
			t.Fatalf("%s has incomplete mapping: %+v", typ, info)
		}
	}
	if NotificationType("marketing").Valid() {
		t.Fatalf("marketing is a preference key, not a notification type")
	}
	if got := NotificationType("bogus").Info().Template; got != TemplateDefault {
		t.Fatalf("unknown type template=%s", got)
	}
	if got := TypeInvestment.Info().CTAPath; got != "/portfolio" {
		t.Fatalf("investment cta=%s", got)
	}
	if got := TypeNew.Info().CTAPath; got != "/discover" {
		t.Fatalf("new cta=%s", got)
	}
}
