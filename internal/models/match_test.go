package models

import (
	"reflect"
	"testing"
)

func TestTagListRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		tags   []string
		column string
		list   []string
	}{
		{"plain", []string{"Quiet", "NoAlcohol"}, "Quiet,NoAlcohol", []string{"Quiet", "NoAlcohol"}},
		{"preserves order", []string{"b", "a", "c"}, "b,a,c", []string{"b", "a", "c"}},
		{"drops empties", []string{"Quiet", "", "  ", "AA"}, "Quiet,AA", []string{"Quiet", "AA"}},
		{"trims whitespace", []string{" Quiet ", "AA"}, "Quiet,AA", []string{"Quiet", "AA"}},
		{"nil", nil, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var intent PartnerIntent
			intent.SetTagList(tt.tags)
			if intent.Tags != tt.column {
				t.Errorf("Tags column = %q, want %q", intent.Tags, tt.column)
			}
			if got := intent.TagList(); !reflect.DeepEqual(got, tt.list) {
				t.Errorf("TagList() = %v, want %v", got, tt.list)
			}
		})
	}
}

func TestTagListToleratesMessyColumn(t *testing.T) {
	intent := PartnerIntent{Tags: " Quiet , ,NoAlcohol,,"}
	want := []string{"Quiet", "NoAlcohol"}
	if got := intent.TagList(); !reflect.DeepEqual(got, want) {
		t.Errorf("TagList() = %v, want %v", got, want)
	}
}

func TestIntentIsTerminal(t *testing.T) {
	terminal := map[string]bool{
		IntentStatusActive:    false,
		IntentStatusMatched:   true,
		IntentStatusExpired:   true,
		IntentStatusCancelled: true,
	}
	for status, want := range terminal {
		intent := PartnerIntent{Status: status}
		if got := intent.IsTerminal(); got != want {
			t.Errorf("IsTerminal() with status %q = %v, want %v", status, got, want)
		}
	}
}

func TestValidActivityType(t *testing.T) {
	for _, typ := range []string{ActivityTypeFood, ActivityTypeEntertainment,
		ActivityTypeSports, ActivityTypeBoardgame, ActivityTypeOther} {
		if !ValidActivityType(typ) {
			t.Errorf("ValidActivityType(%q) = false, want true", typ)
		}
	}
	for _, typ := range []string{"", "Food", "karaoke", "food "} {
		if ValidActivityType(typ) {
			t.Errorf("ValidActivityType(%q) = true, want false", typ)
		}
	}
}

func TestSetMembersKeepsListsParallel(t *testing.T) {
	var match IntentMatch
	match.SetMembers([]uint{7, 3, 12}, []uint{70, 30, 120})

	if match.IntentIDs != "7,3,12" {
		t.Errorf("IntentIDs column = %q, want %q", match.IntentIDs, "7,3,12")
	}
	if match.UserIDs != "70,30,120" {
		t.Errorf("UserIDs column = %q, want %q", match.UserIDs, "70,30,120")
	}

	intentIDs := match.IntentIDList()
	userIDs := match.UserIDList()
	if len(intentIDs) != len(userIDs) {
		t.Fatalf("list lengths diverged: %d intents vs %d users", len(intentIDs), len(userIDs))
	}
	// Index i of one list refers to the same member as index i of the other.
	wantIntents := []uint{7, 3, 12}
	wantUsers := []uint{70, 30, 120}
	if !reflect.DeepEqual(intentIDs, wantIntents) || !reflect.DeepEqual(userIDs, wantUsers) {
		t.Errorf("lists = %v / %v, want %v / %v", intentIDs, userIDs, wantIntents, wantUsers)
	}

	if got := match.MemberCount(); got != 3 {
		t.Errorf("MemberCount() = %d, want 3", got)
	}
}

func TestSplitIDListSkipsGarbage(t *testing.T) {
	match := IntentMatch{UserIDs: "10, 20 ,abc,,30,-5"}
	want := []uint{10, 20, 30}
	if got := match.UserIDList(); !reflect.DeepEqual(got, want) {
		t.Errorf("UserIDList() = %v, want %v", got, want)
	}
}

func TestHasMember(t *testing.T) {
	var match IntentMatch
	match.SetMembers([]uint{1, 2}, []uint{10, 20})

	if !match.HasMember(10) || !match.HasMember(20) {
		t.Error("HasMember returned false for a member")
	}
	if match.HasMember(30) {
		t.Error("HasMember(30) = true for a non-member")
	}
	// Intent ids must not be mistaken for user ids.
	if match.HasMember(1) {
		t.Error("HasMember(1) matched an intent id")
	}
}

func TestCommonTagListRoundTrip(t *testing.T) {
	var match IntentMatch
	match.SetCommonTagList([]string{"Quiet", "AA"})
	if match.CommonTags != "Quiet,AA" {
		t.Errorf("CommonTags column = %q, want %q", match.CommonTags, "Quiet,AA")
	}
	if got := match.CommonTagList(); !reflect.DeepEqual(got, []string{"Quiet", "AA"}) {
		t.Errorf("CommonTagList() = %v", got)
	}
}

func TestUserMention(t *testing.T) {
	user := User{Nickname: "ada"}
	if got := user.Mention(); got != "@ada" {
		t.Errorf("Mention() = %q, want %q", got, "@ada")
	}
}

func TestUserHasLocation(t *testing.T) {
	var user User
	if user.HasLocation() {
		t.Error("zero-value user reports a location")
	}
	user.Latitude = 31.2304
	user.Longitude = 121.4737
	if !user.HasLocation() {
		t.Error("user with coordinates reports no location")
	}
}
