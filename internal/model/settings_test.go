package model

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func strPtr(s string) *string { return &s }

func TestSettingsPatchMerge(t *testing.T) {
	Convey("Merge applies only the fields present in the patch", t, func() {
		base := StoreSettings{
			WelcomeMessage: "Hi! Welcome.",
			ReturnPolicy:   "30 days",
			SupportEmail:   "help@acme.example",
			BotPersonality: PersonalityFriendly,
		}

		Convey("an empty patch changes nothing", func() {
			So(SettingsPatch{}.Merge(base), ShouldResemble, base)
		})

		Convey("set fields overwrite, nil fields are untouched", func() {
			got := SettingsPatch{
				ReturnPolicy:   strPtr("60 days"),
				BotPersonality: strPtr(PersonalityEfficient),
			}.Merge(base)
			So(got.ReturnPolicy, ShouldEqual, "60 days")
			So(got.BotPersonality, ShouldEqual, PersonalityEfficient)
			So(got.WelcomeMessage, ShouldEqual, "Hi! Welcome.")
			So(got.SupportEmail, ShouldEqual, "help@acme.example")
		})

		Convey("an explicit empty string clears the value", func() {
			got := SettingsPatch{SupportEmail: strPtr("")}.Merge(base)
			So(got.SupportEmail, ShouldEqual, "")
		})

		Convey("a patched theme replaces the whole theme", func() {
			got := SettingsPatch{Theme: &WidgetTheme{PrimaryColor: "#222", Position: "left"}}.Merge(base)
			So(got.Theme.PrimaryColor, ShouldEqual, "#222")
			So(got.Theme.Position, ShouldEqual, "left")
		})

		Convey("absent JSON keys decode to nil pointers", func() {
			var p SettingsPatch
			So(json.Unmarshal([]byte(`{"return_policy":"14 days"}`), &p), ShouldBeNil)
			So(p.ReturnPolicy, ShouldNotBeNil)
			So(p.WelcomeMessage, ShouldBeNil)
			So(p.Merge(base).WelcomeMessage, ShouldEqual, "Hi! Welcome.")
		})
	})
}

func TestSettingsPatchValidate(t *testing.T) {
	Convey("Validate rejects unknown personalities", t, func() {
		So(SettingsPatch{}.Validate(), ShouldBeNil)
		So(SettingsPatch{BotPersonality: strPtr(PersonalityEmpathetic)}.Validate(), ShouldBeNil)
		So(SettingsPatch{BotPersonality: strPtr("")}.Validate(), ShouldBeNil)
		So(SettingsPatch{BotPersonality: strPtr("sarcastic")}.Validate(), ShouldEqual, ErrInvalidPersonality)
	})
}

func TestNotificationEmail(t *testing.T) {
	Convey("NotificationEmail prefers the escalation address", t, func() {
		s := StoreSettings{SupportEmail: "help@acme.example"}
		So(s.NotificationEmail(), ShouldEqual, "help@acme.example")

		s.EscalationEmail = "escalations@acme.example"
		So(s.NotificationEmail(), ShouldEqual, "escalations@acme.example")

		So(StoreSettings{}.NotificationEmail(), ShouldEqual, "")
	})
}

func TestValidPersonality(t *testing.T) {
	Convey("ValidPersonality knows the four personalities", t, func() {
		for _, p := range []string{PersonalityFriendly, PersonalityProfessional, PersonalityEfficient, PersonalityEmpathetic} {
			So(ValidPersonality(p), ShouldBeTrue)
		}
		So(ValidPersonality(""), ShouldBeFalse)
		So(ValidPersonality("Friendly"), ShouldBeFalse)
	})
}
