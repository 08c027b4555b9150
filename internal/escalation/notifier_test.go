package escalation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopmate/internal/model"
)

func TestHandoffMessage(t *testing.T) {
	Convey("HandoffMessage tells the customer what happens next", t, func() {
		got := HandoffMessage("")
		So(got, ShouldContainSubstring, "I've notified our support specialists")
		So(got, ShouldContainSubstring, "within 24 hours")
		So(got, ShouldNotContainSubstring, " at ")

		Convey("a known email is echoed back", func() {
			So(HandoffMessage("jo@example.com"), ShouldContainSubstring, "reach out to you at jo@example.com within 24 hours")
		})
	})
}

func TestBuildNotificationBody(t *testing.T) {
	Convey("The notification email carries the full transcript", t, func() {
		store := &model.Store{Shop: "acme.myshopify.com"}
		conv := &model.Conversation{
			ID:            primitive.NewObjectID(),
			CustomerEmail: "jo@example.com",
			MessageCount:  2,
			Messages: []model.Message{
				{Role: model.RoleUser, Content: "I was charged twice"},
				{Role: model.RoleAssistant, Content: "Let me escalate this."},
			},
		}

		body := buildNotificationBody(store, conv, "Money or security issue")

		So(body, ShouldContainSubstring, "<h2>Conversation Escalation</h2>")
		So(body, ShouldContainSubstring, "Money or security issue")
		So(body, ShouldContainSubstring, "acme.myshopify.com")
		So(body, ShouldContainSubstring, conv.ID.Hex())
		So(body, ShouldContainSubstring, "USER: I was charged twice")
		So(body, ShouldContainSubstring, "ASSISTANT: Let me escalate this.")
		So(body, ShouldContainSubstring, "reach out to the customer at: jo@example.com")

		Convey("message content is HTML-escaped", func() {
			conv.Messages[0].Content = `<script>alert("x")</script>`
			body := buildNotificationBody(store, conv, "r")
			So(body, ShouldNotContainSubstring, "<script>")
			So(body, ShouldContainSubstring, "&lt;script&gt;")
		})

		Convey("an anonymous customer shows as Unknown", func() {
			conv.CustomerEmail = ""
			body := buildNotificationBody(store, conv, "r")
			So(body, ShouldContainSubstring, "<strong>Customer:</strong> Unknown")
			So(body, ShouldNotContainSubstring, "reach out to the customer at:")
		})
	})
}

func TestHashReason(t *testing.T) {
	Convey("hashReason is short, hex and stable", t, func() {
		a := hashReason("Urgent request")
		So(a, ShouldHaveLength, 16)
		So(a, ShouldEqual, hashReason("Urgent request"))
		So(a, ShouldNotEqual, hashReason("Negative sentiment detected"))
	})
}
