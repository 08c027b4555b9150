package intent

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExtractOrderNumber(t *testing.T) {
	Convey("ExtractOrderNumber finds plausible order numbers", t, func() {
		Convey("hash-prefixed digits are extracted verbatim", func() {
			So(ExtractOrderNumber("Where is my order #1234?"), ShouldEqual, "1234")
			So(ExtractOrderNumber("#4521 still not here"), ShouldEqual, "4521")
			So(ExtractOrderNumber("ref #1234567890 please"), ShouldEqual, "1234567890")
		})

		Convey("order/tracking phrasing works without a hash", func() {
			So(ExtractOrderNumber("my order 55667 is late"), ShouldEqual, "55667")
			So(ExtractOrderNumber("order is 99881"), ShouldEqual, "99881")
			So(ExtractOrderNumber("tracking 443322 shows nothing"), ShouldEqual, "443322")
		})

		Convey("too-short and too-long digit runs are discarded", func() {
			So(ExtractOrderNumber("#123"), ShouldEqual, "")
			So(ExtractOrderNumber("order 12"), ShouldEqual, "")
			So(ExtractOrderNumber("call me at 15551234567"), ShouldEqual, "")
			So(ExtractOrderNumber("#12345678901"), ShouldEqual, "")
		})

		Convey("empty input is safe", func() {
			So(ExtractOrderNumber(""), ShouldEqual, "")
		})
	})
}

func TestExtractAllOrderNumbers(t *testing.T) {
	Convey("ExtractAllOrderNumbers returns distinct explicit references", t, func() {
		got := ExtractAllOrderNumbers("orders #1234 and #5678, also order 1234")
		So(got, ShouldResemble, []string{"1234", "5678"})

		So(ExtractAllOrderNumbers("no orders here"), ShouldBeNil)
		So(ExtractAllOrderNumbers(""), ShouldBeNil)
	})
}

func TestExtractProductQuery(t *testing.T) {
	Convey("ExtractProductQuery captures the product phrase", t, func() {
		So(ExtractProductQuery("I'm looking for the blue denim jacket?"), ShouldEqual, "blue denim jacket")
		So(ExtractProductQuery("do you have wool socks?"), ShouldEqual, "wool socks")
		So(ExtractProductQuery("tell me about the espresso maker."), ShouldEqual, "espresso maker")

		Convey("no product phrasing yields empty", func() {
			So(ExtractProductQuery("hello there"), ShouldEqual, "")
			So(ExtractProductQuery(""), ShouldEqual, "")
		})
	})
}

func TestClassifyIntent(t *testing.T) {
	Convey("ClassifyIntent walks the ladder in priority order", t, func() {
		Convey("order tracking wins when an order number is present", func() {
			So(ClassifyIntent("Where is my order #1234?"), ShouldEqual, IntentOrderTracking)
			So(ClassifyIntent("my package still hasn't arrived"), ShouldEqual, IntentOrderTracking)
		})

		Convey("returns and refunds", func() {
			So(ClassifyIntent("I want a refund for this"), ShouldEqual, IntentReturnRefund)
			So(ClassifyIntent("can I send back these shoes"), ShouldEqual, IntentReturnRefund)
		})

		Convey("product inquiry", func() {
			So(ClassifyIntent("tell me about the winter coat"), ShouldEqual, IntentProductInquiry)
			So(ClassifyIntent("do you sell gift cards"), ShouldEqual, IntentProductInquiry)
		})

		Convey("shipping", func() {
			So(ClassifyIntent("how long does shipping take"), ShouldEqual, IntentShipping)
		})

		Convey("payment", func() {
			So(ClassifyIntent("which credit card types do you accept"), ShouldEqual, IntentPayment)
		})

		Convey("account", func() {
			So(ClassifyIntent("I forgot my password"), ShouldEqual, IntentAccount)
		})

		Convey("everything else is general", func() {
			So(ClassifyIntent("hi"), ShouldEqual, IntentGeneral)
			So(ClassifyIntent(""), ShouldEqual, IntentGeneral)
		})

		Convey("order tracking outranks refunds when both match", func() {
			So(ClassifyIntent("where is my order, I might want a refund"), ShouldEqual, IntentOrderTracking)
		})
	})
}

func TestExtract(t *testing.T) {
	Convey("Extract combines intent and entities", t, func() {
		got := Extract("Where's order #4521, and do you have matching laces?")
		So(got.Intent, ShouldEqual, IntentOrderTracking)
		So(got.OrderNumber, ShouldEqual, "4521")
		So(got.ProductQuery, ShouldNotBeEmpty)

		Convey("is total on hostile input", func() {
			So(func() { Extract(strings.Repeat("#", 10000)) }, ShouldNotPanic)
			So(func() { Extract("") }, ShouldNotPanic)
		})
	})
}

func TestExtractEmail(t *testing.T) {
	Convey("ExtractEmail finds the first address", t, func() {
		So(ExtractEmail("reach me at jo@example.com thanks"), ShouldEqual, "jo@example.com")
		So(ExtractEmail("no email here"), ShouldEqual, "")
	})
}
