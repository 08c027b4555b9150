package shopify

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testClient(rt roundTripFunc) *Client {
	return &Client{
		apiVersion: "2024-10",
		httpClient: &http.Client{Transport: rt},
	}
}

func TestFetchOrder(t *testing.T) {
	Convey("FetchOrder queries the Admin API by order name", t, func() {
		ctx := context.Background()

		Convey("the request carries version, query and token", func() {
			var got *http.Request
			client := testClient(func(r *http.Request) (*http.Response, error) {
				got = r
				return jsonResponse(200, `{"orders":[]}`), nil
			})

			_, err := client.FetchOrder(ctx, "acme.myshopify.com", "shpat_token", "4521")
			So(err, ShouldBeNil)
			So(got.URL.Host, ShouldEqual, "acme.myshopify.com")
			So(got.URL.Path, ShouldEqual, "/admin/api/2024-10/orders.json")
			So(got.URL.Query().Get("name"), ShouldEqual, "#4521")
			So(got.URL.Query().Get("status"), ShouldEqual, "any")
			So(got.Header.Get("X-Shopify-Access-Token"), ShouldEqual, "shpat_token")
		})

		Convey("the order matching the requested number is returned", func() {
			client := testClient(func(*http.Request) (*http.Response, error) {
				return jsonResponse(200, `{"orders":[
					{"id":1,"name":"#45219","order_number":45219},
					{"id":2,"name":"#4521","order_number":4521,"total_price":"89.90"}
				]}`), nil
			})

			order, err := client.FetchOrder(ctx, "acme.myshopify.com", "t", "4521")
			So(err, ShouldBeNil)
			So(order, ShouldNotBeNil)
			So(order.ID, ShouldEqual, 2)
			So(order.TotalPrice, ShouldEqual, "89.90")
		})

		Convey("a match on order_number works when the name differs", func() {
			client := testClient(func(*http.Request) (*http.Response, error) {
				return jsonResponse(200, `{"orders":[{"id":3,"name":"ACME-4521","order_number":4521}]}`), nil
			})

			order, err := client.FetchOrder(ctx, "acme.myshopify.com", "t", "4521")
			So(err, ShouldBeNil)
			So(order, ShouldNotBeNil)
			So(order.ID, ShouldEqual, 3)
		})

		Convey("no matching order yields nil, nil", func() {
			client := testClient(func(*http.Request) (*http.Response, error) {
				return jsonResponse(200, `{"orders":[]}`), nil
			})

			order, err := client.FetchOrder(ctx, "acme.myshopify.com", "t", "4521")
			So(err, ShouldBeNil)
			So(order, ShouldBeNil)
		})

		Convey("a non-200 status is an error", func() {
			client := testClient(func(*http.Request) (*http.Response, error) {
				return jsonResponse(401, `{"errors":"Invalid API key"}`), nil
			})

			_, err := client.FetchOrder(ctx, "acme.myshopify.com", "t", "4521")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "status 401")
		})
	})
}

func TestSearchProducts(t *testing.T) {
	Convey("SearchProducts queries products by title", t, func() {
		ctx := context.Background()

		var got *http.Request
		client := testClient(func(r *http.Request) (*http.Response, error) {
			got = r
			return jsonResponse(200, `{"products":[
				{"id":11,"title":"Denim Jacket","variants":[{"id":1,"price":"59.90"}]}
			]}`), nil
		})

		products, err := client.SearchProducts(ctx, "acme.myshopify.com", "t", "denim jacket", 5)
		So(err, ShouldBeNil)
		So(products, ShouldHaveLength, 1)
		So(products[0].Title, ShouldEqual, "Denim Jacket")
		So(products[0].Variants[0].Price, ShouldEqual, "59.90")
		So(got.URL.Path, ShouldEqual, "/admin/api/2024-10/products.json")
		So(got.URL.Query().Get("title"), ShouldEqual, "denim jacket")
		So(got.URL.Query().Get("limit"), ShouldEqual, "5")

		Convey("a non-positive limit falls back to the default", func() {
			_, err := client.SearchProducts(ctx, "acme.myshopify.com", "t", "socks", 0)
			So(err, ShouldBeNil)
			So(got.URL.Query().Get("limit"), ShouldEqual, "3")
		})
	})
}

func TestValidShopDomain(t *testing.T) {
	Convey("ValidShopDomain accepts only *.myshopify.com", t, func() {
		So(ValidShopDomain("acme.myshopify.com"), ShouldBeTrue)
		So(ValidShopDomain("acme-2.myshopify.com"), ShouldBeTrue)

		So(ValidShopDomain(""), ShouldBeFalse)
		So(ValidShopDomain("acme.example.com"), ShouldBeFalse)
		So(ValidShopDomain("-acme.myshopify.com"), ShouldBeFalse)
		So(ValidShopDomain("acme.myshopify.com.evil.example"), ShouldBeFalse)
		So(ValidShopDomain(strings.Repeat("a", 250)+".myshopify.com"), ShouldBeFalse)
	})
}
