package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopmate/internal/ai"
	"shopmate/internal/escalation"
	"shopmate/internal/model"
	"shopmate/internal/pkg/shopify"
	"shopmate/internal/repository"
)

type stubStores struct {
	store      *model.Store
	increments int
}

func (s *stubStores) FindByDomain(_ context.Context, shop string) (*model.Store, error) {
	if s.store == nil || s.store.Shop != shop {
		return nil, repository.ErrNotFound
	}
	return s.store, nil
}

func (s *stubStores) IncrementConversationCount(_ context.Context, _ primitive.ObjectID) error {
	s.increments++
	return nil
}

type stubConvs struct {
	conv        *model.Conversation
	appended    []model.Message
	appendErr   error
	status      string
	reason      string
	metadata    map[string]any
	statusErr   error
	getOrCreate error
}

func (c *stubConvs) GetOrCreate(_ context.Context, _ string, storeID primitive.ObjectID, _ model.Customer) (*model.Conversation, error) {
	if c.getOrCreate != nil {
		return nil, c.getOrCreate
	}
	if c.conv == nil {
		c.conv = &model.Conversation{ID: primitive.NewObjectID(), StoreID: storeID, Status: model.StatusActive}
	}
	return c.conv, nil
}

func (c *stubConvs) FindByID(_ context.Context, id string) (*model.Conversation, error) {
	if c.conv == nil || c.conv.ID.Hex() != id {
		return nil, repository.ErrNotFound
	}
	return c.conv, nil
}

func (c *stubConvs) AppendMessage(_ context.Context, _ primitive.ObjectID, msg model.Message) error {
	if c.appendErr != nil {
		return c.appendErr
	}
	c.appended = append(c.appended, msg)
	return nil
}

func (c *stubConvs) UpdateStatus(_ context.Context, _ primitive.ObjectID, status, reason string) error {
	if c.statusErr != nil {
		return c.statusErr
	}
	c.status = status
	c.reason = reason
	return nil
}

func (c *stubConvs) SetMetadata(_ context.Context, _ primitive.ObjectID, fields map[string]any) error {
	c.metadata = fields
	return nil
}

type stubCommerce struct {
	order       *shopify.Order
	orderErr    error
	products    []shopify.Product
	productErr  error
	orderCalls  []string
	searchCalls []string
}

func (c *stubCommerce) FetchOrder(_ context.Context, _, _, orderNumber string) (*shopify.Order, error) {
	c.orderCalls = append(c.orderCalls, orderNumber)
	return c.order, c.orderErr
}

func (c *stubCommerce) SearchProducts(_ context.Context, _, _, searchTerm string, _ int) ([]shopify.Product, error) {
	c.searchCalls = append(c.searchCalls, searchTerm)
	return c.products, c.productErr
}

type stubGateway struct {
	result  *ai.Result
	err     error
	prompts []string
	history [][]*schema.Message
}

func (g *stubGateway) Generate(_ context.Context, systemPrompt string, history []*schema.Message, _ string) (*ai.Result, error) {
	g.prompts = append(g.prompts, systemPrompt)
	g.history = append(g.history, history)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type stubNotifier struct {
	dispatched int
	reason     string
}

func (n *stubNotifier) Dispatch(_ context.Context, _ *model.Store, _ *model.Conversation, reason string) {
	n.dispatched++
	n.reason = reason
}

type fixture struct {
	svc      *ChatService
	stores   *stubStores
	convs    *stubConvs
	commerce *stubCommerce
	gateway  *stubGateway
	notifier *stubNotifier
}

func newFixture() *fixture {
	f := &fixture{
		stores: &stubStores{store: &model.Store{
			ID:        primitive.NewObjectID(),
			Shop:      "acme.myshopify.com",
			StoreName: "Acme Outfitters",
			IsActive:  true,
		}},
		convs:    &stubConvs{},
		commerce: &stubCommerce{},
		gateway: &stubGateway{result: &ai.Result{
			Content:          "Happy to help!",
			Model:            "gpt-4o-mini",
			PromptTokens:     120,
			CompletionTokens: 30,
		}},
		notifier: &stubNotifier{},
	}
	f.svc = NewChatService(f.stores, f.convs, f.commerce, f.gateway, escalation.NewEngine(), f.notifier, nil)
	return f
}

func chatReq(message string) *model.ChatRequest {
	return &model.ChatRequest{
		Message: message,
		Shop:    "acme.myshopify.com",
	}
}

func TestHandleMessage(t *testing.T) {
	Convey("HandleMessage runs the full pipeline", t, func() {
		f := newFixture()
		ctx := context.Background()

		Convey("a benign message gets the model reply", func() {
			resp, err := f.svc.HandleMessage(ctx, chatReq("what are your store hours?"))
			So(err, ShouldBeNil)
			So(resp.Reply, ShouldEqual, "Happy to help!")
			So(resp.NeedsEscalation, ShouldBeFalse)
			So(resp.ConversationID, ShouldEqual, f.convs.conv.ID.Hex())

			Convey("both turns are persisted in order", func() {
				So(len(f.convs.appended), ShouldEqual, 2)
				So(f.convs.appended[0].Role, ShouldEqual, model.RoleUser)
				So(f.convs.appended[0].Content, ShouldEqual, "what are your store hours?")
				So(f.convs.appended[1].Role, ShouldEqual, model.RoleAssistant)
				So(f.convs.appended[1].Content, ShouldEqual, "Happy to help!")
			})

			Convey("a new conversation bumps the store counter", func() {
				So(f.stores.increments, ShouldEqual, 1)
			})

			Convey("the response carries intent and usage metadata", func() {
				So(resp.Metadata.Intent, ShouldEqual, "general")
				So(resp.Metadata.Usage.PromptTokens, ShouldEqual, 120)
				So(resp.Metadata.Usage.TotalTokens, ShouldEqual, 150)
			})
		})

		Convey("a follow-up message does not bump the counter", func() {
			f.convs.conv = &model.Conversation{
				ID:           primitive.NewObjectID(),
				StoreID:      f.stores.store.ID,
				Status:       model.StatusActive,
				MessageCount: 4,
				Messages: []model.Message{
					{Role: model.RoleUser, Content: "hi"},
					{Role: model.RoleAssistant, Content: "hello"},
				},
			}
			_, err := f.svc.HandleMessage(ctx, chatReq("thanks"))
			So(err, ShouldBeNil)
			So(f.stores.increments, ShouldEqual, 0)

			Convey("prior turns are replayed as history", func() {
				So(len(f.gateway.history[0]), ShouldEqual, 2)
				So(f.gateway.history[0][0].Content, ShouldEqual, "hi")
			})
		})

		Convey("unknown shop returns ErrStoreNotFound", func() {
			_, err := f.svc.HandleMessage(ctx, &model.ChatRequest{Message: "hi", Shop: "ghost.myshopify.com"})
			So(errors.Is(err, ErrStoreNotFound), ShouldBeTrue)
		})

		Convey("a store over its quota is rejected", func() {
			f.stores.store.ConversationCount = 50
			f.stores.store.ConversationLimit = 50
			_, err := f.svc.HandleMessage(ctx, chatReq("hi"))
			So(errors.Is(err, ErrLimitReached), ShouldBeTrue)
		})

		Convey("failing to persist the user message fails the turn", func() {
			f.convs.appendErr = errors.New("mongo down")
			_, err := f.svc.HandleMessage(ctx, chatReq("hi"))
			So(errors.Is(err, ErrPersistence), ShouldBeTrue)
		})
	})
}

func TestHandleMessageEscalation(t *testing.T) {
	Convey("An escalating turn transitions the conversation and notifies", t, func() {
		f := newFixture()
		ctx := context.Background()

		resp, err := f.svc.HandleMessage(ctx, chatReq("I want to speak to a manager"))
		So(err, ShouldBeNil)

		So(resp.NeedsEscalation, ShouldBeTrue)
		So(f.convs.status, ShouldEqual, model.StatusEscalated)
		So(f.convs.reason, ShouldContainSubstring, "Customer requested a human")
		So(f.notifier.dispatched, ShouldEqual, 1)

		Convey("the handoff sentence is appended to the reply", func() {
			So(resp.Reply, ShouldStartWith, "Happy to help!")
			So(resp.Reply, ShouldContainSubstring, "I've notified our support specialists")
		})

		Convey("the stored assistant message includes the handoff", func() {
			So(f.convs.appended[1].Content, ShouldEqual, resp.Reply)
			So(f.convs.appended[1].Metadata["escalated"], ShouldEqual, true)
		})

		Convey("a benign turn does not notify", func() {
			g := newFixture()
			resp, err := g.svc.HandleMessage(ctx, chatReq("what are your store hours?"))
			So(err, ShouldBeNil)
			So(resp.NeedsEscalation, ShouldBeFalse)
			So(g.notifier.dispatched, ShouldEqual, 0)
			So(g.convs.status, ShouldEqual, "")
		})
	})
}

func TestHandleMessageFallbacks(t *testing.T) {
	Convey("Provider failures degrade to fallback replies, never errors", t, func() {
		ctx := context.Background()

		Convey("rate limiting asks the customer to retry", func() {
			f := newFixture()
			f.gateway.err = ai.ErrRateLimited
			resp, err := f.svc.HandleMessage(ctx, chatReq("hi"))
			So(err, ShouldBeNil)
			So(resp.Reply, ShouldEqual, replyRateLimited)
		})

		Convey("auth failures point at the support team", func() {
			f := newFixture()
			f.gateway.err = ai.ErrAuth
			resp, err := f.svc.HandleMessage(ctx, chatReq("hi"))
			So(err, ShouldBeNil)
			So(resp.Reply, ShouldEqual, replyUnavailable)
		})

		Convey("anything else gets the generic apology", func() {
			f := newFixture()
			f.gateway.err = errors.New("connection reset")
			resp, err := f.svc.HandleMessage(ctx, chatReq("hi"))
			So(err, ShouldBeNil)
			So(resp.Reply, ShouldEqual, replyGeneric)
			So(resp.Metadata.Usage, ShouldBeNil)
		})
	})
}

func TestHandleMessageCommerceContext(t *testing.T) {
	Convey("Extracted entities drive commerce lookups", t, func() {
		ctx := context.Background()

		Convey("an order number triggers an order fetch", func() {
			f := newFixture()
			f.commerce.order = &shopify.Order{
				ID:                9001,
				Name:              "#4521",
				FulfillmentStatus: "fulfilled",
				TotalPrice:        "89.90",
			}
			resp, err := f.svc.HandleMessage(ctx, chatReq("where is my order #4521?"))
			So(err, ShouldBeNil)
			So(f.commerce.orderCalls, ShouldResemble, []string{"4521"})

			Convey("order context reaches the system prompt", func() {
				So(f.gateway.prompts[0], ShouldContainSubstring, "CURRENT ORDER INFORMATION")
				So(f.gateway.prompts[0], ShouldContainSubstring, "FOCUS: Order status and tracking")
			})

			Convey("the order is summarized in response metadata", func() {
				So(resp.Metadata.OrderData.OrderNumber, ShouldEqual, "4521")
				So(resp.Metadata.OrderData.Status, ShouldEqual, "fulfilled")
			})

			Convey("the conversation records the order reference", func() {
				So(f.convs.metadata["order_number"], ShouldEqual, "4521")
				So(f.convs.metadata["order_id"], ShouldEqual, int64(9001))
			})
		})

		Convey("a failed order lookup degrades to no order context", func() {
			f := newFixture()
			f.commerce.orderErr = errors.New("shopify 503")
			resp, err := f.svc.HandleMessage(ctx, chatReq("where is my order #4521?"))
			So(err, ShouldBeNil)
			So(resp.Reply, ShouldEqual, "Happy to help!")
			So(resp.Metadata.OrderData, ShouldBeNil)
			So(f.gateway.prompts[0], ShouldNotContainSubstring, "CURRENT ORDER INFORMATION")
		})

		Convey("an unknown order number is simply absent", func() {
			f := newFixture()
			resp, err := f.svc.HandleMessage(ctx, chatReq("where is my order #4521?"))
			So(err, ShouldBeNil)
			So(resp.Metadata.OrderData, ShouldBeNil)
		})

		Convey("a product question triggers a product search", func() {
			f := newFixture()
			f.commerce.products = []shopify.Product{{Title: "Denim Jacket"}}
			_, err := f.svc.HandleMessage(ctx, chatReq("do you have denim jackets?"))
			So(err, ShouldBeNil)
			So(f.commerce.searchCalls, ShouldResemble, []string{"denim jackets"})
			So(f.gateway.prompts[0], ShouldContainSubstring, "RELEVANT PRODUCTS")
		})

		Convey("no entities means no commerce calls", func() {
			f := newFixture()
			_, err := f.svc.HandleMessage(ctx, chatReq("hello!"))
			So(err, ShouldBeNil)
			So(f.commerce.orderCalls, ShouldBeEmpty)
			So(f.commerce.searchCalls, ShouldBeEmpty)
		})
	})
}

func TestWelcomeMessage(t *testing.T) {
	Convey("WelcomeMessage resolves the store and greets", t, func() {
		f := newFixture()
		ctx := context.Background()

		greeting, _, err := f.svc.WelcomeMessage(ctx, "acme.myshopify.com", "Sam")
		So(err, ShouldBeNil)
		So(greeting, ShouldContainSubstring, "Hi Sam!")
		So(greeting, ShouldContainSubstring, "Acme Outfitters")

		_, _, err = f.svc.WelcomeMessage(ctx, "ghost.myshopify.com", "")
		So(errors.Is(err, ErrStoreNotFound), ShouldBeTrue)
	})
}

func TestConversationOwnership(t *testing.T) {
	Convey("Conversation enforces store ownership", t, func() {
		f := newFixture()
		ctx := context.Background()

		f.convs.conv = &model.Conversation{
			ID:      primitive.NewObjectID(),
			StoreID: f.stores.store.ID,
			Status:  model.StatusActive,
		}

		conv, err := f.svc.Conversation(ctx, "acme.myshopify.com", f.convs.conv.ID.Hex())
		So(err, ShouldBeNil)
		So(conv.ID, ShouldEqual, f.convs.conv.ID)

		Convey("a conversation owned by another store is not found", func() {
			f.convs.conv.StoreID = primitive.NewObjectID()
			_, err := f.svc.Conversation(ctx, "acme.myshopify.com", f.convs.conv.ID.Hex())
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
