package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/birds"
	"github.com/songbirdapp/songbird/config"
	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/store"
	"github.com/songbirdapp/songbird/utils"
)

// CheckoutController creates Stripe checkout sessions for premium membership
// and one-off bird purchases, and fulfills them from the webhook.
type CheckoutController struct {
	DB *gorm.DB
}

func NewCheckoutController(db *gorm.DB) *CheckoutController {
	stripe.Key = config.Get().StripeSecretKey
	return &CheckoutController{DB: db}
}

func baseSessionParams(userID uint) *stripe.CheckoutSessionParams {
	cfg := config.Get()
	return &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(cfg.FrontendURL + "/checkout/success"),
		CancelURL:         stripe.String(cfg.FrontendURL + "/checkout/cancel"),
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(userID), 10)),
	}
}

func (c *CheckoutController) redirectToSession(ctx *gin.Context, userID uint, kind string, params *stripe.CheckoutSessionParams) {
	params.SetIdempotencyKey(uuid.NewString())
	s, err := session.New(params)
	if err != nil {
		utils.Sugar.Errorf("create checkout session for user %d: %v", userID, err)
		utils.Error(ctx, http.StatusBadGateway, 50200, "failed to create checkout session")
		return
	}
	utils.TrackEvent(c.DB, userID, models.EventCheckoutStarted, fmt.Sprintf(`{"kind":%q}`, kind))
	utils.Success(ctx, gin.H{"url": s.URL, "session_id": s.ID})
}

type birdCheckoutRequest struct {
	BirdID string `json:"bird_id" binding:"required"`
}

// CreateBirdSession starts a one-off checkout for a purchasable bird.
func (c *CheckoutController) CreateBirdSession(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	if config.Get().StripeSecretKey == "" {
		utils.Error(ctx, http.StatusServiceUnavailable, 50300, "payments are not configured")
		return
	}

	var req birdCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "bird_id is required")
		return
	}
	def, known := birds.Lookup(req.BirdID)
	if !known || def.PriceCents == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40005, "this bird cannot be purchased")
		return
	}

	params := baseSessionParams(userID)
	params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
	params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String("usd"),
			UnitAmount: stripe.Int64(int64(def.PriceCents)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(def.Name + " bird theme"),
			},
		},
		Quantity: stripe.Int64(1),
	}}
	params.AddMetadata("kind", "bird")
	params.AddMetadata("bird_id", def.ID)

	c.redirectToSession(ctx, userID, "bird", params)
}

// CreatePremiumSession starts a subscription checkout for premium membership.
func (c *CheckoutController) CreatePremiumSession(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	cfg := config.Get()
	if cfg.StripeSecretKey == "" || cfg.StripePremiumPrice == "" {
		utils.Error(ctx, http.StatusServiceUnavailable, 50300, "premium is not configured")
		return
	}

	params := baseSessionParams(userID)
	params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
	params.LineItems = []*stripe.CheckoutSessionLineItemParams{{
		Price:    stripe.String(cfg.StripePremiumPrice),
		Quantity: stripe.Int64(1),
	}}
	params.AddMetadata("kind", "premium")

	c.redirectToSession(ctx, userID, "premium", params)
}

// Webhook verifies and fulfills Stripe events. Fulfillment is idempotent:
// replays of checkout.session.completed hit the same unlock/premium rows.
func (c *CheckoutController) Webhook(ctx *gin.Context) {
	cfg := config.Get()
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<20))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "failed to read payload")
		return
	}

	event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), cfg.StripeWebhookSecret)
	if err != nil {
		utils.Sugar.Warnf("stripe webhook signature rejected: %v", err)
		utils.Error(ctx, http.StatusBadRequest, 40007, "invalid signature")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40000, "malformed event payload")
			return
		}
		c.fulfill(&sess)
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := sub.UnmarshalJSON(event.Data.Raw); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40000, "malformed event payload")
			return
		}
		if sub.Customer != nil {
			err := c.DB.Model(&models.User{}).
				Where("stripe_customer_id = ?", sub.Customer.ID).
				Update("is_premium", false).Error
			if err != nil {
				utils.Sugar.Errorf("clear premium for customer %s: %v", sub.Customer.ID, err)
			}
		}
	}

	utils.Success(ctx, nil)
}

func (c *CheckoutController) fulfill(sess *stripe.CheckoutSession) {
	userID64, err := strconv.ParseUint(sess.ClientReferenceID, 10, 64)
	if err != nil || userID64 == 0 {
		utils.Sugar.Warnf("checkout session %s has no usable client reference", sess.ID)
		return
	}
	userID := uint(userID64)

	switch sess.Metadata["kind"] {
	case "premium":
		now := time.Now()
		updates := map[string]interface{}{
			"is_premium":    true,
			"premium_since": &now,
		}
		if sess.Customer != nil {
			updates["stripe_customer_id"] = sess.Customer.ID
		}
		if err := c.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			utils.Sugar.Errorf("mark user %d premium: %v", userID, err)
			return
		}
		// grant premium birds right away instead of waiting for the next visit
		st := store.New(c.DB)
		for _, def := range birds.Registry {
			if def.PremiumGrant {
				if _, err := st.InsertIfAbsent(userID, def.ID, models.UnlockMethodPremium); err != nil {
					utils.Sugar.Warnf("grant premium bird %s to user %d: %v", def.ID, userID, err)
				}
			}
		}
	case "bird":
		birdID := sess.Metadata["bird_id"]
		if _, known := birds.Lookup(birdID); !known {
			utils.Sugar.Warnf("checkout session %s names unknown bird %q", sess.ID, birdID)
			return
		}
		inserted, err := store.New(c.DB).InsertIfAbsent(userID, birdID, models.UnlockMethodPurchase)
		if err != nil {
			utils.Sugar.Errorf("record purchased bird %s for user %d: %v", birdID, userID, err)
			return
		}
		if inserted {
			bc := &BirdController{DB: c.DB}
			bc.announceUnlock(userID, birdID)
		}
	}

	utils.TrackEvent(c.DB, userID, models.EventCheckoutComplete, fmt.Sprintf(`{"session":%q}`, sess.ID))
}
