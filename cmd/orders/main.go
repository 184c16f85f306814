package main

import (
	"context"
	"fmt"

	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/adapter/auth"
	"github.com/quickcart/orders/internal/adapter/client/notify"
	"github.com/quickcart/orders/internal/adapter/client/razorpay"
	"github.com/quickcart/orders/internal/adapter/config"
	"github.com/quickcart/orders/internal/adapter/handler/http"
	"github.com/quickcart/orders/internal/adapter/logger"
	"github.com/quickcart/orders/internal/adapter/storage"
	"github.com/quickcart/orders/internal/adapter/storage/repository"
	"github.com/quickcart/orders/internal/core/service"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repository creating error", zap.Error(err))
		return
	}
	tokenService, err := auth.New(conf.Auth)
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	pricing, err := newPricing(conf.Pricing)
	if err != nil {
		log.Error("pricing config error", zap.Error(err))
		return
	}

	gateway, err := razorpay.NewClient(conf.Razorpay, log.Named("Razorpay"))
	if err != nil {
		log.Error("razorpay client creating error", zap.Error(err))
		return
	}

	notifier, err := notify.NewClient(conf.Notify, log.Named("Notify"))
	if err != nil {
		log.Error("notify client creating error", zap.Error(err))
		return
	}
	notifier.Run(ctx, conf.Notify.Workers)

	paymentService, err := service.NewPaymentService(repo, gateway, notifier,
		conf.Pricing.Currency, log.Named("PaymentService"))
	if err != nil {
		log.Error("payment service creating error", zap.Error(err))
		return
	}
	orderService, err := service.NewOrderService(repo, paymentService, notifier,
		pricing, log.Named("OrderService"))
	if err != nil {
		log.Error("order service creating error", zap.Error(err))
		return
	}
	webhookService, err := service.NewWebhookService(paymentService, repo,
		gateway, notifier, log.Named("WebhookService"))
	if err != nil {
		log.Error("webhook service creating error", zap.Error(err))
		return
	}

	orderHandler, err := http.NewOrderHandler(orderService, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	paymentHandler, err := http.NewPaymentHandler(paymentService, log.Named("Payment handler"))
	if err != nil {
		log.Error("payment handler creating error", zap.Error(err))
		return
	}
	webhookHandler, err := http.NewWebhookHandler(webhookService, log.Named("Webhook handler"))
	if err != nil {
		log.Error("webhook handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(conf.HTTP, tokenService, orderHandler, paymentHandler, webhookHandler)
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}

func newPricing(conf *config.Pricing) (service.Pricing, error) {
	taxRate, err := decimal.Parse(conf.TaxRate)
	if err != nil {
		return service.Pricing{}, fmt.Errorf("parse tax rate: %w", err)
	}
	freeAbove, err := decimal.Parse(conf.FreeShippingAbove)
	if err != nil {
		return service.Pricing{}, fmt.Errorf("parse free shipping threshold: %w", err)
	}
	fee, err := decimal.Parse(conf.ShippingFee)
	if err != nil {
		return service.Pricing{}, fmt.Errorf("parse shipping fee: %w", err)
	}

	return service.Pricing{
		TaxRate:           taxRate,
		FreeShippingAbove: freeAbove,
		ShippingFee:       fee,
		ReturnWindow:      conf.ReturnWindow,
	}, nil
}
