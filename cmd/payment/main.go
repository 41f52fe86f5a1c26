package main

import (
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/app"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/payment/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
