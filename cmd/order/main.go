package main

import (
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/app"
	"github.com/DimitryIvaniuta/ecommerce-order-service/internal/order/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
