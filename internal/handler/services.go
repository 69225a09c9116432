package handler

import "github.com/nikolayk812/shopflow/internal/service"

var (
	_ CartService    = (*service.CartService)(nil)
	_ OrderService   = (*service.OrderService)(nil)
	_ PaymentService = (*service.PaymentService)(nil)
	_ ProductService = (*service.ProductService)(nil)
)
