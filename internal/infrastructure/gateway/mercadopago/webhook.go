package mercadopago

// WebhookNotification is the body Mercado Pago posts to notification_url.
type WebhookNotification struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (n WebhookNotification) IsPayment() bool {
	return n.Type == "payment"
}
