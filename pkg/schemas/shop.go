package schemas

import "time"

const ORDER_STATUS_PLACED = "placed"

type Product struct {
	Id          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Image       string `bson:"image" json:"image"`
	Cost        int    `bson:"cost" json:"cost"`
}

type OrderLine struct {
	ProductId string `bson:"productId" json:"productId"`
	Name      string `bson:"name" json:"name"`
	Image     string `bson:"image" json:"image"`
	Cost      int    `bson:"cost" json:"cost"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

type Order struct {
	Id               string      `bson:"_id" json:"id"`
	UserId           string      `bson:"userId" json:"userId"`
	Cart             []OrderLine `bson:"cart" json:"cart"`
	DeliveryOption   bool        `bson:"deliveryOption" json:"deliveryOption"`
	DeliveryLocation string      `bson:"deliveryLocation,omitempty" json:"deliveryLocation,omitempty"`
	DeliveryFee      int         `bson:"deliveryFee" json:"deliveryFee"`
	Total            int         `bson:"total" json:"total"`
	Status           string      `bson:"status" json:"status"`
	IdempotencyKey   string      `bson:"idempotencyKey" json:"-"`
	Ctime            time.Time   `bson:"ctime" json:"ctime"`
}

func (o *Order) Source() string {
	return "order:" + o.Id
}
