package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 报价计价模式
const (
	OfferModeTrend  = "trend"
	OfferModeLow    = "low"
	OfferModeManual = "manual"
)

// OfferRecord 卖家侧的报价历史，成交价格快照不可变
type OfferRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID  uint64             `bson:"seller_id" json:"sellerId"`
	BuyerID   uint64             `bson:"buyer_id" json:"buyerId"`
	BuyerName string             `bson:"buyer_name" json:"buyerName"`
	Amount    float64            `bson:"amount" json:"amount"`
	Mode      string             `bson:"mode" json:"mode"`
	Date      time.Time          `bson:"date" json:"date"`
	Cards     []OfferCard        `bson:"cards" json:"cards"`
}

// OfferCard 报价中单张卡牌的数量与单价
type OfferCard struct {
	CardID    string  `bson:"card_id" json:"cardId"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unitPrice"`
}
