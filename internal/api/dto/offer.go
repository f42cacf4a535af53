package dto

type SubmitOfferDTO struct {
	To     uint64    `json:"to" binding:"required"`
	Cards  []CardDTO `json:"cards" binding:"required,min=1,dive"`
	Amount float64   `json:"amount" binding:"required,gt=0"`
}

type OfferResultDTO struct {
	Accepted      bool   `json:"accepted"`
	InteractionID string `json:"interactionId"`
}

type OfferCardDTO struct {
	CardID    string  `json:"cardId" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unitPrice" binding:"gte=0"`
}

type SaveOfferHistoryDTO struct {
	BuyerID   uint64         `json:"buyerId" binding:"required"`
	BuyerName string         `json:"buyerName" binding:"max=50"`
	Amount    float64        `json:"amount" binding:"required,gt=0"`
	Mode      string         `json:"mode" binding:"required,oneof=trend low manual"`
	Cards     []OfferCardDTO `json:"cards" binding:"required,min=1,dive"`
}

type OfferHistoryDTO struct {
	ID        string         `json:"id"`
	SellerID  uint64         `json:"sellerId"`
	BuyerID   uint64         `json:"buyerId"`
	BuyerName string         `json:"buyerName"`
	Amount    float64        `json:"amount"`
	Mode      string         `json:"mode"`
	Date      string         `json:"date"`
	Cards     []OfferCardDTO `json:"cards"`
}
