package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"contable/internal/core"
)

// StockAlertMessage is published when a sale leaves an item below the
// low-stock threshold.
type StockAlertMessage struct {
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
	SaleID    string    `json:"sale_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStockAlertMessage(item core.InventoryItem, threshold int, saleID string) *StockAlertMessage {
	return &StockAlertMessage{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Stock:     item.Stock,
		Threshold: threshold,
		SaleID:    saleID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *StockAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StockAlertMessageFromJSON decodes and sanity-checks a message body.
func StockAlertMessageFromJSON(data []byte) (*StockAlertMessage, error) {
	var msg StockAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ItemID == "" {
		return nil, fmt.Errorf("stock alert without item id")
	}
	return &msg, nil
}
