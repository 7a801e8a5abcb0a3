package dto

import "encoding/json"

// Cursor -- пагинационный курсор content-api. Пустые continuation-поля
// опускаются в JSON, чтобы первый запрос нес только limit.
type Cursor struct {
	Limit     int    `json:"limit"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	NmID      int64  `json:"nmID,omitempty"`
}

type Settings struct {
	Cursor Cursor `json:"cursor"`
}

type CardsRequest struct {
	Settings Settings `json:"settings"`
}

type CardsResponse struct {
	Cards  []Card         `json:"cards"`
	Cursor ResponseCursor `json:"cursor"`
}

type ResponseCursor struct {
	UpdatedAt string `json:"updatedAt"`
	NmID      int64  `json:"nmID"`
	Total     int    `json:"total"`
}

type Card struct {
	NmID       int64    `json:"nmID"`
	VendorCode string   `json:"vendorCode"`
	Brand      string   `json:"brand"`
	Object     string   `json:"object"`
	Sizes      []Size   `json:"sizes"`
	Tags       []Tag    `json:"tags"`
	MediaFiles []string `json:"mediaFiles"`
}

type Size struct {
	TechSize string   `json:"techSize"`
	WbSize   string   `json:"wbSize"`
	Skus     []string `json:"skus"`
}

// Tag приходит от WB либо голой строкой, либо объектом {id, name}.
type Tag struct {
	Name string
}

func (t *Tag) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		t.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	t.Name = obj.Name
	return nil
}

type Stock struct {
	NmID          int64  `json:"nmId"`
	WarehouseName string `json:"warehouseName"`
	Quantity      int    `json:"quantity"`
}

type Sale struct {
	SaleID        string  `json:"saleID"`
	CancelID      string  `json:"cancelID"`
	NmID          int64   `json:"nmId"`
	Date          string  `json:"date"`
	PriceWithDisc float64 `json:"priceWithDisc"`
}

// IsBuyout -- выкуп: есть saleID и нет отмены.
func (s Sale) IsBuyout() bool {
	return s.SaleID != "" && s.CancelID == ""
}

type Order struct {
	NmID int64  `json:"nmId"`
	Date string `json:"date"`
}
