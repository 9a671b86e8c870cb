package shoptet

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decimal is a numeric value the API sends either as a JSON number or as a
// string such as "12.50". It keeps the textual form.
type Decimal string

// UnmarshalJSON accepts numbers, strings and null.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = ""

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding decimal: %w", err)
		}

		*d = Decimal(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding decimal: %w", err)
	}

	*d = Decimal(n.String())

	return nil
}

// Paginator is the paging block of a listing response. Timestamps in models
// are kept as strings because the API uses offsets such as "+0100".
type Paginator struct {
	TotalCount   int `json:"totalCount"   yaml:"totalCount"`
	Page         int `json:"page"         yaml:"page"`
	PageCount    int `json:"pageCount"    yaml:"pageCount"`
	ItemsOnPage  int `json:"itemsOnPage"  yaml:"itemsOnPage"`
	ItemsPerPage int `json:"itemsPerPage" yaml:"itemsPerPage"`
}

// Endpoint is one API endpoint the addon may call.
type Endpoint struct {
	Endpoint    string `json:"endpoint"              yaml:"endpoint"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Eshop is the subset of shop information most callers need.
type Eshop struct {
	ContactInformation struct {
		EshopName string `json:"eshopName" yaml:"eshopName"`
		URL       string `json:"url"       yaml:"url"`
		Email     string `json:"email"     yaml:"email"`
	} `json:"contactInformation" yaml:"contactInformation"`
	Settings struct {
		DefaultLanguage string `json:"defaultLanguage" yaml:"defaultLanguage"`
	} `json:"settings" yaml:"settings"`
}

// Reference is an embedded {guid, name} object.
type Reference struct {
	GUID string `json:"guid,omitempty" yaml:"guid,omitempty"`
	Code string `json:"code,omitempty" yaml:"code,omitempty"`
	Name string `json:"name"           yaml:"name"`
}

// Product is a catalogue product as returned by listings.
type Product struct {
	GUID            string     `json:"guid"                      yaml:"guid"`
	Type            string     `json:"type"                      yaml:"type"`
	Visibility      string     `json:"visibility"                yaml:"visibility"`
	Name            string     `json:"name"                      yaml:"name"`
	URL             string     `json:"url,omitempty"             yaml:"url,omitempty"`
	CreationTime    string     `json:"creationTime"              yaml:"creationTime"`
	ChangeTime      string     `json:"changeTime,omitempty"      yaml:"changeTime,omitempty"`
	Brand           *Reference `json:"brand,omitempty"           yaml:"brand,omitempty"`
	DefaultCategory *Reference `json:"defaultCategory,omitempty" yaml:"defaultCategory,omitempty"`
}

// OrderStatus is the status block of an order.
type OrderStatus struct {
	ID   int    `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// OrderPrice is the price block of an order.
type OrderPrice struct {
	CurrencyCode string  `json:"currencyCode" yaml:"currencyCode"`
	WithVat      Decimal `json:"withVat"      yaml:"withVat"`
	WithoutVat   Decimal `json:"withoutVat"   yaml:"withoutVat"`
	Vat          Decimal `json:"vat"          yaml:"vat"`
	ToPay        Decimal `json:"toPay"        yaml:"toPay"`
}

// Order is an order as returned by listings.
type Order struct {
	Code          string      `json:"code"                   yaml:"code"`
	GUID          string      `json:"guid"                   yaml:"guid"`
	CreationTime  string      `json:"creationTime"           yaml:"creationTime"`
	ChangeTime    string      `json:"changeTime,omitempty"   yaml:"changeTime,omitempty"`
	Email         string      `json:"email,omitempty"        yaml:"email,omitempty"`
	FullName      string      `json:"fullName,omitempty"     yaml:"fullName,omitempty"`
	Company       string      `json:"company,omitempty"      yaml:"company,omitempty"`
	CustomerGUID  string      `json:"customerGuid,omitempty" yaml:"customerGuid,omitempty"`
	CashDeskOrder bool        `json:"cashDeskOrder"          yaml:"cashDeskOrder"`
	Paid          *bool       `json:"paid,omitempty"         yaml:"paid,omitempty"`
	Status        OrderStatus `json:"status"                 yaml:"status"`
	Price         OrderPrice  `json:"price"                  yaml:"price"`
}

// Stock is a warehouse.
type Stock struct {
	ID                 int    `json:"id"                           yaml:"id"`
	Title              string `json:"title"                        yaml:"title"`
	IsDefault          bool   `json:"isDefault"                    yaml:"isDefault"`
	DeliveryPointTitle string `json:"deliveryPointTitle,omitempty" yaml:"deliveryPointTitle,omitempty"`
}

// Supply is the stock level of one product variant in a warehouse.
type Supply struct {
	ProductGUID string  `json:"productGuid"        yaml:"productGuid"`
	Code        string  `json:"code"               yaml:"code"`
	Amount      Decimal `json:"amount"             yaml:"amount"`
	Claim       Decimal `json:"claim,omitempty"    yaml:"claim,omitempty"`
	Location    string  `json:"location,omitempty" yaml:"location,omitempty"`
}

// StockMovement is one change of a stock level.
type StockMovement struct {
	ID         int     `json:"id"                   yaml:"id"`
	Code       string  `json:"code"                 yaml:"code"`
	Amount     Decimal `json:"amount"               yaml:"amount"`
	ChangeTime string  `json:"changeTime"           yaml:"changeTime"`
	OrderCode  string  `json:"orderCode,omitempty"  yaml:"orderCode,omitempty"`
	Note       string  `json:"note,omitempty"       yaml:"note,omitempty"`
}

// Category is a product category.
type Category struct {
	GUID       string `json:"guid"                 yaml:"guid"`
	ParentGUID string `json:"parentGuid,omitempty" yaml:"parentGuid,omitempty"`
	Name       string `json:"name"                 yaml:"name"`
	Visible    bool   `json:"visible"              yaml:"visible"`
	Priority   int    `json:"priority,omitempty"   yaml:"priority,omitempty"`
}

// PriceList is a named price list.
type PriceList struct {
	ID   int    `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Change is an entry of a change feed. Product feeds carry GUID, order feeds
// carry Code.
type Change struct {
	GUID       string `json:"guid,omitempty" yaml:"guid,omitempty"`
	Code       string `json:"code,omitempty" yaml:"code,omitempty"`
	Type       string `json:"type"           yaml:"type"`
	ChangeTime string `json:"changeTime"     yaml:"changeTime"`
}

// Decode unmarshals a raw item or response into T.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decoding %T: %w", v, err)
	}

	return v, nil
}
