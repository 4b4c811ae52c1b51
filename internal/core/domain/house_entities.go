package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidListingURL = errors.New("listing url does not contain an item id")
	ErrEmptyDocument     = errors.New("html document is empty")
)

// Канал, через который продавец доступен по телефону
type PhoneSource string

const (
	PhoneSourceDirect   PhoneSource = "direct"
	PhoneSourceViber    PhoneSource = "viber"
	PhoneSourceWhatsApp PhoneSource = "whatsapp"
)

// Типы тегов в таблице list_am_features
const (
	FeatureAppliances   = "appliances"
	FeatureServiceLines = "service_lines"
	FeatureFacilities   = "facilities"
)

// ListingLink - каноническая ссылка на страницу объявления
type ListingLink struct {
	URL        string
	ExternalID string
}

type ContactPhone struct {
	Raw     string
	Display string
	Source  PhoneSource
}

type ContactInfo struct {
	SellerName *string
	Phones     []ContactPhone
}

// PriceHistoryEntry хранит одну запись истории цены.
// Date - RFC3339 (полночь UTC) либо исходный текст, если дату разобрать не удалось.
type PriceHistoryEntry struct {
	Date  string
	Price string
	Diff  *string
}

type ImageRef struct {
	Position int
	URL      string
}

// FeatureList - три независимых набора тегов объявления
type FeatureList struct {
	Appliances   []string
	ServiceLines []string
	Facilities   []string
}

// HouseListing - единица извлечения и сохранения.
// Все необязательные поля остаются nil, если на странице факт отсутствует.
type HouseListing struct {
	ExternalID  string
	URL         string
	Title       *string
	Price       *string
	Description string
	Location    *string

	Condition        *string
	Rooms            *uint8
	HouseAreaM2      *float32
	LandAreaM2       *float32
	ConstructionType *string
	Floors           *uint8
	Bathrooms        *uint8
	Garage           *string
	Renovation       *string
	Furniture        *string

	Amenities           *string
	Comfort             *string
	CeilingHeight       *string
	Prepayment          *string
	UtilityPayments     *string
	LeaseType           *string
	MinimumRentalPeriod *string
	Sewerage            *string
	Parking             *string
	Entrance            *string
	LocationFromStreet  *string
	Elevator            *string
	FloorArea           *string

	Features     FeatureList
	Contact      ContactInfo
	PriceHistory []PriceHistoryEntry
	Images       []ImageRef

	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// ActiveHouse - пара (id, url) для проверки актуальности
type ActiveHouse struct {
	ID  int64
	URL string
}
