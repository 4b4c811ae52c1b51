package listamfetcher

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"listam-parser-service/internal/constants"
	"listam-parser-service/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	titleSelector      = "h1"
	priceSelector      = `[itemprop="price"], .price`
	locationSelector   = ".loc"
	datePostedSelector = `[itemprop="datePosted"]`
	footerDateSelector = ".footer span"

	postedPrefix  = "Posted"
	renewedPrefix = "Renewed"
)

// Время на сайте указано по Еревану
var listamZone = time.FixedZone("AMT", 4*60*60)

var footerDateLayouts = []string{"02.01.2006, 15:04", "02.01.2006 15:04", "02.01.2006"}

// AssembleDetails собирает запись объявления из HTML страницы.
// Контакты и картинки заполняются отдельно. Ошибка возвращается только если документ не разобрать.
func AssembleDetails(pageHTML []byte, externalID, pageURL string) (*domain.HouseListing, error) {
	if len(bytes.TrimSpace(pageHTML)) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing %s: %w", externalID, err)
	}
	return assembleFromDocument(doc, externalID, pageURL), nil
}

func assembleFromDocument(doc *goquery.Document, externalID, pageURL string) *domain.HouseListing {
	tokens := Tokenize(doc)
	labels := BuildLabelMap(tokens, constants.AttributeLabels)

	text := func(label string) *string {
		if v, ok := labels[label]; ok && v != "" {
			return &v
		}
		return nil
	}

	house := &domain.HouseListing{
		ExternalID: externalID,
		URL:        pageURL,
		Title:      selectText(doc, titleSelector),
		Price:      selectText(doc, priceSelector),

		Condition:        text(constants.LabelCondition),
		Rooms:            parseSmallUint(labels[constants.LabelRooms]),
		HouseAreaM2:      parseArea(labels[constants.LabelHouseArea]),
		LandAreaM2:       parseArea(labels[constants.LabelLandArea]),
		ConstructionType: text(constants.LabelConstructionType),
		Floors:           parseSmallUint(labels[constants.LabelFloors]),
		Bathrooms:        parseSmallUint(labels[constants.LabelBathrooms]),
		Garage:           text(constants.LabelGarage),
		Renovation:       text(constants.LabelRenovation),
		Furniture:        text(constants.LabelFurniture),

		Amenities:           text(constants.LabelAmenities),
		Comfort:             text(constants.LabelComfort),
		CeilingHeight:       text(constants.LabelCeilingHeight),
		Prepayment:          text(constants.LabelPrepayment),
		UtilityPayments:     text(constants.LabelUtilityPayments),
		LeaseType:           text(constants.LabelLeaseType),
		MinimumRentalPeriod: text(constants.LabelMinimumRentalPeriod),
		Sewerage:            text(constants.LabelSewerage),
		Parking:             text(constants.LabelParking),
		Entrance:            text(constants.LabelEntrance),
		LocationFromStreet:  text(constants.LabelLocationFromStreet),
		Elevator:            text(constants.LabelElevator),
		FloorArea:           text(constants.LabelFloorArea),

		Features: domain.FeatureList{
			Appliances:   splitList(labels[constants.LabelAppliances]),
			ServiceLines: splitList(labels[constants.LabelServiceLines]),
			Facilities:   splitList(labels[constants.LabelFacilities]),
		},

		Description: strings.TrimSpace(strings.Join(
			SectionBetween(tokens, constants.LabelDescription, constants.LabelLocation), "\n")),
	}

	house.Location = selectText(doc, locationSelector)
	if house.Location == nil {
		house.Location = text(constants.LabelLocation)
	}

	house.PriceHistory = ParseTabularPriceHistory(doc)
	if len(house.PriceHistory) == 0 {
		house.PriceHistory = ParseFreeTextPriceHistory(tokens)
	}

	house.CreatedAt = postedAt(doc)
	house.UpdatedAt = footerDate(doc, renewedPrefix)

	return house
}

func selectText(doc *goquery.Document, selector string) *string {
	if v, ok := SelectFirst(doc, selector, ""); ok {
		return &v
	}
	return nil
}

// postedAt берет дату публикации из машиночитаемого атрибута, затем из подвала
func postedAt(doc *goquery.Document) *time.Time {
	if v, ok := SelectFirst(doc, datePostedSelector, "content"); ok {
		if t, ok := parseListamTime(v); ok {
			return &t
		}
	}
	return footerDate(doc, postedPrefix)
}

func footerDate(doc *goquery.Document, prefix string) *time.Time {
	var result *time.Time
	doc.Find(footerDateSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		txt := cleanText(s.Text())
		if !strings.HasPrefix(txt, prefix) {
			return true
		}
		if t, ok := parseListamTime(strings.TrimSpace(strings.TrimPrefix(txt, prefix))); ok {
			result = &t
		}
		return false
	})
	return result
}

func parseListamTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		return t, true
	}
	for _, layout := range footerDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, listamZone); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseSmallUint разбирает целое 0..255, иначе nil
func parseSmallUint(raw string) *uint8 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return nil
	}
	n := uint8(v)
	return &n
}

// parseArea отрезает единицы измерения и разбирает площадь в м²
func parseArea(raw string) *float32 {
	raw = strings.TrimSpace(raw)
	for _, suffix := range constants.AreaUnitSuffixes {
		if strings.HasSuffix(raw, suffix) {
			raw = strings.TrimSpace(strings.TrimSuffix(raw, suffix))
			break
		}
	}
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return nil
	}
	f := float32(v)
	return &f
}

// splitList делит значение по запятым, убирая пустые элементы и повторы
func splitList(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
