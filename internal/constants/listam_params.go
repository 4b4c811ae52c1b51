package constants

const (
	ItemPathPrefix = "/en/item/"

	// Параметры запроса попапа с контактами
	ContactPopupItemParam = "i"
	ContactPopupRTTParam  = "_rtt"
)

// Подписи полей на странице объявления (английская версия сайта)
const (
	LabelCondition           = "Condition"
	LabelRooms               = "Number of Rooms"
	LabelHouseArea           = "House Area"
	LabelLandArea            = "Land Area"
	LabelConstructionType    = "Construction Type"
	LabelFloors              = "Floors in the Building"
	LabelBathrooms           = "Number of Bathrooms"
	LabelGarage              = "Garage"
	LabelRenovation          = "Renovation"
	LabelAppliances          = "Appliances"
	LabelServiceLines        = "Service Lines"
	LabelFacilities          = "Facilities"
	LabelFurniture           = "Furniture"
	LabelAmenities           = "Amenities"
	LabelComfort             = "Comfort"
	LabelCeilingHeight       = "Ceiling Height"
	LabelPrepayment          = "Prepayment"
	LabelUtilityPayments     = "Utility Payments"
	LabelLeaseType           = "Lease Type"
	LabelMinimumRentalPeriod = "Minimum Rental Period"
	LabelSewerage            = "Sewerage"
	LabelParking             = "Parking"
	LabelEntrance            = "Entrance"
	LabelLocationFromStreet  = "Location from the Street"
	LabelElevator            = "Elevator"
	LabelFloorArea           = "Floor Area"

	LabelDescription  = "Description"
	LabelLocation     = "Location"
	LabelPriceHistory = "Price History"
)

// AttributeLabels - все подписи, которые собираются в карту label -> value
var AttributeLabels = []string{
	LabelCondition, LabelRooms, LabelHouseArea, LabelLandArea, LabelConstructionType,
	LabelFloors, LabelBathrooms, LabelGarage, LabelRenovation, LabelAppliances,
	LabelServiceLines, LabelFacilities, LabelFurniture, LabelAmenities, LabelComfort,
	LabelCeilingHeight, LabelPrepayment, LabelUtilityPayments, LabelLeaseType,
	LabelMinimumRentalPeriod, LabelSewerage, LabelParking, LabelEntrance,
	LabelLocationFromStreet, LabelElevator, LabelFloorArea, LabelLocation,
}

// Суффиксы единиц площади, которые встречаются на сайте
var AreaUnitSuffixes = []string{"sq.m.", "sq. m.", "m²", "m2", "кв.м.", "кв. м.", "մ²", "ք.մ."}

// Признаки снятого объявления в теле ответа
var RemovalKeywords = []string{"not found", "removed", "deleted", "no longer available"}

const (
	RoutingKeyPageReports   = "listam.page_reports"
	RoutingKeyScrapeReports = "listam.scrape_reports"
	RoutingKeyCheckReports  = "listam.check_reports"
)
