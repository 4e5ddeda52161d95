package matcher

import "github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"

// Benefit keys as they appear in the card catalog.
var (
	diningKeys        = []string{"cashback_dining", "dining_rewards", "dining_discount"}
	foodDeliveryKeys  = []string{"food_delivery_cashback", "swiggy_cashback", "zomato_cashback"}
	onlineKeys        = []string{"cashback_online", "online_shopping_rewards", "ecommerce_cashback", "amazon_cashback", "flipkart_cashback"}
	groceryKeys       = []string{"cashback_grocery", "grocery_rewards"}
	fuelKeys          = []string{"fuel_surcharge_waiver", "cashback_fuel", "fuel_rewards"}
	genericCashback   = []string{"cashback", "cashback_all", "cashback_general", "unlimited_cashback"}
	milestoneKeys     = []string{"milestone_bonus", "milestone_rewards", "annual_milestone"}
	domesticLounge    = []string{"lounge_access", "domestic_lounge"}
	internationalKeys = []string{"international_lounge", "priority_pass"}
	milesKeys         = []string{"travel_rewards", "airline_miles", "air_miles"}
	forexKeys         = []string{"low_forex_markup", "zero_forex_markup", "forex_cashback"}
	flightKeys        = []string{"flight_discount", "flight_bookings"}
	hotelKeys         = []string{"hotel_discount", "hotel_rewards"}
	insuranceKeys     = []string{"travel_insurance", "air_accident_insurance"}
)

// categoryBenefits maps each canonical category to the benefits that reward it.
var categoryBenefits = map[model.CanonicalCategory][]string{
	model.CategoryFoodDining:     append(append([]string{}, diningKeys...), foodDeliveryKeys...),
	model.CategoryShoppingOnline: onlineKeys,
	model.CategoryTravel:         append([]string{"cashback_travel", "hotel_rewards"}, milesKeys...),
	model.CategoryGroceries:      groceryKeys,
	model.CategoryFuel:           fuelKeys,
	model.CategoryBillsUtilities: {"cashback_utilities", "utility_rewards", "bill_payment_cashback"},
	model.CategoryEntertainment:  {"movie_offers", "cashback_entertainment", "entertainment_rewards", "ott_benefits"},
	model.CategoryHealth:         {"health_benefits", "cashback_pharmacy"},
	model.CategoryEducation:      {"education_rewards", "cashback_education"},
	model.CategoryInvestments:    {"investment_rewards"},
	model.CategoryForex:          forexKeys,
}

// rewardSignal is one category-specific match counted by reward relevance.
type rewardSignal struct {
	category model.CanonicalCategory
	keys     []string
}

var rewardSignals = []rewardSignal{
	{model.CategoryFoodDining, diningKeys},
	{model.CategoryGroceries, groceryKeys},
	{model.CategoryFuel, fuelKeys},
	{model.CategoryFoodDining, foodDeliveryKeys},
	{model.CategoryShoppingOnline, onlineKeys},
}

// travelBonus is one row of the travel-fit point table.
type travelBonus struct {
	keys   []string
	points float64
}

var travelBonuses = []travelBonus{
	{domesticLounge, 20},
	{internationalKeys, 20},
	{milesKeys, 25},
	{flightKeys, 10},
	{hotelKeys, 10},
	{insuranceKeys, 5},
}

const (
	forexBonus         = 15.0
	forexSpendTrigger  = 5.0
	lowForexMarkupPct  = 2.0
	genericCashbackMin = 60.0
)

// Annual income midpoints in rupees by band.
var incomeMidpoints = map[string]float64{
	"below_3l": 150000, "<3l": 150000, "0-3l": 150000,
	"3-6l": 450000, "3l-6l": 450000,
	"6-10l": 800000, "6l-10l": 800000,
	"10-15l": 1250000, "10l-15l": 1250000,
	"15-25l": 2000000, "15l-25l": 2000000,
	"25-50l": 3750000, "25l-50l": 3750000,
	"25l+": 3500000, "above_25l": 3500000,
	"50l+": 6000000, "above_50l": 6000000,
}

// Age midpoints in years by band.
var ageMidpoints = map[string]float64{
	"18-24": 21, "18-25": 21.5,
	"25-34": 29.5, "26-35": 30.5,
	"35-44": 39.5, "36-45": 40.5,
	"45-54": 49.5, "46-60": 53,
	"55+": 60, "60+": 65,
}
