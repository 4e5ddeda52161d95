package normalize

import "github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"

// Rule priorities. Substring fallback prefers higher priorities, then longer
// aliases, then earlier rules.
const (
	PriorityCanonical = 30 // canonical keys and UI widget labels
	PriorityFeed      = 20 // transaction feed category fields
	PriorityBrand     = 10 // merchant brand hints
)

// AliasRule maps one lowercase label variant to a canonical category.
// WholeWord rules only match on word boundaries; short aliases such as "ola"
// would otherwise hit inside unrelated words.
type AliasRule struct {
	Alias     string
	Category  model.CanonicalCategory
	Priority  int
	WholeWord bool
}

// wholeWordAliases are matched on word boundaries only.
var wholeWordAliases = map[string]bool{
	"ola": true, "jio": true, "kfc": true, "pvr": true, "ott": true, "sip": true,
	"rent": true, "bars": true, "misc": true, "shell": true,
}

func rules(category model.CanonicalCategory, priority int, aliases ...string) []AliasRule {
	out := make([]AliasRule, len(aliases))
	for i, a := range aliases {
		out[i] = AliasRule{Alias: a, Category: category, Priority: priority, WholeWord: wholeWordAliases[a]}
	}
	return out
}

// DefaultRules returns the built-in alias table.
func DefaultRules() []AliasRule {
	var r []AliasRule

	// Canonical keys and UI labels.
	r = append(r, rules(model.CategoryFoodDining, PriorityCanonical,
		"food_dining", "dining", "food & dining", "food and dining", "restaurants", "restaurant",
		"food delivery", "eating out", "food")...)
	r = append(r, rules(model.CategoryShoppingOnline, PriorityCanonical,
		"shopping_online", "online shopping", "shopping", "e-commerce", "ecommerce", "online")...)
	r = append(r, rules(model.CategoryTravel, PriorityCanonical,
		"travel", "flights", "hotels", "travel & stay", "commute")...)
	r = append(r, rules(model.CategoryGroceries, PriorityCanonical,
		"groceries", "grocery", "supermarket", "daily essentials")...)
	r = append(r, rules(model.CategoryFuel, PriorityCanonical,
		"fuel", "petrol", "diesel", "gas station")...)
	r = append(r, rules(model.CategoryBillsUtilities, PriorityCanonical,
		"bills_utilities", "bills & utilities", "bills and utilities", "utilities", "bills", "recharge",
		"rent")...)
	r = append(r, rules(model.CategoryEntertainment, PriorityCanonical,
		"entertainment", "movies", "ott", "subscriptions", "streaming")...)
	r = append(r, rules(model.CategoryHealth, PriorityCanonical,
		"health", "healthcare", "medical", "pharmacy", "wellness", "fitness")...)
	r = append(r, rules(model.CategoryEducation, PriorityCanonical,
		"education", "tuition", "courses", "school fees")...)
	r = append(r, rules(model.CategoryInvestments, PriorityCanonical,
		"investments", "investment", "mutual funds", "stocks", "insurance premium")...)
	r = append(r, rules(model.CategoryForex, PriorityCanonical,
		"forex", "international", "international spends", "foreign currency", "cross border")...)
	r = append(r, rules(model.CategoryOther, PriorityCanonical,
		"other", "others", "miscellaneous", "misc", "uncategorized")...)

	// Transaction feed category fields.
	r = append(r, rules(model.CategoryFoodDining, PriorityFeed,
		"food and drink", "fast food", "coffee shop", "cafe", "bars", "food_and_drink")...)
	r = append(r, rules(model.CategoryShoppingOnline, PriorityFeed,
		"shops", "general merchandise", "general_merchandise", "clothing and accessories",
		"electronics", "department stores", "digital purchase")...)
	r = append(r, rules(model.CategoryTravel, PriorityFeed,
		"airlines and aviation services", "airlines", "lodging", "car service", "taxi",
		"public transportation", "transportation", "railways", "travel agencies")...)
	r = append(r, rules(model.CategoryGroceries, PriorityFeed,
		"supermarkets and groceries", "food_and_drink_groceries", "convenience stores")...)
	r = append(r, rules(model.CategoryFuel, PriorityFeed,
		"gas stations", "transportation_gas", "automotive fuel")...)
	r = append(r, rules(model.CategoryBillsUtilities, PriorityFeed,
		"rent_and_utilities", "telecommunication services", "internet", "mobile", "electricity",
		"water", "cable", "utility", "loan payments")...)
	r = append(r, rules(model.CategoryEntertainment, PriorityFeed,
		"recreation", "arts and entertainment", "gyms and fitness centers", "music", "gaming")...)
	r = append(r, rules(model.CategoryHealth, PriorityFeed,
		"pharmacies", "medical_pharmacies", "hospital", "doctor", "dentists")...)
	r = append(r, rules(model.CategoryEducation, PriorityFeed,
		"education services", "books", "university")...)
	r = append(r, rules(model.CategoryInvestments, PriorityFeed,
		"transfer_out_investment", "brokerage", "sip")...)
	r = append(r, rules(model.CategoryForex, PriorityFeed,
		"foreign transaction", "currency exchange", "forex markup")...)

	// Merchant brand hints.
	r = append(r, rules(model.CategoryFoodDining, PriorityBrand,
		"swiggy", "zomato", "dominos", "mcdonalds", "starbucks", "eatsure", "kfc")...)
	r = append(r, rules(model.CategoryShoppingOnline, PriorityBrand,
		"amazon", "flipkart", "myntra", "ajio", "nykaa", "meesho", "tata cliq")...)
	r = append(r, rules(model.CategoryTravel, PriorityBrand,
		"makemytrip", "goibibo", "irctc", "cleartrip", "indigo", "air india", "uber", "ola",
		"rapido", "airbnb", "booking.com")...)
	r = append(r, rules(model.CategoryGroceries, PriorityBrand,
		"bigbasket", "blinkit", "zepto", "dmart", "jiomart", "instamart", "reliance fresh")...)
	r = append(r, rules(model.CategoryFuel, PriorityBrand,
		"indian oil", "iocl", "hpcl", "bharat petroleum", "bpcl", "shell")...)
	r = append(r, rules(model.CategoryBillsUtilities, PriorityBrand,
		"airtel", "jio", "vodafone", "bescom", "tata power", "act fibernet")...)
	r = append(r, rules(model.CategoryEntertainment, PriorityBrand,
		"netflix", "bookmyshow", "spotify", "hotstar", "prime video", "pvr")...)
	r = append(r, rules(model.CategoryHealth, PriorityBrand,
		"apollo", "pharmeasy", "1mg", "practo", "cult.fit")...)
	r = append(r, rules(model.CategoryEducation, PriorityBrand,
		"byjus", "unacademy", "coursera", "udemy")...)
	r = append(r, rules(model.CategoryInvestments, PriorityBrand,
		"zerodha", "groww", "upstox", "kuvera")...)

	return r
}
