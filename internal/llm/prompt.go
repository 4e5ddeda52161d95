package llm

import (
	"fmt"
	"strings"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You categorize merchants from Indian card and UPI statements. ")
	b.WriteString("You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON.\n\n")
	b.WriteString("Allowed categories:\n")
	for _, c := range model.AllCategories() {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nUse \"other\" only if the merchant cannot be identified.\n")
	b.WriteString(`Respond with: {"category": "...", "subcategory": "...", "merchant_normalized": "...", "confidence": 0.0, "reasoning": "..."}`)
	b.WriteString("\nconfidence is a number between 0 and 1.")
	return b.String()
}

func buildUserPrompt(merchantName string) string {
	return fmt.Sprintf("Merchant: %s", strings.TrimSpace(merchantName))
}
