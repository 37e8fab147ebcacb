package llm

import (
	"fmt"
	"strings"

	"github.com/cosmocart/backend/internal/domain"
)

const (
	promptCategoryLimit = 20
	promptProductLimit  = 15
)

// systemPrompt pins the model to bare JSON output
const systemPrompt = "You are a helpful API assistant that outputs strict JSON only. " +
	"Do not output any markdown formatting like ```json ... ```."

const promptTemplate = `You are a supermarket shopping assistant. Available categories: %s
Sample products: %s

User Message: %s

Return a JSON object with strictly these fields:
- query_type: MUST be one of [%s] (UPPERCASE)
- action: string
- product_name: string or null
- brand: string or null
- quantity: number or null
- category: string or null
- weight: string or null
- limit: number or null (how many products the user wants to see)
- min_price: number or null (minimum price threshold the user wants)
- max_price: number or null (maximum price threshold the user wants)
- confidence: number between 0 and 1

IMPORTANT RULES for query_type selection:
- Use PRODUCT_SEARCH when the user wants to see/show/browse a specific product type across all brands. Examples: "show me rice", "I want to see milk", "what toothpaste do you have"
- Use PRICE_FILTER when the user asks to see products above/below/between a certain price. Examples: "show products above 150", "items under 200", "products between 100 and 500"
- Use PRICE_QUERY when the user asks for the price of one specific product (e.g. "what is the price of Amul butter")
- Use CART_ADD when the user explicitly wants to add to cart
- Use CATEGORY_FILTER when the user mentions a broad category like "beauty", "dairy", "grocery"
- Use CHECKOUT when the user wants to buy, check out or place the order

Examples:
{"query_type": "PRICE_QUERY", "action": "check_price", "product_name": "Tomato", "brand": null, "quantity": null, "category": null, "weight": null, "min_price": null, "max_price": null, "confidence": 0.9}
{"query_type": "CART_ADD", "action": "add_to_cart", "product_name": "tomato", "brand": null, "quantity": 5, "category": null, "weight": null, "min_price": null, "max_price": null, "confidence": 0.95}
{"query_type": "PRODUCT_SEARCH", "action": "search_product", "product_name": "rice", "brand": null, "quantity": null, "category": null, "weight": null, "min_price": null, "max_price": null, "confidence": 0.95}
{"query_type": "PRICE_FILTER", "action": "filter_by_price", "product_name": null, "brand": null, "quantity": null, "category": null, "weight": null, "min_price": 150, "max_price": null, "confidence": 0.95}
{"query_type": "PRICE_FILTER", "action": "filter_by_price", "product_name": "rice", "brand": null, "quantity": null, "category": null, "weight": null, "min_price": null, "max_price": 200, "confidence": 0.9}
`

// BuildPrompt renders the classification prompt for message. Only the first 20 categories
// and 15 sample products are included.
func BuildPrompt(message string, catalog domain.CatalogContext) string {
	types := make([]string, 0, len(domain.AllQueryTypes))
	for _, qt := range domain.AllQueryTypes {
		types = append(types, fmt.Sprintf("%q", string(qt)))
	}

	return fmt.Sprintf(promptTemplate,
		strings.Join(head(catalog.Categories, promptCategoryLimit), ", "),
		strings.Join(head(catalog.SampleProducts, promptProductLimit), ", "),
		message,
		strings.Join(types, ", "),
	)
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
