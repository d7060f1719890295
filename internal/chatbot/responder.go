package chatbot

import (
	"fmt"
	"strings"

	"shopassist/internal/model"
)

// maxListedProducts is how many search results are spelled out in a reply
const maxListedProducts = 5

const (
	greetingText = "Hello! I'm your shopping assistant. I can help you find products, " +
		"compare items, and answer questions about our inventory. " +
		"What are you looking for today?"

	noMatchesText = "I couldn't find any products matching your criteria. " +
		"Try adjusting your search terms or filters."

	searchFollowUpText = "\nWould you like to see more details about any of these products or refine your search?"

	helpText = "I can help you with:\n" +
		"• **Search products** - 'Find me laptops under $1000'\n" +
		"• **Filter by brand** - 'Show me Apple products'\n" +
		"• **Price ranges** - 'Products between $100-500'\n" +
		"• **Product details** - 'Tell me about product ID 123'\n" +
		"• **Compare products** - 'Compare iPhone vs Samsung'\n\n" +
		"Just tell me what you're looking for in natural language!"

	fallbackText = "I'm sorry, I didn't understand that. Could you please rephrase your question? " +
		"You can ask me to search for products, get product details, or type 'help' for more options."

	technicalDifficultiesText = "I'm experiencing some technical difficulties. Please try again in a moment."
)

// Greeting returns the welcome message
func Greeting() string {
	return greetingText
}

// Help returns the list of things the assistant can do
func Help() string {
	return helpText
}

// Fallback is the reply for messages no handler understood
func Fallback() string {
	return fallbackText
}

// TechnicalDifficulties is the reply when the catalog or storage fails
func TechnicalDifficulties() string {
	return technicalDifficultiesText
}

// SearchResults renders up to five products followed by a count of the rest
func SearchResults(products []model.Product) string {
	if len(products) == 0 {
		return noMatchesText
	}

	count := len(products)
	var b strings.Builder

	plural := "s"
	if count == 1 {
		plural = ""
	}
	fmt.Fprintf(&b, "I found %d product%s for you:\n\n", count, plural)

	for i, p := range products {
		if i == maxListedProducts {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** by %s\n", i+1, p.Name, p.Brand)
		fmt.Fprintf(&b, "   Price: $%s\n", p.Price.StringFixed(2))
		fmt.Fprintf(&b, "   Rating: %s/5\n", p.Rating.StringFixed(2))
		fmt.Fprintf(&b, "   %s\n\n", stockLabel(p, "✅ In Stock"))
	}

	if count > maxListedProducts {
		fmt.Fprintf(&b, "... and %d more products.\n", count-maxListedProducts)
	}

	b.WriteString(searchFollowUpText)
	return b.String()
}

// ProductDetails renders the detailed description of a single product
func ProductDetails(p model.Product) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s** by %s\n\n", p.Name, p.Brand)
	fmt.Fprintf(&b, "**Price:** $%s\n", p.Price.StringFixed(2))
	fmt.Fprintf(&b, "**Category:** %s\n", p.CategoryName)
	fmt.Fprintf(&b, "**Rating:** %s/5 stars\n", p.Rating.StringFixed(2))
	fmt.Fprintf(&b, "**Stock:** %s\n", stockLabel(p, "✅ Available"))
	fmt.Fprintf(&b, "**SKU:** %s\n\n", p.SKU)
	fmt.Fprintf(&b, "**Description:**\n%s\n\n", p.Description)

	if p.InStock() {
		b.WriteString("Would you like to know more about this product or see similar items?")
	} else {
		b.WriteString("This product is currently out of stock. Would you like to see similar available products?")
	}
	return b.String()
}

func stockLabel(p model.Product, available string) string {
	if p.InStock() {
		return available
	}
	return "❌ Out of Stock"
}
