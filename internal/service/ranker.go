package service

import (
	"math"
	"sort"
	"time"

	"shopassist/internal/model"
)

// Match reason constants
const (
	ReasonHighlyRated  = "Highly rated"
	ReasonPriceMatch   = "Price within budget"
	ReasonNewlyAdded   = "Newly added"
	ReasonInStock      = "In stock"
	ReasonFeatured     = "Featured"
	ReasonGeneralMatch = "General match"
)

const maxRating = 5.0

// Ranker scores products for the relevance sort
type Ranker struct {
	weightRating  float64
	weightPrice   float64
	weightRecency float64
	now           func() time.Time
}

// NewRanker creates a new ranker with specified weights
func NewRanker(weightRating, weightPrice, weightRecency float64) *Ranker {
	return &Ranker{
		weightRating:  weightRating,
		weightPrice:   weightPrice,
		weightRecency: weightRecency,
		now:           time.Now,
	}
}

// RankProducts scores and orders products, best first. Ties keep the input
// order.
func (r *Ranker) RankProducts(products []model.Product, filters model.ProductFilters) []model.ScoredProduct {
	results := make([]model.ScoredProduct, 0, len(products))

	for _, p := range products {
		ratingScore := r.calculateRatingScore(p)
		priceScore := r.calculatePriceScore(p, filters)
		recencyScore := r.calculateRecencyScore(p.CreatedAt)

		results = append(results, model.ScoredProduct{
			Product: p,
			Score: (r.weightRating * ratingScore) +
				(r.weightPrice * priceScore) +
				(r.weightRecency * recencyScore),
			MatchedReasons: r.generateMatchedReasons(p, filters, ratingScore, priceScore),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// calculateRatingScore normalizes the 0-5 rating to 0-1
func (r *Ranker) calculateRatingScore(p model.Product) float64 {
	rating := p.Rating.InexactFloat64()
	if rating <= 0 {
		return 0
	}
	return math.Min(rating/maxRating, 1.0)
}

// calculatePriceScore calculates how well the price matches the budget
func (r *Ranker) calculatePriceScore(p model.Product, filters model.ProductFilters) float64 {
	if filters.MinPrice == nil && filters.MaxPrice == nil {
		return 1.0
	}

	price := p.Price.InexactFloat64()

	if filters.MinPrice != nil && filters.MaxPrice != nil {
		minPrice, maxPrice := *filters.MinPrice, *filters.MaxPrice
		if price < minPrice || price > maxPrice {
			return 0.0
		}

		priceRange := maxPrice - minPrice
		if priceRange == 0 {
			return 1.0
		}

		// Closer to the middle of the range is better
		midpoint := (minPrice + maxPrice) / 2
		score := 1.0 - (math.Abs(price-midpoint) / (priceRange / 2))
		return math.Max(score, 0)
	}

	if filters.MinPrice != nil {
		if price < *filters.MinPrice {
			return 0.0
		}
		return 1.0
	}

	if price > *filters.MaxPrice {
		return 0.0
	}
	if *filters.MaxPrice == 0 {
		return 1.0
	}
	return math.Min(price / *filters.MaxPrice, 1.0)
}

// calculateRecencyScore decays with the age of the product.
// After 30 days: ~0.74, after 90 days: ~0.41
func (r *Ranker) calculateRecencyScore(createdAt time.Time) float64 {
	if createdAt.IsZero() {
		return 0.5
	}

	days := r.now().Sub(createdAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-0.01 * days)
}

// generateMatchedReasons explains why a product ranked where it did
func (r *Ranker) generateMatchedReasons(
	p model.Product,
	filters model.ProductFilters,
	ratingScore float64,
	priceScore float64,
) []string {
	reasons := []string{}

	if ratingScore >= 0.8 {
		reasons = append(reasons, ReasonHighlyRated)
	}
	if (filters.MinPrice != nil || filters.MaxPrice != nil) && priceScore > 0.8 {
		reasons = append(reasons, ReasonPriceMatch)
	}
	if !p.CreatedAt.IsZero() && r.now().Sub(p.CreatedAt) < 7*24*time.Hour {
		reasons = append(reasons, ReasonNewlyAdded)
	}
	if p.InStock() {
		reasons = append(reasons, ReasonInStock)
	}
	if p.Featured {
		reasons = append(reasons, ReasonFeatured)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}

	return reasons
}
