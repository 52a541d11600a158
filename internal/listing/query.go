// Package listing turns admin listing parameters into MongoDB filter and
// sort expressions shared by the order and product read models.
package listing

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"kidotrendz/storefront/internal/apierr"
)

// CategoryAll is the sentinel the UI sends when no category is selected.
const CategoryAll = "All"

const dateLayout = "2006-01-02"

type SortDirection int

const (
	SortDesc SortDirection = -1
	SortAsc  SortDirection = 1
)

// Query is a pure value object reconstructed per request; it has no
// persisted identity.
type Query struct {
	Search   string
	Category string
	DateFrom time.Time // zero means unbounded
	DateTo   time.Time // zero means unbounded, already end-of-day adjusted
	SortBy   string
	SortDir  SortDirection
}

// Parse builds a Query from request parameters. Absent fields mean
// "no constraint"; malformed dates are rejected.
func Parse(values url.Values) (Query, error) {
	q := Query{
		Search:   values.Get("search"),
		Category: values.Get("category"),
		SortBy:   values.Get("sortBy"),
		SortDir:  SortDesc,
	}
	if q.Search == "" {
		q.Search = values.Get("searchTerm")
	}

	if from := values.Get("dateFrom"); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return Query{}, apierr.InvalidArgument(fmt.Sprintf("invalid dateFrom %q", from))
		}
		q.DateFrom = t
	}
	if to := values.Get("dateTo"); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return Query{}, apierr.InvalidArgument(fmt.Sprintf("invalid dateTo %q", to))
		}
		// End of day, so a single-day range captures the whole day.
		q.DateTo = t.Add(24*time.Hour - time.Millisecond)
	}
	if !q.DateFrom.IsZero() && !q.DateTo.IsZero() && q.DateTo.Before(q.DateFrom) {
		return Query{}, apierr.InvalidArgument("dateTo before dateFrom")
	}

	if values.Get("sortOrder") == "asc" {
		q.SortDir = SortAsc
	}

	return q, nil
}

// orderSortFields whitelists sortBy values against document paths. Ties on
// equal keys fall back to whatever order the store returns.
var orderSortFields = map[string]string{
	"":            "created_at",
	"date":        "created_at",
	"createdAt":   "created_at",
	"total":       "total_amount",
	"totalAmount": "total_amount",
	"category":    "items.0.product.category",
}

// OrderFilter builds the document filter for the admin order listing.
func (q Query) OrderFilter() bson.M {
	filter := bson.M{}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"user.name": pattern},
			bson.M{"_id": pattern},
			bson.M{"items.product.name": pattern},
		}
	}

	if q.Category != "" && q.Category != CategoryAll {
		filter["items.product.category"] = q.Category
	}

	if created := q.createdRange(); len(created) > 0 {
		filter["created_at"] = created
	}

	return filter
}

// OrderSort resolves the requested sort field against the whitelist,
// defaulting to newest-first.
func (q Query) OrderSort() bson.D {
	field, ok := orderSortFields[q.SortBy]
	if !ok {
		field = "created_at"
	}
	return bson.D{{Key: field, Value: int(q.SortDir)}}
}

var productSortFields = map[string]string{
	"":          "created_at",
	"date":      "created_at",
	"createdAt": "created_at",
	"name":      "name",
	"price":     "price",
	"category":  "category",
}

// ProductFilter builds the document filter for the admin product listing.
func (q Query) ProductFilter() bson.M {
	filter := bson.M{}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"_id": pattern},
			bson.M{"description": pattern},
		}
	}

	if q.Category != "" && q.Category != CategoryAll {
		filter["category"] = q.Category
	}

	if created := q.createdRange(); len(created) > 0 {
		filter["created_at"] = created
	}

	return filter
}

func (q Query) ProductSort() bson.D {
	field, ok := productSortFields[q.SortBy]
	if !ok {
		field = "created_at"
	}
	return bson.D{{Key: field, Value: int(q.SortDir)}}
}

func (q Query) createdRange() bson.M {
	created := bson.M{}
	if !q.DateFrom.IsZero() {
		created["$gte"] = q.DateFrom
	}
	if !q.DateTo.IsZero() {
		created["$lte"] = q.DateTo
	}
	return created
}

// Matches reports whether an order creation time falls inside the query's
// date range. Kept alongside the filter builder so the in-memory check and
// the store-level expression cannot drift apart.
func (q Query) Matches(createdAt time.Time) bool {
	if !q.DateFrom.IsZero() && createdAt.Before(q.DateFrom) {
		return false
	}
	if !q.DateTo.IsZero() && createdAt.After(q.DateTo) {
		return false
	}
	return true
}
