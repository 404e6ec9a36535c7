// Package query turns raw listing parameters into a validated, bounded
// document-store query plan.
package query

import (
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iconidentify/vidshare/internal/domain"
)

// Sort directions.
const (
	Ascending  = 1
	Descending = -1
)

// DefaultSortField is used when no sortBy is given.
const DefaultSortField = "createdAt"

// sortFields is the allow-list of fields listings may be ordered by.
var sortFields = map[string]struct{}{
	"createdAt": {},
	"updatedAt": {},
	"title":     {},
	"duration":  {},
	"views":     {},
}

// SortFields returns the fields listings may be ordered by.
func SortFields() []string {
	return []string{"createdAt", "updatedAt", "title", "duration", "views"}
}

// ListParams are the raw, untrusted listing parameters as received from the
// query string.
type ListParams struct {
	Query    string
	SortBy   string
	SortType string
	UserID   string
	Page     string
	Limit    string
}

// Options bound the page size.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultOptions returns the standard page size bounds.
func DefaultOptions() Options {
	return Options{DefaultLimit: 10, MaxLimit: 100}
}

// Pagination is a resolved page window.
type Pagination struct {
	Page  int
	Limit int
}

// Skip returns the number of records preceding the page.
func (p Pagination) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// ParsePagination resolves raw page and limit values. Missing, malformed or
// non-positive pages become 1; limits fall back to the default and are capped
// at the maximum.
func ParsePagination(page, limit string, o Options) Pagination {
	if o.DefaultLimit < 1 {
		o.DefaultLimit = DefaultOptions().DefaultLimit
	}
	if o.MaxLimit < o.DefaultLimit {
		o.MaxLimit = o.DefaultLimit
	}

	p, err := strconv.Atoi(strings.TrimSpace(page))
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil || l < 1 {
		l = o.DefaultLimit
	}
	if l > o.MaxLimit {
		l = o.MaxLimit
	}
	return Pagination{Page: p, Limit: l}
}

// Plan is a fully resolved listing query.
type Plan struct {
	Pagination
	SortField     string
	SortDirection int
	// Text is the trimmed search text, empty when no text filter applies.
	Text string
	// Owner is set when results are restricted to a single owner.
	Owner *primitive.ObjectID
}

// Build validates params and produces a plan. It returns a
// *domain.ValidationError for a malformed userId, sortBy or sortType; no
// other input is rejected.
func Build(p ListParams, o Options) (*Plan, error) {
	plan := &Plan{
		Pagination:    ParsePagination(p.Page, p.Limit, o),
		SortField:     DefaultSortField,
		SortDirection: Descending,
		Text:          strings.TrimSpace(p.Query),
	}

	if f := strings.TrimSpace(p.SortBy); f != "" {
		if _, ok := sortFields[f]; !ok {
			return nil, &domain.ValidationError{
				Field:   "sortBy",
				Message: "unsupported sort field " + strconv.Quote(f),
				Details: []string{"allowed: " + strings.Join(SortFields(), ", ")},
			}
		}
		plan.SortField = f
	}

	dir, err := ParseSortDirection(p.SortType)
	if err != nil {
		return nil, err
	}
	plan.SortDirection = dir

	if id := strings.TrimSpace(p.UserID); id != "" {
		oid, err := ParseID("userId", id)
		if err != nil {
			return nil, err
		}
		plan.Owner = &oid
	}

	return plan, nil
}

// ParseSortDirection maps asc/desc spellings onto 1/-1. Empty means
// descending.
func ParseSortDirection(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descending", "-1":
		return Descending, nil
	case "asc", "ascending", "1":
		return Ascending, nil
	}
	return 0, domain.NewValidationError("sortType", "must be asc or desc")
}

// ParseID parses a hex object id, reporting failures against field.
func ParseID(field, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, domain.NewValidationError(field, "invalid id "+strconv.Quote(id))
	}
	return oid, nil
}

// Filter returns the match document: published, then the optional text
// clause, then the optional owner equality, joined by $and.
func (p *Plan) Filter() bson.D {
	clauses := bson.A{bson.D{{Key: "isPublished", Value: true}}}
	if p.Text != "" {
		re := TextPattern(p.Text)
		clauses = append(clauses, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}}})
	}
	if p.Owner != nil {
		clauses = append(clauses, bson.D{{Key: "owner", Value: *p.Owner}})
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

// Sort returns the sort document with _id as a tiebreaker so page windows
// stay stable across equal keys.
func (p *Plan) Sort() bson.D {
	return bson.D{
		{Key: p.SortField, Value: p.SortDirection},
		{Key: "_id", Value: p.SortDirection},
	}
}

// Pipeline returns the aggregation for one page of results with owners
// joined from usersCollection.
func (p *Plan) Pipeline(usersCollection string) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: p.Filter()}},
		{{Key: "$sort", Value: p.Sort()}},
		{{Key: "$skip", Value: p.Skip()}},
		{{Key: "$limit", Value: int64(p.Limit)}},
	}
	return append(pipeline, OwnerLookup(usersCollection, "owner")...)
}

// OwnerLookup returns the stages joining the public owner profile referenced
// by localField into an ownerDetails field.
func OwnerLookup(usersCollection, localField string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "ownerDetails"},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "_id", Value: 1},
					{Key: "username", Value: 1},
					{Key: "fullName", Value: 1},
					{Key: "avatar", Value: 1},
				}}},
			}},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "ownerDetails", Value: bson.D{{Key: "$first", Value: "$ownerDetails"}}},
		}}},
	}
}

// TextPattern returns a case-insensitive regex matching text literally.
func TextPattern(text string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
}
