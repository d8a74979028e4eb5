package record

import (
	"fmt"
	"time"
)

// Sentinels standing in for fields a heuristic could not extract
const (
	NotAvailable   = "N/A"
	PriceOnRequest = "Price on request"
)

// Record is the unit of persisted data. URL is the unique key within a category.
// A nil record of any concrete type has an empty key and a zero timestamp.
type Record interface {
	Key() string
	Scraped() time.Time
}

// Category is one of the four record kinds
type Category string

const (
	CategoryListings Category = "property_listings"
	CategoryProjects Category = "projects"
	CategoryArticles Category = "articles"
	CategoryAgents   Category = "estate_agents"
)

// Categories lists every category in persistence order
var Categories = []Category{CategoryListings, CategoryProjects, CategoryArticles, CategoryAgents}

// FileName is the per-category file written under the json directory
func (c Category) FileName() string {
	return string(c) + ".json"
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts the canonical names plus the short CLI aliases
func ParseCategory(s string) (Category, error) {
	switch s {
	case "property_listings", "listings", "properties":
		return CategoryListings, nil
	case "projects":
		return CategoryProjects, nil
	case "articles":
		return CategoryArticles, nil
	case "estate_agents", "agents":
		return CategoryAgents, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Listing is a property listing extracted from a listing page
type Listing struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Price           string    `json:"price"`
	Location        string    `json:"location"`
	Bedrooms        string    `json:"bedrooms"`
	Bathrooms       string    `json:"bathrooms"`
	Area            string    `json:"area"`
	PropertyType    string    `json:"property_type"`
	TransactionType string    `json:"transaction_type"`
	Images          []string  `json:"images,omitempty"`
	URL             string    `json:"url"`
	ScrapedAt       time.Time `json:"scraped_at"`
}

func (l *Listing) Key() string {
	if l == nil {
		return ""
	}
	return l.URL
}

func (l *Listing) Scraped() time.Time {
	if l == nil {
		return time.Time{}
	}
	return l.ScrapedAt
}

// Project is a real estate development
type Project struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Developer      string    `json:"developer"`
	Location       string    `json:"location"`
	ProjectType    string    `json:"project_type"`
	Units          int       `json:"units"`
	PriceRange     string    `json:"price_range"`
	CompletionDate string    `json:"completion_date"`
	Amenities      []string  `json:"amenities"`
	URL            string    `json:"url"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

func (p *Project) Key() string {
	if p == nil {
		return ""
	}
	return p.URL
}

func (p *Project) Scraped() time.Time {
	if p == nil {
		return time.Time{}
	}
	return p.ScrapedAt
}

// Article is an editorial article about the property market
type Article struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	PublishedDate  string    `json:"published_date"`
	Category       string    `json:"category"`
	ContentPreview string    `json:"content_preview"`
	URL            string    `json:"url"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

func (a *Article) Key() string {
	if a == nil {
		return ""
	}
	return a.URL
}

func (a *Article) Scraped() time.Time {
	if a == nil {
		return time.Time{}
	}
	return a.ScrapedAt
}

// Agent is an estate agent profile
type Agent struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	AgentType     string    `json:"agent_type"`
	Location      string    `json:"location"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	ListingsCount int       `json:"listings_count"`
	Specialties   []string  `json:"specialties"`
	URL           string    `json:"url"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

func (a *Agent) Key() string {
	if a == nil {
		return ""
	}
	return a.URL
}

func (a *Agent) Scraped() time.Time {
	if a == nil {
		return time.Time{}
	}
	return a.ScrapedAt
}

// Listings narrows a record slice to its listings, skipping other kinds
func Listings(records []Record) []*Listing {
	out := make([]*Listing, 0, len(records))
	for _, r := range records {
		if l, ok := r.(*Listing); ok {
			out = append(out, l)
		}
	}
	return out
}

// FromListings widens typed listings to records
func FromListings(listings []*Listing) []Record {
	out := make([]Record, len(listings))
	for i, l := range listings {
		out[i] = l
	}
	return out
}
