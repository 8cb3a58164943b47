package notion

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Schema names the workspace properties the mirror reads and writes.
// A property whose name is empty is neither read nor written.
type Schema struct {
	Book           BookSchema    `yaml:"book"`
	Session        SessionSchema `yaml:"session"`
	DirectoryTitle string        `yaml:"directory_title"`
}

// BookSchema names the properties of the book database.
type BookSchema struct {
	Title         string `yaml:"title"`
	BookID        string `yaml:"book_id"`
	ISBN          string `yaml:"isbn"`
	Link          string `yaml:"link"`
	Authors       string `yaml:"authors"`
	Categories    string `yaml:"categories"`
	Publisher     string `yaml:"publisher"`
	Intro         string `yaml:"intro"`
	Shelf         string `yaml:"shelf"`
	Status        string `yaml:"status"`
	Progress      string `yaml:"progress"`
	ReadingTime   string `yaml:"reading_time"`
	ReadingDays   string `yaml:"reading_days"`
	Rating        string `yaml:"rating"`
	MyRating      string `yaml:"my_rating"`
	Cover         string `yaml:"cover"`
	Date          string `yaml:"date"`
	ReadingWindow string `yaml:"reading_window"`
	CatalogURL    string `yaml:"catalog_url"`
	Archived      string `yaml:"archived"`
	Year          string `yaml:"year"`
	Month         string `yaml:"month"`
}

// SessionSchema names the properties of the reading-session database.
type SessionSchema struct {
	Title     string `yaml:"title"`
	Date      string `yaml:"date"`
	Duration  string `yaml:"duration"`
	Timestamp string `yaml:"timestamp"`
	Book      string `yaml:"book"`
}

func DefaultSchema() Schema {
	return Schema{
		Book: BookSchema{
			Title:         "Title",
			BookID:        "Book ID",
			ISBN:          "ISBN",
			Link:          "WeRead Link",
			Authors:       "Authors",
			Categories:    "Categories",
			Publisher:     "Publisher",
			Intro:         "Introduction",
			Shelf:         "Shelf",
			Status:        "Status",
			Progress:      "Progress",
			ReadingTime:   "Reading Time",
			ReadingDays:   "Reading Days",
			Rating:        "Rating",
			MyRating:      "My Rating",
			Cover:         "Cover",
			Date:          "Date",
			ReadingWindow: "Reading Window",
			CatalogURL:    "Douban Link",
			Archived:      "Archived",
			Year:          "Year",
			Month:         "Month",
		},
		Session: SessionSchema{
			Title:     "Title",
			Date:      "Date",
			Duration:  "Duration",
			Timestamp: "Timestamp",
			Book:      "Book",
		},
		DirectoryTitle: "Name",
	}
}

// LoadSchema reads property-name overrides from a YAML file on top of the
// defaults. An empty path returns the defaults.
func LoadSchema(path string) (Schema, error) {
	schema := DefaultSchema()
	if path == "" {
		return schema, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return schema, fmt.Errorf("read schema file: %w", err)
	}
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return schema, fmt.Errorf("parse schema file %s: %w", path, err)
	}
	if schema.Book.BookID == "" || schema.Session.Timestamp == "" || schema.Session.Book == "" {
		return schema, fmt.Errorf("schema file %s: book_id, session timestamp and session book are required", path)
	}
	return schema, nil
}
