package model

import "time"

// Posting is one row of the scraped postings table. The scraper appends a row
// per scrape run, so a (title, company) pair usually has many rows.
type Posting struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Company   string    `db:"company"`
	ApplyLink string    `db:"apply_link"`
	CreatedAt time.Time `db:"created_at"`
}

// FeedPage is one page of canonical jobs plus the metadata computed for it
type FeedPage struct {
	Jobs             []Posting
	TotalJobs        int
	LatestScrapeDate *time.Time
	CurrentPage      int
	PageSize         int
	TotalPages       int
}
