package directory

import "time"

const (
	// DefaultURL lists mainnet accounts tagged memo-required.
	DefaultURL = "https://api.stellar.expert/explorer/directory?sort=address&tag[]=memo-required&order=asc&limit=200"
	DefaultKey = "memo_required_accounts"
	DefaultTTL = 7 * 24 * time.Hour

	MemoRequiredTag = "memo-required"
)

type Link struct {
	Href string `json:"href"`
}

type Links struct {
	Self Link `json:"self"`
	Prev Link `json:"prev"`
	Next Link `json:"next"`
}

type Record struct {
	Address string   `json:"address"`
	Domain  string   `json:"domain,omitempty"`
	Name    string   `json:"name,omitempty"`
	Tags    []string `json:"tags"`
}

func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Embedded struct {
	Records []Record `json:"records"`
}

// Response is one page of the directory API.
type Response struct {
	Links    Links    `json:"_links"`
	Embedded Embedded `json:"_embedded"`
}
