// Package stockphoto searches an Unsplash-compatible photo API.
package stockphoto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.unsplash.com"
	DefaultPerPage = 20
	MaxPerPage     = 30
)

var ErrNoAccessKey = errors.New("stock photo access key is not configured")

type (
	Photo struct {
		ID           string `json:"id"`
		ThumbnailURL string `json:"thumbnail_url"`
		FullURL      string `json:"full_url"`
		Description  string `json:"description"`
	}

	Client struct {
		baseURL   string
		accessKey string
		http      *http.Client
	}

	// StatusError is a non-200 answer from the photo API.
	StatusError struct {
		Status int
		Body   string
	}

	searchResponse struct {
		Results []struct {
			ID             string `json:"id"`
			Description    string `json:"description"`
			AltDescription string `json:"alt_description"`
			URLs           struct {
				Small   string `json:"small"`
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("photo search: status %d: %s", e.Status, e.Body)
}

// New returns a client; an empty baseURL selects DefaultBaseURL.
func New(baseURL, accessKey string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), accessKey: accessKey, http: hc}
}

// Search returns up to perPage photos matching query. perPage outside
// 1..MaxPerPage falls back to DefaultPerPage.
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]Photo, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Photo{}, nil
	}
	if c.accessKey == "" {
		return nil, ErrNoAccessKey
	}
	if perPage < 1 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(perPage))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photo search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("photo search: decode: %w", err)
	}
	photos := make([]Photo, 0, len(sr.Results))
	for _, r := range sr.Results {
		desc := r.Description
		if desc == "" {
			desc = r.AltDescription
		}
		photos = append(photos, Photo{
			ID:           r.ID,
			ThumbnailURL: r.URLs.Small,
			FullURL:      r.URLs.Regular,
			Description:  desc,
		})
	}
	return photos, nil
}
