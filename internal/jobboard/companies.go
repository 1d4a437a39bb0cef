package jobboard

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const companiesPath = "/companies/"

type Company struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Size        string `json:"size,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

func (c *Client) Company(ctx context.Context, id string) (*Company, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("company id is required")
	}

	var company Company
	if err := c.getJSON(ctx, fmt.Sprintf("%s%s/", companiesPath, url.PathEscape(id)), nil, &company); err != nil {
		return nil, err
	}

	return &company, nil
}
