package es

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pixgate/internal/client"
	"pixgate/internal/model"
	"pixgate/internal/util"
)

// UserIndex mirrors user records into Elasticsearch for backoffice search.
// Scylla remains the source of truth; the index is eventually consistent.
type UserIndex struct {
	client *client.ESClient
	index  string
}

func NewUserIndex(client *client.ESClient, index string) *UserIndex {
	return &UserIndex{
		client: client,
		index:  index,
	}
}

type userDocument struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// IndexUser writes or overwrites the search document for a user.
func (i *UserIndex) IndexUser(ctx context.Context, user *model.User) error {
	doc := userDocument{
		UserID:    user.UserID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}

	res, err := i.client.IndexDocument(ctx, i.index, user.UserID, doc)
	if err != nil {
		util.Error("Failed to index user",
			util.String("user_id", user.UserID),
			util.ErrorField(err))
		return fmt.Errorf("failed to index user: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index user: %s", res.String())
	}
	return nil
}

// SearchResult is one matching user from the index.
type SearchResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// SearchUsers runs a free-text query across email and name.
func (i *UserIndex) SearchUsers(ctx context.Context, text string, limit int) ([]*SearchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"email^2", "name"},
				"type":   "best_fields",
			},
		},
	}

	res, err := i.client.Search(ctx, i.index, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("failed to search users: %s", res.String())
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Source SearchResult `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]*SearchResult, 0, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		result := hit.Source
		results = append(results, &result)
	}
	return results, nil
}
