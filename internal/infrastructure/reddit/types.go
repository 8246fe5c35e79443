package reddit

import (
	"context"
	"encoding/json"

	"commentintel/internal/ports"
)

// thing is the generic kind/data envelope every Reddit payload uses.
type thing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []child `json:"children"`
	} `json:"data"`
}

type child struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID        string `json:"id"`
	Name      string `json:"name"` // fullname (t3_…), needed for morechildren
	Title     string `json:"title"`
	Score     int    `json:"score"`
	Subreddit string `json:"subreddit"`
}

type commentData struct {
	ID      string          `json:"id"`
	Score   int             `json:"score"`
	Body    string          `json:"body"`
	Author  string          `json:"author"`
	Replies json.RawMessage `json:"replies"`
}

type moreData struct {
	Children []string `json:"children"`
}

type moreChildrenResponse struct {
	JSON struct {
		Data struct {
			Things []child `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

type post struct {
	client *Client
	data   postData
}

var _ ports.Post = (*post)(nil)

func (p *post) ID() string    { return p.data.ID }
func (p *post) Score() int    { return p.data.Score }
func (p *post) Title() string { return p.data.Title }

func (p *post) Comments(ctx context.Context) ([]ports.PostComment, error) {
	return p.client.fetchComments(ctx, p.data)
}

type comment struct {
	data commentData
}

var _ ports.PostComment = (*comment)(nil)

func (c *comment) ID() string   { return c.data.ID }
func (c *comment) Score() int   { return c.data.Score }
func (c *comment) Body() string { return c.data.Body }

func (c *comment) Author() (string, bool) {
	if c.data.Author == "" || c.data.Author == "[deleted]" {
		return "", false
	}
	return c.data.Author, true
}
