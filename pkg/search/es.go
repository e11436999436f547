// Package search keeps courses and topics in Elasticsearch and queries them.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
)

const (
	CoursesIndex = "courses"
	TopicsIndex  = "topics"
)

// Indexer is what the course and topic handlers need from the index.
type Indexer interface {
	IndexCourse(ctx context.Context, c models.Course) error
	DeleteCourse(ctx context.Context, id int) error
	IndexTopic(ctx context.Context, t models.Topic) error
	SearchCourses(ctx context.Context, q string, deep bool) ([]models.Course, error)
	SearchTopics(ctx context.Context, courseID int, q string, deep bool) ([]models.Topic, error)
}

type Client struct {
	es  *elasticsearch.Client
	log *logger.Logger
}

func New(es *elasticsearch.Client, log *logger.Logger) *Client {
	return &Client{es: es, log: log.With("component", "search")}
}

func (c *Client) IndexCourse(ctx context.Context, course models.Course) error {
	return c.index(ctx, CoursesIndex, course.Key(), course)
}

func (c *Client) DeleteCourse(ctx context.Context, id int) error {
	res, err := c.es.Delete(CoursesIndex, fmt.Sprint(id),
		c.es.Delete.WithContext(ctx),
		c.es.Delete.WithRefresh("true"),
	)
	if err != nil {
		return apierr.Network(fmt.Errorf("delete course %d from index: %w", id, err))
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return apierr.Network(fmt.Errorf("delete course %d from index: %s", id, res.String()))
	}
	return nil
}

func (c *Client) IndexTopic(ctx context.Context, t models.Topic) error {
	return c.index(ctx, TopicsIndex, TopicDocID(t.CourseID, t.OrderIndex), t)
}

// TopicDocID keys a topic by course and order index.
func TopicDocID(courseID, orderIndex int) string {
	return fmt.Sprintf("%d-%d", courseID, orderIndex)
}

func (c *Client) index(ctx context.Context, index, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", index, id, err)
	}
	res, err := c.es.Index(index, bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
		c.es.Index.WithRefresh("true"),
	)
	if err != nil {
		return apierr.Network(fmt.Errorf("index %s/%s: %w", index, id, err))
	}
	defer res.Body.Close()
	if res.IsError() {
		return apierr.Network(fmt.Errorf("index %s/%s: %s", index, id, res.String()))
	}
	return nil
}

// SearchCourses matches title and code; deep also looks at description and
// instructor.
func (c *Client) SearchCourses(ctx context.Context, q string, deep bool) ([]models.Course, error) {
	fields := []string{"title", "courseCode"}
	if deep {
		fields = append(fields, "description", "instructor")
	}
	var out []models.Course
	err := c.search(ctx, CoursesIndex, query(q, fields, nil), &out)
	return out, err
}

func (c *Client) SearchTopics(ctx context.Context, courseID int, q string, deep bool) ([]models.Topic, error) {
	fields := []string{"name"}
	if deep {
		fields = append(fields, "description", "tags", "categories")
	}
	must := map[string]any{"term": map[string]any{"courseId": courseID}}
	var out []models.Topic
	err := c.search(ctx, TopicsIndex, query(q, fields, must), &out)
	return out, err
}

func query(q string, fields []string, must map[string]any) map[string]any {
	q = strings.TrimSpace(q)
	should := make([]any, 0, len(fields))
	for _, f := range fields {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				f: map[string]any{
					"value":            "*" + q + "*",
					"case_insensitive": true,
				},
			},
		})
	}
	match := map[string]any{"bool": map[string]any{"should": should, "minimum_should_match": 1}}
	if must == nil {
		return map[string]any{"query": match}
	}
	return map[string]any{"query": map[string]any{"bool": map[string]any{"must": []any{must, match}}}}
}

type hitsResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Client) search(ctx context.Context, index string, body map[string]any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("encode query: %w", err)
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return apierr.Network(fmt.Errorf("search %s: %w", index, err))
	}
	defer res.Body.Close()
	return decodeHits(res, index, out)
}

func decodeHits(res *esapi.Response, index string, out any) error {
	if res.IsError() {
		if res.StatusCode == 404 {
			return decodeSources(nil, out)
		}
		return apierr.Network(fmt.Errorf("search %s: %s", index, res.String()))
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return apierr.Network(fmt.Errorf("read %s hits: %w", index, err))
	}
	var r hitsResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return fmt.Errorf("decode %s hits: %w", index, err)
	}
	sources := make([]json.RawMessage, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		sources = append(sources, h.Source)
	}
	return decodeSources(sources, out)
}

func decodeSources(sources []json.RawMessage, out any) error {
	if sources == nil {
		sources = []json.RawMessage{}
	}
	joined, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	return json.Unmarshal(joined, out)
}

// Nop is used when no cluster is configured. Searches return nothing.
type Nop struct{}

func (Nop) IndexCourse(context.Context, models.Course) error { return nil }
func (Nop) DeleteCourse(context.Context, int) error          { return nil }
func (Nop) IndexTopic(context.Context, models.Topic) error   { return nil }
func (Nop) SearchCourses(context.Context, string, bool) ([]models.Course, error) {
	return []models.Course{}, nil
}
func (Nop) SearchTopics(context.Context, int, string, bool) ([]models.Topic, error) {
	return []models.Topic{}, nil
}
