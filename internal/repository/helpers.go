package repository

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

// ListParams selects one sorted window of a collection.
type ListParams struct {
	SortField string
	Desc      bool
	Skip      int
	Limit     int
}

func (p ListParams) sort() map[string]any {
	dir := 1
	if p.Desc {
		dir = -1
	}
	field := p.SortField
	if field == "" {
		field = "_id"
	}
	return map[string]any{field: dir}
}

// normalizeID converts the _id field from numeric (float64) to string
// since OxiDB returns auto-increment numeric IDs.
func normalizeID(doc map[string]any) {
	if id, ok := doc["_id"]; ok {
		switch v := id.(type) {
		case float64:
			doc["_id"] = fmt.Sprintf("%.0f", v)
		case int:
			doc["_id"] = fmt.Sprintf("%d", v)
		}
	}
}

// extractID gets the inserted document ID from an OxiDB insert response.
func extractID(result map[string]any) string {
	if id, ok := result["id"]; ok {
		switch v := id.(type) {
		case string:
			return v
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// toNumericID converts a string ID to float64 for OxiDB queries.
func toNumericID(id string) any {
	if n, err := strconv.ParseFloat(id, 64); err == nil {
		return n
	}
	return id
}

// toDoc converts a model into an OxiDB document without its id.
func toDoc(v any) map[string]any {
	data, _ := json.Marshal(v)
	var doc map[string]any
	json.Unmarshal(data, &doc)
	delete(doc, "_id")
	delete(doc, "id")
	return doc
}

// fromDoc decodes an OxiDB document into a model whose id field is
// tagged "id".
func fromDoc[T any](doc map[string]any, kind string) (*T, error) {
	normalizeID(doc)
	if id, ok := doc["_id"]; ok {
		doc["id"] = id
		delete(doc, "_id")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal %s doc: %w", kind, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	return &v, nil
}

// decodeAll decodes a page of documents. Documents that do not decode are
// logged and left out of the page.
func decodeAll[T any](docs []map[string]any, kind string) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := fromDoc[T](d, kind)
		if err != nil {
			log.Printf("Warning: skipping %s %v: %v", kind, d["id"], err)
			continue
		}
		out = append(out, *v)
	}
	return out
}
