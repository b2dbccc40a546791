package entity

type SemanticSearchRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	TopK       int    `json:"top_k"`
}

type SemanticSearchResponse struct {
	Results []SearchResult `json:"results"`
	Query   string         `json:"query"`
}
