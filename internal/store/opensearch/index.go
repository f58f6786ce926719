// Package opensearch implements the search index sink.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/numline-systems/numline-ingest/internal/models"
)

// Config holds OpenSearch connection settings.
type Config struct {
	URL      string
	Username string
	Password string
	Insecure bool
	Index    string
}

// Index upserts search documents keyed by E164 number. Indexing with an
// explicit document ID makes the write idempotent: replaying an event
// overwrites the document in place instead of duplicating it.
type Index struct {
	client *opensearch.Client
	index  string
}

// New creates an OpenSearch client and verifies connectivity.
func New(cfg Config) (*Index, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	osCfg := opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	return &Index{client: client, index: cfg.Index}, nil
}

func (i *Index) Upsert(ctx context.Context, doc models.SearchDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc.E164Number, err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(doc.E164Number),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.E164Number, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("opensearch error indexing %s: %s - %s", doc.E164Number, res.Status(), string(msg))
	}

	return nil
}

// Ping reports whether the index is reachable.
func (i *Index) Ping(ctx context.Context) error {
	res, err := i.client.Info(i.client.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch returned error: %s", res.Status())
	}
	return nil
}
